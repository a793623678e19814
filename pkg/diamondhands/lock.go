package diamondhands

import (
	"bytes"
	"context"
	"math"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/diamondhands/pkg/metrics"
	"github.com/code-payments/diamondhands/pkg/pointer"
	"github.com/code-payments/diamondhands/pkg/solana"
	diamondhands_program "github.com/code-payments/diamondhands/pkg/solana/diamondhands"
	"github.com/code-payments/diamondhands/pkg/solana/token"
)

const (
	lockCreatedEventName = "DiamondHandsLockCreated"

	secondsPerDay = 86400
)

// LockOptions controls CreateLockRecord. A nil *LockOptions uses every
// default.
type LockOptions struct {
	// UnlockDate, when set, is used as the unlock time and DaysToLock is
	// ignored.
	UnlockDate time.Time

	// DaysToLock is added to the current time plus the configured unlock
	// buffer. Defaults to DIAMONDHANDS_DEFAULT_LOCK_DAYS (100).
	DaysToLock *uint64

	// Amount defaults to the full balance of the source token account.
	Amount *uint64
}

type lockParams struct {
	unlockTimestamp int64
	amount          uint64
}

func (s *Session) resolveLockOptions(ctx context.Context, source *TokenAccount, opts *LockOptions) (*lockParams, error) {
	if opts == nil {
		opts = &LockOptions{}
	}

	params := &lockParams{
		amount: pointer.Uint64OrDefault(opts.Amount, source.Amount),
	}

	if !opts.UnlockDate.IsZero() {
		params.unlockTimestamp = opts.UnlockDate.Unix()
	} else {
		days := pointer.Uint64OrDefault(opts.DaysToLock, s.conf.defaultLockDays.Get(ctx))
		if days > math.MaxInt64/secondsPerDay/2 {
			return nil, errors.Wrapf(ErrInvalidOptions, "days to lock too large: %d", days)
		}

		unlock := s.now().Add(s.conf.unlockBuffer.Get(ctx))
		params.unlockTimestamp = unlock.Unix() + int64(days)*secondsPerDay
	}

	if params.unlockTimestamp < 0 {
		return nil, errors.Wrapf(ErrInvalidOptions, "unlock timestamp before epoch: %d", params.unlockTimestamp)
	}

	return params, nil
}

// CreateLockRecord moves tokens from source into a newly created lock record
// owned by the signer, creating the vault first if needed. The signer pays
// for the transaction and must own source.
//
// No duplicate check is made. If a record already exists for the signer and
// mint, the ledger rejects the transaction and a *ProgramRejection is
// returned.
func (s *Session) CreateLockRecord(ctx context.Context, signer Signer, source *TokenAccount, opts *LockOptions) (*LockRecord, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CreateLockRecord")
	defer tracer.End()

	if source != nil {
		tracer.AddKeyAttribute("mint", source.Mint)
		tracer.AddKeyAttribute("source", source.Address)
	}

	record, err := s.createLockRecord(ctx, signer, source, opts)
	tracer.OnError(err)
	return record, err
}

func (s *Session) createLockRecord(ctx context.Context, signer Signer, source *TokenAccount, opts *LockOptions) (*LockRecord, error) {
	if signer == nil || source == nil {
		return nil, errors.New("signer and source are required")
	}

	owner := signer.PublicKey()
	if !bytes.Equal(owner, source.Owner) {
		return nil, ErrOwnerMismatch
	}

	log := s.log.WithFields(logrus.Fields{
		"method": "CreateLockRecord",
		"owner":  base58.Encode(owner),
		"mint":   base58.Encode(source.Mint),
	})

	recordAddress, recordNonce, err := s.DeriveRecordAddress(owner, source.Mint)
	if err != nil {
		return nil, err
	}
	log = log.WithField("record", base58.Encode(recordAddress))

	vaultAuthority, vaultAuthorityNonce, err := s.DeriveVaultAuthority(recordAddress)
	if err != nil {
		return nil, err
	}

	vault, err := s.ResolveVault(ctx, source.Mint, vaultAuthority)
	if err != nil {
		return nil, err
	}

	params, err := s.resolveLockOptions(ctx, source, opts)
	if err != nil {
		return nil, err
	}

	var instructions []solana.Instruction
	if !vault.Exists {
		createVault, _, err := token.CreateAssociatedTokenAccount(owner, vaultAuthority, source.Mint)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build vault creation instruction")
		}
		instructions = append(instructions, createVault)
	}

	createRecord := diamondhands_program.NewCreateInstruction(
		&diamondhands_program.CreateInstructionAccounts{
			DiamondHands: recordAddress,
			Gatekeeper:   vaultAuthority,
			Vault:        vault.Address,
			OwnerVault:   source.Address,
			Owner:        source.Owner,
		},
		&diamondhands_program.CreateInstructionArgs{
			DiamondHandsNonce: recordNonce,
			Nonce:             vaultAuthorityNonce,
			DateToUnfreeze:    uint64(params.unlockTimestamp),
			Amount:            params.amount,
		},
	)
	createRecord.Program = s.program
	instructions = append(instructions, createRecord.ToLegacyInstruction())

	sig, err := s.submit(ctx, []Signer{signer}, instructions...)
	if err != nil {
		log.WithError(err).Info("failed to create lock record")
		return nil, err
	}

	record, err := s.ResolveRecord(ctx, ByAddress(recordAddress), true)
	if err != nil {
		log.WithError(err).Warn("failed to fetch created lock record")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"signature": base58.Encode(sig[:]),
		"amount":    params.amount,
		"unlock":    params.unlockTimestamp,
	}).Info("lock record created")

	metrics.RecordEvent(ctx, lockCreatedEventName, map[string]interface{}{
		"owner":            base58.Encode(owner),
		"mint":             base58.Encode(source.Mint),
		"record":           base58.Encode(recordAddress),
		"amount":           params.amount,
		"unlock_timestamp": params.unlockTimestamp,
		"vault_created":    !vault.Exists,
	})

	return record, nil
}
