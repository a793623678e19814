package diamondhands

import (
	"bytes"
	"context"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/diamondhands/pkg/metrics"
	"github.com/code-payments/diamondhands/pkg/pointer"
	"github.com/code-payments/diamondhands/pkg/solana"
	diamondhands_program "github.com/code-payments/diamondhands/pkg/solana/diamondhands"
)

const lockReleasedEventName = "DiamondHandsLockReleased"

// ReleaseOptions controls ReleaseLock. A nil *ReleaseOptions releases the
// full vault balance.
type ReleaseOptions struct {
	// Amount defaults to the vault's current balance. The record is only
	// marked released when the full balance is moved out.
	Amount *uint64
}

// ReleaseLock moves tokens from the record's vault into destination. The
// signer pays for the transaction and must own destination, which must be
// the record owner's account for the same mint.
//
// A snapshot reference is used as-is. The vault balance is always fetched
// live. Releasing before the unlock time yields a *ProgramRejection with
// code ErrorStillFrozen.
func (s *Session) ReleaseLock(ctx context.Context, signer Signer, ref RecordRef, destination *TokenAccount, opts *ReleaseOptions) (*LockRecord, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ReleaseLock")
	defer tracer.End()

	tracer.AddKeyAttribute("record", ref.Address())

	record, err := s.releaseLock(ctx, signer, ref, destination, opts)
	tracer.OnError(err)
	return record, err
}

func (s *Session) releaseLock(ctx context.Context, signer Signer, ref RecordRef, destination *TokenAccount, opts *ReleaseOptions) (*LockRecord, error) {
	if signer == nil || destination == nil {
		return nil, errors.New("signer and destination are required")
	}
	if opts == nil {
		opts = &ReleaseOptions{}
	}

	if !bytes.Equal(signer.PublicKey(), destination.Owner) {
		return nil, ErrOwnerMismatch
	}

	record, err := s.ResolveRecord(ctx, ref, false)
	if err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{
		"method": "ReleaseLock",
		"owner":  base58.Encode(destination.Owner),
		"record": base58.Encode(record.RecordAddress),
	})

	balance, _, err := s.sc.GetTokenAccountBalance(record.Vault, s.commitment(ctx))
	if err == solana.ErrNoBalance {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, newTransportError("get vault balance", err)
	}

	amount := pointer.Uint64OrDefault(opts.Amount, balance)

	release := diamondhands_program.NewUnfreezeInstruction(
		&diamondhands_program.UnfreezeInstructionAccounts{
			DiamondHands: record.RecordAddress,
			Gatekeeper:   record.VaultAuthority,
			Vault:        record.Vault,
			OwnerVault:   destination.Address,
			Owner:        destination.Owner,
		},
		&diamondhands_program.UnfreezeInstructionArgs{
			Amount: amount,
		},
	)
	release.Program = s.program

	sig, err := s.submit(ctx, []Signer{signer}, release.ToLegacyInstruction())
	if err != nil {
		log.WithError(err).Info("failed to release lock")
		return nil, err
	}

	refreshed, err := s.ResolveRecord(ctx, BySnapshot(record), true)
	if err != nil {
		log.WithError(err).Warn("failed to fetch released lock record")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"signature": base58.Encode(sig[:]),
		"amount":    amount,
		"released":  refreshed.Released,
	}).Info("lock released")

	metrics.RecordEvent(ctx, lockReleasedEventName, map[string]interface{}{
		"owner":    base58.Encode(destination.Owner),
		"record":   base58.Encode(record.RecordAddress),
		"amount":   amount,
		"released": refreshed.Released,
	})

	return refreshed, nil
}
