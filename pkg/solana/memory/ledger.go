package memory

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/diamondhands/pkg/solana"
	diamondhands_program "github.com/code-payments/diamondhands/pkg/solana/diamondhands"
	"github.com/code-payments/diamondhands/pkg/solana/system"
	"github.com/code-payments/diamondhands/pkg/solana/token"
)

const (
	// LamportsPerSignature is the flat fee charged to the payer per signature.
	LamportsPerSignature = 5000

	// Reference: https://github.com/solana-labs/solana/blob/7700cb3128c1f19820de67b81aa45d18f73d2ac0/sdk/program/src/rent.rs#L30-L42
	lamportsPerByteYear    = 3480
	exemptionThreshold     = 2
	accountStorageOverhead = 128

	maxRecentBlockhashes = 150
)

type account struct {
	lamports   uint64
	owner      ed25519.PublicKey
	data       []byte
	executable bool
}

func (a *account) clone() *account {
	cloned := *a
	cloned.owner = append(ed25519.PublicKey{}, a.owner...)
	cloned.data = append([]byte{}, a.data...)
	return &cloned
}

// Ledger is an in-memory solana.Client that executes the system, token,
// associated token account and DiamondHands programs against a local account
// set. Transactions are applied atomically and are final once submitted.
type Ledger struct {
	log *logrus.Entry

	mu          sync.Mutex
	accounts    map[string]*account
	statuses    map[solana.Signature]*solana.SignatureStatus
	blockhashes []solana.Blockhash
	slot        uint64
	now         time.Time

	program         ed25519.PublicKey
	minLockDuration time.Duration
}

var _ solana.Client = (*Ledger)(nil)

type Option func(*Ledger)

// WithProgram sets the address the DiamondHands program is deployed at.
func WithProgram(program ed25519.PublicKey) Option {
	return func(l *Ledger) {
		l.program = program
	}
}

// WithMinLockDuration overrides the shortest lock the DiamondHands program
// accepts.
func WithMinLockDuration(d time.Duration) Option {
	return func(l *Ledger) {
		l.minLockDuration = d
	}
}

// WithTime sets the initial ledger clock.
func WithTime(t time.Time) Option {
	return func(l *Ledger) {
		l.now = t.Truncate(time.Second)
	}
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		log:             logrus.StandardLogger().WithField("type", "solana/memory"),
		accounts:        make(map[string]*account),
		statuses:        make(map[solana.Signature]*solana.SignatureStatus),
		now:             time.Now().Truncate(time.Second),
		program:         diamondhands_program.PROGRAM_ID,
		minLockDuration: diamondhands_program.MinLockDuration,
	}

	for _, o := range opts {
		o(l)
	}

	l.advanceBlockhash()
	return l
}

// Now returns the ledger clock.
func (l *Ledger) Now() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// Advance moves the ledger clock forward.
func (l *Ledger) Advance(d time.Duration) {
	l.mu.Lock()
	l.now = l.now.Add(d)
	l.mu.Unlock()
}

// Program returns the address of the DiamondHands program.
func (l *Ledger) Program() ed25519.PublicKey {
	return l.program
}

func (l *Ledger) GetAccountInfo(address ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[string(address)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}

	return solana.AccountInfo{
		Data:       append([]byte{}, a.data...),
		Owner:      append(ed25519.PublicKey{}, a.owner...),
		Lamports:   a.lamports,
		Executable: a.executable,
	}, nil
}

func (l *Ledger) GetBalance(address ed25519.PublicKey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[string(address)]
	if !ok {
		return 0, nil
	}
	return a.lamports, nil
}

func (l *Ledger) GetLatestBlockhash() (solana.Blockhash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.blockhashes[len(l.blockhashes)-1], nil
}

func (l *Ledger) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	return rentExemptBalance(size), nil
}

func (l *Ledger) GetSignatureStatus(sig solana.Signature, _ solana.Commitment) (*solana.SignatureStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	status, ok := l.statuses[sig]
	if !ok {
		return nil, solana.ErrSignatureNotFound
	}

	cloned := *status
	return &cloned, nil
}

func (l *Ledger) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	statuses := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		if status, ok := l.statuses[sig]; ok {
			cloned := *status
			statuses[i] = &cloned
		}
	}
	return statuses, nil
}

func (l *Ledger) GetSlot(_ solana.Commitment) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.slot, nil
}

func (l *Ledger) GetTokenAccountBalance(address ed25519.PublicKey, _ solana.Commitment) (uint64, uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[string(address)]
	if !ok {
		return 0, 0, solana.ErrNoBalance
	}

	tokenAccount, err := unmarshalTokenAccount(a)
	if err != nil {
		return 0, 0, solana.ErrNoBalance
	}

	return tokenAccount.Amount, l.slot, nil
}

func (l *Ledger) RequestAirdrop(address ed25519.PublicKey, lamports uint64, _ solana.Commitment) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sig solana.Signature
	if _, err := rand.Read(sig[:]); err != nil {
		return sig, errors.Wrap(err, "failed to generate airdrop signature")
	}

	l.fund(address, lamports)
	l.finalize(sig, nil)

	return sig, nil
}

// SubmitTransaction executes the transaction immediately. As with a node
// that skips preflight, an instruction failure is reported through the
// signature status rather than the returned error, while malformed or
// unfunded transactions are rejected outright.
func (l *Ledger) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sig solana.Signature
	if len(txn.Signatures) > 0 {
		sig = txn.Signatures[0]
	}

	log := l.log.WithFields(logrus.Fields{
		"method":    "SubmitTransaction",
		"signature": base58.Encode(sig[:]),
	})

	if err := txn.Verify(); err != nil {
		log.WithError(err).Debug("signature verification failed")
		return sig, solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
	}
	if _, ok := l.statuses[sig]; ok {
		return sig, solana.NewTransactionError(solana.TransactionErrorDuplicateSignature)
	}
	if !l.isRecentBlockhash(txn.Message.RecentBlockhash) {
		return sig, solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}
	if err := l.validateIndexes(txn.Message); err != nil {
		log.WithError(err).Debug("invalid account index")
		return sig, solana.NewTransactionError(solana.TransactionErrorInvalidAccountIndex)
	}

	payer := txn.Message.Accounts[0]
	fee := uint64(len(txn.Signatures)) * LamportsPerSignature
	payerAccount, ok := l.accounts[string(payer)]
	if !ok {
		return sig, solana.NewTransactionError(solana.TransactionErrorAccountNotFound)
	}
	if payerAccount.lamports < fee {
		return sig, solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	}

	payerAccount.lamports -= fee

	rt := newRuntime(l, txn)
	if err := rt.execute(); err != nil {
		txErr, convErr := solana.TransactionErrorFromInstructionError(err)
		if convErr != nil {
			return sig, errors.Wrap(convErr, "failed to convert instruction error")
		}

		log.WithError(txErr).Debug("transaction failed")
		l.finalize(sig, txErr)
		return sig, nil
	}

	for key, a := range rt.accounts {
		l.accounts[key] = a
	}
	l.finalize(sig, nil)

	return sig, nil
}

func (l *Ledger) fund(address ed25519.PublicKey, lamports uint64) {
	a, ok := l.accounts[string(address)]
	if !ok {
		a = &account{
			owner: system.SystemAccount,
		}
		l.accounts[string(address)] = a
	}
	a.lamports += lamports
}

func (l *Ledger) finalize(sig solana.Signature, txErr *solana.TransactionError) {
	l.slot++
	l.statuses[sig] = &solana.SignatureStatus{
		Slot:               l.slot,
		ErrorResult:        txErr,
		ConfirmationStatus: "finalized",
	}
	l.advanceBlockhash()
}

func (l *Ledger) advanceBlockhash() {
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], l.slot)

	var parent solana.Blockhash
	if len(l.blockhashes) > 0 {
		parent = l.blockhashes[len(l.blockhashes)-1]
	}

	next := solana.Blockhash(sha256.Sum256(append(parent[:], seed[:]...)))
	l.blockhashes = append(l.blockhashes, next)
	if len(l.blockhashes) > maxRecentBlockhashes {
		l.blockhashes = l.blockhashes[1:]
	}
}

func (l *Ledger) isRecentBlockhash(hash solana.Blockhash) bool {
	for _, recent := range l.blockhashes {
		if recent == hash {
			return true
		}
	}
	return false
}

func (l *Ledger) validateIndexes(m solana.Message) error {
	if len(m.Accounts) == 0 {
		return errors.New("no accounts")
	}

	for i, instruction := range m.Instructions {
		if int(instruction.ProgramIndex) >= len(m.Accounts) {
			return errors.Errorf("instruction %d: program index out of range", i)
		}
		for _, index := range instruction.Accounts {
			if int(index) >= len(m.Accounts) {
				return errors.Errorf("instruction %d: account index out of range", i)
			}
		}
	}

	return nil
}

func rentExemptBalance(size uint64) uint64 {
	return (size + accountStorageOverhead) * lamportsPerByteYear * exemptionThreshold
}

func unmarshalTokenAccount(a *account) (*token.Account, error) {
	if !a.owner.Equal(token.ProgramKey) {
		return nil, token.ErrInvalidTokenAccount
	}

	var tokenAccount token.Account
	if !tokenAccount.Unmarshal(a.data) || tokenAccount.State == token.AccountStateUninitialized {
		return nil, token.ErrInvalidTokenAccount
	}
	return &tokenAccount, nil
}

func unmarshalMint(a *account) (*token.Mint, error) {
	if !a.owner.Equal(token.ProgramKey) {
		return nil, token.ErrInvalidMint
	}

	var mint token.Mint
	if !mint.Unmarshal(a.data) || !mint.IsInitialized {
		return nil, token.ErrInvalidMint
	}
	return &mint, nil
}
