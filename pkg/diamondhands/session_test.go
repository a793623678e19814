package diamondhands

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/diamondhands/pkg/pointer"
	"github.com/code-payments/diamondhands/pkg/solana"
	diamondhands_program "github.com/code-payments/diamondhands/pkg/solana/diamondhands"
	"github.com/code-payments/diamondhands/pkg/solana/memory"
	"github.com/code-payments/diamondhands/pkg/solana/system"
	"github.com/code-payments/diamondhands/pkg/solana/token"
	"github.com/code-payments/diamondhands/pkg/testutil"
)

type testEnv struct {
	ctx     context.Context
	ledger  *memory.Ledger
	session *Session
	owner   Signer
	mint    ed25519.PublicKey
	source  ed25519.PublicKey
}

func setup(t *testing.T, ledgerOpts ...memory.Option) *testEnv {
	ledger := memory.New(ledgerOpts...)

	env := &testEnv{
		ctx:    context.Background(),
		ledger: ledger,
		session: NewSession(
			ledger,
			WithProgram(ledger.Program()),
			WithClock(ledger.Now),
			WithConfig(WithOverrides(&ConfigOverrides{})),
		),
		owner: NewKeypairSigner(testutil.NewFundedKeypair(t, ledger)),
	}
	env.mint, env.source = testutil.SetupTokenAccount(t, ledger, env.owner.PublicKey(), 100)
	return env
}

// setupShortLocks allows locks shorter than the program minimum, so that
// records created with zero days can be released after the unlock buffer.
func setupShortLocks(t *testing.T) *testEnv {
	return setup(t, memory.WithMinLockDuration(0))
}

func (e *testEnv) tokenAccount(t *testing.T, address ed25519.PublicKey) *TokenAccount {
	account, err := e.session.GetTokenAccount(e.ctx, address)
	require.NoError(t, err)
	return account
}

func (e *testEnv) balance(t *testing.T, address ed25519.PublicKey) uint64 {
	return e.tokenAccount(t, address).Amount
}

func (e *testEnv) lock(t *testing.T, opts *LockOptions) *LockRecord {
	record, err := e.session.CreateLockRecord(e.ctx, e.owner, e.tokenAccount(t, e.source), opts)
	require.NoError(t, err)
	return record
}

func TestDeriveRecordAddress(t *testing.T) {
	s := NewSession(memory.New(), WithConfig(WithOverrides(&ConfigOverrides{})))
	keys := testutil.GenerateSolanaKeys(t, 4)
	owner1, owner2, mint1, mint2 := keys[0], keys[1], keys[2], keys[3]

	address, nonce, err := s.DeriveRecordAddress(owner1, mint1)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, againNonce, err := s.DeriveRecordAddress(owner1, mint1)
		require.NoError(t, err)
		assert.Equal(t, address, again)
		assert.Equal(t, nonce, againNonce)
	}

	expected, expectedNonce, err := solana.FindProgramAddressAndBump(diamondhands_program.PROGRAM_ID, owner1, mint1)
	require.NoError(t, err)
	assert.Equal(t, expected, address)
	assert.Equal(t, expectedNonce, nonce)

	seen := map[string]struct{}{string(address): {}}
	for _, pair := range [][2]ed25519.PublicKey{{owner2, mint1}, {owner1, mint2}, {owner2, mint2}, {mint1, owner1}} {
		other, _, err := s.DeriveRecordAddress(pair[0], pair[1])
		require.NoError(t, err)

		_, ok := seen[string(other)]
		assert.False(t, ok)
		seen[string(other)] = struct{}{}
	}

	_, _, err = s.DeriveRecordAddress(owner1, nil)
	assert.True(t, errors.Is(err, ErrDerivationFailure))
	_, _, err = s.DeriveRecordAddress(owner1[:31], mint1)
	assert.True(t, errors.Is(err, ErrDerivationFailure))
}

func TestDeriveRecordAddress_Program(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)
	owner, mint, program := keys[0], keys[1], keys[2]

	defaultSession := NewSession(memory.New(), WithConfig(WithOverrides(&ConfigOverrides{})))
	customSession := NewSession(memory.New(), WithProgram(program), WithConfig(WithOverrides(&ConfigOverrides{})))

	a, _, err := defaultSession.DeriveRecordAddress(owner, mint)
	require.NoError(t, err)
	b, _, err := customSession.DeriveRecordAddress(owner, mint)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, program, customSession.Program())
}

func TestDeriveVaultAuthority(t *testing.T) {
	s := NewSession(memory.New(), WithConfig(WithOverrides(&ConfigOverrides{})))
	keys := testutil.GenerateSolanaKeys(t, 3)
	owner, mint, otherRecord := keys[0], keys[1], keys[2]

	record, _, err := s.DeriveRecordAddress(owner, mint)
	require.NoError(t, err)

	authority, nonce, err := s.DeriveVaultAuthority(record)
	require.NoError(t, err)

	expected, expectedNonce, err := solana.FindProgramAddressAndBump(diamondhands_program.PROGRAM_ID, record)
	require.NoError(t, err)
	assert.Equal(t, expected, authority)
	assert.Equal(t, expectedNonce, nonce)

	// Only the record address feeds the derivation.
	again, againNonce, err := s.DeriveVaultAuthority(append(ed25519.PublicKey{}, record...))
	require.NoError(t, err)
	assert.Equal(t, authority, again)
	assert.Equal(t, nonce, againNonce)

	other, _, err := s.DeriveVaultAuthority(otherRecord)
	require.NoError(t, err)
	assert.NotEqual(t, authority, other)

	_, _, err = s.DeriveVaultAuthority(nil)
	assert.True(t, errors.Is(err, ErrDerivationFailure))
}

func TestResolveVault(t *testing.T) {
	env := setup(t)

	record, _, err := env.session.DeriveRecordAddress(env.owner.PublicKey(), env.mint)
	require.NoError(t, err)
	authority, _, err := env.session.DeriveVaultAuthority(record)
	require.NoError(t, err)

	resolution, err := env.session.ResolveVault(env.ctx, env.mint, authority)
	require.NoError(t, err)
	assert.False(t, resolution.Exists)

	created, err := env.ledger.CreateTokenAccount(authority, env.mint)
	require.NoError(t, err)
	assert.Equal(t, created, resolution.Address)

	resolution, err = env.session.ResolveVault(env.ctx, env.mint, authority)
	require.NoError(t, err)
	assert.True(t, resolution.Exists)
	assert.Equal(t, created, resolution.Address)
}

func TestResolveVault_NotATokenAccount(t *testing.T) {
	env := setup(t)

	authority := testutil.GenerateSolanaKeys(t, 1)[0]
	resolution, err := env.session.ResolveVault(env.ctx, env.mint, authority)
	require.NoError(t, err)

	// A system account at the vault address is not an absent vault.
	env.ledger.Fund(resolution.Address, 1)

	_, err = env.session.ResolveVault(env.ctx, env.mint, authority)
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "get token account", transportErr.Op)
}

func TestCreateLockRecord_RoundTrip(t *testing.T) {
	env := setupShortLocks(t)
	now := env.ledger.Now()

	record := env.lock(t, &LockOptions{DaysToLock: pointer.Uint64(0)})

	expectedAddress, expectedNonce, err := env.session.DeriveRecordAddress(env.owner.PublicKey(), env.mint)
	require.NoError(t, err)
	expectedAuthority, expectedAuthorityNonce, err := env.session.DeriveVaultAuthority(expectedAddress)
	require.NoError(t, err)

	assert.Equal(t, env.owner.PublicKey(), record.Owner)
	assert.Equal(t, expectedAddress, record.RecordAddress)
	assert.Equal(t, expectedNonce, record.RecordNonce)
	assert.Equal(t, expectedAuthority, record.VaultAuthority)
	assert.Equal(t, expectedAuthorityNonce, record.VaultAuthorityNonce)
	assert.False(t, record.Released)
	assert.InDelta(t, now.Add(defaultUnlockBuffer).Unix(), record.UnlockTimestamp, 2)

	vault := env.tokenAccount(t, record.Vault)
	assert.Equal(t, expectedAuthority, vault.Owner)
	assert.Equal(t, env.mint, vault.Mint)
	assert.EqualValues(t, 100, vault.Amount)
	assert.EqualValues(t, 0, env.balance(t, env.source))

	// Released after maturity.
	env.ledger.Advance(defaultUnlockBuffer + time.Second)

	released, err := env.session.ReleaseLock(env.ctx, env.owner, BySnapshot(record), env.tokenAccount(t, env.source), nil)
	require.NoError(t, err)
	assert.True(t, released.Released)
	assert.True(t, released.SameRecord(record))
	assert.False(t, record.Released)

	assert.EqualValues(t, 0, env.balance(t, record.Vault))
	assert.EqualValues(t, 100, env.balance(t, env.source))

	// Nothing is left to release.
	_, err = env.session.ReleaseLock(env.ctx, env.owner, ByAddress(record.RecordAddress), env.tokenAccount(t, env.source), nil)
	assert.True(t, IsProgramRejection(err, diamondhands_program.ErrorAlreadyThawed))
}

func TestCreateLockRecord_DefaultDuration(t *testing.T) {
	env := setup(t)
	now := env.ledger.Now()

	record := env.lock(t, nil)

	expected := now.Add(defaultUnlockBuffer).Unix() + 100*secondsPerDay
	assert.InDelta(t, expected, record.UnlockTimestamp, 2)
	assert.EqualValues(t, 100, env.balance(t, record.Vault))

	env.ledger.Advance(99 * 24 * time.Hour)
	_, err := env.session.ReleaseLock(env.ctx, env.owner, BySnapshot(record), env.tokenAccount(t, env.source), nil)
	assert.True(t, IsProgramRejection(err, diamondhands_program.ErrorStillFrozen))

	env.ledger.Advance(24*time.Hour + defaultUnlockBuffer)
	released, err := env.session.ReleaseLock(env.ctx, env.owner, BySnapshot(record), env.tokenAccount(t, env.source), nil)
	require.NoError(t, err)
	assert.True(t, released.Released)
}

func TestReleaseLock_BeforeMaturity(t *testing.T) {
	env := setupShortLocks(t)

	record := env.lock(t, &LockOptions{DaysToLock: pointer.Uint64(0)})

	_, err := env.session.ReleaseLock(env.ctx, env.owner, BySnapshot(record), env.tokenAccount(t, env.source), nil)
	require.Error(t, err)

	var rejection *ProgramRejection
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, diamondhands_program.ErrorStillFrozen, rejection.Code)
	assert.NotNil(t, rejection.Err)

	var custom solana.CustomError
	require.True(t, errors.As(err, &custom))
	assert.EqualValues(t, diamondhands_program.ErrorStillFrozen, custom)

	assert.EqualValues(t, 100, env.balance(t, record.Vault))
	assert.EqualValues(t, 0, env.balance(t, env.source))

	current, err := env.session.ResolveRecord(env.ctx, BySnapshot(record), true)
	require.NoError(t, err)
	assert.False(t, current.Released)
}

func TestCreateLockRecord_Duplicate(t *testing.T) {
	env := setup(t)

	first := env.lock(t, &LockOptions{Amount: pointer.Uint64(40)})
	assert.EqualValues(t, 60, env.balance(t, env.source))

	again, _, err := env.session.DeriveRecordAddress(env.owner.PublicKey(), env.mint)
	require.NoError(t, err)
	assert.Equal(t, first.RecordAddress, again)

	_, err = env.session.CreateLockRecord(env.ctx, env.owner, env.tokenAccount(t, env.source), nil)
	require.Error(t, err)

	var rejection *ProgramRejection
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, diamondhands_program.ErrorCodeUnknown, rejection.Code)

	var custom solana.CustomError
	require.True(t, errors.As(err, &custom))
	assert.Equal(t, system.ErrorAccountAlreadyInUse, custom)

	assert.EqualValues(t, 60, env.balance(t, env.source))
	assert.EqualValues(t, 40, env.balance(t, first.Vault))

	current, err := env.session.ResolveRecord(env.ctx, ByAddress(first.RecordAddress), false)
	require.NoError(t, err)
	assert.Equal(t, first, current)
}

func TestCreateLockRecord_TooShort(t *testing.T) {
	env := setup(t)

	_, err := env.session.CreateLockRecord(env.ctx, env.owner, env.tokenAccount(t, env.source), &LockOptions{
		DaysToLock: pointer.Uint64(1),
	})
	assert.True(t, IsProgramRejection(err, diamondhands_program.ErrorFreezeTimeTooShort))
	assert.EqualValues(t, 100, env.balance(t, env.source))

	exists, err := env.session.RecordExists(env.ctx, ByAddress(mustRecordAddress(t, env)))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateLockRecord_NotEnoughTokens(t *testing.T) {
	env := setup(t)

	_, err := env.session.CreateLockRecord(env.ctx, env.owner, env.tokenAccount(t, env.source), &LockOptions{
		Amount: pointer.Uint64(101),
	})
	assert.True(t, IsProgramRejection(err, diamondhands_program.ErrorNotEnoughTokens))
}

func TestCreateLockRecord_UnlockDate(t *testing.T) {
	env := setup(t)

	unlock := env.ledger.Now().Add(200 * time.Hour)
	record := env.lock(t, &LockOptions{
		UnlockDate: unlock,
		DaysToLock: pointer.Uint64(0),
	})
	assert.Equal(t, unlock.Unix(), record.UnlockTimestamp)
	assert.Equal(t, unlock.Unix(), record.UnlockTime().Unix())
}

func TestCreateLockRecord_OwnerMismatch(t *testing.T) {
	env := setup(t)

	other := NewKeypairSigner(testutil.NewFundedKeypair(t, env.ledger))
	_, err := env.session.CreateLockRecord(env.ctx, other, env.tokenAccount(t, env.source), nil)
	assert.Equal(t, ErrOwnerMismatch, err)

	_, err = env.session.ReleaseLock(env.ctx, other, ByAddress(mustRecordAddress(t, env)), env.tokenAccount(t, env.source), nil)
	assert.Equal(t, ErrOwnerMismatch, err)
}

func TestReleaseLock_Partial(t *testing.T) {
	env := setupShortLocks(t)

	record := env.lock(t, &LockOptions{DaysToLock: pointer.Uint64(0)})
	env.ledger.Advance(defaultUnlockBuffer + time.Second)

	partial, err := env.session.ReleaseLock(env.ctx, env.owner, BySnapshot(record), env.tokenAccount(t, env.source), &ReleaseOptions{
		Amount: pointer.Uint64(30),
	})
	require.NoError(t, err)
	assert.False(t, partial.Released)
	assert.EqualValues(t, 70, env.balance(t, record.Vault))
	assert.EqualValues(t, 30, env.balance(t, env.source))

	_, err = env.session.ReleaseLock(env.ctx, env.owner, BySnapshot(partial), env.tokenAccount(t, env.source), &ReleaseOptions{
		Amount: pointer.Uint64(71),
	})
	assert.True(t, IsProgramRejection(err, diamondhands_program.ErrorNotEnoughTokensInAccount))

	// The remainder is read live from the vault.
	full, err := env.session.ReleaseLock(env.ctx, env.owner, BySnapshot(partial), env.tokenAccount(t, env.source), nil)
	require.NoError(t, err)
	assert.True(t, full.Released)
	assert.EqualValues(t, 0, env.balance(t, record.Vault))
	assert.EqualValues(t, 100, env.balance(t, env.source))
}

func TestResolveRecord(t *testing.T) {
	env := setupShortLocks(t)

	_, err := env.session.ResolveRecord(env.ctx, RecordRef{}, false)
	assert.Equal(t, ErrInvalidRecordRef, err)

	_, err = env.session.ResolveRecord(env.ctx, ByAddress(mustRecordAddress(t, env)), false)
	assert.Equal(t, ErrAccountNotFound, err)

	record := env.lock(t, &LockOptions{DaysToLock: pointer.Uint64(0)})
	env.ledger.Advance(defaultUnlockBuffer + time.Second)

	_, err = env.session.ReleaseLock(env.ctx, env.owner, BySnapshot(record), env.tokenAccount(t, env.source), nil)
	require.NoError(t, err)

	// Snapshots are returned as-is, even when stale.
	stale, err := env.session.ResolveRecord(env.ctx, BySnapshot(record), false)
	require.NoError(t, err)
	assert.True(t, stale == record)
	assert.False(t, stale.Released)

	refreshed, err := env.session.ResolveRecord(env.ctx, BySnapshot(record), true)
	require.NoError(t, err)
	assert.True(t, refreshed.Released)
	assert.True(t, refreshed.SameRecord(record))

	byAddress, err := env.session.ResolveRecord(env.ctx, ByAddress(record.RecordAddress), false)
	require.NoError(t, err)
	assert.Equal(t, refreshed, byAddress)

	ref := BySnapshot(record)
	snapshot, ok := ref.Snapshot()
	assert.True(t, ok)
	assert.True(t, snapshot == record)
	assert.Equal(t, record.RecordAddress, ref.Address())

	_, ok = ByAddress(record.RecordAddress).Snapshot()
	assert.False(t, ok)
}

func TestResolveRecord_InvalidAccount(t *testing.T) {
	env := setup(t)

	// A token account is not a lock record.
	_, err := env.session.ResolveRecord(env.ctx, ByAddress(env.source), false)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, errors.Is(err, ErrInvalidRecord))
}

func TestRecordExists(t *testing.T) {
	env := setup(t)

	address := mustRecordAddress(t, env)

	exists, err := env.session.RecordExists(env.ctx, ByAddress(address))
	require.NoError(t, err)
	assert.False(t, exists)

	record := env.lock(t, nil)

	exists, err = env.session.RecordExists(env.ctx, ByAddress(address))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = env.session.RecordExists(env.ctx, BySnapshot(record))
	require.NoError(t, err)
	assert.True(t, exists)

	// Snapshots are taken as-is, like ResolveRecord without a refresh.
	fake := &LockRecord{RecordAddress: testutil.GenerateSolanaKeys(t, 1)[0]}
	exists, err = env.session.RecordExists(env.ctx, BySnapshot(fake))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = env.session.RecordExists(env.ctx, ByAddress(fake.RecordAddress))
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = env.session.RecordExists(env.ctx, RecordRef{})
	assert.Equal(t, ErrInvalidRecordRef, err)
}

func TestLockRecord_SameRecord(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)

	a := &LockRecord{RecordAddress: keys[0], UnlockTimestamp: 1}
	b := &LockRecord{RecordAddress: append(ed25519.PublicKey{}, keys[0]...), Released: true}
	c := &LockRecord{RecordAddress: keys[1]}

	assert.True(t, a.SameRecord(b))
	assert.False(t, a.SameRecord(c))
	assert.False(t, a.SameRecord(nil))
}

func TestResolveLockOptions(t *testing.T) {
	now := time.Unix(1_700_000_000, 500_000_000)
	source := &TokenAccount{Amount: 42}

	s := NewSession(
		memory.New(),
		WithClock(func() time.Time { return now }),
		WithConfig(WithOverrides(&ConfigOverrides{})),
	)

	params, err := s.resolveLockOptions(context.Background(), source, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 42, params.amount)
	assert.EqualValues(t, 1_700_000_000+10+100*secondsPerDay, params.unlockTimestamp)

	params, err = s.resolveLockOptions(context.Background(), source, &LockOptions{
		DaysToLock: pointer.Uint64(0),
		Amount:     pointer.Uint64(0),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, params.amount)
	assert.EqualValues(t, 1_700_000_010, params.unlockTimestamp)

	unlock := time.Unix(1_800_000_000, 0)
	params, err = s.resolveLockOptions(context.Background(), source, &LockOptions{
		UnlockDate: unlock,
		DaysToLock: pointer.Uint64(5),
	})
	require.NoError(t, err)
	assert.Equal(t, unlock.Unix(), params.unlockTimestamp)

	_, err = s.resolveLockOptions(context.Background(), source, &LockOptions{UnlockDate: time.Unix(-1, 0)})
	assert.True(t, errors.Is(err, ErrInvalidOptions))

	_, err = s.resolveLockOptions(context.Background(), source, &LockOptions{DaysToLock: pointer.Uint64(1 << 62)})
	assert.True(t, errors.Is(err, ErrInvalidOptions))

	tuned := NewSession(
		memory.New(),
		WithClock(func() time.Time { return now }),
		WithConfig(WithOverrides(&ConfigOverrides{
			UnlockBuffer:    time.Minute,
			DefaultLockDays: pointer.Uint64(7),
		})),
	)
	params, err = tuned.resolveLockOptions(context.Background(), source, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1_700_000_000+60+7*secondsPerDay, params.unlockTimestamp)
}

func TestEnvConfig(t *testing.T) {
	t.Setenv(UnlockBufferConfigEnvName, "30s")
	t.Setenv(DefaultLockDaysConfigEnvName, "3")
	t.Setenv(CommitmentConfigEnvName, "finalized")

	s := NewSession(memory.New())
	ctx := context.Background()

	assert.Equal(t, 30*time.Second, s.conf.unlockBuffer.Get(ctx))
	assert.EqualValues(t, 3, s.conf.defaultLockDays.Get(ctx))
	assert.Equal(t, solana.CommitmentFinalized, s.commitment(ctx))

	defer testutil.DisableLogging()()
	s = NewSession(memory.New(), WithConfig(WithOverrides(&ConfigOverrides{Commitment: "bogus"})))
	assert.Equal(t, solana.CommitmentConfirmed, s.commitment(ctx))
}

func TestCustomProgram(t *testing.T) {
	program := testutil.GenerateSolanaKeys(t, 1)[0]
	env := setup(t, memory.WithProgram(program), memory.WithMinLockDuration(0))

	record := env.lock(t, &LockOptions{DaysToLock: pointer.Uint64(0)})

	expected, _, err := solana.FindProgramAddressAndBump(program, env.owner.PublicKey(), env.mint)
	require.NoError(t, err)
	assert.Equal(t, expected, record.RecordAddress)

	// Records owned by another program are not decoded.
	defaultSession := NewSession(env.ledger, WithConfig(WithOverrides(&ConfigOverrides{})))
	exists, err := defaultSession.RecordExists(env.ctx, ByAddress(record.RecordAddress))
	assert.Error(t, err)
	assert.False(t, exists)
	assert.True(t, errors.Is(err, ErrInvalidRecord))
}

func TestSPLHelpers(t *testing.T) {
	ledger := memory.New(memory.WithMinLockDuration(0))
	ctx := context.Background()
	s := NewSession(ledger, WithClock(ledger.Now), WithConfig(WithOverrides(&ConfigOverrides{})))

	owner := NewKeypairSigner(testutil.NewFundedKeypair(t, ledger))

	mint, err := s.CreateMint(ctx, owner, 0)
	require.NoError(t, err)

	account, err := s.CreateAssociatedAccount(ctx, owner, owner.PublicKey(), mint)
	require.NoError(t, err)
	require.NoError(t, s.MintTo(ctx, owner, mint, account, 100))

	source, err := s.GetTokenAccount(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, mint, source.Mint)
	assert.Equal(t, owner.PublicKey(), source.Owner)
	assert.EqualValues(t, 100, source.Amount)

	_, err = s.CreateAssociatedAccount(ctx, owner, owner.PublicKey(), mint)
	var rejection *ProgramRejection
	assert.True(t, errors.As(err, &rejection))

	// A mint the signer doesn't control can't be minted from.
	other := NewKeypairSigner(testutil.NewFundedKeypair(t, ledger))
	err = s.MintTo(ctx, other, mint, account, 1)
	assert.True(t, errors.As(err, &rejection))

	record, err := s.CreateLockRecord(ctx, owner, source, &LockOptions{DaysToLock: pointer.Uint64(0)})
	require.NoError(t, err)
	assert.Equal(t, owner.PublicKey(), record.Owner)
}

func TestGetTokenAccount_NotFound(t *testing.T) {
	s := NewSession(memory.New(), WithConfig(WithOverrides(&ConfigOverrides{})))

	_, err := s.GetTokenAccount(context.Background(), testutil.GenerateSolanaKeys(t, 1)[0])
	assert.Equal(t, ErrAccountNotFound, err)
}

func TestTransportErrors(t *testing.T) {
	rpcErr := errors.New("connection refused")
	sc := &failingClient{Client: memory.New(), err: rpcErr}
	s := NewSession(sc, WithConfig(WithOverrides(&ConfigOverrides{})))
	ctx := context.Background()
	keys := testutil.GenerateSolanaKeys(t, 2)

	_, err := s.ResolveVault(ctx, keys[0], keys[1])
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, errors.Is(err, rpcErr))

	exists, err := s.RecordExists(ctx, ByAddress(keys[0]))
	assert.False(t, exists)
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "get lock record", transportErr.Op)

	_, err = s.GetTokenAccount(ctx, keys[0])
	assert.True(t, errors.As(err, &transportErr))
}

func TestSubmit_TransportError(t *testing.T) {
	ledger := memory.New()
	rpcErr := errors.New("timeout")
	sc := &failingClient{Client: ledger, submitErr: rpcErr}
	s := NewSession(sc, WithConfig(WithOverrides(&ConfigOverrides{})))

	owner := NewKeypairSigner(testutil.NewFundedKeypair(t, ledger))
	_, err := s.CreateMint(context.Background(), owner, 0)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "submit transaction", transportErr.Op)
	assert.True(t, errors.Is(err, rpcErr))
}

func TestSubmit_RejectedOnSubmission(t *testing.T) {
	ledger := memory.New()
	s := NewSession(ledger, WithConfig(WithOverrides(&ConfigOverrides{})))

	// Unfunded payers are rejected before execution.
	owner := NewKeypairSigner(testutil.GenerateSolanaKeypair(t))
	_, err := s.CreateMint(context.Background(), owner, 0)

	var rejection *ProgramRejection
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, diamondhands_program.ErrorCodeUnknown, rejection.Code)
	assert.Equal(t, solana.TransactionErrorAccountNotFound, rejection.Err.ErrorKey())
}

func TestSubmit_RejectionFromOtherInstruction(t *testing.T) {
	ledger := memory.New()
	keys := testutil.GenerateSolanaKeys(t, 2)
	owner := NewKeypairSigner(testutil.NewFundedKeypair(t, ledger))

	createVault, _, err := token.CreateAssociatedTokenAccount(owner.PublicKey(), keys[0], keys[1])
	require.NoError(t, err)
	lockInstruction := solana.NewInstruction(ledger.Program(), []byte{1}, solana.NewAccountMeta(owner.PublicKey(), true))

	stillFrozen := solana.CustomError(diamondhands_program.ErrorStillFrozen)

	for _, tc := range []struct {
		index    int
		expected diamondhands_program.ErrorCode
	}{
		// The ATA creation raising a colliding custom code is not a program
		// error.
		{0, diamondhands_program.ErrorCodeUnknown},
		{1, diamondhands_program.ErrorStillFrozen},
		{5, diamondhands_program.ErrorCodeUnknown},
	} {
		txErr, err := solana.TransactionErrorFromInstructionError(&solana.InstructionError{Index: tc.index, Err: stillFrozen})
		require.NoError(t, err)

		sc := &failingClient{Client: ledger, submitErr: txErr}
		s := NewSession(sc, WithProgram(ledger.Program()), WithConfig(WithOverrides(&ConfigOverrides{})))

		_, err = s.submit(context.Background(), []Signer{owner}, createVault, lockInstruction)

		var rejection *ProgramRejection
		require.True(t, errors.As(err, &rejection))
		assert.Equal(t, tc.expected, rejection.Code, "instruction %d", tc.index)

		var custom solana.CustomError
		require.True(t, errors.As(err, &custom))
		assert.Equal(t, stillFrozen, custom)
	}
}

func TestResolveRecord_UnlockTimestampOverflow(t *testing.T) {
	ledger := memory.New()
	keys := testutil.GenerateSolanaKeys(t, 5)

	account := &diamondhands_program.DiamondHandsAccount{
		Owner:          keys[0],
		DiamondHands:   keys[1],
		Gatekeeper:     keys[2],
		Vault:          keys[3],
		DateToUnfreeze: math.MaxInt64,
	}
	sc := &recordClient{Client: ledger, address: keys[1], info: solana.AccountInfo{
		Owner: ledger.Program(),
		Data:  account.Marshal(),
	}}
	s := NewSession(sc, WithProgram(ledger.Program()), WithConfig(WithOverrides(&ConfigOverrides{})))

	record, err := s.GetLockRecord(context.Background(), keys[1])
	require.NoError(t, err)
	assert.EqualValues(t, math.MaxInt64, record.UnlockTimestamp)

	account.DateToUnfreeze = math.MaxInt64 + 1
	sc.info.Data = account.Marshal()

	_, err = s.GetLockRecord(context.Background(), keys[1])
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, errors.Is(err, ErrInvalidRecord))
}

func mustRecordAddress(t *testing.T, env *testEnv) ed25519.PublicKey {
	address, _, err := env.session.DeriveRecordAddress(env.owner.PublicKey(), env.mint)
	require.NoError(t, err)
	return address
}

type failingClient struct {
	solana.Client

	err       error
	submitErr error
}

func (c *failingClient) GetAccountInfo(address ed25519.PublicKey, commitment solana.Commitment) (solana.AccountInfo, error) {
	if c.err != nil {
		return solana.AccountInfo{}, c.err
	}
	return c.Client.GetAccountInfo(address, commitment)
}

func (c *failingClient) SubmitTransaction(txn solana.Transaction, commitment solana.Commitment) (solana.Signature, error) {
	if c.submitErr != nil {
		return txn.Signatures[0], c.submitErr
	}
	return c.Client.SubmitTransaction(txn, commitment)
}

type recordClient struct {
	solana.Client

	address ed25519.PublicKey
	info    solana.AccountInfo
}

func (c *recordClient) GetAccountInfo(address ed25519.PublicKey, commitment solana.Commitment) (solana.AccountInfo, error) {
	if bytes.Equal(address, c.address) {
		return c.info, nil
	}
	return c.Client.GetAccountInfo(address, commitment)
}
