package diamondhands

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"math"
	"time"

	"github.com/mr-tron/base58"

	"github.com/code-payments/diamondhands/pkg/metrics"
	"github.com/code-payments/diamondhands/pkg/solana"
	diamondhands_program "github.com/code-payments/diamondhands/pkg/solana/diamondhands"
)

// LockRecord is a read only snapshot of an on-chain lock record. It reflects
// the state at the time it was fetched and may be stale.
type LockRecord struct {
	Owner               ed25519.PublicKey
	RecordAddress       ed25519.PublicKey
	RecordNonce         uint8
	VaultAuthority      ed25519.PublicKey
	VaultAuthorityNonce uint8
	Vault               ed25519.PublicKey
	Released            bool

	// UnlockTimestamp is in seconds since the unix epoch.
	UnlockTimestamp int64
}

func (r *LockRecord) UnlockTime() time.Time {
	return time.Unix(r.UnlockTimestamp, 0)
}

// SameRecord reports whether both snapshots refer to the same on-chain
// record, regardless of when they were fetched.
func (r *LockRecord) SameRecord(other *LockRecord) bool {
	if r == nil || other == nil {
		return false
	}
	return bytes.Equal(r.RecordAddress, other.RecordAddress)
}

func (r *LockRecord) String() string {
	return "LockRecord{" +
		"address=" + base58.Encode(r.RecordAddress) +
		", owner=" + base58.Encode(r.Owner) +
		", vault=" + base58.Encode(r.Vault) +
		", unlock=" + r.UnlockTime().UTC().Format(time.RFC3339) +
		"}"
}

func lockRecordFromAccount(account *diamondhands_program.DiamondHandsAccount) *LockRecord {
	return &LockRecord{
		Owner:               account.Owner,
		RecordAddress:       account.DiamondHands,
		RecordNonce:         account.DiamondHandsNonce,
		VaultAuthority:      account.Gatekeeper,
		VaultAuthorityNonce: account.Nonce,
		Vault:               account.Vault,
		Released:            account.Thawed,
		UnlockTimestamp:     int64(account.DateToUnfreeze),
	}
}

// RecordRef identifies a lock record either by address or by an already
// fetched snapshot. Snapshots are used as-is unless a refresh is forced, so
// callers holding one are responsible for its staleness.
type RecordRef struct {
	address  ed25519.PublicKey
	snapshot *LockRecord
}

func ByAddress(address ed25519.PublicKey) RecordRef {
	return RecordRef{address: address}
}

func BySnapshot(record *LockRecord) RecordRef {
	return RecordRef{snapshot: record}
}

// Address returns the referenced record address.
func (r RecordRef) Address() ed25519.PublicKey {
	if r.snapshot != nil {
		return r.snapshot.RecordAddress
	}
	return r.address
}

// Snapshot returns the snapshot the reference was built from, if any.
func (r RecordRef) Snapshot() (*LockRecord, bool) {
	return r.snapshot, r.snapshot != nil
}

// GetLockRecord fetches and decodes the lock record at address.
func (s *Session) GetLockRecord(ctx context.Context, address ed25519.PublicKey) (*LockRecord, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetLockRecord")
	defer tracer.End()

	record, err := s.getLockRecord(ctx, address)
	tracer.OnError(err)
	return record, err
}

func (s *Session) getLockRecord(ctx context.Context, address ed25519.PublicKey) (*LockRecord, error) {
	info, err := s.sc.GetAccountInfo(address, s.commitment(ctx))
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, newTransportError("get lock record", err)
	}

	if !bytes.Equal(info.Owner, s.program) {
		return nil, newTransportError("decode lock record", ErrInvalidRecord)
	}

	var account diamondhands_program.DiamondHandsAccount
	if err := account.Unmarshal(info.Data); err != nil {
		return nil, newTransportError("decode lock record", ErrInvalidRecord)
	}
	if account.DateToUnfreeze > math.MaxInt64 {
		return nil, newTransportError("decode lock record", ErrInvalidRecord)
	}

	return lockRecordFromAccount(&account), nil
}

// ResolveRecord materializes a reference. Address references are always
// fetched. Snapshot references are returned unchanged unless forceRefresh is
// set, in which case the record is fetched by the snapshot's address.
func (s *Session) ResolveRecord(ctx context.Context, ref RecordRef, forceRefresh bool) (*LockRecord, error) {
	if snapshot, ok := ref.Snapshot(); ok && !forceRefresh {
		return snapshot, nil
	}

	address := ref.Address()
	if len(address) == 0 {
		return nil, ErrInvalidRecordRef
	}

	return s.getLockRecord(ctx, address)
}

// RecordExists reports whether the referenced record is on-chain. It resolves
// ref the same way ResolveRecord does without a refresh, so a snapshot
// reference counts as existing without a fetch. Failures other than a missing
// account are returned.
func (s *Session) RecordExists(ctx context.Context, ref RecordRef) (bool, error) {
	_, err := s.ResolveRecord(ctx, ref, false)
	switch err {
	case nil:
		return true, nil
	case ErrAccountNotFound:
		return false, nil
	default:
		return false, err
	}
}
