package diamondhands

import (
	"context"
	"crypto/ed25519"

	"github.com/code-payments/diamondhands/pkg/metrics"
	"github.com/code-payments/diamondhands/pkg/solana/token"
)

// TokenAccount is a snapshot of an SPL token account.
type TokenAccount struct {
	Address ed25519.PublicKey
	Mint    ed25519.PublicKey
	Owner   ed25519.PublicKey
	Amount  uint64
}

// GetTokenAccount fetches the token account at address. ErrAccountNotFound
// is returned only when nothing exists there.
func (s *Session) GetTokenAccount(ctx context.Context, address ed25519.PublicKey) (*TokenAccount, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetTokenAccount")
	defer tracer.End()

	account, err := s.getTokenAccount(ctx, address)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	return &TokenAccount{
		Address: append(ed25519.PublicKey{}, address...),
		Mint:    account.Mint,
		Owner:   account.Owner,
		Amount:  account.Amount,
	}, nil
}

func (s *Session) getTokenAccount(ctx context.Context, address ed25519.PublicKey) (*token.Account, error) {
	account, err := s.tc.GetAccount(address, s.commitment(ctx))
	switch err {
	case nil:
		return account, nil
	case token.ErrAccountNotFound:
		return nil, ErrAccountNotFound
	default:
		return nil, newTransportError("get token account", err)
	}
}
