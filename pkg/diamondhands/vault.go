package diamondhands

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	diamondhands_program "github.com/code-payments/diamondhands/pkg/solana/diamondhands"
)

// VaultResolution is the associated token account of a vault authority and
// whether it has been created yet.
type VaultResolution struct {
	Address ed25519.PublicKey
	Exists  bool
}

// ResolveVault derives the vault for (mint, authority) and checks whether
// it exists. Only a missing account yields Exists=false; every other failure
// is returned.
func (s *Session) ResolveVault(ctx context.Context, mint, authority ed25519.PublicKey) (*VaultResolution, error) {
	address, err := diamondhands_program.GetVaultAddress(&diamondhands_program.GetVaultAddressArgs{
		Gatekeeper: authority,
		Mint:       mint,
	})
	if err != nil {
		return nil, errors.Wrapf(ErrDerivationFailure, "vault: %v", err)
	}

	_, err = s.getTokenAccount(ctx, address)
	switch err {
	case nil:
		return &VaultResolution{Address: address, Exists: true}, nil
	case ErrAccountNotFound:
		return &VaultResolution{Address: address, Exists: false}, nil
	default:
		return nil, err
	}
}
