package diamondhands

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/diamondhands/pkg/solana/system"
	"github.com/code-payments/diamondhands/pkg/solana/token"
)

// The helpers below set up token fixtures through regular transactions. They
// are meant for tooling and tests, not for production flows.

// CreateMint creates a new mint whose mint authority is the signer.
func (s *Session) CreateMint(ctx context.Context, signer Signer, decimals byte) (ed25519.PublicKey, error) {
	_, mintKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate mint key")
	}
	mint := mintKey.Public().(ed25519.PublicKey)

	lamports, err := s.sc.GetMinimumBalanceForRentExemption(token.MintSize)
	if err != nil {
		return nil, newTransportError("get minimum balance for rent exemption", err)
	}

	_, err = s.submit(
		ctx,
		[]Signer{signer, NewKeypairSigner(mintKey)},
		system.CreateAccount(signer.PublicKey(), mint, token.ProgramKey, lamports, token.MintSize),
		token.InitializeMint(mint, signer.PublicKey(), nil, decimals),
	)
	if err != nil {
		return nil, err
	}

	s.log.WithField("mint", base58.Encode(mint)).Debug("mint created")
	return mint, nil
}

// CreateAssociatedAccount creates the owner's associated token account for
// mint, paid for by the signer.
func (s *Session) CreateAssociatedAccount(ctx context.Context, signer Signer, owner, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	instruction, address, err := token.CreateAssociatedTokenAccount(signer.PublicKey(), owner, mint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build create associated account instruction")
	}

	if _, err := s.submit(ctx, []Signer{signer}, instruction); err != nil {
		return nil, err
	}
	return address, nil
}

// MintTo mints amount tokens into destination. The signer must be the mint
// authority.
func (s *Session) MintTo(ctx context.Context, signer Signer, mint, destination ed25519.PublicKey, amount uint64) error {
	_, err := s.submit(ctx, []Signer{signer}, token.MintTo(mint, destination, signer.PublicKey(), amount))
	return err
}
