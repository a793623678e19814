package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/diamondhands/pkg/solana/memory"
)

// DefaultFunding is enough lamports to pay fees and rent for a handful of
// accounts.
const DefaultFunding = 1_000_000_000

func GenerateSolanaKeypair(t *testing.T) ed25519.PrivateKey {
	_, p, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return p
}

func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		p, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = p
	}
	return keys
}

// NewFundedKeypair generates a keypair whose system account on the ledger
// holds DefaultFunding lamports.
func NewFundedKeypair(t *testing.T, ledger *memory.Ledger) ed25519.PrivateKey {
	p := GenerateSolanaKeypair(t)
	ledger.Fund(p.Public().(ed25519.PublicKey), DefaultFunding)
	return p
}

// SetupTokenAccount creates a mint owned by a fresh authority and the owner's
// associated token account holding amount. It returns the mint and the token
// account.
func SetupTokenAccount(t *testing.T, ledger *memory.Ledger, owner ed25519.PublicKey, amount uint64) (ed25519.PublicKey, ed25519.PublicKey) {
	authority := GenerateSolanaKeys(t, 1)[0]

	mint, err := ledger.CreateMint(authority, 0)
	require.NoError(t, err)

	account, err := ledger.CreateTokenAccount(owner, mint)
	require.NoError(t, err)
	require.NoError(t, ledger.MintTo(account, amount))

	return mint, account
}
