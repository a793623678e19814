package memory

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/pkg/errors"

	"github.com/code-payments/diamondhands/pkg/solana/token"
)

// The helpers below write state directly, bypassing transaction execution.
// They exist to set up fixtures in tests.

// Fund credits lamports to the address, creating a system account if needed.
func (l *Ledger) Fund(address ed25519.PublicKey, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.fund(address, lamports)
}

// CreateMint creates an initialized mint controlled by authority.
func (l *Ledger) CreateMint(authority ed25519.PublicKey, decimals byte) (ed25519.PublicKey, error) {
	address, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate mint address")
	}

	mint := token.Mint{
		MintAuthority: authority,
		Decimals:      decimals,
		IsInitialized: true,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[string(address)] = &account{
		lamports: rentExemptBalance(token.MintSize),
		owner:    token.ProgramKey,
		data:     mint.Marshal(),
	}
	return address, nil
}

// CreateTokenAccount creates the owner's associated token account for mint.
func (l *Ledger) CreateTokenAccount(owner, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	address, err := token.GetAssociatedAccount(owner, mint)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[string(address)]; ok {
		return nil, errors.New("token account already exists")
	}
	if a, ok := l.accounts[string(mint)]; !ok {
		return nil, token.ErrAccountNotFound
	} else if _, err := unmarshalMint(a); err != nil {
		return nil, err
	}

	tokenAccount := token.Account{
		Mint:  mint,
		Owner: owner,
		State: token.AccountStateInitialized,
	}
	l.accounts[string(address)] = &account{
		lamports: rentExemptBalance(token.AccountSize),
		owner:    token.ProgramKey,
		data:     tokenAccount.Marshal(),
	}
	return address, nil
}

// MintTo adds amount to the token account and the supply of its mint.
func (l *Ledger) MintTo(address ed25519.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[string(address)]
	if !ok {
		return token.ErrAccountNotFound
	}
	tokenAccount, err := unmarshalTokenAccount(a)
	if err != nil {
		return err
	}

	mintAccount, ok := l.accounts[string(tokenAccount.Mint)]
	if !ok {
		return token.ErrAccountNotFound
	}
	mint, err := unmarshalMint(mintAccount)
	if err != nil {
		return err
	}

	tokenAccount.Amount += amount
	mint.Supply += amount

	a.data = tokenAccount.Marshal()
	mintAccount.data = mint.Marshal()
	return nil
}
