package memory

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/diamondhands/pkg/solana"
	"github.com/code-payments/diamondhands/pkg/solana/token"
)

func (rt *runtime) executeToken() error {
	m := rt.txn.Message

	command, err := token.GetCommand(m, rt.index)
	if err != nil {
		return token.ErrorInvalidInstruction
	}

	switch command {
	case token.CommandInitializeMint:
		ixn, err := token.DecompileInitializeMint(m, rt.index)
		if err != nil {
			return token.ErrorInvalidInstruction
		}

		a := rt.get(ixn.Mint)
		if a == nil || !a.owner.Equal(token.ProgramKey) || len(a.data) != token.MintSize {
			return instructionError(solana.InstructionErrorInvalidAccountData)
		}
		if _, err := unmarshalMint(a); err == nil {
			return token.ErrorAlreadyInUse
		}
		if a.lamports < rentExemptBalance(token.MintSize) {
			return token.ErrorNotRentExempt
		}

		mint := token.Mint{
			MintAuthority:   ixn.MintAuthority,
			Decimals:        ixn.Decimals,
			IsInitialized:   true,
			FreezeAuthority: ixn.FreezeAuthority,
		}
		a.data = mint.Marshal()
		return nil

	case token.CommandInitializeAccount:
		ixn, err := token.DecompileInitializeAccount(m, rt.index)
		if err != nil {
			return token.ErrorInvalidInstruction
		}
		return rt.initializeTokenAccount(ixn.Account, ixn.Mint, ixn.Owner)

	case token.CommandTransfer:
		ixn, err := token.DecompileTransfer(m, rt.index)
		if err != nil {
			return token.ErrorInvalidInstruction
		}
		return rt.transferTokens(ixn.Source, ixn.Destination, ixn.Owner, ixn.Amount, rt.isSigner(2))

	case token.CommandMintTo:
		ixn, err := token.DecompileMintTo(m, rt.index)
		if err != nil {
			return token.ErrorInvalidInstruction
		}

		mintAccount := rt.get(ixn.Mint)
		if mintAccount == nil {
			return token.ErrorInvalidMint
		}
		mint, err := unmarshalMint(mintAccount)
		if err != nil {
			return token.ErrorInvalidMint
		}
		if len(mint.MintAuthority) == 0 {
			return token.ErrorFixedSupply
		}
		if !bytes.Equal(mint.MintAuthority, ixn.Authority) {
			return token.ErrorOwnerMismatch
		}
		if !rt.isSigner(2) {
			return instructionError(solana.InstructionErrorMissingRequiredSignature)
		}

		destinationAccount := rt.get(ixn.Destination)
		if destinationAccount == nil {
			return token.ErrorUninitializedState
		}
		destination, err := unmarshalTokenAccount(destinationAccount)
		if err != nil {
			return token.ErrorUninitializedState
		}
		if !bytes.Equal(destination.Mint, ixn.Mint) {
			return token.ErrorMintMismatch
		}
		if mint.Supply+ixn.Amount < mint.Supply {
			return token.ErrorOverflow
		}

		mint.Supply += ixn.Amount
		destination.Amount += ixn.Amount

		mintAccount.data = mint.Marshal()
		destinationAccount.data = destination.Marshal()
		return nil
	}

	return token.ErrorInvalidInstruction
}

func (rt *runtime) initializeTokenAccount(address, mint, owner ed25519.PublicKey) error {
	a := rt.get(address)
	if a == nil || !a.owner.Equal(token.ProgramKey) || len(a.data) != token.AccountSize {
		return instructionError(solana.InstructionErrorInvalidAccountData)
	}
	if _, err := unmarshalTokenAccount(a); err == nil {
		return token.ErrorAlreadyInUse
	}
	if a.lamports < rentExemptBalance(token.AccountSize) {
		return token.ErrorNotRentExempt
	}

	mintAccount := rt.get(mint)
	if mintAccount == nil {
		return token.ErrorInvalidMint
	}
	if _, err := unmarshalMint(mintAccount); err != nil {
		return token.ErrorInvalidMint
	}

	tokenAccount := token.Account{
		Mint:  append(ed25519.PublicKey{}, mint...),
		Owner: append(ed25519.PublicKey{}, owner...),
		State: token.AccountStateInitialized,
	}
	a.data = tokenAccount.Marshal()
	return nil
}
