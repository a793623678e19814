package memory

import (
	"bytes"

	"github.com/code-payments/diamondhands/pkg/solana"
	"github.com/code-payments/diamondhands/pkg/solana/token"
)

func (rt *runtime) executeAssociatedTokenAccount() error {
	ixn, err := token.DecompileCreateAssociatedAccount(rt.txn.Message, rt.index)
	if err != nil {
		return instructionError(solana.InstructionErrorInvalidInstructionData)
	}

	if !rt.isSigner(0) {
		return instructionError(solana.InstructionErrorMissingRequiredSignature)
	}

	expected, err := token.GetAssociatedAccount(ixn.Owner, ixn.Mint)
	if err != nil || !bytes.Equal(expected, ixn.Address) {
		return instructionError(solana.InstructionErrorInvalidSeeds)
	}

	if err := rt.createAccount(ixn.Subsidizer, ixn.Address, token.ProgramKey, rentExemptBalance(token.AccountSize), token.AccountSize); err != nil {
		return err
	}
	return rt.initializeTokenAccount(ixn.Address, ixn.Mint, ixn.Owner)
}
