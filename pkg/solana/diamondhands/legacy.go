package diamondhands_program

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/diamondhands/pkg/solana"
	"github.com/code-payments/diamondhands/pkg/solana/binary"
)

const instructionAccountsSize = 7

func (i Instruction) ToLegacyInstruction() solana.Instruction {
	legacyAccountMeta := make([]solana.AccountMeta, len(i.Accounts))
	for i, accountMeta := range i.Accounts {
		legacyAccountMeta[i] = solana.AccountMeta{
			PublicKey:  accountMeta.PublicKey,
			IsSigner:   accountMeta.IsSigner,
			IsWritable: accountMeta.IsWritable,
		}
	}

	return solana.Instruction{
		Program:  programOrDefault(i.Program),
		Accounts: legacyAccountMeta,
		Data:     i.Data,
	}
}

// CreateInstructionFromLegacyInstruction decodes a compiled
// create_diamond_hands_account instruction addressed to program.
func CreateInstructionFromLegacyInstruction(program ed25519.PublicKey, txn solana.Transaction, idx int) (*CreateInstructionArgs, *CreateInstructionAccounts, error) {
	var offset int
	var discriminator []byte

	instruction, err := compiledInstruction(program, txn, idx)
	if err != nil {
		return nil, nil, err
	}

	if len(instruction.Data) != len(createInstructionDiscriminator)+CreateInstructionArgsSize {
		return nil, nil, ErrInvalidInstructionData
	}

	binary.GetBytes(instruction.Data, &discriminator, discriminatorSize, &offset)

	if !bytes.Equal(discriminator, createInstructionDiscriminator) {
		return nil, nil, ErrInvalidInstructionData
	}

	var args CreateInstructionArgs
	var accounts CreateInstructionAccounts

	// Instruction Args
	binary.GetUint8(instruction.Data, &args.DiamondHandsNonce, &offset)
	binary.GetUint8(instruction.Data, &args.Nonce, &offset)
	binary.GetUint64(instruction.Data, &args.DateToUnfreeze, &offset)
	binary.GetUint64(instruction.Data, &args.Amount, &offset)

	// Instruction Accounts
	accounts.DiamondHands = txn.Message.Accounts[instruction.Accounts[0]]
	accounts.Gatekeeper = txn.Message.Accounts[instruction.Accounts[1]]
	accounts.Vault = txn.Message.Accounts[instruction.Accounts[2]]
	accounts.OwnerVault = txn.Message.Accounts[instruction.Accounts[3]]
	accounts.Owner = txn.Message.Accounts[instruction.Accounts[4]]

	return &args, &accounts, nil
}

// UnfreezeInstructionFromLegacyInstruction decodes a compiled
// unfreeze_assets instruction addressed to program.
func UnfreezeInstructionFromLegacyInstruction(program ed25519.PublicKey, txn solana.Transaction, idx int) (*UnfreezeInstructionArgs, *UnfreezeInstructionAccounts, error) {
	var offset int
	var discriminator []byte

	instruction, err := compiledInstruction(program, txn, idx)
	if err != nil {
		return nil, nil, err
	}

	if len(instruction.Data) != len(unfreezeInstructionDiscriminator)+UnfreezeInstructionArgsSize {
		return nil, nil, ErrInvalidInstructionData
	}

	binary.GetBytes(instruction.Data, &discriminator, discriminatorSize, &offset)

	if !bytes.Equal(discriminator, unfreezeInstructionDiscriminator) {
		return nil, nil, ErrInvalidInstructionData
	}

	var args UnfreezeInstructionArgs
	var accounts UnfreezeInstructionAccounts

	// Instruction Args
	binary.GetUint64(instruction.Data, &args.Amount, &offset)

	// Instruction Accounts
	accounts.DiamondHands = txn.Message.Accounts[instruction.Accounts[0]]
	accounts.Gatekeeper = txn.Message.Accounts[instruction.Accounts[1]]
	accounts.Vault = txn.Message.Accounts[instruction.Accounts[2]]
	accounts.OwnerVault = txn.Message.Accounts[instruction.Accounts[3]]
	accounts.Owner = txn.Message.Accounts[instruction.Accounts[4]]

	return &args, &accounts, nil
}

// IsCreateInstruction reports whether data carries the
// create_diamond_hands_account discriminator.
func IsCreateInstruction(data []byte) bool {
	return bytes.HasPrefix(data, createInstructionDiscriminator)
}

// IsUnfreezeInstruction reports whether data carries the unfreeze_assets
// discriminator.
func IsUnfreezeInstruction(data []byte) bool {
	return bytes.HasPrefix(data, unfreezeInstructionDiscriminator)
}

func compiledInstruction(program ed25519.PublicKey, txn solana.Transaction, idx int) (solana.CompiledInstruction, error) {
	if idx < 0 || idx >= len(txn.Message.Instructions) {
		return solana.CompiledInstruction{}, ErrInvalidInstructionData
	}

	instruction := txn.Message.Instructions[idx]

	programAccount := txn.Message.Accounts[instruction.ProgramIndex]
	if !bytes.Equal(programOrDefault(program), programAccount) {
		return instruction, ErrInvalidProgram
	}

	if len(instruction.Accounts) < instructionAccountsSize {
		return instruction, ErrInvalidInstructionData
	}

	return instruction, nil
}
