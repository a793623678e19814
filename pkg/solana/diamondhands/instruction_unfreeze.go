package diamondhands_program

import (
	"crypto/ed25519"

	"github.com/code-payments/diamondhands/pkg/solana/binary"
)

var unfreezeInstructionDiscriminator = []byte{
	207, 45, 24, 236, 248, 75, 26, 101,
}

const (
	UnfreezeInstructionArgsSize = (8) // amount
)

type UnfreezeInstructionArgs struct {
	Amount uint64
}

type UnfreezeInstructionAccounts struct {
	DiamondHands ed25519.PublicKey
	Gatekeeper   ed25519.PublicKey
	Vault        ed25519.PublicKey
	OwnerVault   ed25519.PublicKey
	Owner        ed25519.PublicKey
}

// NewUnfreezeInstruction builds unfreeze_assets, which moves Amount tokens
// from Vault back into OwnerVault once the unlock date has passed.
func NewUnfreezeInstruction(
	accounts *UnfreezeInstructionAccounts,
	args *UnfreezeInstructionArgs,
) Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(unfreezeInstructionDiscriminator)+
			UnfreezeInstructionArgsSize)

	binary.PutBytes(data, unfreezeInstructionDiscriminator, &offset)
	binary.PutUint64(data, args.Amount, &offset)

	return Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []AccountMeta{
			{
				PublicKey:  accounts.DiamondHands,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Gatekeeper,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Vault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.OwnerVault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Owner,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  SPL_TOKEN_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
