package diamondhands_program

import (
	"crypto/ed25519"

	"github.com/code-payments/diamondhands/pkg/solana/binary"
)

var createInstructionDiscriminator = []byte{
	166, 59, 195, 251, 43, 245, 185, 74,
}

const (
	CreateInstructionArgsSize = (1 + // diamondhands_nonce
		1 + // nonce
		8 + // date_to_unfreeze
		8) // amount
)

type CreateInstructionArgs struct {
	DiamondHandsNonce uint8
	Nonce             uint8
	DateToUnfreeze    uint64
	Amount            uint64
}

type CreateInstructionAccounts struct {
	DiamondHands ed25519.PublicKey
	Gatekeeper   ed25519.PublicKey
	Vault        ed25519.PublicKey
	OwnerVault   ed25519.PublicKey
	Owner        ed25519.PublicKey
}

// NewCreateInstruction builds create_diamond_hands_account, which initializes
// the record and moves Amount tokens from OwnerVault into Vault.
func NewCreateInstruction(
	accounts *CreateInstructionAccounts,
	args *CreateInstructionArgs,
) Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(createInstructionDiscriminator)+
			CreateInstructionArgsSize)

	binary.PutBytes(data, createInstructionDiscriminator, &offset)
	binary.PutUint8(data, args.DiamondHandsNonce, &offset)
	binary.PutUint8(data, args.Nonce, &offset)
	binary.PutUint64(data, args.DateToUnfreeze, &offset)
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
