package diamondhands_program

import (
	"crypto/ed25519"

	"github.com/code-payments/diamondhands/pkg/solana"
	"github.com/code-payments/diamondhands/pkg/solana/token"
)

// Program is optional on all args and defaults to PROGRAM_ID.

type GetRecordAddressArgs struct {
	Program ed25519.PublicKey
	Owner   ed25519.PublicKey
	Mint    ed25519.PublicKey
}

type GetGatekeeperAddressArgs struct {
	Program ed25519.PublicKey
	Record  ed25519.PublicKey
}

type GetVaultAddressArgs struct {
	Gatekeeper ed25519.PublicKey
	Mint       ed25519.PublicKey
}

// GetRecordAddress returns the DiamondHandsAccount address for an owner and
// mint, along with its bump.
func GetRecordAddress(args *GetRecordAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		programOrDefault(args.Program),
		args.Owner,
		args.Mint,
	)
}

// GetGatekeeperAddress returns the PDA that owns the record's vault.
func GetGatekeeperAddress(args *GetGatekeeperAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		programOrDefault(args.Program),
		args.Record,
	)
}

// GetVaultAddress returns the gatekeeper's associated token account.
func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, error) {
	return token.GetAssociatedAccount(args.Gatekeeper, args.Mint)
}

func programOrDefault(program ed25519.PublicKey) ed25519.PublicKey {
	if len(program) == 0 {
		return PROGRAM_ID
	}
	return program
}
