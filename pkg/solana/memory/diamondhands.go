package memory

import (
	"bytes"
	"crypto/ed25519"
	"time"

	"github.com/code-payments/diamondhands/pkg/solana"
	diamondhands_program "github.com/code-payments/diamondhands/pkg/solana/diamondhands"
	"github.com/code-payments/diamondhands/pkg/solana/token"
)

const diamondHandsAccountCount = 7

func (rt *runtime) executeDiamondHands() error {
	compiled := rt.compiled()
	if len(compiled.Accounts) < diamondHandsAccountCount {
		return solana.CustomError(diamondhands_program.ErrorAccountNotEnoughKeys)
	}

	switch {
	case diamondhands_program.IsCreateInstruction(compiled.Data):
		args, accounts, err := diamondhands_program.CreateInstructionFromLegacyInstruction(rt.ledger.program, rt.txn, rt.index)
		if err != nil {
			return solana.CustomError(diamondhands_program.ErrorInstructionDidNotDeserialize)
		}
		return rt.createDiamondHands(args, accounts)

	case diamondhands_program.IsUnfreezeInstruction(compiled.Data):
		args, accounts, err := diamondhands_program.UnfreezeInstructionFromLegacyInstruction(rt.ledger.program, rt.txn, rt.index)
		if err != nil {
			return solana.CustomError(diamondhands_program.ErrorInstructionDidNotDeserialize)
		}
		return rt.unfreezeAssets(args, accounts)
	}

	return solana.CustomError(diamondhands_program.ErrorInstructionDidNotDeserialize)
}

func (rt *runtime) createDiamondHands(args *diamondhands_program.CreateInstructionArgs, accounts *diamondhands_program.CreateInstructionAccounts) error {
	program := rt.ledger.program

	if err := rt.checkPrograms(); err != nil {
		return err
	}

	vault, err := rt.tokenAccount(accounts.Vault)
	if err != nil {
		return err
	}
	ownerVault, err := rt.tokenAccount(accounts.OwnerVault)
	if err != nil {
		return err
	}

	if !rt.isSigner(4) {
		return instructionError(solana.InstructionErrorMissingRequiredSignature)
	}
	if !rt.isWritable(0) || !rt.isWritable(2) || !rt.isWritable(3) || !rt.isWritable(4) {
		return solana.CustomError(diamondhands_program.ErrorConstraintMut)
	}

	record, err := solana.CreateProgramAddress(program, accounts.Owner, ownerVault.Mint, []byte{args.DiamondHandsNonce})
	if err != nil || !bytes.Equal(record, accounts.DiamondHands) {
		return solana.CustomError(diamondhands_program.ErrorConstraintSeeds)
	}

	if !isAssociatedAccount(accounts.Vault, vault, accounts.Gatekeeper) {
		return solana.CustomError(diamondhands_program.ErrorConstraintRaw)
	}
	if !isAssociatedAccount(accounts.OwnerVault, ownerVault, accounts.Owner) || !bytes.Equal(ownerVault.Mint, vault.Mint) {
		return solana.CustomError(diamondhands_program.ErrorConstraintRaw)
	}

	// init
	err = rt.createAccount(
		accounts.Owner,
		accounts.DiamondHands,
		program,
		rentExemptBalance(diamondhands_program.DiamondHandsAccountSize),
		diamondhands_program.DiamondHandsAccountSize,
	)
	if err != nil {
		return err
	}

	now := uint64(rt.ledger.now.Unix())
	if ownerVault.Amount < args.Amount {
		return solana.CustomError(diamondhands_program.ErrorNotEnoughTokens)
	}
	if now+uint64(rt.ledger.minLockDuration/time.Second) > args.DateToUnfreeze {
		return solana.CustomError(diamondhands_program.ErrorFreezeTimeTooShort)
	}

	gatekeeper, err := solana.CreateProgramAddress(program, accounts.DiamondHands, []byte{args.Nonce})
	if err != nil || !bytes.Equal(gatekeeper, accounts.Gatekeeper) {
		return solana.CustomError(diamondhands_program.ErrorBadGatekeeper)
	}

	if err := rt.transferTokens(accounts.OwnerVault, accounts.Vault, accounts.Owner, args.Amount, true); err != nil {
		return solana.CustomError(diamondhands_program.ErrorCouldNotTX)
	}

	state := diamondhands_program.DiamondHandsAccount{
		Owner:             accounts.Owner,
		DiamondHands:      accounts.DiamondHands,
		DiamondHandsNonce: args.DiamondHandsNonce,
		Gatekeeper:        accounts.Gatekeeper,
		Nonce:             args.Nonce,
		Vault:             accounts.Vault,
		Thawed:            false,
		DateToUnfreeze:    args.DateToUnfreeze,
	}
	rt.get(accounts.DiamondHands).data = state.Marshal()

	return nil
}

func (rt *runtime) unfreezeAssets(args *diamondhands_program.UnfreezeInstructionArgs, accounts *diamondhands_program.UnfreezeInstructionAccounts) error {
	program := rt.ledger.program

	if err := rt.checkPrograms(); err != nil {
		return err
	}

	recordAccount := rt.get(accounts.DiamondHands)
	if recordAccount == nil || !recordAccount.owner.Equal(program) {
		return solana.CustomError(diamondhands_program.ErrorAccountDidNotDeserialize)
	}
	if !bytes.HasPrefix(recordAccount.data, diamondhands_program.AccountDiscriminator()) {
		return solana.CustomError(diamondhands_program.ErrorAccountDiscriminatorMismatch)
	}
	var state diamondhands_program.DiamondHandsAccount
	if err := state.Unmarshal(recordAccount.data); err != nil {
		return solana.CustomError(diamondhands_program.ErrorAccountDidNotDeserialize)
	}

	vault, err := rt.tokenAccount(accounts.Vault)
	if err != nil {
		return err
	}
	ownerVault, err := rt.tokenAccount(accounts.OwnerVault)
	if err != nil {
		return err
	}

	if !rt.isSigner(4) {
		return instructionError(solana.InstructionErrorMissingRequiredSignature)
	}
	if !rt.isWritable(0) || !rt.isWritable(2) || !rt.isWritable(3) || !rt.isWritable(4) {
		return solana.CustomError(diamondhands_program.ErrorConstraintMut)
	}

	if !bytes.Equal(state.Owner, accounts.Owner) {
		return solana.CustomError(diamondhands_program.ErrorConstraintHasOne)
	}

	record, err := solana.CreateProgramAddress(program, accounts.Owner, ownerVault.Mint, []byte{state.DiamondHandsNonce})
	if err != nil || !bytes.Equal(record, accounts.DiamondHands) {
		return solana.CustomError(diamondhands_program.ErrorConstraintSeeds)
	}
	gatekeeper, err := solana.CreateProgramAddress(program, accounts.DiamondHands, []byte{state.Nonce})
	if err != nil || !bytes.Equal(gatekeeper, accounts.Gatekeeper) {
		return solana.CustomError(diamondhands_program.ErrorConstraintSeeds)
	}

	if !isAssociatedAccount(accounts.Vault, vault, accounts.Gatekeeper) || !bytes.Equal(accounts.Vault, state.Vault) {
		return solana.CustomError(diamondhands_program.ErrorConstraintRaw)
	}
	if !isAssociatedAccount(accounts.OwnerVault, ownerVault, accounts.Owner) || !bytes.Equal(ownerVault.Mint, vault.Mint) {
		return solana.CustomError(diamondhands_program.ErrorConstraintRaw)
	}

	now := uint64(rt.ledger.now.Unix())
	if vault.Amount < args.Amount {
		return solana.CustomError(diamondhands_program.ErrorNotEnoughTokensInAccount)
	}
	if now < state.DateToUnfreeze {
		return solana.CustomError(diamondhands_program.ErrorStillFrozen)
	}
	if state.Thawed {
		return solana.CustomError(diamondhands_program.ErrorAlreadyThawed)
	}

	// The gatekeeper is a PDA of this program, so the program signs for it.
	if err := rt.transferTokens(accounts.Vault, accounts.OwnerVault, accounts.Gatekeeper, args.Amount, true); err != nil {
		return solana.CustomError(diamondhands_program.ErrorCouldNotTX)
	}

	if args.Amount == vault.Amount {
		state.Thawed = true
	}
	recordAccount.data = state.Marshal()

	return nil
}

func (rt *runtime) checkPrograms() error {
	m := rt.txn.Message
	compiled := rt.compiled()

	if !bytes.Equal(m.Accounts[compiled.Accounts[5]], token.ProgramKey) {
		return instructionError(solana.InstructionErrorIncorrectProgramID)
	}
	if !bytes.Equal(m.Accounts[compiled.Accounts[6]], diamondhands_program.SYSTEM_PROGRAM_ID) {
		return instructionError(solana.InstructionErrorIncorrectProgramID)
	}
	return nil
}

func (rt *runtime) tokenAccount(address ed25519.PublicKey) (*token.Account, error) {
	a := rt.get(address)
	if a == nil {
		return nil, solana.CustomError(diamondhands_program.ErrorAccountDidNotDeserialize)
	}

	tokenAccount, err := unmarshalTokenAccount(a)
	if err != nil {
		return nil, solana.CustomError(diamondhands_program.ErrorAccountDidNotDeserialize)
	}
	return tokenAccount, nil
}

func isAssociatedAccount(address ed25519.PublicKey, tokenAccount *token.Account, owner ed25519.PublicKey) bool {
	if !bytes.Equal(tokenAccount.Owner, owner) {
		return false
	}

	expected, err := token.GetAssociatedAccount(owner, tokenAccount.Mint)
	if err != nil {
		return false
	}
	return bytes.Equal(expected, address)
}
