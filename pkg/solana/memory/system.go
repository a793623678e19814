package memory

import (
	"github.com/code-payments/diamondhands/pkg/solana"
	"github.com/code-payments/diamondhands/pkg/solana/system"
)

func (rt *runtime) executeSystem() error {
	m := rt.txn.Message

	if create, err := system.DecompileCreateAccount(m, rt.index); err == nil {
		if !rt.isSigner(0) || !rt.isSigner(1) {
			return instructionError(solana.InstructionErrorMissingRequiredSignature)
		}
		return rt.createAccount(create.Funder, create.Address, create.Owner, create.Lamports, create.Size)
	}

	if transfer, err := system.DecompileTransfer(m, rt.index); err == nil {
		if !rt.isSigner(0) {
			return instructionError(solana.InstructionErrorMissingRequiredSignature)
		}

		from := rt.get(transfer.From)
		if from == nil || from.lamports < transfer.Lamports {
			return system.ErrorResultWithNegativeLamports
		}
		if len(from.data) > 0 {
			return instructionError(solana.InstructionErrorInvalidArgument)
		}

		to := rt.get(transfer.To)
		if to == nil {
			to = &account{owner: system.SystemAccount}
			rt.put(transfer.To, to)
		}

		from.lamports -= transfer.Lamports
		to.lamports += transfer.Lamports
		return nil
	}

	return instructionError(solana.InstructionErrorInvalidInstructionData)
}
