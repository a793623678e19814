package memory

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/diamondhands/pkg/solana"
	"github.com/code-payments/diamondhands/pkg/solana/system"
	"github.com/code-payments/diamondhands/pkg/solana/token"
)

// runtime executes the instructions of a single transaction against a copy
// of the accounts it touches. Nothing is written back to the ledger unless
// every instruction succeeds.
type runtime struct {
	ledger   *Ledger
	txn      solana.Transaction
	accounts map[string]*account

	// index of the instruction being executed
	index int
}

func newRuntime(l *Ledger, txn solana.Transaction) *runtime {
	return &runtime{
		ledger:   l,
		txn:      txn,
		accounts: make(map[string]*account),
	}
}

func (rt *runtime) execute() *solana.InstructionError {
	for i, instruction := range rt.txn.Message.Instructions {
		rt.index = i

		program := rt.txn.Message.Accounts[instruction.ProgramIndex]

		var err error
		switch {
		case bytes.Equal(program, system.ProgramKey[:]):
			err = rt.executeSystem()
		case bytes.Equal(program, token.ProgramKey):
			err = rt.executeToken()
		case bytes.Equal(program, token.AssociatedTokenAccountProgramKey):
			err = rt.executeAssociatedTokenAccount()
		case bytes.Equal(program, rt.ledger.program):
			err = rt.executeDiamondHands()
		default:
			err = instructionError(solana.InstructionErrorIncorrectProgramID)
		}

		if err != nil {
			return &solana.InstructionError{
				Index: i,
				Err:   err,
			}
		}
	}

	return nil
}

// get returns a mutable copy of the account, or nil if it does not exist.
func (rt *runtime) get(address ed25519.PublicKey) *account {
	if a, ok := rt.accounts[string(address)]; ok {
		return a
	}

	a, ok := rt.ledger.accounts[string(address)]
	if !ok {
		return nil
	}

	cloned := a.clone()
	rt.accounts[string(address)] = cloned
	return cloned
}

func (rt *runtime) exists(address ed25519.PublicKey) bool {
	a := rt.get(address)
	return a != nil && (a.lamports > 0 || len(a.data) > 0)
}

func (rt *runtime) put(address ed25519.PublicKey, a *account) {
	rt.accounts[string(address)] = a
}

func (rt *runtime) compiled() solana.CompiledInstruction {
	return rt.txn.Message.Instructions[rt.index]
}

// isSigner reports whether the instruction's account at position was signed
// for in the transaction.
func (rt *runtime) isSigner(position int) bool {
	return rt.txn.Message.IsSigner(int(rt.compiled().Accounts[position]))
}

func (rt *runtime) isWritable(position int) bool {
	return rt.txn.Message.IsWritable(int(rt.compiled().Accounts[position]))
}

// createAccount allocates a new account funded by funder. It fails the same
// way the system program does when the address is already in use.
func (rt *runtime) createAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) error {
	if rt.exists(address) {
		return system.ErrorAccountAlreadyInUse
	}

	from := rt.get(funder)
	if from == nil || from.lamports < lamports {
		return system.ErrorResultWithNegativeLamports
	}
	from.lamports -= lamports

	var existing uint64
	if a := rt.get(address); a != nil {
		existing = a.lamports
	}

	rt.put(address, &account{
		lamports: existing + lamports,
		owner:    append(ed25519.PublicKey{}, owner...),
		data:     make([]byte, size),
	})
	return nil
}

// transferTokens moves amount between two token accounts. Authorization is
// decided by the caller, since a program may sign for its own addresses.
func (rt *runtime) transferTokens(source, destination, authority ed25519.PublicKey, amount uint64, authorized bool) error {
	sourceAccount := rt.get(source)
	destinationAccount := rt.get(destination)
	if sourceAccount == nil || destinationAccount == nil {
		return token.ErrorUninitializedState
	}

	from, err := unmarshalTokenAccount(sourceAccount)
	if err != nil {
		return token.ErrorUninitializedState
	}
	to, err := unmarshalTokenAccount(destinationAccount)
	if err != nil {
		return token.ErrorUninitializedState
	}

	if !bytes.Equal(from.Mint, to.Mint) {
		return token.ErrorMintMismatch
	}
	if !bytes.Equal(from.Owner, authority) {
		return token.ErrorOwnerMismatch
	}
	if !authorized {
		return instructionError(solana.InstructionErrorMissingRequiredSignature)
	}
	if from.Amount < amount {
		return token.ErrorInsufficientFunds
	}

	if bytes.Equal(source, destination) {
		return nil
	}

	from.Amount -= amount
	if to.Amount+amount < to.Amount {
		return token.ErrorOverflow
	}
	to.Amount += amount

	sourceAccount.data = from.Marshal()
	destinationAccount.data = to.Marshal()
	return nil
}

func instructionError(key solana.InstructionErrorKey) error {
	return errors.New(string(key))
}
