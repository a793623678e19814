package diamondhands

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/diamondhands/pkg/solana"
	diamondhands_program "github.com/code-payments/diamondhands/pkg/solana/diamondhands"
)

var (
	// ErrDerivationFailure indicates a program address could not be derived
	// from the provided seeds.
	ErrDerivationFailure = errors.New("diamondhands: address derivation failed")

	// ErrAccountNotFound indicates there is no account at the requested
	// address.
	ErrAccountNotFound = errors.New("diamondhands: account not found")

	// ErrInvalidRecord indicates an account exists at the record address but
	// it is not a lock record owned by the program.
	ErrInvalidRecord = errors.New("diamondhands: invalid lock record")

	// ErrOwnerMismatch indicates the signer does not own the token account
	// passed to an operation.
	ErrOwnerMismatch = errors.New("diamondhands: signer does not own token account")

	ErrInvalidOptions   = errors.New("diamondhands: invalid options")
	ErrInvalidRecordRef = errors.New("diamondhands: empty record reference")
)

// TransportError is a failure talking to the ledger, or decoding what it
// returned. It is never a statement about whether an account exists.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("diamondhands: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newTransportError(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

// ProgramRejection is returned when the ledger refused to execute a
// submitted transaction.
//
// Code is set when the DiamondHands instruction itself raised the error, and
// is ErrorCodeUnknown otherwise (for example, a duplicate record surfaces as a
// system program failure). The raw failure is reachable with errors.As
// against solana.CustomError or solana.InstructionError.
type ProgramRejection struct {
	Signature solana.Signature
	Code      diamondhands_program.ErrorCode
	Err       *solana.TransactionError
}

// newProgramRejection classifies txErr. Custom codes raised by instructions
// addressed to other programs (the vault's ATA creation, for example) share
// the numeric space and are not mapped.
func newProgramRejection(sig solana.Signature, txErr *solana.TransactionError, program ed25519.PublicKey, instructions []solana.Instruction) *ProgramRejection {
	rejection := &ProgramRejection{
		Signature: sig,
		Code:      diamondhands_program.ErrorCodeUnknown,
		Err:       txErr,
	}

	ie := txErr.InstructionError()
	if ie == nil || ie.Index < 0 || ie.Index >= len(instructions) {
		return rejection
	}
	if !bytes.Equal(instructions[ie.Index].Program, program) {
		return rejection
	}

	if custom := ie.CustomError(); custom != nil {
		rejection.Code = diamondhands_program.ErrorCodeFromCustom(*custom)
	}

	return rejection
}

func (e *ProgramRejection) Error() string {
	if e.Code.Known() {
		return fmt.Sprintf("diamondhands: transaction %s rejected: %s", base58.Encode(e.Signature[:]), e.Code.Error())
	}
	return fmt.Sprintf("diamondhands: transaction %s rejected: %v", base58.Encode(e.Signature[:]), e.Err)
}

func (e *ProgramRejection) Unwrap() error {
	if e.Err == nil {
		return nil
	}
	return e.Err
}

// IsProgramRejection reports whether err is a ProgramRejection carrying the
// given program error code.
func IsProgramRejection(err error, code diamondhands_program.ErrorCode) bool {
	var rejection *ProgramRejection
	if !errors.As(err, &rejection) {
		return false
	}
	return rejection.Code == code
}
