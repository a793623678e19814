package diamondhands_program

import (
	"fmt"

	"github.com/code-payments/diamondhands/pkg/solana"
)

// ErrorCode is a custom error returned by the program. The zero value is
// not produced by the program and stands for any other failure.
type ErrorCode uint32

const ErrorCodeUnknown ErrorCode = 0

// Program errors. Anchor offsets user-defined codes by 300.
const (
	// General Error
	ErrorGeneralError ErrorCode = iota + 300

	// Could not transfer the Tokens from the vault
	ErrorCouldNotTX

	// Not enough tokens in the owner's vault
	ErrorNotEnoughTokens

	// You need to freeze your asset for at least 100 hours
	ErrorFreezeTimeTooShort

	// The dha seed/nonce does not match or is not correct
	ErrorBadDHAAddress

	// The gatekeeper seed/nonce does not match or is not correct
	ErrorBadGatekeeper

	// The gatekeeper's token account does not have enough tokens
	ErrorNotEnoughTokensInAccount

	// The assets are still frozen
	ErrorStillFrozen

	// The assets have already been thawed and retrieved
	ErrorAlreadyThawed
)

// Anchor framework errors raised while validating instruction accounts.
const (
	ErrorInstructionDidNotDeserialize ErrorCode = 102

	ErrorConstraintMut    ErrorCode = 140
	ErrorConstraintHasOne ErrorCode = 141
	ErrorConstraintRaw    ErrorCode = 143
	ErrorConstraintSeeds  ErrorCode = 146

	ErrorAccountDiscriminatorMismatch ErrorCode = 162
	ErrorAccountDidNotDeserialize     ErrorCode = 163
	ErrorAccountNotEnoughKeys         ErrorCode = 165
)

var errorMessages = map[ErrorCode]string{
	ErrorGeneralError:             "General Error",
	ErrorCouldNotTX:               "Could not transfer the Tokens from the vault",
	ErrorNotEnoughTokens:          "Not enough tokens in the owner's vault",
	ErrorFreezeTimeTooShort:       "You need to freeze your asset for at least 100 hours",
	ErrorBadDHAAddress:            "The dha seed/nonce does not match or is not correct",
	ErrorBadGatekeeper:            "The gatekeeper seed/nonce does not match or is not correct",
	ErrorNotEnoughTokensInAccount: "The gatekeeper's token account does not have enough tokens",
	ErrorStillFrozen:              "The assets are still frozen",
	ErrorAlreadyThawed:            "The assets have already been thawed and retrieved",

	ErrorInstructionDidNotDeserialize: "The program could not deserialize the given instruction",
	ErrorConstraintMut:                "A mut constraint was violated",
	ErrorConstraintHasOne:             "A has_one constraint was violated",
	ErrorConstraintRaw:                "A raw constraint was violated",
	ErrorConstraintSeeds:              "A seeds constraint was violated",
	ErrorAccountDiscriminatorMismatch: "8 byte discriminator did not match what was expected",
	ErrorAccountDidNotDeserialize:     "Failed to deserialize the account",
	ErrorAccountNotEnoughKeys:         "Not enough account keys given to the instruction",
}

// Known reports whether the code is one the program can return.
func (e ErrorCode) Known() bool {
	_, ok := errorMessages[e]
	return ok
}

func (e ErrorCode) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}
	return fmt.Sprintf("unknown diamondhands error: %d", uint32(e))
}

// ErrorCodeFromCustom maps a custom instruction error to a known program
// error, or ErrorCodeUnknown.
func ErrorCodeFromCustom(custom solana.CustomError) ErrorCode {
	code := ErrorCode(custom)
	if !code.Known() {
		return ErrorCodeUnknown
	}
	return code
}
