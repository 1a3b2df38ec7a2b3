package runtime

import (
	"github.com/pkg/errors"

	"github.com/code-payments/exchange-booth/pkg/solana"
)

// Builtin errors a program or the runtime may return from an instruction.
var (
	ErrGeneric                     error = solana.InstructionErrorGenericError
	ErrInvalidArgument             error = solana.InstructionErrorInvalidArgument
	ErrInvalidInstructionData      error = solana.InstructionErrorInvalidInstructionData
	ErrInvalidAccountData          error = solana.InstructionErrorInvalidAccountData
	ErrAccountDataTooSmall         error = solana.InstructionErrorAccountDataTooSmall
	ErrInsufficientFunds           error = solana.InstructionErrorInsufficientFunds
	ErrIncorrectProgramID          error = solana.InstructionErrorIncorrectProgramID
	ErrMissingRequiredSignature    error = solana.InstructionErrorMissingRequiredSignature
	ErrAccountAlreadyInitialized   error = solana.InstructionErrorAccountAlreadyInitialized
	ErrUninitializedAccount        error = solana.InstructionErrorUninitializedAccount
	ErrUnbalancedInstruction       error = solana.InstructionErrorUnbalancedInstruction
	ErrModifiedProgramID           error = solana.InstructionErrorModifiedProgramID
	ErrExternalAccountLamportSpend error = solana.InstructionErrorExternalAccountLamportSpend
	ErrExternalAccountDataModified error = solana.InstructionErrorExternalAccountDataModified
	ErrReadonlyLamportChange       error = solana.InstructionErrorReadonlyLamportChange
	ErrReadonlyDataModified        error = solana.InstructionErrorReadonlyDataModified
	ErrNotEnoughAccountKeys        error = solana.InstructionErrorNotEnoughAccountKeys
	ErrAccountDataSizeChanged      error = solana.InstructionErrorAccountDataSizeChanged
	ErrUnsupportedProgramID        error = solana.InstructionErrorUnsupportedProgramID
	ErrCallDepth                   error = solana.InstructionErrorCallDepth
	ErrMissingAccount              error = solana.InstructionErrorMissingAccount
	ErrReentrancyNotAllowed        error = solana.InstructionErrorReentrancyNotAllowed
	ErrMaxSeedLengthExceeded       error = solana.InstructionErrorMaxSeedLengthExceeded
	ErrInvalidSeeds                error = solana.InstructionErrorInvalidSeeds
	ErrPrivilegeEscalation         error = solana.InstructionErrorPrivilegeEscalation
)

type customErrorer interface {
	CustomError() solana.CustomError
}

// ToInstructionError converts an error returned while processing the
// instruction at index into the error reported by a transaction. Program
// specific errors become custom errors, builtin errors keep their key and
// anything else is reported as a generic error.
func ToInstructionError(index int, err error) *solana.InstructionError {
	if err == nil {
		return nil
	}

	var key solana.InstructionErrorKey
	if errors.As(err, &key) {
		return &solana.InstructionError{Index: index, Err: key}
	}

	var custom customErrorer
	if errors.As(err, &custom) {
		return &solana.InstructionError{Index: index, Err: custom.CustomError()}
	}

	var code solana.CustomError
	if errors.As(err, &code) {
		return &solana.InstructionError{Index: index, Err: code}
	}

	return &solana.InstructionError{Index: index, Err: solana.InstructionErrorGenericError}
}
