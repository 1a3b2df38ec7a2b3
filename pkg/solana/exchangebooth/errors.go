package exchangebooth

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/exchange-booth/pkg/solana"
)

type ExchangeBoothError uint32

const (
	// Instruction buffer is empty
	InvalidInstruction ExchangeBoothError = iota

	// Unknown instruction tag or truncated amount
	InvalidInstructionData

	// Supplied account does not match the expected address
	InvalidAccountAddress

	// Supplied vault does not match the derived vault address
	InvalidVaultAccount

	ExchangeBoothNotWritable
	AccountIsNotWritable
	AccountIsNotSigner
	InvalidOwner
	InsufficientFunds
	AccountNotInitialized
	InvalidSPLTokenAccount
	InvalidMint
	UniqueMintAccounts
)

var errorMessages = map[ExchangeBoothError]string{
	InvalidInstruction:       "Invalid Instruction.",
	InvalidInstructionData:   "Invalid Instruction Data.",
	InvalidAccountAddress:    "Invalid Account address.",
	InvalidVaultAccount:      "Invalid Vault Account",
	ExchangeBoothNotWritable: "Exchange booth is not writable",
	AccountIsNotWritable:     "Account is not writable",
	AccountIsNotSigner:       "Account is not signer",
	InvalidOwner:             "Not correct owner",
	InsufficientFunds:        "Insufficient funds",
	AccountNotInitialized:    "Account is not initialized",
	InvalidSPLTokenAccount:   "Invalid SPL token account",
	InvalidMint:              "Invalid mint key",
	UniqueMintAccounts:       "Accounts cannot have the same mint",
}

func (e ExchangeBoothError) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}
	return fmt.Sprintf("unknown exchange booth error: %d", uint32(e))
}

// CustomError returns the code reported in a transaction's instruction error.
func (e ExchangeBoothError) CustomError() solana.CustomError {
	return solana.CustomError(e)
}

// GetError maps an error returned by the program, a transaction or an RPC
// submission back to the named booth error. The second return value is false
// when err does not carry a booth error code.
func GetError(err error) (ExchangeBoothError, bool) {
	if err == nil {
		return 0, false
	}

	var boothErr ExchangeBoothError
	if errors.As(err, &boothErr) {
		return boothErr, true
	}

	var customErr solana.CustomError
	if errors.As(err, &customErr) {
		if customErr < 0 || int(customErr) >= len(errorMessages) {
			return 0, false
		}
		return ExchangeBoothError(customErr), true
	}

	return 0, false
}
