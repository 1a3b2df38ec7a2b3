package exchangebooth

import (
	"crypto/ed25519"
	"errors"
)

// ErrInvalidAccountData is returned when account state cannot be parsed.
var ErrInvalidAccountData = errors.New("unexpected account data")

var (
	PROGRAM_ADDRESS = mustBase58Decode("ES8qT4AGY1BdhJgA8iMaRDowqknp1vvDFaTG8NWvNKuP")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID    = ed25519.PublicKey(mustBase58Decode("11111111111111111111111111111111"))
	SPL_TOKEN_PROGRAM_ID = ed25519.PublicKey(mustBase58Decode("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"))
)

// ExchangeRate is the number of token units bought by one lamport. It is a
// fixed policy constant.
const ExchangeRate = 10

// TokensForLamports returns the token units paid out by ExchangeOut.
func TokensForLamports(amount uint32) uint64 {
	return uint64(amount) * ExchangeRate
}

// LamportsForTokens returns the lamports released by ExchangeIn. The
// remainder of the division is not tracked.
func LamportsForTokens(amount uint32) uint64 {
	return uint64(amount) / ExchangeRate
}
