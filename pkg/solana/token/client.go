package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/exchange-booth/pkg/solana"
)

var (
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidTokenAccount is returned for accounts that are not
	// initialized token accounts of the client's mint.
	ErrInvalidTokenAccount = errors.New("invalid token account")

	// ErrInvalidMint is returned when the mint address does not hold an
	// initialized mint.
	ErrInvalidMint = errors.New("invalid mint")
)

// Client reads token program state for a single mint.
type Client struct {
	sc   solana.Client
	mint ed25519.PublicKey
}

func NewClient(sc solana.Client, mint ed25519.PublicKey) *Client {
	return &Client{
		sc:   sc,
		mint: mint,
	}
}

// Token returns the client's mint.
func (c *Client) Token() ed25519.PublicKey {
	return c.mint
}

// GetAccount returns the token account at address, which must belong to the
// client's mint.
func (c *Client) GetAccount(address ed25519.PublicKey, commitment solana.Commitment) (*Account, error) {
	data, err := c.fetch(address, commitment, ErrInvalidTokenAccount)
	if err != nil {
		return nil, err
	}

	var account Account
	if !account.Unmarshal(data) || !account.IsInitialized() || !bytes.Equal(account.Mint, c.mint) {
		return nil, ErrInvalidTokenAccount
	}
	return &account, nil
}

func (c *Client) GetMint(commitment solana.Commitment) (*Mint, error) {
	data, err := c.fetch(c.mint, commitment, ErrInvalidMint)
	if err != nil {
		return nil, err
	}

	var mint Mint
	if !mint.Unmarshal(data) || !mint.IsInitialized {
		return nil, ErrInvalidMint
	}
	return &mint, nil
}

// fetch returns the data of a token program owned account, or notOwned if
// another program owns it.
func (c *Client) fetch(address ed25519.PublicKey, commitment solana.Commitment, notOwned error) ([]byte, error) {
	info, err := c.sc.GetAccountInfo(address, commitment)
	switch {
	case err == solana.ErrNoAccountInfo:
		return nil, ErrAccountNotFound
	case err != nil:
		return nil, errors.Wrap(err, "failed to get account info")
	case !bytes.Equal(info.Owner, ProgramKey):
		return nil, notOwned
	}
	return info.Data, nil
}
