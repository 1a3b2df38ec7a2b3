package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/code-payments/exchange-booth/pkg/retry"
	"github.com/code-payments/exchange-booth/pkg/retry/backoff"
)

const (
	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	blockhashTTL = 2 * time.Second
)

// Commitment is the level of finality requested for a query or submission.
type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

var (
	ErrNoAccountInfo     = errors.New("no account info")
	ErrSignatureNotFound = errors.New("signature not found")
)

// AccountInfo is the raw state of a ledger account.
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool

	// Slot is the slot at which the account state was observed.
	Slot uint64
}

type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations will be nil if the transaction has been rooted.
	Confirmations      *int
	ConfirmationStatus string
}

func (s SignatureStatus) Confirmed() bool {
	if s.Finalized() || s.ConfirmationStatus == confirmationStatusConfirmed {
		return true
	}
	return *s.Confirmations >= 1
}

func (s SignatureStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == confirmationStatusFinalized
}

// Client is the subset of the Solana JSON RPC API used to drive programs.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(ed25519.PublicKey, Commitment) (AccountInfo, error)
	GetBalance(ed25519.PublicKey, Commitment) (uint64, error)
	GetLatestBlockhash() (Blockhash, error)

	// GetSignatureStatus returns the current status of a single signature.
	//
	// Returns ErrSignatureNotFound if the node has no record of it.
	GetSignatureStatus(Signature, Commitment) (*SignatureStatus, error)
	GetSignatureStatuses([]Signature) ([]*SignatureStatus, error)

	RequestAirdrop(ed25519.PublicKey, uint64, Commitment) (Signature, error)
	SubmitTransaction(Transaction, Commitment) (Signature, error)
}

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

// contextual is the envelope of RPC results that are tied to a slot.
type contextual[T any] struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value T `json:"value"`
}

type client struct {
	log     *logrus.Entry
	rpc     jsonrpc.RPCClient
	retrier retry.Retrier

	clock     clockwork.Clock
	blockMu   sync.RWMutex
	blockhash Blockhash
	expiry    time.Time
}

// New returns a client using the specified endpoint.
func New(endpoint string) Client {
	return newClient(endpoint, clockwork.NewRealClock())
}

func newClient(endpoint string, clock clockwork.Clock) *client {
	return &client{
		log: logrus.StandardLogger().WithField("type", "solana/client"),
		rpc: jsonrpc.NewClient(endpoint),
		retrier: retry.NewRetrier(
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
		clock: clock,
	}
}

func (c *client) call(out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(func() error {
		err := c.rpc.CallFor(out, method, params...)
		if err == nil {
			return nil
		}

		rpcErr, ok := err.(*jsonrpc.RPCError)
		switch {
		case !ok:
			return err
		case rpcErr.Code == 429:
			c.log.WithField("method", method).Warn("rate limited")
			return errRateLimited
		case rpcErr.Code >= 500 || rpcErr.Code == rpcNodeUnhealthyCode:
			return errServiceError
		default:
			return err
		}
	})
	return err
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (AccountInfo, error) {
	type value struct {
		Lamports   uint64   `json:"lamports"`
		Owner      string   `json:"owner"`
		Data       []string `json:"data"`
		Executable bool     `json:"executable"`
	}

	opts := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	var resp contextual[*value]
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account), opts); err != nil {
		return AccountInfo{}, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return AccountInfo{}, ErrNoAccountInfo
	}

	owner, err := base58.Decode(resp.Value.Owner)
	if err != nil {
		return AccountInfo{}, errors.Wrap(err, "invalid base58 encoded owner")
	}

	if len(resp.Value.Data) == 0 {
		return AccountInfo{}, errors.New("missing account data in response")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return AccountInfo{}, errors.Wrap(err, "invalid base64 encoded data")
	}

	return AccountInfo{
		Data:       data,
		Owner:      owner,
		Lamports:   resp.Value.Lamports,
		Executable: resp.Value.Executable,
		Slot:       resp.Context.Slot,
	}, nil
}

func (c *client) GetBalance(account ed25519.PublicKey, commitment Commitment) (uint64, error) {
	var resp contextual[uint64]
	if err := c.call(&resp, "getBalance", base58.Encode(account), commitment); err != nil {
		return 0, errors.Wrap(err, "getBalance() failed to send request")
	}
	return resp.Value, nil
}

// GetLatestBlockhash returns a recent blockhash. Results are reused for a
// jittered window of about two seconds.
func (c *client) GetLatestBlockhash() (Blockhash, error) {
	c.blockMu.RLock()
	hash, expiry := c.blockhash, c.expiry
	c.blockMu.RUnlock()

	if hash != (Blockhash{}) && c.clock.Now().Before(expiry) {
		return hash, nil
	}

	var resp contextual[struct {
		Blockhash string `json:"blockhash"`
	}]
	if err := c.call(&resp, "getLatestBlockhash"); err != nil {
		return Blockhash{}, errors.Wrap(err, "getLatestBlockhash() failed to send request")
	}

	decoded, err := base58.Decode(resp.Value.Blockhash)
	if err != nil || len(decoded) != len(hash) {
		return Blockhash{}, errors.New("invalid base58 encoded hash in response")
	}
	copy(hash[:], decoded)

	window := time.Duration(float64(blockhashTTL) * (0.8 + 0.4*rand.Float64()))

	c.blockMu.Lock()
	c.blockhash = hash
	c.expiry = c.clock.Now().Add(window)
	c.blockMu.Unlock()

	return hash, nil
}

func (c *client) GetSignatureStatus(sig Signature, _ Commitment) (*SignatureStatus, error) {
	statuses, err := c.GetSignatureStatuses([]Signature{sig})
	if err != nil {
		return nil, err
	}

	if len(statuses) == 0 || statuses[0] == nil {
		return nil, ErrSignatureNotFound
	}
	return statuses[0], nil
}

func (c *client) GetSignatureStatuses(sigs []Signature) ([]*SignatureStatus, error) {
	encoded := make([]string, len(sigs))
	for i, sig := range sigs {
		encoded[i] = sig.ToBase58()
	}

	opts := struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}{
		SearchTransactionHistory: true,
	}

	type status struct {
		Slot               uint64          `json:"slot"`
		Confirmations      *int            `json:"confirmations"`
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	}

	var resp contextual[[]*status]
	if err := c.call(&resp, "getSignatureStatuses", encoded, opts); err != nil {
		return nil, errors.Wrap(err, "getSignatureStatuses() failed to send request")
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if v == nil || i >= len(statuses) {
			continue
		}

		statuses[i] = &SignatureStatus{
			Slot:               v.Slot,
			Confirmations:      v.Confirmations,
			ConfirmationStatus: v.ConfirmationStatus,
		}

		if len(v.Err) == 0 || bytes.Equal(v.Err, []byte("null")) {
			continue
		}

		var raw interface{}
		if err := json.Unmarshal(v.Err, &raw); err != nil {
			return nil, errors.Wrap(err, "failed to parse transaction result")
		}

		txErr, err := ParseTransactionError(raw)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse transaction result")
		}
		statuses[i].ErrorResult = txErr
	}

	return statuses, nil
}

func (c *client) RequestAirdrop(account ed25519.PublicKey, lamports uint64, commitment Commitment) (Signature, error) {
	var encoded string
	if err := c.call(&encoded, "requestAirdrop", base58.Encode(account), lamports, commitment); err != nil {
		return Signature{}, errors.Wrap(err, "requestAirdrop() failed to send request")
	}

	return parseSignature(encoded)
}

// SubmitTransaction sends a signed transaction with preflight checks enabled.
// A transaction rejected by preflight is returned as its *TransactionError.
func (c *client) SubmitTransaction(txn Transaction, commitment Commitment) (Signature, error) {
	sig := txn.Signatures[0]

	opts := struct {
		SkipPreflight       bool   `json:"skipPreflight"`
		PreflightCommitment string `json:"preflightCommitment"`
	}{
		PreflightCommitment: commitment.Commitment,
	}

	var encoded string
	err := c.call(&encoded, "sendTransaction", base58.Encode(txn.Marshal()), opts)
	if err == nil {
		return sig, nil
	}

	rpcErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return sig, errors.Wrap(err, "sendTransaction() failed to send request")
	}

	txErr, parseErr := ParseRPCError(rpcErr)
	if parseErr != nil || txErr == nil {
		return sig, err
	}

	c.log.WithFields(logrus.Fields{
		"method":    "SubmitTransaction",
		"signature": sig.ToBase58(),
	}).WithError(txErr).Debug("transaction rejected")
	return sig, txErr
}

func parseSignature(encoded string) (Signature, error) {
	decoded, err := base58.Decode(encoded)
	if err != nil || len(decoded) != ed25519.SignatureSize {
		return Signature{}, errors.New("invalid signature in response")
	}

	var sig Signature
	copy(sig[:], decoded)
	if sig == (Signature{}) {
		return Signature{}, errors.New("empty signature returned")
	}
	return sig, nil
}
