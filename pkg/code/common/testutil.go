package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newRandomTestAccount mirrors testutil.NewRandomAccount, which cannot be
// imported here without a cycle.
func newRandomTestAccount(t *testing.T) *Account {
	account, err := NewRandomAccount()
	require.NoError(t, err)
	return account
}
