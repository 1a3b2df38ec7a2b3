package solana

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEndpoint(t *testing.T) {
	for _, tc := range []struct {
		value    string
		expected string
	}{
		{"devnet", string(ClusterDevnet)},
		{"d", string(ClusterDevnet)},
		{"Testnet", string(ClusterTestnet)},
		{"mainnet-beta", string(ClusterMainnet)},
		{"localhost", string(ClusterLocalnet)},
		{"https://rpc.example.com", "https://rpc.example.com"},
		{"", ""},
	} {
		assert.Equal(t, tc.expected, ResolveEndpoint(tc.value), tc.value)
	}
}
