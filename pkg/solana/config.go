package solana

import "strings"

// Cluster is the RPC endpoint of a public Solana cluster.
type Cluster string

const (
	ClusterDevnet   Cluster = "https://api.devnet.solana.com"
	ClusterTestnet  Cluster = "https://api.testnet.solana.com"
	ClusterMainnet  Cluster = "https://api.mainnet-beta.solana.com"
	ClusterLocalnet Cluster = "http://127.0.0.1:8899"
)

// ResolveEndpoint maps a cluster moniker (devnet, testnet, mainnet-beta or
// localhost) to its RPC endpoint. Anything else is assumed to be a URL and
// returned as is.
func ResolveEndpoint(value string) string {
	switch strings.ToLower(value) {
	case "d", "devnet":
		return string(ClusterDevnet)
	case "t", "testnet":
		return string(ClusterTestnet)
	case "m", "mainnet", "mainnet-beta":
		return string(ClusterMainnet)
	case "l", "localhost", "localnet":
		return string(ClusterLocalnet)
	default:
		return value
	}
}
