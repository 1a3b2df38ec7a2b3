package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/code-payments/exchange-booth/pkg/app"
	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
)

const (
	rpcConfigKey        = "rpc"
	programIdConfigKey  = "program_id"
	keypairConfigKey    = "keypair"
	commitmentConfigKey = "commitment"
	logLevelConfigKey   = "log_level"

	envPrefix = "EXCHANGE_BOOTH"

	defaultRPCEndpoint = "devnet"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "exchange-booth",
	Short: "Exchange booth CLI",
	Long: `exchange-booth interacts with an exchange booth program on a Solana cluster.

A vault per mint holds lamports and, through its token account, tokens of the
mint. Payers exchange lamports for tokens and back at a fixed rate of 10.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := app.LoadConfig()
		if err != nil {
			return err
		}
		app.ConfigureLogger(config, nil)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.exchange-booth.yaml)")
	flags.String("rpc", defaultRPCEndpoint, "Solana RPC endpoint URL or cluster moniker (devnet, testnet, mainnet-beta, localhost)")
	flags.String("program", base58.Encode(exchangebooth.PROGRAM_ID), "exchange booth program id")
	flags.String("keypair", "~/.config/solana/id.json", "payer keypair file")
	flags.String("commitment", "confirmed", "commitment to wait for (processed, confirmed, finalized)")
	flags.String("log-level", "warn", "log level")

	bindFlag(rpcConfigKey, "rpc")
	bindFlag(programIdConfigKey, "program")
	bindFlag(keypairConfigKey, "keypair")
	bindFlag(commitmentConfigKey, "commitment")
	bindFlag(logLevelConfigKey, "log-level")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding flag: %v\n", err)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".exchange-booth")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
