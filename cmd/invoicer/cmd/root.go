package cmd

import (
	"fmt"
	"os"
	"strings"

	"golang-invoice-service/cmd/invoicer/config"
	"golang-invoice-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "invoicer",
	Short: "Transaction spreadsheet to invoice tool",
	Long: `Invoicer reads settlement exports (CSV, XLSX or legacy XLS), works out
which columns hold the RRN, payer VPA, amount, merchant and dates, flags
duplicate rows and assembles one invoice record per transaction.

Examples:
  invoicer inspect --file settlements.xlsx
  invoicer duplicates --file settlements.csv --key RRN
  invoicer generate --file settlements.csv --rrn-column RRN --upi-column "Payer VPA" \
    --amount-column Amount --merchant-column Merchant --output-format json
  invoicer merchants --merchants merchants.yaml
  invoicer version`,
	Version:           getVersionString(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: configureLogging,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional, yaml/json/toml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text, json")
	rootCmd.PersistentFlags().String("merchants", "", "merchant registry YAML file (default: built-in registry)")
	rootCmd.PersistentFlags().String("patterns", "", "column pattern overrides YAML file")
	rootCmd.PersistentFlags().String("tenant", "", "merchant id whose column patterns classify the file (default: registry default)")

	// Bind flags to viper
	viper.BindPFlags(rootCmd.PersistentFlags())
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(4)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	// INVOICER_RRN_COLUMN sets rrn-column
	viper.SetEnvPrefix("INVOICER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// configureLogging replaces the global logger according to --verbose and --log-format
func configureLogging(cmd *cobra.Command, args []string) error {
	logConfig, err := config.CreateLoggerConfig(viper.GetBool("verbose"), viper.GetString("log-format"))
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(logConfig)
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(log)
	return nil
}

// bindFlags binds a command's local flags to viper. Commands share flag
// names, so binding happens when the command runs rather than in init.
func bindFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
