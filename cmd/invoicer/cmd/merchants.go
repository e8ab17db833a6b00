package cmd

import (
	"io"

	"golang-invoice-service/cmd/invoicer/config"
	"golang-invoice-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// merchantsCmd represents the merchants command
var merchantsCmd = &cobra.Command{
	Use:   "merchants",
	Short: "List the merchant profiles in the registry",
	Long: `Merchants prints every profile in the merchant registry along with its
invoice prefix. Use --merchants to load a registry file instead of the
built-in one, and -v to include addresses, tax ids and aliases.

Examples:
  invoicer merchants
  invoicer merchants --merchants merchants.yaml --output-format json`,

	PreRunE: validateMerchantsFlags,
	RunE:    runMerchants,
}

func init() {
	rootCmd.AddCommand(merchantsCmd)
	addOutputFlags(merchantsCmd)
}

func validateMerchantsFlags(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd); err != nil {
		return err
	}

	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	if outputFormat == "" {
		outputFormat = "console"
	}
	if err := validateOutputFormat(outputFormat); err != nil {
		return err
	}
	return validateOutputFile(outputFile)
}

func runMerchants(cmd *cobra.Command, args []string) error {
	registry, err := config.CreateRegistry(viper.GetString("merchants"))
	if err != nil {
		return err
	}

	return writeReport(cmd, "merchants", outputFormat, outputFile, func(rg *reporter.ReportGenerator, w io.Writer) error {
		return rg.GenerateMerchantReport(registry.Profiles(), registry.DefaultID(), w)
	})
}
