package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang-invoice-service/cmd/invoicer/config"
	"golang-invoice-service/internal/invoice"
	"golang-invoice-service/internal/models"
	"golang-invoice-service/internal/pipeline"
	"golang-invoice-service/internal/reporter"
	pipelineerrors "golang-invoice-service/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the generate command
var (
	selection models.UserSelection
	rowFilter invoice.RowFilter
	outputDir string
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Assemble invoice records from a transaction spreadsheet",
	Long: `Generate builds one invoice record per row using the columns you select.
The RRN, UPI and amount columns are required, plus either a merchant column
or an invoice prefix.

Examples:
  # Merchant resolved per row
  invoicer generate --file settlements.csv --rrn-column RRN --upi-column "Payer VPA" \
    --amount-column Amount --merchant-column Merchant

  # Single merchant with a manual prefix, first ten rows only
  invoicer generate --file settlements.xlsx --rrn-column RRN --upi-column VPA \
    --amount-column Amount --invoice-prefix INV --rows 1-10

  # JSON summary plus one document per invoice
  invoicer generate --file settlements.csv --rrn-column RRN --upi-column VPA \
    --amount-column Amount --merchant-column Merchant \
    --prefix-override zenwallet=ZWX --output-format json --output-dir invoices/`,

	PreRunE: validateGenerateFlags,
	RunE:    runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	addInputFlags(generateCmd)
	addOutputFlags(generateCmd)

	// Column selection
	generateCmd.Flags().String("rrn-column", "", "column holding the RRN (required)")
	generateCmd.Flags().String("upi-column", "", "column holding the payer UPI id (required)")
	generateCmd.Flags().String("amount-column", "", "column holding the amount (required)")
	generateCmd.Flags().String("merchant-column", "", "column naming the merchant")
	generateCmd.Flags().String("invoice-prefix", "", "invoice prefix when there is no merchant column")

	generateCmd.Flags().StringSlice("prefix-override", []string{}, "replace a merchant's prefix, as id=PREFIX (repeatable)")
	generateCmd.Flags().String("rows", "", "1-based rows to generate, e.g. 1-10,15 (default: all)")
	generateCmd.Flags().String("output-dir", "", "write one JSON document per invoice into this directory")
}

func validateGenerateFlags(cmd *cobra.Command, args []string) error {
	if err := readInputFlags(cmd); err != nil {
		return err
	}

	selection = config.CreateSelection(
		viper.GetString("rrn-column"),
		viper.GetString("upi-column"),
		viper.GetString("amount-column"),
		viper.GetString("merchant-column"),
		viper.GetString("invoice-prefix"),
	)
	outputDir = viper.GetString("output-dir")

	filter, err := invoice.ParseRowFilter(viper.GetString("rows"))
	if err != nil {
		return err
	}
	rowFilter = filter

	if _, err := config.ParsePrefixOverrides(viper.GetStringSlice("prefix-override")); err != nil {
		return err
	}

	return invoice.ValidateSelection(selection)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verbose := viper.GetBool("verbose")
	stderr := cmd.ErrOrStderr()
	if verbose {
		fmt.Fprintf(stderr, "Starting invoice generation...\n")
		fmt.Fprintf(stderr, "Input file: %s\n", inputFile)
		fmt.Fprintf(stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(stderr, "Output file: %s\n", outputFile)
		}
	}

	service, err := newService()
	if err != nil {
		return err
	}

	dataset, err := service.LoadFile(inputFile, mimeHint)
	if err != nil {
		return err
	}

	result, err := service.Generate(ctx, dataset, &pipeline.GenerateRequest{
		Selection: selection,
		Rows:      rowFilter,
	})
	if err != nil {
		return err
	}

	if outputDir != "" {
		paths, err := reporter.WriteDocuments(result, outputDir)
		if err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(stderr, "Wrote %d invoice documents to %s\n", len(paths), outputDir)
		}
	}

	err = writeReport(cmd, "invoice", outputFormat, outputFile, func(rg *reporter.ReportGenerator, w io.Writer) error {
		return rg.GenerateInvoiceReport(result, w)
	})
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(stderr, "\nGenerated %d invoices totalling %s.\n",
			result.Summary.TotalRecords, result.Summary.TotalAmount.StringFixed(2))
		if result.Summary.FallbackCount > 0 {
			fmt.Fprintln(stderr, pipelineerrors.FormatFallbacksForUser(result.Fallbacks, result.Summary.FallbackCount))
		}
		fmt.Fprintf(stderr, "Processing time: %v\n", result.Summary.ProcessingTime)
	}

	return nil
}
