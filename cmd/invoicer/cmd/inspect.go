package cmd

import (
	"fmt"
	"io"

	"golang-invoice-service/internal/models"
	"golang-invoice-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags shared by the inspect and duplicates commands
var (
	inputFile    string
	mimeHint     string
	outputFormat string
	outputFile   string
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show headers, detected column roles and duplicate rows",
	Long: `Inspect loads a spreadsheet, prints its headers and row count, the column
detected for each role and any rows that share an RRN.

Examples:
  invoicer inspect --file settlements.xlsx
  invoicer inspect --file export.bin --mime text/csv --output-format json`,

	PreRunE: validateInspectFlags,
	RunE:    runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	addInputFlags(inspectCmd)
	addOutputFlags(inspectCmd)
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "i", "", "path to the CSV, XLSX or XLS file (required)")
	cmd.Flags().String("mime", "", "MIME type or extension of the file (default: from the file name)")
	cmd.MarkFlagRequired("file")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output-format", "f", "console", "output format: console, json, csv")
	cmd.Flags().StringP("output-file", "o", "", "output file path (default: stdout)")
}

func readInputFlags(cmd *cobra.Command) error {
	if err := bindFlags(cmd); err != nil {
		return err
	}

	inputFile = viper.GetString("file")
	mimeHint = viper.GetString("mime")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	if outputFormat == "" {
		outputFormat = "console"
	}

	if inputFile == "" {
		return fmt.Errorf("file is required")
	}
	if err := validateFileExists(inputFile, "input file"); err != nil {
		return err
	}
	if err := validateOutputFormat(outputFormat); err != nil {
		return err
	}
	return validateOutputFile(outputFile)
}

func validateInspectFlags(cmd *cobra.Command, args []string) error {
	return readInputFlags(cmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		fmt.Fprintf(cmd.ErrOrStderr(), "Inspecting %s\n", inputFile)
	}

	service, err := newService()
	if err != nil {
		return err
	}

	dataset, err := service.LoadFile(inputFile, mimeHint)
	if err != nil {
		return err
	}

	key, _ := dataset.Classification.Header(models.RoleRrn)
	analysis, err := service.Analyze(dataset, key)
	if err != nil {
		return err
	}

	return writeReport(cmd, "analysis", outputFormat, outputFile, func(rg *reporter.ReportGenerator, w io.Writer) error {
		return rg.GenerateAnalysisReport(analysis, w)
	})
}
