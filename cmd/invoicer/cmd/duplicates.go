package cmd

import (
	"fmt"
	"io"
	"strings"

	"golang-invoice-service/internal/models"
	"golang-invoice-service/internal/reporter"
	pipelineerrors "golang-invoice-service/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var keyColumn string

// duplicatesCmd represents the duplicates command
var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List rows that share a key column value",
	Long: `Duplicates groups rows whose key column holds the same non-empty value.
The key defaults to the column detected as the RRN.

Examples:
  invoicer duplicates --file settlements.csv
  invoicer duplicates --file settlements.xlsx --key "UTR No" --output-format csv`,

	PreRunE: validateDuplicatesFlags,
	RunE:    runDuplicates,
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)
	addInputFlags(duplicatesCmd)
	addOutputFlags(duplicatesCmd)
	duplicatesCmd.Flags().StringP("key", "k", "", "column to group by (default: detected RRN column)")
}

func validateDuplicatesFlags(cmd *cobra.Command, args []string) error {
	if err := readInputFlags(cmd); err != nil {
		return err
	}
	keyColumn = viper.GetString("key")
	return nil
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	service, err := newService()
	if err != nil {
		return err
	}

	dataset, err := service.LoadFile(inputFile, mimeHint)
	if err != nil {
		return err
	}

	key := keyColumn
	if key == "" {
		detected, ok := dataset.Classification.Header(models.RoleRrn)
		if !ok {
			return pipelineerrors.New(pipelineerrors.CategoryInput, pipelineerrors.CodeUnknownColumn,
				"no RRN column was detected").
				WithContext("available_headers", strings.Join(dataset.Table.Headers, ", ")).
				WithSuggestion("Pass the key column explicitly with --key")
		}
		key = detected
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(cmd.ErrOrStderr(), "Grouping %s by column %q\n", inputFile, key)
	}

	analysis, err := service.Analyze(dataset, key)
	if err != nil {
		return err
	}

	return writeReport(cmd, "duplicates", outputFormat, outputFile, func(rg *reporter.ReportGenerator, w io.Writer) error {
		return rg.GenerateAnalysisReport(analysis, w)
	})
}
