// Command settlementgen writes synthetic settlement exports for trying out invoicer.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang-invoice-service/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	output         string
	count          int
	seed           int64
	startDate      string
	endDate        string
	minAmount      float64
	maxAmount      float64
	duplicateRatio float64
	malformedRatio float64
)

var rootCmd = &cobra.Command{
	Use:   "settlementgen",
	Short: "Generate synthetic settlement exports",
	Long: `Settlementgen writes a settlement export with RRN, payer VPA, amount,
merchant, date, time and remarks columns. The output format follows the
file extension (.csv or .xlsx).

Examples:
  settlementgen --output settlements.csv --count 1000
  settlementgen --output settlements.xlsx --duplicates 0.05 --malformed 0.01 --seed 7`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&output, "output", "o", "settlements.csv", "output file (.csv or .xlsx)")
	rootCmd.Flags().IntVarP(&count, "count", "n", 1000, "number of rows to generate")
	rootCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed for reproducible output")
	rootCmd.Flags().StringVar(&startDate, "start-date", "2024-01-01", "start date (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&endDate, "end-date", "2024-03-31", "end date (YYYY-MM-DD)")
	rootCmd.Flags().Float64Var(&minAmount, "min-amount", 10, "minimum amount")
	rootCmd.Flags().Float64Var(&maxAmount, "max-amount", 5000, "maximum amount")
	rootCmd.Flags().Float64Var(&duplicateRatio, "duplicates", 0.02, "share of rows repeating an earlier RRN")
	rootCmd.Flags().Float64Var(&malformedRatio, "malformed", 0, "share of rows with a non-numeric amount")
}

func run(cmd *cobra.Command, args []string) error {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("start date cannot be after end date")
	}
	if count <= 0 {
		return fmt.Errorf("count must be positive")
	}

	var write func(io.Writer, []testutil.SettlementRecord) error
	switch strings.ToLower(filepath.Ext(output)) {
	case ".csv":
		write = testutil.WriteCSV
	case ".xlsx":
		write = testutil.WriteXLSX
	default:
		return fmt.Errorf("unsupported output extension %q, use .csv or .xlsx", filepath.Ext(output))
	}

	generator := testutil.NewSettlementGenerator(count, seed)
	generator.StartDate = start
	generator.EndDate = end
	generator.MinAmount = decimal.NewFromFloat(minAmount)
	generator.MaxAmount = decimal.NewFromFloat(maxAmount)
	generator.DuplicateRatio = duplicateRatio
	generator.MalformedRatio = malformedRatio

	records := generator.Generate()

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := write(file, records); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d rows in %s\n", len(records), output)
	fmt.Fprintf(cmd.OutOrStdout(), "Repeated RRNs: %d\n", len(testutil.DuplicateKeys(records)))
	fmt.Fprintf(cmd.OutOrStdout(), "Seed used: %d\n", seed)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
