// Package reporter writes invoice batches, file analyses and merchant
// listings for people and for other programs.
//
// Supported output formats:
//   - Console: human-readable sections for terminal display
//   - JSON: structured data for programmatic consumption
//   - CSV: one line per record for spreadsheet applications
//
// Invoice values are written under their fixed document labels ("Bill to",
// "RRN No.", "Invoice No.", "Transaction Date & Time", "Net Amount") exactly
// as assembled, so a renderer can consume any of the formats.
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(reporter.DefaultReportConfig())
//	err = generator.GenerateInvoiceReport(result, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang-invoice-service/internal/formatter"
	"golang-invoice-service/internal/invoice"
	"golang-invoice-service/internal/models"
	"golang-invoice-service/internal/pipeline"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format" mapstructure:"format"`

	// Detail level options
	IncludeRecords         bool `json:"include_records" mapstructure:"include_records"`
	IncludeFallbacks       bool `json:"include_fallbacks" mapstructure:"include_fallbacks"`
	IncludeMerchantDetails bool `json:"include_merchant_details" mapstructure:"include_merchant_details"`

	// MaxConsoleItems limits list sections on the console. Zero means no limit.
	MaxConsoleItems int `json:"max_console_items" mapstructure:"max_console_items"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter" mapstructure:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers" mapstructure:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:                 FormatConsole,
		IncludeRecords:         true,
		IncludeFallbacks:       true,
		IncludeMerchantDetails: false,
		MaxConsoleItems:        50,
		CSVDelimiter:           ',',
		CSVHeaders:             true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.MaxConsoleItems < 0 {
		return fmt.Errorf("max console items cannot be negative, got %d", c.MaxConsoleItems)
	}

	switch c.CSVDelimiter {
	case 0, '"', '\r', '\n':
		return fmt.Errorf("invalid CSV delimiter %q", c.CSVDelimiter)
	}

	return nil
}

// ReportGenerator generates reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// GenerateInvoiceReport writes a batch of invoice records
func (rg *ReportGenerator) GenerateInvoiceReport(result *invoice.BatchResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("batch result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleInvoiceReport(result, writer)
	case FormatJSON:
		return rg.writeJSON(rg.filterBatchForOutput(result), writer)
	case FormatCSV:
		return rg.generateCSVInvoiceReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// GenerateAnalysisReport writes headers, column classification and duplicate groups
func (rg *ReportGenerator) GenerateAnalysisReport(analysis *pipeline.Analysis, writer io.Writer) error {
	if analysis == nil {
		return fmt.Errorf("analysis cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleAnalysisReport(analysis, writer)
	case FormatJSON:
		return rg.writeJSON(analysis, writer)
	case FormatCSV:
		return rg.generateCSVAnalysisReport(analysis, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// GenerateMerchantReport writes the merchant registry
func (rg *ReportGenerator) GenerateMerchantReport(profiles []models.MerchantProfile, defaultID string, writer io.Writer) error {
	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleMerchantReport(profiles, defaultID, writer)
	case FormatJSON:
		return rg.writeJSON(map[string]interface{}{
			"default":  defaultID,
			"profiles": profiles,
		}, writer)
	case FormatCSV:
		return rg.generateCSVMerchantReport(profiles, defaultID, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) writeJSON(v interface{}, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	return encoder.Encode(v)
}

// Console output

func (rg *ReportGenerator) generateConsoleInvoiceReport(result *invoice.BatchResult, writer io.Writer) error {
	fmt.Fprintf(writer, "INVOICE BATCH REPORT\n")
	fmt.Fprintf(writer, "Batch ID: %s\n", result.BatchID)
	fmt.Fprintf(writer, "Generated: %s\n", result.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Processing Duration: %v\n\n", result.Summary.ProcessingTime)

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	rg.printBatchSummary(result.Summary, writer)
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeRecords && len(result.Records) > 0 {
		fmt.Fprintf(writer, "=== INVOICES ===\n")
		rg.printRecords(result.Records, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeFallbacks && len(result.Fallbacks) > 0 {
		fmt.Fprintf(writer, "=== FORMAT FALLBACKS ===\n")
		rg.printFallbacks(result, writer)
	}

	return nil
}

func (rg *ReportGenerator) printBatchSummary(summary invoice.BatchSummary, writer io.Writer) {
	fmt.Fprintf(writer, "Invoices:      %d\n", summary.TotalRecords)
	fmt.Fprintf(writer, "Total Amount:  %s\n", formatter.FormatCurrency(summary.TotalAmount.InexactFloat64()))
	fmt.Fprintf(writer, "Fallbacks:     %d\n", summary.FallbackCount)

	if len(summary.ByMerchant) > 0 {
		fmt.Fprintf(writer, "\nBy Merchant:\n")
		for _, id := range sortedKeys(summary.ByMerchant) {
			fmt.Fprintf(writer, "  %-12s %d (%.1f%%)\n", id+":", summary.ByMerchant[id],
				rg.calculatePercentage(summary.ByMerchant[id], summary.TotalRecords))
		}
	}
}

func (rg *ReportGenerator) printRecords(records []models.InvoiceRecord, writer io.Writer) {
	for i, record := range records {
		if rg.limitReached(i, len(records), writer) {
			break
		}

		fmt.Fprintf(writer, "%d. %s (row %d)\n", i+1, record.InvoiceNumber, record.RowIndex)
		for _, field := range record.DocumentFields() {
			fmt.Fprintf(writer, "   %-24s %s\n", field.Label+":", field.Value)
		}
		fmt.Fprintf(writer, "   %-24s %s (%s)\n", "Merchant:", record.Merchant.CompanyName, record.Merchant.ID)
		if rg.config.IncludeMerchantDetails {
			fmt.Fprintf(writer, "   %-24s %s\n", "Address:", record.Merchant.Address)
			if record.Merchant.TaxID != "" {
				fmt.Fprintf(writer, "   %-24s %s\n", "Tax ID:", record.Merchant.TaxID)
			}
		}
		fmt.Fprintf(writer, "   %-24s %s\n", "Remarks:", record.Remarks)
		fmt.Fprintf(writer, "   %-24s %s\n", "File:", record.Filename)
	}
}

func (rg *ReportGenerator) printFallbacks(result *invoice.BatchResult, writer io.Writer) {
	for i, fallback := range result.Fallbacks {
		if rg.limitReached(i, len(result.Fallbacks), writer) {
			break
		}
		fmt.Fprintf(writer, "  - %s\n", fallback.String())
	}
	if hidden := result.Summary.FallbackCount - len(result.Fallbacks); hidden > 0 {
		fmt.Fprintf(writer, "  (%d more not sampled)\n", hidden)
	}
}

func (rg *ReportGenerator) generateConsoleAnalysisReport(analysis *pipeline.Analysis, writer io.Writer) error {
	fmt.Fprintf(writer, "FILE ANALYSIS\n")
	fmt.Fprintf(writer, "Source: %s\n", analysis.Source)
	fmt.Fprintf(writer, "Rows:   %d\n\n", analysis.RowCount)

	fmt.Fprintf(writer, "=== HEADERS ===\n")
	for i, header := range analysis.Headers {
		fmt.Fprintf(writer, "  %d. %s\n", i+1, header)
	}
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== COLUMN CLASSIFICATION ===\n")
	for _, role := range models.AllRoles {
		header, ok := analysis.Classification.Header(role)
		if !ok {
			header = "(not detected)"
		}
		fmt.Fprintf(writer, "  %-18s %s\n", string(role)+":", header)
	}

	if analysis.Duplicates != nil {
		fmt.Fprintf(writer, "\n=== DUPLICATES (key: %s) ===\n", analysis.Duplicates.KeyColumn)
		fmt.Fprintf(writer, "Groups: %d, rows involved: %d\n", len(analysis.Duplicates.Groups), analysis.Duplicates.DuplicateRows)
		for i, group := range analysis.Duplicates.Groups {
			if rg.limitReached(i, len(analysis.Duplicates.Groups), writer) {
				break
			}
			fmt.Fprintf(writer, "  %d. %s x%d (rows %s)\n", i+1, group.Key, group.Count(), memberRows(group))
		}
	}

	return nil
}

func (rg *ReportGenerator) generateConsoleMerchantReport(profiles []models.MerchantProfile, defaultID string, writer io.Writer) error {
	fmt.Fprintf(writer, "=== MERCHANTS ===\n")
	for i, p := range profiles {
		marker := ""
		if p.ID == defaultID {
			marker = " (default)"
		}
		fmt.Fprintf(writer, "%d. %s%s\n", i+1, p.ID, marker)
		fmt.Fprintf(writer, "   Company: %s\n", p.CompanyName)
		fmt.Fprintf(writer, "   Prefix:  %s\n", p.InvoicePrefix)
		if rg.config.IncludeMerchantDetails {
			fmt.Fprintf(writer, "   Address: %s\n", p.Address)
			fmt.Fprintf(writer, "   Tax ID:  %s\n", p.TaxID)
		}
		if len(p.Aliases) > 0 {
			fmt.Fprintf(writer, "   Aliases: %s\n", strings.Join(p.Aliases, ", "))
		}
	}
	return nil
}

// CSV output

func (rg *ReportGenerator) newCSVWriter(writer io.Writer) *csv.Writer {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	return csvWriter
}

func (rg *ReportGenerator) generateCSVInvoiceReport(result *invoice.BatchResult, writer io.Writer) error {
	csvWriter := rg.newCSVWriter(writer)

	if rg.config.CSVHeaders {
		headers := []string{
			models.LabelInvoiceNumber,
			models.LabelBillTo,
			models.LabelRRN,
			models.LabelDateTime,
			models.LabelNetAmount,
			"Merchant",
			"Company",
			"Remarks",
			"Filename",
			"Row",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, r := range result.Records {
		record := []string{
			r.InvoiceNumber,
			r.BillTo,
			r.RRN,
			r.TransactionDateTime,
			r.Amount.StringFixed(2),
			r.Merchant.ID,
			r.Merchant.CompanyName,
			r.Remarks,
			r.Filename,
			strconv.Itoa(r.RowIndex),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write invoice record %s: %w", r.InvoiceNumber, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (rg *ReportGenerator) generateCSVAnalysisReport(analysis *pipeline.Analysis, writer io.Writer) error {
	csvWriter := rg.newCSVWriter(writer)

	if rg.config.CSVHeaders {
		if err := csvWriter.Write([]string{"Section", "Key", "Value"}); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, role := range models.AllRoles {
		header, _ := analysis.Classification.Header(role)
		if err := csvWriter.Write([]string{"classification", string(role), header}); err != nil {
			return fmt.Errorf("failed to write classification: %w", err)
		}
	}

	if analysis.Duplicates != nil {
		for _, group := range analysis.Duplicates.Groups {
			for _, member := range group.Members {
				if err := csvWriter.Write([]string{"duplicate", group.Key, strconv.Itoa(member.Row.Index)}); err != nil {
					return fmt.Errorf("failed to write duplicate group %s: %w", group.Key, err)
				}
			}
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (rg *ReportGenerator) generateCSVMerchantReport(profiles []models.MerchantProfile, defaultID string, writer io.Writer) error {
	csvWriter := rg.newCSVWriter(writer)

	if rg.config.CSVHeaders {
		headers := []string{"ID", "Company", "Address", "Tax_ID", "Invoice_Prefix", "Aliases", "Default"}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, p := range profiles {
		record := []string{
			p.ID,
			p.CompanyName,
			p.Address,
			p.TaxID,
			p.InvoicePrefix,
			strings.Join(p.Aliases, ";"),
			strconv.FormatBool(p.ID == defaultID),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write merchant %s: %w", p.ID, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// Helper methods

func (rg *ReportGenerator) limitReached(i, total int, writer io.Writer) bool {
	limit := rg.config.MaxConsoleItems
	if limit == 0 || i < limit {
		return false
	}
	fmt.Fprintf(writer, "  ... and %d more\n", total-limit)
	return true
}

func (rg *ReportGenerator) calculatePercentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}

func (rg *ReportGenerator) filterBatchForOutput(result *invoice.BatchResult) map[string]interface{} {
	output := map[string]interface{}{
		"batch_id":     result.BatchID,
		"generated_at": result.GeneratedAt,
		"summary":      result.Summary,
	}

	if rg.config.IncludeRecords {
		output["records"] = result.Records
	}

	if rg.config.IncludeFallbacks && len(result.Fallbacks) > 0 {
		output["fallbacks"] = result.Fallbacks
	}

	return output
}

func memberRows(group models.DuplicateGroup) string {
	rows := make([]string, 0, len(group.Members))
	for _, m := range group.Members {
		rows = append(rows, strconv.Itoa(m.Row.Index))
	}
	return strings.Join(rows, ", ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
