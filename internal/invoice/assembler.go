// Package invoice turns classified rows into invoice records.
//
// Each field is resolved independently: an explicit user selection wins over
// a heuristically classified column, which wins over a literal default.
// Cells that cannot be interpreted fall back to the field default and are
// recorded in a FallbackCollector rather than returned as errors.
package invoice

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang-invoice-service/internal/formatter"
	"golang-invoice-service/internal/merchant"
	"golang-invoice-service/internal/models"
	pipelineerrors "golang-invoice-service/pkg/errors"

	"github.com/shopspring/decimal"
)

const (
	// NotAvailable is printed for identifiers missing from the row
	NotAvailable = "N/A"

	// DefaultRemarks is used when the row carries no remarks column
	DefaultRemarks = "Wallet loading transaction"

	// TimestampLayout formats the generation time used when a row has no date
	TimestampLayout = "2006-01-02 15:04:05"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Assembler builds InvoiceRecords from rows
type Assembler struct {
	// Now returns the generation time. Defaults to time.Now.
	Now func() time.Time

	// Fallbacks, when set, receives every cell that fell back to a default
	Fallbacks *pipelineerrors.FallbackCollector
}

// NewAssembler creates an assembler that records fallbacks into fallbacks (may be nil)
func NewAssembler(fallbacks *pipelineerrors.FallbackCollector) *Assembler {
	return &Assembler{
		Now:       time.Now,
		Fallbacks: fallbacks,
	}
}

// Assemble resolves the invoice fields for one row. seq is the row's
// 1-based position in the batch and drives the invoice number.
func (a *Assembler) Assemble(
	row models.Row,
	cls models.Classification,
	sel models.UserSelection,
	seq int,
	registry *merchant.Registry,
	overrides map[string]string,
) models.InvoiceRecord {
	profile := merchant.Resolve(row, sel.MerchantColumn, registry, effectiveOverrides(sel, registry, overrides))

	rrn, hasRRN := a.rrn(row, sel)
	record := models.InvoiceRecord{
		InvoiceNumber:       InvoiceNumber(profile.InvoicePrefix, seq),
		BillTo:              a.billTo(row, cls, sel),
		RRN:                 rrn,
		TransactionDateTime: a.dateTime(row, cls),
		Amount:              a.amount(row, cls, sel),
		Merchant:            profile,
		Remarks:             a.remarks(row, cls),
		RowIndex:            row.Index,
	}
	if !hasRRN {
		record.Filename = fmt.Sprintf("Invoice_%d", row.Index)
	} else {
		record.Filename = SanitizeFilename(rrn)
	}
	return record
}

// effectiveOverrides adds the manual prefix for the default profile when no
// merchant column is selected. An explicit override for that id wins.
func effectiveOverrides(sel models.UserSelection, registry *merchant.Registry, overrides map[string]string) map[string]string {
	if sel.MerchantColumn != "" || sel.ManualPrefix == "" {
		return overrides
	}
	if _, ok := overrides[registry.DefaultID()]; ok {
		return overrides
	}

	merged := make(map[string]string, len(overrides)+1)
	for id, prefix := range overrides {
		merged[id] = prefix
	}
	merged[registry.DefaultID()] = sel.ManualPrefix
	return merged
}

func (a *Assembler) billTo(row models.Row, cls models.Classification, sel models.UserSelection) string {
	if v := selectedCell(row, sel.UPIColumn); !v.IsEmpty() {
		return v.String()
	}
	if v := cls.Cell(row, models.RoleVpa); !v.IsEmpty() {
		return v.String()
	}
	return NotAvailable
}

// rrn reports false when the row has no RRN, so a cell that literally reads
// N/A still names its own document.
func (a *Assembler) rrn(row models.Row, sel models.UserSelection) (string, bool) {
	if v := strings.TrimSpace(selectedCell(row, sel.RRNColumn).String()); v != "" {
		return v, true
	}
	return NotAvailable, false
}

func (a *Assembler) dateTime(row models.Row, cls models.Classification) string {
	var parts []string

	dateHeader, hasDate := cls.Header(models.RoleTransactionDate)
	if hasDate {
		if v := row.Get(dateHeader); !v.IsEmpty() {
			parts = append(parts, formatter.Format(v, dateHeader))
		}
	}
	if timeHeader, ok := cls.Header(models.RoleTransactionTime); ok && !(hasDate && timeHeader == dateHeader) {
		if v := row.Get(timeHeader); !v.IsEmpty() {
			parts = append(parts, formatter.Format(v, timeHeader))
		}
	}

	if len(parts) == 0 {
		now := time.Now
		if a.Now != nil {
			now = a.Now
		}
		return now().Format(TimestampLayout)
	}
	return strings.Join(parts, " ")
}

func (a *Assembler) amount(row models.Row, cls models.Classification, sel models.UserSelection) decimal.Decimal {
	header := sel.AmountColumn
	value := selectedCell(row, header)
	if value.IsEmpty() {
		header, _ = cls.Header(models.RoleAmount)
		value = cls.Cell(row, models.RoleAmount)
	}
	if value.IsEmpty() {
		return decimal.Zero
	}

	amount, ok := formatter.ParseAmount(value)
	if !ok {
		a.Fallbacks.Add(pipelineerrors.FormatFallback{
			Row:     row.Index,
			Field:   "amount",
			Header:  header,
			Value:   value.String(),
			Default: "0",
		})
		return decimal.Zero
	}
	return amount
}

func (a *Assembler) remarks(row models.Row, cls models.Classification) string {
	if v := cls.Cell(row, models.RoleRemarks); !v.IsEmpty() {
		return v.String()
	}
	return DefaultRemarks
}

func selectedCell(row models.Row, column string) models.CellValue {
	if column == "" {
		return models.Empty()
	}
	return row.Get(column)
}

// InvoiceNumber joins prefix and the zero-padded sequence number
func InvoiceNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%03d", prefix, seq)
}

// SanitizeFilename replaces every character outside [A-Za-z0-9_-] with '_'
func SanitizeFilename(s string) string {
	return unsafeFilenameChars.ReplaceAllString(s, "_")
}
