// Package testutil generates settlement exports for tests and manual runs.
package testutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SettlementHeaders is the header row written by the generator
var SettlementHeaders = []string{"RRN", "Payer VPA", "Amount", "Merchant", "Transaction Date", "Transaction Time", "Remarks"}

var (
	payerHandles = []string{"okaxis", "ybl", "paytm", "okhdfcbank", "ibl"}
	payerNames   = []string{"alice", "bob", "chitra", "deepak", "esha", "farhan", "gita", "harish"}
	remarks      = []string{"Wallet top up", "Recharge", "", "Bill payment", ""}
)

// SettlementGenerator generates settlement export rows
type SettlementGenerator struct {
	Count     int
	StartDate time.Time
	EndDate   time.Time
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	Seed      int64

	// Merchants are the values written to the Merchant column
	Merchants []string

	// DuplicateRatio is the share of rows that repeat an earlier RRN
	DuplicateRatio float64

	// MalformedRatio is the share of rows whose amount is not a number
	MalformedRatio float64
}

// SettlementRecord is one generated row
type SettlementRecord struct {
	RRN       string
	PayerVPA  string
	Amount    decimal.Decimal
	Malformed bool
	Merchant  string
	Time      time.Time
	Remarks   string
}

// NewSettlementGenerator returns a generator with sensible defaults
func NewSettlementGenerator(count int, seed int64) *SettlementGenerator {
	return &SettlementGenerator{
		Count:     count,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		MinAmount: decimal.NewFromInt(10),
		MaxAmount: decimal.NewFromInt(5000),
		Seed:      seed,
		Merchants: []string{"Auxford Pvt Ltd", "Zen Wallet", "KiranaPay", ""},
	}
}

// Generate creates Count records. The same seed always yields the same rows.
func (sg *SettlementGenerator) Generate() []SettlementRecord {
	rng := rand.New(rand.NewSource(sg.Seed))
	records := make([]SettlementRecord, sg.Count)

	duration := sg.EndDate.Sub(sg.StartDate)
	amountRange := sg.MaxAmount.Sub(sg.MinAmount)

	for i := 0; i < sg.Count; i++ {
		rrn := fmt.Sprintf("4%011d", 12345000000+int64(i))
		if i > 0 && rng.Float64() < sg.DuplicateRatio {
			rrn = records[rng.Intn(i)].RRN
		}

		var offset time.Duration
		if duration > 0 {
			offset = time.Duration(rng.Int63n(int64(duration)))
		}

		merchant := ""
		if len(sg.Merchants) > 0 {
			merchant = sg.Merchants[rng.Intn(len(sg.Merchants))]
		}

		records[i] = SettlementRecord{
			RRN:       rrn,
			PayerVPA:  fmt.Sprintf("%s%d@%s", payerNames[rng.Intn(len(payerNames))], rng.Intn(100), payerHandles[rng.Intn(len(payerHandles))]),
			Amount:    decimal.NewFromFloat(rng.Float64()).Mul(amountRange).Add(sg.MinAmount).Round(2),
			Malformed: rng.Float64() < sg.MalformedRatio,
			Merchant:  merchant,
			Time:      sg.StartDate.Add(offset).Truncate(time.Second),
			Remarks:   remarks[rng.Intn(len(remarks))],
		}
	}

	return records
}

// DuplicateKeys counts rows per RRN, keeping only RRNs seen more than once
func DuplicateKeys(records []SettlementRecord) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.RRN]++
	}
	for rrn, n := range counts {
		if n < 2 {
			delete(counts, rrn)
		}
	}
	return counts
}

func (r SettlementRecord) amountText() string {
	if r.Malformed {
		return "approx " + r.Amount.StringFixed(0)
	}
	return r.Amount.StringFixed(2)
}

func (r SettlementRecord) fields() []string {
	return []string{
		r.RRN,
		r.PayerVPA,
		r.amountText(),
		r.Merchant,
		r.Time.Format("2006-01-02"),
		r.Time.Format("15:04:05"),
		r.Remarks,
	}
}

// WriteCSV writes records as a comma separated export
func WriteCSV(w io.Writer, records []SettlementRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(SettlementHeaders); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write(r.fields()); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes records to the first sheet of a new workbook. Amounts
// are stored as numbers unless the record is malformed.
func WriteXLSX(w io.Writer, records []SettlementRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(SettlementHeaders))
	for i, h := range SettlementHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, r := range records {
		fields := r.fields()
		row := make([]interface{}, len(fields))
		for j, v := range fields {
			row[j] = v
		}
		if !r.Malformed {
			row[2] = r.Amount.InexactFloat64()
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}
