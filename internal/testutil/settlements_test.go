package testutil

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestGenerateIsDeterministic(t *testing.T) {
	first := NewSettlementGenerator(50, 42).Generate()
	second := NewSettlementGenerator(50, 42).Generate()

	for i := range first {
		if first[i].RRN != second[i].RRN || !first[i].Amount.Equal(second[i].Amount) {
			t.Fatalf("row %d differs between runs with the same seed", i)
		}
	}
}

func TestGenerateRatios(t *testing.T) {
	gen := NewSettlementGenerator(200, 7)
	gen.DuplicateRatio = 0.2
	gen.MalformedRatio = 0.1
	records := gen.Generate()

	if len(DuplicateKeys(records)) == 0 {
		t.Error("expected some repeated RRNs")
	}

	malformed := 0
	for _, r := range records {
		if r.Malformed {
			malformed++
		}
		if r.Amount.LessThan(gen.MinAmount) || r.Amount.GreaterThan(gen.MaxAmount) {
			t.Errorf("amount %s outside range", r.Amount)
		}
	}
	if malformed == 0 {
		t.Error("expected some malformed amounts")
	}

	none := NewSettlementGenerator(200, 7).Generate()
	if len(DuplicateKeys(none)) != 0 {
		t.Error("expected unique RRNs with a zero duplicate ratio")
	}
}

func TestWriteCSV(t *testing.T) {
	records := NewSettlementGenerator(3, 1).Generate()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to read back CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	if rows[1][0] != records[0].RRN {
		t.Errorf("expected RRN %s, got %s", records[0].RRN, rows[1][0])
	}
}

func TestWriteXLSX(t *testing.T) {
	records := NewSettlementGenerator(5, 1).Generate()

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(rows))
	}
	if rows[0][1] != "Payer VPA" {
		t.Errorf("expected Payer VPA header, got %s", rows[0][1])
	}
}
