package ingest

import (
	"bytes"
	"testing"

	"golang-invoice-service/internal/models"
	pipelineerrors "golang-invoice-service/pkg/errors"

	"github.com/xuri/excelize/v2"
)

func mustIngest(t *testing.T, data []byte, hint string) *models.Table {
	t.Helper()
	table, err := Ingest(data, hint)
	if err != nil {
		t.Fatalf("unexpected ingest error: %v", err)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("table invariant violated: %v", err)
	}
	return table
}

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("invalid coordinates: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestIngestCSV(t *testing.T) {
	data := []byte("RRN,Amount,Payer VPA,Notes\r\n" +
		"R001,1234.50,alice@upi,\"Lunch, with team\"\r\n" +
		"\r\n" +
		"R002,000123,bob@upi,\"He said \"\"hi\"\"\"\n" +
		"   \n" +
		",,,\n" +
		"R003,abc,,\n")

	table := mustIngest(t, data, "text/csv")

	expectedHeaders := []string{"RRN", "Amount", "Payer VPA", "Notes"}
	if len(table.Headers) != len(expectedHeaders) {
		t.Fatalf("expected headers %v, got %v", expectedHeaders, table.Headers)
	}
	for i, h := range expectedHeaders {
		if table.Headers[i] != h {
			t.Errorf("header %d: expected %s, got %s", i, h, table.Headers[i])
		}
	}

	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Rows))
	}

	first := table.Rows[0]
	if first.Index != 1 {
		t.Errorf("expected first row index 1, got %d", first.Index)
	}
	if v, ok := first.Get("Amount").Float(); !ok || v != 1234.5 {
		t.Errorf("expected numeric amount 1234.5, got %v", first.Get("Amount"))
	}
	if first.Get("Notes").String() != "Lunch, with team" {
		t.Errorf("expected quoted comma preserved, got %q", first.Get("Notes"))
	}

	second := table.Rows[1]
	if second.Get("Amount").String() != "000123" {
		t.Errorf("expected source text kept, got %q", second.Get("Amount"))
	}
	if second.Get("Notes").String() != `He said "hi"` {
		t.Errorf("expected escaped quotes, got %q", second.Get("Notes"))
	}

	third := table.Rows[2]
	if third.Index != 3 {
		t.Errorf("expected blank rows not to consume an index, got %d", third.Index)
	}
	if third.Get("Amount").Kind() != models.KindText {
		t.Errorf("expected text amount, got %s", third.Get("Amount").Kind())
	}
	if !third.Get("Payer VPA").IsEmpty() {
		t.Errorf("expected empty cell, got %q", third.Get("Payer VPA"))
	}
}

func TestIngestCSVSynthesizedHeaders(t *testing.T) {
	table := mustIngest(t, []byte("1,2,3\n4,5\n"), "csv")

	expected := []string{"Column 1", "Column 2", "Column 3"}
	for i, h := range expected {
		if table.Headers[i] != h {
			t.Errorf("header %d: expected %s, got %s", i, h, table.Headers[i])
		}
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected first line kept as data, got %d rows", len(table.Rows))
	}
	if !table.Rows[1].Get("Column 3").IsEmpty() {
		t.Error("expected short row padded with empty cells")
	}
}

func TestIngestCSVHeaderNormalization(t *testing.T) {
	table := mustIngest(t, []byte("Amount,,Amount,Amount_1\n1,2,3,4\n"), "text/csv")

	expected := []string{"Amount", "Column 2", "Amount_1", "Amount_1_1"}
	for i, h := range expected {
		if table.Headers[i] != h {
			t.Errorf("header %d: expected %s, got %s", i, h, table.Headers[i])
		}
	}
}

func TestIngestCSVWindows1252(t *testing.T) {
	// "Café" with 0xE9 for é
	data := []byte("Merchant,Amount\nCaf\xe9,10\n")
	table := mustIngest(t, data, "text/csv")

	if got := table.Rows[0].Get("Merchant").String(); got != "Café" {
		t.Errorf("expected Café, got %q", got)
	}
}

func TestIngestCSVByteOrderMark(t *testing.T) {
	table := mustIngest(t, []byte("\xef\xbb\xbfRRN,Amount\nR1,5\n"), "text/csv")
	if table.Headers[0] != "RRN" {
		t.Errorf("expected BOM stripped from first header, got %q", table.Headers[0])
	}
}

func TestIngestErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		hint     string
		category pipelineerrors.ErrorCategory
		code     pipelineerrors.ErrorCode
	}{
		{"unsupported hint", []byte("a,b\n1,2\n"), "application/pdf", pipelineerrors.CategoryFormat, pipelineerrors.CodeUnsupportedFormat},
		{"empty csv", []byte(""), "text/csv", pipelineerrors.CategoryInput, pipelineerrors.CodeEmptyInput},
		{"blank lines only", []byte("\n  \r\n\n"), "text/csv", pipelineerrors.CategoryInput, pipelineerrors.CodeEmptyInput},
		{"unterminated quote", []byte("a,b\n\"open,2\n"), "text/csv", pipelineerrors.CategoryParse, pipelineerrors.CodeMalformedQuoting},
		{"corrupt xlsx", []byte("PK\x03\x04not a workbook"), "xlsx", pipelineerrors.CategoryParse, pipelineerrors.CodeCorruptWorkbook},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Ingest(tt.data, tt.hint)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			pe, ok := pipelineerrors.AsPipelineError(err)
			if !ok {
				t.Fatalf("expected PipelineError, got %T", err)
			}
			if pe.Category != tt.category || pe.Code != tt.code {
				t.Errorf("expected %s/%s, got %s/%s", tt.category, tt.code, pe.Category, pe.Code)
			}
		})
	}
}

func TestIngestMalformedQuotingLine(t *testing.T) {
	_, err := Ingest([]byte("a,b\n\n1,2\n\"x,3\n"), "text/csv")
	pe, ok := pipelineerrors.AsPipelineError(err)
	if !ok {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pe.Context["line"] != 4 {
		t.Errorf("expected physical line 4, got %v", pe.Context["line"])
	}
}

func TestIngestCorruptLegacyWorkbook(t *testing.T) {
	data := append(append([]byte{}, oleMagic...), bytes.Repeat([]byte{0x01}, 64)...)

	_, err := Ingest(data, "application/vnd.ms-excel")
	if err == nil {
		t.Fatal("expected error for corrupt legacy workbook")
	}
	if pipelineerrors.IsCategory(err, pipelineerrors.CategoryFormat) {
		t.Errorf("expected a read failure rather than a format rejection, got %v", err)
	}
}

func TestIngestXLSX(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"RRN", "Amount", "Txn Date", "Txn Time", "UPI ID"},
		{"R001", 1234.5, 45000, 0.5, "alice@upi"},
		{nil, nil, nil, nil, nil},
		{"R002", 99, 45001, 0.25, "bob@upi"},
	})

	table := mustIngest(t, data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if len(table.Headers) != 5 || table.Headers[2] != "Txn Date" {
		t.Fatalf("unexpected headers %v", table.Headers)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}

	first := table.Rows[0]
	if got := first.Get("Txn Date").String(); got != "2023-03-15" {
		t.Errorf("expected ISO date, got %q", got)
	}
	if got := first.Get("Txn Time").String(); got != "12:00:00" {
		t.Errorf("expected clock time, got %q", got)
	}
	if v, ok := first.Get("Amount").Float(); !ok || v != 1234.5 {
		t.Errorf("expected numeric amount, got %v", first.Get("Amount"))
	}

	second := table.Rows[1]
	if second.Index != 2 {
		t.Errorf("expected index 2, got %d", second.Index)
	}
	if got := second.Get("Txn Time").String(); got != "06:00:00" {
		t.Errorf("expected 06:00:00, got %q", got)
	}
}

func TestIngestXLSXSniffedWithoutHint(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"RRN", "Amount"},
		{"R001", 10},
	})

	table := mustIngest(t, data, "")
	if len(table.Rows) != 1 || table.Rows[0].Get("RRN").String() != "R001" {
		t.Errorf("expected sniffed workbook to be read, got %+v", table.Rows)
	}

	table = mustIngest(t, data, "application/vnd.ms-excel")
	if len(table.Rows) != 1 {
		t.Errorf("expected zip content behind legacy hint to be read as xlsx")
	}
}

func TestIngestXLSXNumericFirstRow(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{1, 2},
		{3, 4},
	})

	table := mustIngest(t, data, "xlsx")
	if table.Headers[0] != "Column 1" || len(table.Rows) != 2 {
		t.Errorf("expected synthesized headers and 2 rows, got %v with %d rows", table.Headers, len(table.Rows))
	}
}

func TestIngestXLSXDateTimeHeader(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Transaction DateTime", "Posting Date"},
		{45000.5, 45000},
	})

	table := mustIngest(t, data, "xlsx")
	row := table.Rows[0]
	if got := row.Get("Transaction DateTime").String(); got != "2023-03-15 12:00:00" {
		t.Errorf("expected date with clock, got %q", got)
	}
	if got := row.Get("Posting Date").String(); got != "2023-03-15" {
		t.Errorf("expected date only, got %q", got)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		hint     string
		expected Format
	}{
		{"csv mime", []byte("a,b"), "text/csv", FormatCSV},
		{"csv with charset", []byte("a,b"), "text/csv; charset=utf-8", FormatCSV},
		{"plain text", []byte("a,b"), "text/plain", FormatCSV},
		{"xlsx mime", nil, mimeXLSX, FormatXLSX},
		{"extension style hint", nil, ".xlsx", FormatXLSX},
		{"legacy hint with csv content", []byte("a,b\n1,2"), mimeLegacyExcel, FormatCSV},
		{"legacy hint with ole content", oleMagic, mimeLegacyExcel, FormatXLS},
		{"octet stream text", []byte("RRN,Amount\nR1,10\n"), mimeOctetStream, FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.data, tt.hint)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line     string
		expected []string
	}{
		{`a,b,c`, []string{"a", "b", "c"}},
		{` a , b ,c `, []string{"a", "b", "c"}},
		{`"x,y",z`, []string{"x,y", "z"}},
		{`a,,`, []string{"a", "", ""}},
		{`"",b`, []string{"", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseLine(csvLine{number: 1, text: tt.line})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("field %d: expected %q, got %q", i, tt.expected[i], got[i])
				}
			}
		})
	}
}
