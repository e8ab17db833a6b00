package formatter

import (
	"strings"
	"testing"

	"golang-invoice-service/internal/models"

	"github.com/shopspring/decimal"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		value    models.CellValue
		header   string
		expected string
	}{
		{"date serial", models.Number(45000), "Transaction Date", "2023-03-15"},
		{"date serial below range stays number", models.Number(39999), "Date", "39999"},
		{"date serial above range stays number", models.Number(60000), "Date", "60000"},
		{"time fraction", models.Number(0.5), "Txn Time", "12:00:00"},
		{"time fraction with seconds", models.Number(0.75001157407), "time", "18:00:01"},
		{"time at or above one stays number", models.Number(1.25), "Time", "1.25"},
		{"datetime header prefers date rule", models.Number(45000.5), "DateTime", "2023-03-15"},
		{"plain number", models.Number(42.125), "Count", "42.125"},
		{"number from source text", models.ParseCell("000123"), "Reference", "123"},
		{"text passes through", models.Text("hello"), "Amount", "hello"},
		{"empty", models.Empty(), "Amount", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.value, tt.header); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	got := Format(models.Number(1234.5), "TxnAmount")
	if !strings.HasPrefix(got, CurrencyGlyph) {
		t.Errorf("expected currency glyph prefix, got %q", got)
	}
	if !strings.HasSuffix(got, "1,234.50") {
		t.Errorf("expected grouped amount with 2 decimals, got %q", got)
	}

	if got := Format(models.Number(5), "Amount"); got != CurrencyGlyph+"5.00" {
		t.Errorf("expected %q, got %q", CurrencyGlyph+"5.00", got)
	}
	if got := FormatCurrency(-12.3); got != "-"+CurrencyGlyph+"12.30" {
		t.Errorf("expected negative currency, got %q", got)
	}
}

func TestSerialToTime(t *testing.T) {
	got := SerialToTime(SerialEpochOffset)
	if got.Unix() != 0 {
		t.Errorf("expected unix epoch, got %v", got)
	}
	got = SerialToTime(45000.25)
	if got.Format(DateTimeLayout) != "2023-03-15 06:00:00" {
		t.Errorf("expected 2023-03-15 06:00:00, got %s", got.Format(DateTimeLayout))
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		value    models.CellValue
		expected string
		ok       bool
	}{
		{"number", models.Number(1234.5), "1234.5", true},
		{"numeric source text", models.ParseCell("0100.10"), "100.1", true},
		{"rupee glyph and separators", models.Text("₹ 1,23,456.78"), "123456.78", true},
		{"dollar", models.Text("$1,000"), "1000", true},
		{"rs prefix", models.Text("Rs. 250"), "250", true},
		{"inr suffix", models.Text("99.5 INR"), "99.5", true},
		{"malformed", models.Text("12.3.4"), "0", false},
		{"words", models.Text("pending"), "0", false},
		{"only glyph", models.Text("₹"), "0", false},
		{"empty", models.Empty(), "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.value)
			if ok != tt.ok {
				t.Errorf("expected ok %v, got %v", tt.ok, ok)
			}
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}
