// Package formatter turns raw cell values into display strings and parses
// monetary cells into decimals.
//
// Formatting never fails: a value that matches no rule is stringified, and
// an amount that cannot be parsed is reported as not ok so the caller can
// substitute zero.
package formatter

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang-invoice-service/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// SerialEpochOffset is the number of days between the spreadsheet epoch
	// (1899-12-30) and the Unix epoch.
	SerialEpochOffset = 25569

	// CurrencyGlyph prefixes formatted amounts
	CurrencyGlyph = "₹"

	DateLayout     = "2006-01-02"
	ClockLayout    = "15:04:05"
	DateTimeLayout = "2006-01-02 15:04:05"

	secondsPerDay = 86400
)

var printer = message.NewPrinter(language.MustParse("en-IN"))

// Format converts a cell into its display string using the header name to
// pick a rule. The first matching rule wins:
//
//  1. number under an "amount"/"txnamount" header: grouped currency, 2 decimals
//  2. number under a "date" header between 40000 and 60000: ISO date
//  3. number under a "time" header below 1: HH:MM:SS
//  4. any other number: its decimal string
//  5. text as is, empty as ""
func Format(value models.CellValue, header string) string {
	h := strings.ToLower(header)

	if v, ok := value.Float(); ok {
		switch {
		case strings.Contains(h, "amount") || strings.Contains(h, "txnamount"):
			return FormatCurrency(v)
		case strings.Contains(h, "date") && v > 40000 && v < 60000:
			return SerialToTime(v).Format(DateLayout)
		case strings.Contains(h, "time") && v < 1:
			return FractionToClock(v)
		default:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}

	return value.String()
}

// FormatCurrency renders v with digit grouping, two decimals and the currency glyph
func FormatCurrency(v float64) string {
	if v < 0 {
		return "-" + CurrencyGlyph + printer.Sprintf("%.2f", -v)
	}
	return CurrencyGlyph + printer.Sprintf("%.2f", v)
}

// SerialToTime converts a spreadsheet day-serial into a UTC time. The
// fractional part is the time of day.
func SerialToTime(serial float64) time.Time {
	seconds := math.Round((serial - SerialEpochOffset) * secondsPerDay)
	return time.Unix(int64(seconds), 0).UTC()
}

// FractionToClock renders a fraction of a day as HH:MM:SS
func FractionToClock(fraction float64) string {
	secs := int(math.Round(fraction*secondsPerDay)) % secondsPerDay
	if secs < 0 {
		secs += secondsPerDay
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

var amountNoise = regexp.MustCompile(`(?i)rs\.?|inr|[₹$€£,\s]`)

// ParseAmount reads a monetary cell. Currency glyphs, thousands separators
// and whitespace are ignored. ok is false when the cell is empty or not a
// number, in which case the returned amount is zero.
func ParseAmount(value models.CellValue) (decimal.Decimal, bool) {
	if v, ok := value.Float(); ok {
		if amount, err := decimal.NewFromString(value.String()); err == nil {
			return amount, true
		}
		return decimal.NewFromFloat(v), true
	}
	if value.IsEmpty() {
		return decimal.Zero, false
	}

	cleaned := amountNoise.ReplaceAllString(value.String(), "")
	if cleaned == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}
