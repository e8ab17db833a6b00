// Package ingest reads uploaded transaction files into tables.
//
// Three layouts are understood: delimited text, Office Open XML workbooks
// and legacy BIFF workbooks. Only the first sheet of a workbook is read.
// The first record becomes the header row when it carries any text;
// otherwise headers are synthesized and the record is kept as data.
package ingest

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"golang-invoice-service/internal/formatter"
	"golang-invoice-service/internal/models"
	pipelineerrors "golang-invoice-service/pkg/errors"
	"golang-invoice-service/pkg/logger"
)

// Config holds ingestion options
type Config struct {
	// DecodeLegacyEncoding reads non-UTF-8 delimited text as Windows-1252
	// instead of failing.
	DecodeLegacyEncoding bool `json:"decode_legacy_encoding" mapstructure:"decode_legacy_encoding"`

	// ConvertSerialDates renders numeric cells under date/time headers of
	// workbooks as ISO dates or clock times.
	ConvertSerialDates bool `json:"convert_serial_dates" mapstructure:"convert_serial_dates"`

	// TempDir is where legacy workbooks are spooled. Empty means os.TempDir.
	TempDir string `json:"temp_dir" mapstructure:"temp_dir"`
}

// DefaultConfig returns the default ingestion configuration
func DefaultConfig() *Config {
	return &Config{
		DecodeLegacyEncoding: true,
		ConvertSerialDates:   true,
	}
}

// FileIngestor parses raw upload bytes into a Table
type FileIngestor struct {
	config *Config
	logger logger.Logger
}

// NewFileIngestor creates an ingestor. A nil config uses DefaultConfig.
func NewFileIngestor(config *Config) *FileIngestor {
	if config == nil {
		config = DefaultConfig()
	}
	return &FileIngestor{
		config: config,
		logger: logger.WithComponent("ingest"),
	}
}

// Ingest parses data using the default configuration
func Ingest(data []byte, mimeHint string) (*models.Table, error) {
	return NewFileIngestor(nil).Ingest(data, mimeHint)
}

// Ingest parses data into a Table. The MIME hint selects the parser; an
// unknown hint fails before any parsing.
func (fi *FileIngestor) Ingest(data []byte, mimeHint string) (*models.Table, error) {
	format, err := DetectFormat(data, mimeHint)
	if err != nil {
		return nil, err
	}

	log := fi.logger.WithFields(logger.Fields{
		"format":    format,
		"mime_hint": mimeHint,
		"bytes":     len(data),
	})

	source := "csv"
	if format != FormatCSV {
		source = "spreadsheet"
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, pipelineerrors.EmptyInputError(source)
	}

	var records [][]string
	switch format {
	case FormatXLSX:
		records, err = readXLSX(data)
	case FormatXLS:
		records, err = readXLS(data, fi.config.TempDir)
	default:
		records, err = readCSV(data, fi.config.DecodeLegacyEncoding)
	}
	if err != nil {
		log.WithError(err).Debug("Failed to read upload")
		return nil, err
	}

	records = dropBlankRecords(records)
	if len(records) == 0 {
		return nil, pipelineerrors.EmptyInputError(source)
	}

	table := fi.assemble(records, format != FormatCSV)

	log.WithFields(logger.Fields{
		"headers": len(table.Headers),
		"rows":    len(table.Rows),
	}).Debug("Upload ingested")

	return table, nil
}

// assemble applies header detection and builds rows. Rows without any
// value are dropped and do not consume a row index.
func (fi *FileIngestor) assemble(records [][]string, spreadsheet bool) *models.Table {
	var headers []string
	data := records

	if hasTextCell(records[0]) {
		headers = normalizeHeaders(records[0])
		data = records[1:]
	} else {
		headers = synthesizeHeaders(maxWidth(records))
	}

	table := &models.Table{Headers: headers, Rows: make([]models.Row, 0, len(data))}
	for _, record := range data {
		values := make(map[string]models.CellValue, len(headers))
		for i, header := range headers {
			cell := models.Empty()
			if i < len(record) {
				cell = models.ParseCell(record[i])
			}
			if spreadsheet && fi.config.ConvertSerialDates {
				cell = convertSerial(cell, header)
			}
			values[header] = cell
		}

		row := models.NewRow(len(table.Rows)+1, values)
		if row.IsBlank() {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func hasTextCell(record []string) bool {
	for _, raw := range record {
		if models.ParseCell(raw).Kind() == models.KindText {
			return true
		}
	}
	return false
}

// normalizeHeaders trims header cells, names empty ones by position and
// suffixes repeated names so every header is unique.
func normalizeHeaders(record []string) []string {
	headers := make([]string, len(record))
	seen := make(map[string]bool, len(record))

	for i, raw := range record {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		unique := name
		for n := 1; seen[unique]; n++ {
			unique = fmt.Sprintf("%s_%d", name, n)
		}
		seen[unique] = true
		headers[i] = unique
	}
	return headers
}

func synthesizeHeaders(width int) []string {
	headers := make([]string, width)
	for i := range headers {
		headers[i] = fmt.Sprintf("Column %d", i+1)
	}
	return headers
}

func maxWidth(records [][]string) int {
	width := 0
	for _, r := range records {
		if len(r) > width {
			width = len(r)
		}
	}
	return width
}

func dropBlankRecords(records [][]string) [][]string {
	kept := records[:0]
	for _, r := range records {
		for _, cell := range r {
			if strings.TrimSpace(cell) != "" {
				kept = append(kept, r)
				break
			}
		}
	}
	return kept
}

// convertSerial renders a numeric workbook cell under a date or time
// header. A header naming time but not date yields a clock time; otherwise
// an ISO date, with the clock appended when both are named and the serial
// has a time part.
func convertSerial(cell models.CellValue, header string) models.CellValue {
	v, ok := cell.Float()
	if !ok {
		return cell
	}

	h := strings.ToLower(header)
	hasDate := strings.Contains(h, "date")
	hasTime := strings.Contains(h, "time")

	switch {
	case hasTime && !hasDate:
		_, frac := math.Modf(v)
		return models.Text(formatter.FractionToClock(frac))
	case hasDate:
		t := formatter.SerialToTime(v)
		if hasTime && v != math.Trunc(v) {
			return models.Text(t.Format(formatter.DateTimeLayout))
		}
		return models.Text(t.Format(formatter.DateLayout))
	default:
		return cell
	}
}
