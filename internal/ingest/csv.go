package ingest

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	pipelineerrors "golang-invoice-service/pkg/errors"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns data as UTF-8. Exports that are not valid UTF-8 are
// read as Windows-1252, the usual encoding of spreadsheet "Save as CSV".
func decodeText(data []byte, legacyFallback bool) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	if !legacyFallback {
		return "", pipelineerrors.ParseError(pipelineerrors.CodeEncodingError, firstInvalidLine(data), "", nil)
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder()))
	if err != nil {
		return "", pipelineerrors.ParseError(pipelineerrors.CodeEncodingError, firstInvalidLine(data), "", err)
	}
	return string(decoded), nil
}

func firstInvalidLine(data []byte) int {
	line := 1
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size <= 1 {
			return line
		}
		if r == '\n' {
			line++
		}
		data = data[size:]
	}
	return line
}

// csvLine is a non-blank physical line and its 1-based line number
type csvLine struct {
	number int
	text   string
}

// splitLines breaks text on CRLF, LF or CR and drops blank lines
func splitLines(text string) []csvLine {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []csvLine
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, csvLine{number: i + 1, text: line})
	}
	return lines
}

// parseLine splits one line into fields. Commas inside double quotes are
// literal. Each field is trimmed, a wrapping pair of quotes is removed and
// doubled quotes inside it become single quotes.
func parseLine(line csvLine) ([]string, error) {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line.text {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == ',' && !inQuotes:
			fields = append(fields, cleanField(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	if inQuotes {
		return nil, pipelineerrors.ParseError(
			pipelineerrors.CodeMalformedQuoting,
			line.number,
			line.text,
			fmt.Errorf("unterminated quoted field"),
		)
	}

	return append(fields, cleanField(current.String())), nil
}

func cleanField(raw string) string {
	field := strings.TrimSpace(raw)
	if len(field) >= 2 && field[0] == '"' && field[len(field)-1] == '"' {
		field = strings.ReplaceAll(field[1:len(field)-1], `""`, `"`)
	}
	return field
}

// readCSV turns delimited text into records
func readCSV(data []byte, legacyFallback bool) ([][]string, error) {
	text, err := decodeText(data, legacyFallback)
	if err != nil {
		return nil, err
	}

	lines := splitLines(text)
	records := make([][]string, 0, len(lines))
	for _, line := range lines {
		fields, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		records = append(records, fields)
	}
	return records, nil
}
