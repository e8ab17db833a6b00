package ingest

import (
	"bytes"
	"strings"

	pipelineerrors "golang-invoice-service/pkg/errors"

	"github.com/gabriel-vasile/mimetype"
)

// Format identifies how the bytes of an upload are laid out
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

const (
	mimeXLSX        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeLegacyExcel = "application/vnd.ms-excel"
	mimeOctetStream = "application/octet-stream"
)

var (
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipMagic = []byte("PK\x03\x04")
)

var csvHints = map[string]bool{
	"text/csv":                    true,
	"application/csv":             true,
	"text/plain":                  true,
	"text/x-csv":                  true,
	"text/comma-separated-values": true,
	"csv":                         true,
}

// DetectFormat decides the format of data from the caller's MIME hint.
// The legacy Excel MIME type is also sent by browsers for .csv files, so it
// is resolved from the content. An empty or generic hint is resolved by
// sniffing.
func DetectFormat(data []byte, mimeHint string) (Format, error) {
	hint := normalizeHint(mimeHint)

	switch {
	case csvHints[hint]:
		return FormatCSV, nil
	case hint == mimeXLSX || hint == "xlsx":
		return FormatXLSX, nil
	case hint == mimeLegacyExcel || hint == "xls":
		return sniffMagic(data), nil
	case hint == "" || hint == mimeOctetStream:
		return sniffContent(data, mimeHint)
	default:
		return "", pipelineerrors.UnsupportedFormatError(mimeHint)
	}
}

func normalizeHint(hint string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if i := strings.IndexByte(hint, ';'); i >= 0 {
		hint = strings.TrimSpace(hint[:i])
	}
	return strings.TrimPrefix(hint, ".")
}

func sniffMagic(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	default:
		return FormatCSV
	}
}

func sniffContent(data []byte, mimeHint string) (Format, error) {
	detected := mimetype.Detect(data)

	for m := detected; m != nil; m = m.Parent() {
		switch {
		case m.Is(mimeXLSX):
			return FormatXLSX, nil
		case m.Is(mimeLegacyExcel):
			return FormatXLS, nil
		case m.Is("text/csv"), m.Is("text/plain"):
			return FormatCSV, nil
		}
	}

	if bytes.HasPrefix(data, oleMagic) || bytes.HasPrefix(data, zipMagic) {
		return sniffMagic(data), nil
	}

	return "", pipelineerrors.UnsupportedFormatError(mimeHint).
		WithContext("detected_mime", detected.String())
}
