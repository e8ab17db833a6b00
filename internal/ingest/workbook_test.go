package ingest

import (
	"encoding/binary"
	"math"
	"testing"
	"unicode/utf16"
)

const (
	cfbSectorSize   = 512
	cfbMiniCutoff   = 4096
	cfbEndOfChain   = uint32(0xFFFFFFFE)
	cfbFreeSector   = uint32(0xFFFFFFFF)
	cfbFATSector    = uint32(0xFFFFFFFD)
	cfbNoStream     = uint32(0xFFFFFFFF)
	biffBOF         = 0x0809
	biffEOF         = 0x000A
	biffBoundSheet  = 0x0085
	biffLabel       = 0x0204
	biffNumber      = 0x0203
	biffGlobals     = 0x0005
	biffWorksheet   = 0x0010
	biffVersion8    = 0x0600
	biffBOFDataSize = 16
)

// Root storage CLSID of an Excel 97 workbook
var excelCLSID = []byte{0x20, 0x08, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46}

// buildLegacyWorkbook encodes rows as a single-sheet BIFF8 workbook inside a
// version 3 compound file. Strings become LABEL records, numbers NUMBER
// records and nil cells are left out.
func buildLegacyWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	return compoundFile(biffStream(t, "Sheet1", rows))
}

func appendRecord(b []byte, id uint16, data []byte) []byte {
	b = binary.LittleEndian.AppendUint16(b, id)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(data)))
	return append(b, data...)
}

func appendBOF(b []byte, substream uint16) []byte {
	data := make([]byte, biffBOFDataSize)
	binary.LittleEndian.PutUint16(data[0:], biffVersion8)
	binary.LittleEndian.PutUint16(data[2:], substream)
	return appendRecord(b, biffBOF, data)
}

func biffStream(t *testing.T, sheetName string, rows [][]interface{}) []byte {
	t.Helper()

	sheet := appendBOF(nil, biffWorksheet)
	for r, row := range rows {
		for c, value := range row {
			cell := binary.LittleEndian.AppendUint16(nil, uint16(r))
			cell = binary.LittleEndian.AppendUint16(cell, uint16(c))
			cell = binary.LittleEndian.AppendUint16(cell, 0)

			switch v := value.(type) {
			case nil:
				continue
			case string:
				cell = binary.LittleEndian.AppendUint16(cell, uint16(len(v)))
				cell = append(cell, 0)
				cell = append(cell, v...)
				sheet = appendRecord(sheet, biffLabel, cell)
			case int:
				cell = binary.LittleEndian.AppendUint64(cell, math.Float64bits(float64(v)))
				sheet = appendRecord(sheet, biffNumber, cell)
			case float64:
				cell = binary.LittleEndian.AppendUint64(cell, math.Float64bits(v))
				sheet = appendRecord(sheet, biffNumber, cell)
			default:
				t.Fatalf("unsupported cell type %T", value)
			}
		}
	}
	sheet = appendRecord(sheet, biffEOF, nil)

	boundSheet := func(position uint32) []byte {
		data := binary.LittleEndian.AppendUint32(nil, position)
		data = binary.LittleEndian.AppendUint16(data, 0)
		data = append(data, byte(len(sheetName)), 0)
		return append(data, sheetName...)
	}

	// The sheet substream starts right after the globals: BOF, BOUNDSHEET, EOF.
	globalsSize := 4 + biffBOFDataSize + 4 + len(boundSheet(0)) + 4
	stream := appendBOF(nil, biffGlobals)
	stream = appendRecord(stream, biffBoundSheet, boundSheet(uint32(globalsSize)))
	stream = appendRecord(stream, biffEOF, nil)
	stream = append(stream, sheet...)

	// Streams below the cutoff would live in the mini stream.
	size := (len(stream) + cfbSectorSize - 1) / cfbSectorSize * cfbSectorSize
	if size < cfbMiniCutoff {
		size = cfbMiniCutoff
	}
	return append(stream, make([]byte, size-len(stream))...)
}

// compoundFile lays out the header, one FAT sector, one directory sector and
// then the Workbook stream in consecutive sectors.
func compoundFile(stream []byte) []byte {
	le := binary.LittleEndian
	streamSectors := len(stream) / cfbSectorSize

	fat := make([]uint32, cfbSectorSize/4)
	for i := range fat {
		fat[i] = cfbFreeSector
	}
	fat[0] = cfbFATSector
	fat[1] = cfbEndOfChain
	for i := 0; i < streamSectors; i++ {
		fat[2+i] = uint32(3 + i)
	}
	fat[1+streamSectors] = cfbEndOfChain

	header := make([]byte, cfbSectorSize)
	copy(header, oleMagic)
	le.PutUint16(header[24:], 0x003E) // minor version
	le.PutUint16(header[26:], 0x0003) // major version
	le.PutUint16(header[28:], 0xFFFE) // byte order
	le.PutUint16(header[30:], 9)      // sector shift
	le.PutUint16(header[32:], 6)      // mini sector shift
	le.PutUint32(header[44:], 1)      // FAT sectors
	le.PutUint32(header[48:], 1)      // first directory sector
	le.PutUint32(header[56:], cfbMiniCutoff)
	le.PutUint32(header[60:], cfbEndOfChain)
	le.PutUint32(header[68:], cfbEndOfChain)
	le.PutUint32(header[76:], 0)
	for i := 1; i < 109; i++ {
		le.PutUint32(header[76+i*4:], cfbFreeSector)
	}

	out := append([]byte{}, header...)
	for _, entry := range fat {
		out = le.AppendUint32(out, entry)
	}

	directory := directoryEntry("Root Entry", 5, 1, cfbEndOfChain, 0, excelCLSID)
	directory = append(directory, directoryEntry("Workbook", 2, cfbNoStream, 2, uint64(len(stream)), nil)...)
	directory = append(directory, make([]byte, cfbSectorSize-len(directory))...)

	out = append(out, directory...)
	return append(out, stream...)
}

func directoryEntry(name string, objectType byte, child, start uint32, size uint64, clsid []byte) []byte {
	le := binary.LittleEndian
	entry := make([]byte, 128)
	for i, unit := range utf16.Encode([]rune(name)) {
		le.PutUint16(entry[i*2:], unit)
	}
	le.PutUint16(entry[64:], uint16((len(name)+1)*2))
	entry[66] = objectType
	entry[67] = 1 // black
	le.PutUint32(entry[68:], cfbNoStream)
	le.PutUint32(entry[72:], cfbNoStream)
	le.PutUint32(entry[76:], child)
	copy(entry[80:96], clsid)
	le.PutUint32(entry[116:], start)
	le.PutUint64(entry[120:], size)
	return entry
}

func TestIngestXLS(t *testing.T) {
	data := buildLegacyWorkbook(t, [][]interface{}{
		{"RRN", "Amount", "Txn Date", "UPI ID"},
		{"R001", 1250, 45000, "alice@upi"},
		{nil, nil, nil, nil},
		{"R002", 99.5, 45001, "bob@upi"},
	})

	for _, hint := range []string{"application/vnd.ms-excel", ".xls", ""} {
		t.Run("hint "+hint, func(t *testing.T) {
			table := mustIngest(t, data, hint)

			if len(table.Headers) != 4 || table.Headers[3] != "UPI ID" {
				t.Fatalf("unexpected headers %v", table.Headers)
			}
			if len(table.Rows) != 2 {
				t.Fatalf("expected 2 rows, got %d", len(table.Rows))
			}

			first := table.Rows[0]
			if got := first.Get("RRN").String(); got != "R001" {
				t.Errorf("expected R001, got %q", got)
			}
			if v, ok := first.Get("Amount").Float(); !ok || v != 1250 {
				t.Errorf("expected numeric amount 1250, got %v", first.Get("Amount"))
			}
			if got := first.Get("Txn Date").String(); got != "2023-03-15" {
				t.Errorf("expected ISO date, got %q", got)
			}

			second := table.Rows[1]
			if second.Index != 2 {
				t.Errorf("expected blank row to be skipped, got index %d", second.Index)
			}
			if got := second.Get("UPI ID").String(); got != "bob@upi" {
				t.Errorf("expected bob@upi, got %q", got)
			}
			if v, ok := second.Get("Amount").Float(); !ok || v != 99.5 {
				t.Errorf("expected 99.5, got %v", second.Get("Amount"))
			}
		})
	}
}

func TestDetectFormatLegacyWorkbookContent(t *testing.T) {
	data := buildLegacyWorkbook(t, [][]interface{}{{"RRN"}, {"R001"}})

	format, err := DetectFormat(data, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if format != FormatXLS {
		t.Errorf("expected %s, got %s", FormatXLS, format)
	}
}
