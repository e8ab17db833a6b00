package ingest

import (
	"bytes"
	"fmt"
	"os"

	pipelineerrors "golang-invoice-service/pkg/errors"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// readXLSX returns the rows of the first sheet of an Office Open XML
// workbook. Cells are read raw so dates arrive as day-serials.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, pipelineerrors.ParseError(pipelineerrors.CodeCorruptWorkbook, 0, "xlsx", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, pipelineerrors.EmptyInputError("spreadsheet")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, pipelineerrors.ParseError(pipelineerrors.CodeCorruptWorkbook, 0, sheets[0], err)
	}
	return rows, nil
}

// readXLS returns the rows of the first sheet of a BIFF (.xls) workbook.
// The reader needs a file on disk, so the bytes are spooled to tempDir.
func readXLS(data []byte, tempDir string) (records [][]string, err error) {
	tmp, err := os.CreateTemp(tempDir, "upload-*.xls")
	if err != nil {
		return nil, pipelineerrors.InternalError(pipelineerrors.CodeUnexpectedError, "spool xls upload", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, pipelineerrors.InternalError(pipelineerrors.CodeUnexpectedError, "spool xls upload", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, pipelineerrors.InternalError(pipelineerrors.CodeUnexpectedError, "spool xls upload", err)
	}

	// The BIFF reader panics on some truncated streams.
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = pipelineerrors.ParseError(pipelineerrors.CodeCorruptWorkbook, 0, "xls", fmt.Errorf("%v", r))
		}
	}()

	workbook, err := xls.OpenFile(tmp.Name())
	if err != nil {
		return nil, pipelineerrors.ParseError(pipelineerrors.CodeCorruptWorkbook, 0, "xls", err)
	}
	if workbook.GetNumberSheets() == 0 {
		return nil, pipelineerrors.EmptyInputError("spreadsheet")
	}

	sheet, err := workbook.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, pipelineerrors.ParseError(pipelineerrors.CodeCorruptWorkbook, 0, "xls", err)
	}

	for i := 0; i < sheet.GetNumberRows(); i++ {
		row, err := sheet.GetRow(i)
		if err != nil || row == nil {
			records = append(records, nil)
			continue
		}

		var record []string
		for _, col := range row.GetCols() {
			if col == nil {
				record = append(record, "")
				continue
			}
			record = append(record, col.GetString())
		}
		records = append(records, record)
	}
	return records, nil
}
