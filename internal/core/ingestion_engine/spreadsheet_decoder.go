package ingestion_engine

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/markdave123-py/Coverly/internal/core"
)

const (
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeXLS  = "application/vnd.ms-excel"
	MimeCSV  = "text/csv"
)

type sheetFormat int

const (
	formatUnknown sheetFormat = iota
	formatXLSX
	formatXLS
	formatCSV
)

var _ core.SpreadsheetDecoder = (*SheetDecoder)(nil)

// SheetDecoder reads the first worksheet of an .xlsx or legacy .xls workbook, or a .csv file.
type SheetDecoder struct{}

func NewSheetDecoder() *SheetDecoder {
	return &SheetDecoder{}
}

// Decode returns every row of the sheet, header included, as loosely typed cells.
func (d *SheetDecoder) Decode(ctx context.Context, r io.Reader, fileName, contentType string) ([]core.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch detectFormat(fileName, contentType) {
	case formatXLSX:
		return decodeXLSX(r)
	case formatXLS:
		return decodeXLS(r)
	case formatCSV:
		return decodeCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q (%s); upload an .xlsx, .xls or .csv file", core.ErrUnsupportedFormat, filepath.Base(fileName), contentType)
	}
}

// detectFormat trusts the extension first; browsers send application/vnd.ms-excel for csv too.
func detectFormat(fileName, contentType string) sheetFormat {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return formatXLSX
	case ".csv":
		return formatCSV
	case ".xls":
		return formatXLS
	}

	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch ct {
	case MimeXLSX:
		return formatXLSX
	case MimeXLS:
		return formatXLS
	case MimeCSV, "application/csv":
		return formatCSV
	}
	return formatUnknown
}

func decodeXLSX(r io.Reader) ([]core.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", core.ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	// raw values keep numbers unformatted, e.g. 1000 rather than "1,000"
	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", core.ErrUnreadableFile, sheets[0], err)
	}
	return toRows(raw), nil
}

// decodeXLS reads the first sheet of a BIFF workbook. The reader panics on some
// malformed files, so panics are reported as unreadable input.
func decodeXLS(r io.Reader) (rows []core.Row, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, fmt.Errorf("%w: parse workbook: %v", core.ErrUnreadableFile, p)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", core.ErrUnreadableFile, err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	raw := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			raw = append(raw, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		// leading blank columns stay as "" so positions line up with the header
		for j := 0; j < row.LastCol(); j++ {
			if j < row.FirstCol() {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, row.Col(j))
		}
		raw = append(raw, cells)
	}
	return toRows(trimTrailingEmpty(raw)), nil
}

// trimTrailingEmpty drops blank rows at the end of a sheet.
func trimTrailingEmpty(raw [][]string) [][]string {
	for len(raw) > 0 {
		last := raw[len(raw)-1]
		if strings.TrimSpace(strings.Join(last, "")) != "" {
			break
		}
		raw = raw[:len(raw)-1]
	}
	return raw
}

func decodeCSV(r io.Reader) ([]core.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	raw, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %v", core.ErrUnreadableFile, err)
	}
	if len(raw) > 0 && len(raw[0]) > 0 {
		raw[0][0] = strings.TrimPrefix(raw[0][0], "\ufeff")
	}
	return toRows(raw), nil
}

func toRows(raw [][]string) []core.Row {
	rows := make([]core.Row, len(raw))
	for i, cells := range raw {
		row := make(core.Row, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		rows[i] = row
	}
	return rows
}
