// Package export writes tables to CSV and XLSX.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/recovery-cli/internal/model"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "records"

// WriteCSV writes a header row of column names followed by one line per
// row. Missing cells are empty.
func WriteCSV(w io.Writer, t *model.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	rec := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, c := range t.Columns {
			rec[i] = r.Get(c).String()
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX saves t as a single-sheet workbook. Numbers are stored as
// numeric cells, dates as ISO strings.
func WriteXLSX(path string, t *model.Table) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range t.Columns {
		header.AddCell().SetString(c)
	}
	for _, r := range t.Rows {
		row := sheet.AddRow()
		for _, c := range t.Columns {
			cell := row.AddCell()
			v := r.Get(c)
			if n, ok := v.Float(); ok {
				cell.SetFloat(n)
				continue
			}
			cell.SetString(v.String())
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// WriteFile picks the format from the file extension.
func WriteFile(path string, t *model.Table) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", path)
		}
		if err := WriteCSV(f, t); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		return eris.Wrapf(f.Close(), "export: close %s", path)
	case ".xlsx":
		return WriteXLSX(path, t)
	default:
		return eris.Errorf("export: unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}
