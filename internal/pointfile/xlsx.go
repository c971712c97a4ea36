package pointfile

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// StreamXLSX streams records from the first sheet of an XLSX workbook.
// Row one is the header. The whole workbook is held in memory by the
// underlying library, so streaming here only bounds downstream work.
func StreamXLSX(ctx context.Context, path string) (<-chan Record, <-chan error) {
	recCh := make(chan Record)
	errCh := make(chan error, 1)

	go func() {
		defer close(recCh)
		defer close(errCh)

		f, err := xlsx.OpenFile(path)
		if err != nil {
			errCh <- eris.Wrapf(err, "pointfile: open %s", path)
			return
		}
		if len(f.Sheets) == 0 {
			errCh <- eris.Errorf("pointfile: %s has no sheets", path)
			return
		}
		sheet := f.Sheets[0]
		if len(sheet.Rows) == 0 {
			errCh <- eris.Errorf("pointfile: sheet %q is empty", sheet.Name)
			return
		}

		cols, err := resolveColumns(rowToStrings(sheet.Rows[0]))
		if err != nil {
			errCh <- err
			return
		}

		for i, row := range sheet.Rows[1:] {
			cells := rowToStrings(row)
			if emptyRow(cells) {
				continue
			}
			select {
			case recCh <- parseRow(cells, cols, i+2):
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return recCh, errCh
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
