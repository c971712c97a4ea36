package pointfile

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// StreamCSV streams records from a CSV file. The first row must be a
// header containing coordinate columns; rows with unparseable coordinates
// are emitted with Err set rather than aborting the stream.
func StreamCSV(ctx context.Context, path string) (<-chan Record, <-chan error) {
	recCh := make(chan Record)
	errCh := make(chan error, 1)

	go func() {
		defer close(recCh)
		defer close(errCh)

		f, err := os.Open(path)
		if err != nil {
			errCh <- eris.Wrapf(err, "pointfile: open %s", path)
			return
		}
		defer f.Close()

		reader := csv.NewReader(f)
		reader.FieldsPerRecord = -1 // allow ragged rows

		header, err := reader.Read()
		if err != nil {
			errCh <- eris.Wrapf(err, "pointfile: read header from %s", path)
			return
		}
		cols, err := resolveColumns(header)
		if err != nil {
			errCh <- err
			return
		}

		for row := 2; ; row++ {
			cells, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrapf(err, "pointfile: read row %d", row)
				return
			}
			if emptyRow(cells) {
				continue
			}
			select {
			case recCh <- parseRow(cells, cols, row):
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return recCh, errCh
}
