// Package pointfile streams coordinate records from batch input files.
// CSV, XLSX, and JSON inputs are supported; column and key names are
// resolved through ordered candidate lists, the same discipline the
// enrichment engine applies to remote attribute dictionaries.
package pointfile

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Record is one input row. A row that could not be parsed carries Err and
// only Row is meaningful; callers decide whether to skip or abort.
type Record struct {
	ID    string
	Label string
	Lat   float64
	Lon   float64
	Row   int // 1-based position in the input
	Err   error
}

// Candidate header names per logical column, in priority order.
var (
	latKeys   = []string{"lat", "latitude", "y"}
	lonKeys   = []string{"lon", "lng", "long", "longitude", "x"}
	idKeys    = []string{"id", "record_id", "objectid"}
	labelKeys = []string{"label", "name", "description", "address"}
)

// Stream reads records from path, picking the parser by file extension.
// Caller must consume the record channel. Both channels are closed when
// processing completes.
func Stream(ctx context.Context, path string) (<-chan Record, <-chan error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return StreamCSV(ctx, path)
	case ".xlsx":
		return StreamXLSX(ctx, path)
	case ".json":
		return StreamJSON(ctx, path)
	default:
		recCh := make(chan Record)
		errCh := make(chan error, 1)
		errCh <- eris.Errorf("pointfile: unsupported input format %q", filepath.Ext(path))
		close(recCh)
		close(errCh)
		return recCh, errCh
	}
}

// columns maps logical fields to header positions; -1 means absent.
type columns struct {
	lat, lon, id, label int
}

// resolveColumns locates the coordinate and optional id/label columns in a
// header row. Matching is case-insensitive; candidates are tried in
// priority order.
func resolveColumns(header []string) (columns, error) {
	cols := columns{
		lat:   findColumn(header, latKeys),
		lon:   findColumn(header, lonKeys),
		id:    findColumn(header, idKeys),
		label: findColumn(header, labelKeys),
	}
	if cols.lat < 0 || cols.lon < 0 {
		return cols, eris.Errorf("pointfile: no coordinate columns in header %v", header)
	}
	return cols, nil
}

func findColumn(header []string, candidates []string) int {
	for _, want := range candidates {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return i
			}
		}
	}
	return -1
}

// parseRow converts one data row into a Record.
func parseRow(cells []string, cols columns, row int) Record {
	rec := Record{Row: row}
	if cols.id >= 0 && cols.id < len(cells) {
		rec.ID = strings.TrimSpace(cells[cols.id])
	}
	if cols.label >= 0 && cols.label < len(cells) {
		rec.Label = strings.TrimSpace(cells[cols.label])
	}

	lat, latErr := cellFloat(cells, cols.lat)
	lon, lonErr := cellFloat(cells, cols.lon)
	if latErr != nil || lonErr != nil {
		rec.Err = eris.Errorf("pointfile: row %d: unparseable coordinates", row)
		return rec
	}
	rec.Lat, rec.Lon = lat, lon
	return rec
}

func cellFloat(cells []string, idx int) (float64, error) {
	if idx < 0 || idx >= len(cells) {
		return 0, eris.New("pointfile: missing cell")
	}
	return strconv.ParseFloat(strings.TrimSpace(cells[idx]), 64)
}

// emptyRow reports whether every cell is blank, as in a trailing newline.
func emptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
