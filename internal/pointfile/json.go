package pointfile

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// StreamJSON streams records from a JSON array of objects, decoding one
// element at a time. Key names are resolved with the same candidate lists
// used for spreadsheet headers.
func StreamJSON(ctx context.Context, path string) (<-chan Record, <-chan error) {
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

		decoder := json.NewDecoder(f)
		tok, err := decoder.Token()
		if err != nil {
			errCh <- eris.Wrapf(err, "pointfile: read %s", path)
			return
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			errCh <- eris.Errorf("pointfile: %s: expected a JSON array, got %v", path, tok)
			return
		}

		for row := 1; decoder.More(); row++ {
			var obj map[string]any
			if err := decoder.Decode(&obj); err != nil {
				errCh <- eris.Wrapf(err, "pointfile: decode element %d", row)
				return
			}
			select {
			case recCh <- recordFromObject(obj, row):
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		if _, err := decoder.Token(); err != nil {
			errCh <- eris.Wrapf(err, "pointfile: read %s", path)
		}
	}()

	return recCh, errCh
}

func recordFromObject(obj map[string]any, row int) Record {
	rec := Record{Row: row}
	rec.ID = jsonString(obj, idKeys)
	rec.Label = jsonString(obj, labelKeys)

	lat, latOK := jsonFloat(obj, latKeys)
	lon, lonOK := jsonFloat(obj, lonKeys)
	if !latOK || !lonOK {
		rec.Err = eris.Errorf("pointfile: element %d: missing or unparseable coordinates", row)
		return rec
	}
	rec.Lat, rec.Lon = lat, lon
	return rec
}

func jsonValue(obj map[string]any, candidates []string) (any, bool) {
	for _, want := range candidates {
		for k, v := range obj {
			if strings.EqualFold(k, want) {
				return v, true
			}
		}
	}
	return nil, false
}

func jsonFloat(obj map[string]any, candidates []string) (float64, bool) {
	v, ok := jsonValue(obj, candidates)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func jsonString(obj map[string]any, candidates []string) string {
	v, ok := jsonValue(obj, candidates)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
