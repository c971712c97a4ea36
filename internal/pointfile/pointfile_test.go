package pointfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRecords(t *testing.T, recCh <-chan Record, errCh <-chan error) ([]Record, error) {
	t.Helper()
	var recs []Record
	for rec := range recCh {
		recs = append(recs, rec)
	}
	// Drain error channel
	for err := range errCh {
		if err != nil {
			return recs, err
		}
	}
	return recs, nil
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStream_UnsupportedExtension(t *testing.T) {
	path := writeInput(t, "points.parquet", "not really")
	recCh, errCh := Stream(context.Background(), path)
	recs, err := collectRecords(t, recCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported input format")
	assert.Empty(t, recs)
}

func TestResolveColumns(t *testing.T) {
	t.Run("canonical names", func(t *testing.T) {
		cols, err := resolveColumns([]string{"id", "label", "lat", "lon"})
		require.NoError(t, err)
		assert.Equal(t, columns{lat: 2, lon: 3, id: 0, label: 1}, cols)
	})

	t.Run("alternate names case-insensitive", func(t *testing.T) {
		cols, err := resolveColumns([]string{"Record_ID", "Address", "Latitude", "LONGITUDE"})
		require.NoError(t, err)
		assert.Equal(t, columns{lat: 2, lon: 3, id: 0, label: 1}, cols)
	})

	t.Run("candidate priority over column order", func(t *testing.T) {
		// "lng" appears earlier in the row but "lon" wins by priority.
		cols, err := resolveColumns([]string{"lng", "lon", "lat"})
		require.NoError(t, err)
		assert.Equal(t, 1, cols.lon)
	})

	t.Run("id and label optional", func(t *testing.T) {
		cols, err := resolveColumns([]string{"y", "x"})
		require.NoError(t, err)
		assert.Equal(t, columns{lat: 0, lon: 1, id: -1, label: -1}, cols)
	})

	t.Run("missing coordinates", func(t *testing.T) {
		_, err := resolveColumns([]string{"id", "name"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no coordinate columns")
	})
}

func TestParseRow_ShortRow(t *testing.T) {
	cols := columns{lat: 0, lon: 1, id: 2, label: 3}
	rec := parseRow([]string{"44.5", "-93.1"}, cols, 4)
	require.NoError(t, rec.Err)
	assert.Empty(t, rec.ID)
	assert.Empty(t, rec.Label)
	assert.Equal(t, 44.5, rec.Lat)
	assert.Equal(t, -93.1, rec.Lon)
	assert.Equal(t, 4, rec.Row)
}
