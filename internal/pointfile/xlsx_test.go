package pointfile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Points")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, v := range cells {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "points.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestStreamXLSX_Basic(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"id", "label", "lat", "lon"},
		{"B1", "Substation", "35.0844", "-106.6504"},
		{"B2", "Tower", "35.1107", "-106.6100"},
	})
	recCh, errCh := StreamXLSX(context.Background(), path)
	recs, err := collectRecords(t, recCh, errCh)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "B1", recs[0].ID)
	assert.Equal(t, "Substation", recs[0].Label)
	assert.InDelta(t, 35.0844, recs[0].Lat, 1e-9)
	assert.InDelta(t, -106.6504, recs[0].Lon, 1e-9)
	assert.Equal(t, 2, recs[0].Row)
	assert.Equal(t, 3, recs[1].Row)
}

func TestStreamXLSX_BadCoordinatesCarryErr(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"lat", "lon"},
		{"35.0", "-106.6"},
		{"north", "-106.6"},
	})
	recCh, errCh := StreamXLSX(context.Background(), path)
	recs, err := collectRecords(t, recCh, errCh)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.NoError(t, recs[0].Err)
	assert.Error(t, recs[1].Err)
}

func TestStreamXLSX_MissingCoordinateColumns(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"id", "name"},
		{"1", "whatever"},
	})
	recCh, errCh := StreamXLSX(context.Background(), path)
	recs, err := collectRecords(t, recCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no coordinate columns")
	assert.Empty(t, recs)
}

func TestStreamXLSX_EmptySheet(t *testing.T) {
	path := createTestXLSX(t, nil)
	recCh, errCh := StreamXLSX(context.Background(), path)
	recs, err := collectRecords(t, recCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
	assert.Empty(t, recs)
}

func TestStreamXLSX_MissingFile(t *testing.T) {
	recCh, errCh := StreamXLSX(context.Background(), "/nonexistent/points.xlsx")
	recs, err := collectRecords(t, recCh, errCh)
	require.Error(t, err)
	assert.Empty(t, recs)
}

func TestStream_DispatchesXLSX(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"lat", "lon"},
		{"35.0", "-106.6"},
	})
	recCh, errCh := Stream(context.Background(), path)
	recs, err := collectRecords(t, recCh, errCh)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}
