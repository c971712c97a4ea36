package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geoenrich/internal/enrich"
	"github.com/sells-group/geoenrich/internal/source"
)

func TestFormatSourceResults(t *testing.T) {
	results := []enrich.SourceResult{
		{
			Source: "tiger-counties",
			Label:  "Counties",
			Features: []enrich.Feature{
				{ID: "27053", Name: "Hennepin", IsContaining: true},
				{ID: "27123", Name: "Ramsey", DistanceMiles: 4.82},
			},
		},
		{Source: "fema-flood-zones", Label: "Flood Hazard Zones"},
	}

	var buf bytes.Buffer
	formatSourceResults(&buf, results)
	out := buf.String()

	assert.Contains(t, out, "SOURCE")
	assert.Contains(t, out, "Hennepin")
	assert.Contains(t, out, "27053")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "4.82")
	assert.Contains(t, out, "(none)")
}

func TestFormatSources(t *testing.T) {
	descriptors := []source.Descriptor{
		{
			Name:             "tiger-counties",
			Category:         source.CategoryBoundary,
			GeometryKind:     source.KindPolygon,
			LayerID:          1,
			MaxRadiusMiles:   100,
			SupportsContains: false,
		},
		{
			Name:             "hifld-hospitals",
			Category:         source.CategoryInfrastructure,
			GeometryKind:     source.KindPoint,
			LayerID:          0,
			MaxRadiusMiles:   50,
			SupportsContains: true,
		},
	}

	var buf bytes.Buffer
	formatSources(&buf, descriptors)
	out := buf.String()

	assert.Contains(t, out, "tiger-counties")
	assert.Contains(t, out, "boundary")
	assert.Contains(t, out, "polygon")
	assert.Contains(t, out, "hifld-hospitals")
	assert.Contains(t, out, "yes")
}

func TestToSourceInfos(t *testing.T) {
	infos := toSourceInfos([]source.Descriptor{{
		Name:             "nhd-flowlines",
		Label:            "NHD Flowlines",
		Category:         source.CategoryHydrography,
		BaseURL:          "https://hydro.example.gov/arcgis/rest/services/nhd/MapServer",
		LayerID:          6,
		GeometryKind:     source.KindPolyline,
		MaxRadiusMiles:   10,
		SupportsContains: false,
	}})

	require.Len(t, infos, 1)
	assert.Equal(t, "nhd-flowlines", infos[0].Name)
	assert.Equal(t, "hydrography", infos[0].Category)
	assert.Equal(t, "polyline", infos[0].GeometryKind)
	assert.Equal(t, 6, infos[0].LayerID)
	assert.Equal(t, 10.0, infos[0].MaxRadiusMiles)
}

func TestOpenOutput_Stdout(t *testing.T) {
	out, closeOut, err := openOutput("")
	require.NoError(t, err)
	defer closeOut()
	assert.Equal(t, os.Stdout, out)
}

func TestOpenOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	out, closeOut, err := openOutput(path)
	require.NoError(t, err)
	require.NoError(t, writeJSON(out, map[string]string{"status": "done"}))
	closeOut()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "done", decoded["status"])
}
