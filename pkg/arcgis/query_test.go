package arcgis

import (
	"encoding/json"
	"math"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func parsePageURL(t *testing.T, raw string) (path string, params url.Values) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Path, u.Query()
}

func TestContainmentSpecURL(t *testing.T) {
	spec := NewContainmentSpec("https://example.gov/arcgis/rest/services/test/MapServer", 7, geom.Coord{-93.26, 44.98}, RelIntersects)

	path, params := parsePageURL(t, spec.pageURL(1000, 0))

	assert.Equal(t, "/arcgis/rest/services/test/MapServer/7/query", path)
	assert.Equal(t, "json", params.Get("f"))
	assert.Equal(t, "1=1", params.Get("where"))
	assert.Equal(t, "*", params.Get("outFields"))
	assert.Equal(t, "esriGeometryPoint", params.Get("geometryType"))
	assert.Equal(t, "esriSpatialRelIntersects", params.Get("spatialRel"))
	assert.Equal(t, "4326", params.Get("inSR"))
	assert.Equal(t, "4326", params.Get("outSR"))
	assert.Equal(t, "true", params.Get("returnGeometry"))
	assert.Equal(t, "1000", params.Get("resultRecordCount"))
	assert.Equal(t, "0", params.Get("resultOffset"))

	// No buffer on the containment leg.
	assert.Empty(t, params.Get("distance"))
	assert.Empty(t, params.Get("units"))

	var pt struct {
		X                float64 `json:"x"`
		Y                float64 `json:"y"`
		SpatialReference struct {
			WKID int `json:"wkid"`
		} `json:"spatialReference"`
	}
	require.NoError(t, json.Unmarshal([]byte(params.Get("geometry")), &pt))
	assert.Equal(t, -93.26, pt.X)
	assert.Equal(t, 44.98, pt.Y)
	assert.Equal(t, 4326, pt.SpatialReference.WKID)
}

func TestProximitySpecURL(t *testing.T) {
	spec := NewProximitySpec("https://example.gov/arcgis/rest/services/test/MapServer/", 3, geom.Coord{-93.26, 44.98}, 8046.72)

	path, params := parsePageURL(t, spec.pageURL(500, 1500))

	// Trailing slash on the base URL must not double up.
	assert.Equal(t, "/arcgis/rest/services/test/MapServer/3/query", path)
	assert.Equal(t, "esriSpatialRelIntersects", params.Get("spatialRel"))
	assert.Equal(t, "8046.72", params.Get("distance"))
	assert.Equal(t, "esriSRUnit_Meter", params.Get("units"))
	assert.Equal(t, "500", params.Get("resultRecordCount"))
	assert.Equal(t, "1500", params.Get("resultOffset"))
}

func TestCircleSpecURL(t *testing.T) {
	spec := NewCircleSpec("https://example.gov/arcgis/rest/services/test/FeatureServer", 0, geom.Coord{-93.26, 44.98}, 1609.34)

	_, params := parsePageURL(t, spec.pageURL(1000, 0))

	assert.Equal(t, "esriGeometryPolygon", params.Get("geometryType"))
	assert.Equal(t, "esriSpatialRelIntersects", params.Get("spatialRel"))
	assert.Empty(t, params.Get("distance"))

	var poly struct {
		Rings            [][][]float64 `json:"rings"`
		SpatialReference struct {
			WKID int `json:"wkid"`
		} `json:"spatialReference"`
	}
	require.NoError(t, json.Unmarshal([]byte(params.Get("geometry")), &poly))
	require.Len(t, poly.Rings, 1)
	assert.Equal(t, 4326, poly.SpatialReference.WKID)
	assert.Len(t, poly.Rings[0], 65) // 64 vertices plus the closing repeat
}

func TestCircleRings(t *testing.T) {
	center := geom.Coord{-93.26, 44.98}
	rings := CircleRings(center, 1609.34)

	require.Len(t, rings, 1)
	ring := rings[0]
	require.Len(t, ring, 65)

	// Closed ring: first and last vertex coincide.
	assert.InDelta(t, ring[0][0], ring[64][0], 1e-9)
	assert.InDelta(t, ring[0][1], ring[64][1], 1e-9)

	// Latitude extent matches the radius in degrees.
	wantLat := 1609.34 / metersPerDegree
	var maxLatDelta, maxLonDelta float64
	for _, v := range ring {
		if d := math.Abs(v[1] - center[1]); d > maxLatDelta {
			maxLatDelta = d
		}
		if d := math.Abs(v[0] - center[0]); d > maxLonDelta {
			maxLonDelta = d
		}
	}
	assert.InDelta(t, wantLat, maxLatDelta, wantLat*0.01)

	// Longitude extent is stretched by 1/cos(latitude).
	wantLon := wantLat / math.Cos(center[1]*math.Pi/180)
	assert.InDelta(t, wantLon, maxLonDelta, wantLon*0.01)
	assert.Greater(t, maxLonDelta, maxLatDelta)
}

func TestIsFeatureService(t *testing.T) {
	assert.True(t, IsFeatureService("https://services1.arcgis.com/x/arcgis/rest/services/Hospitals/FeatureServer"))
	assert.True(t, IsFeatureService("https://example.gov/ArcGIS/rest/services/x/FEATURESERVER"))
	assert.False(t, IsFeatureService("https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/tigerWMS_Current/MapServer"))
}

func TestPageURLEncodesGeometryOnce(t *testing.T) {
	spec := NewContainmentSpec("https://example.gov/rest/services/a/MapServer", 1, geom.Coord{10, 20}, RelContains)
	raw := spec.pageURL(10, 0)

	// The geometry parameter must survive URL encoding round-trips intact.
	_, params := parsePageURL(t, raw)
	assert.True(t, strings.HasPrefix(params.Get("geometry"), `{"x":10`))
	assert.Equal(t, string(RelContains), params.Get("spatialRel"))
}
