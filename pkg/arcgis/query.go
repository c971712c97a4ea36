package arcgis

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
)

// SpatialRel is the topological test a query asks the service to apply.
type SpatialRel string

// Spatial relations of the feature query protocol.
const (
	RelIntersects SpatialRel = "esriSpatialRelIntersects"
	RelContains   SpatialRel = "esriSpatialRelContains"
	RelWithin     SpatialRel = "esriSpatialRelWithin"
)

// Geometry type identifiers of the feature query protocol.
const (
	GeometryTypePoint    = "esriGeometryPoint"
	GeometryTypePolyline = "esriGeometryPolyline"
	GeometryTypePolygon  = "esriGeometryPolygon"
)

const metersPerDegree = 111320.0 // one degree of latitude, approximately

// QuerySpec describes one feature query. Pagination parameters are filled in
// per page by the client, not by the spec.
type QuerySpec struct {
	BaseURL        string
	LayerID        int
	GeometryJSON   string
	GeometryType   string
	SpatialRel     SpatialRel
	DistanceMeters float64 // > 0 adds distance and unit parameters
	ReturnGeometry bool
}

// NewContainmentSpec builds the query that asks which features relate to the
// center point itself, with no search buffer.
func NewContainmentSpec(baseURL string, layerID int, center geom.Coord, rel SpatialRel) QuerySpec {
	return QuerySpec{
		BaseURL:        baseURL,
		LayerID:        layerID,
		GeometryJSON:   encodePointJSON(center),
		GeometryType:   GeometryTypePoint,
		SpatialRel:     rel,
		ReturnGeometry: true,
	}
}

// NewProximitySpec builds the query that asks for features within
// radiusMeters of the center point.
func NewProximitySpec(baseURL string, layerID int, center geom.Coord, radiusMeters float64) QuerySpec {
	return QuerySpec{
		BaseURL:        baseURL,
		LayerID:        layerID,
		GeometryJSON:   encodePointJSON(center),
		GeometryType:   GeometryTypePoint,
		SpatialRel:     RelIntersects,
		DistanceMeters: radiusMeters,
		ReturnGeometry: true,
	}
}

// NewCircleSpec builds a proximity query for services that reject the
// distance parameter: the buffer is sent as an explicit polygon
// approximating a circle of radiusMeters around the center.
func NewCircleSpec(baseURL string, layerID int, center geom.Coord, radiusMeters float64) QuerySpec {
	return QuerySpec{
		BaseURL:        baseURL,
		LayerID:        layerID,
		GeometryJSON:   encodeRingsJSON(CircleRings(center, radiusMeters)),
		GeometryType:   GeometryTypePolygon,
		SpatialRel:     RelIntersects,
		ReturnGeometry: true,
	}
}

// CircleRings approximates a circle of radiusMeters around center with a
// single closed 64-vertex ring. Longitude deltas are stretched by
// 1/cos(latitude) so the ring covers roughly equal ground in both axes.
func CircleRings(center geom.Coord, radiusMeters float64) [][][]float64 {
	const vertices = 64

	dLat := radiusMeters / metersPerDegree
	dLon := dLat
	if c := math.Cos(center[1] * math.Pi / 180); c > 0.01 {
		dLon = dLat / c
	}

	ring := make([][]float64, 0, vertices+1)
	for i := 0; i <= vertices; i++ {
		theta := 2 * math.Pi * float64(i) / vertices
		ring = append(ring, []float64{
			center[0] + dLon*math.Cos(theta),
			center[1] + dLat*math.Sin(theta),
		})
	}
	return [][][]float64{ring}
}

// IsFeatureService reports whether the service URL addresses a feature
// service rather than a map service layer.
func IsFeatureService(baseURL string) bool {
	return strings.Contains(strings.ToLower(baseURL), "/featureserver")
}

// pageURL renders the full query URL for one page of results.
func (s QuerySpec) pageURL(pageSize, offset int) string {
	v := url.Values{
		"f":                 {"json"},
		"where":             {"1=1"},
		"outFields":         {"*"},
		"geometry":          {s.GeometryJSON},
		"geometryType":      {s.GeometryType},
		"spatialRel":        {string(s.SpatialRel)},
		"inSR":              {"4326"},
		"outSR":             {"4326"},
		"returnGeometry":    {strconv.FormatBool(s.ReturnGeometry)},
		"resultRecordCount": {strconv.Itoa(pageSize)},
		"resultOffset":      {strconv.Itoa(offset)},
	}
	if s.DistanceMeters > 0 {
		v.Set("distance", strconv.FormatFloat(s.DistanceMeters, 'f', -1, 64))
		v.Set("units", "esriSRUnit_Meter")
	}
	return fmt.Sprintf("%s/%d/query?%s", strings.TrimRight(s.BaseURL, "/"), s.LayerID, v.Encode())
}

type spatialReference struct {
	WKID int `json:"wkid"`
}

type pointGeometry struct {
	X                float64          `json:"x"`
	Y                float64          `json:"y"`
	SpatialReference spatialReference `json:"spatialReference"`
}

type polygonGeometry struct {
	Rings            [][][]float64    `json:"rings"`
	SpatialReference spatialReference `json:"spatialReference"`
}

func encodePointJSON(c geom.Coord) string {
	data, _ := json.Marshal(pointGeometry{
		X:                c[0],
		Y:                c[1],
		SpatialReference: spatialReference{WKID: 4326},
	})
	return string(data)
}

func encodeRingsJSON(rings [][][]float64) string {
	data, _ := json.Marshal(polygonGeometry{
		Rings:            rings,
		SpatialReference: spatialReference{WKID: 4326},
	})
	return string(data)
}
