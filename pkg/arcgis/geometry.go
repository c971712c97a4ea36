package arcgis

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// esriGeometry is the wire shape of a response geometry. Which fields are
// populated depends on the layer's geometry kind.
type esriGeometry struct {
	X     *float64      `json:"x"`
	Y     *float64      `json:"y"`
	Paths [][][]float64 `json:"paths"`
	Rings [][][]float64 `json:"rings"`
}

// DecodeGeometry converts a raw response geometry into the go-geom value for
// the expected kind: *geom.Point for GeometryTypePoint,
// *geom.MultiLineString for GeometryTypePolyline, *geom.Polygon for
// GeometryTypePolygon. Missing or structurally unusable geometry is an error;
// callers decide whether that is fatal for the record.
func DecodeGeometry(raw json.RawMessage, geometryType string) (geom.T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, eris.New("arcgis: missing geometry")
	}

	var eg esriGeometry
	if err := json.Unmarshal(raw, &eg); err != nil {
		return nil, eris.Wrap(err, "arcgis: decode geometry")
	}

	switch geometryType {
	case GeometryTypePoint:
		if eg.X == nil || eg.Y == nil {
			return nil, eris.New("arcgis: point geometry missing x/y")
		}
		return geom.NewPointFlat(geom.XY, []float64{*eg.X, *eg.Y}).SetSRID(4326), nil

	case GeometryTypePolyline:
		if len(eg.Paths) == 0 {
			return nil, eris.New("arcgis: polyline geometry missing paths")
		}
		mls := geom.NewMultiLineString(geom.XY).SetSRID(4326)
		for _, path := range eg.Paths {
			flat := flatten(path)
			if len(flat) < 4 {
				continue
			}
			if err := mls.Push(geom.NewLineStringFlat(geom.XY, flat)); err != nil {
				return nil, eris.Wrap(err, "arcgis: polyline path")
			}
		}
		if mls.NumLineStrings() == 0 {
			return nil, eris.New("arcgis: polyline geometry has no usable paths")
		}
		return mls, nil

	case GeometryTypePolygon:
		if len(eg.Rings) == 0 {
			return nil, eris.New("arcgis: polygon geometry missing rings")
		}
		poly := geom.NewPolygon(geom.XY).SetSRID(4326)
		for _, ring := range eg.Rings {
			flat := flatten(ring)
			if len(flat) < 8 { // a closed ring repeats its first vertex
				continue
			}
			if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
				return nil, eris.Wrap(err, "arcgis: polygon ring")
			}
		}
		if poly.NumLinearRings() == 0 {
			return nil, eris.New("arcgis: polygon geometry has no usable rings")
		}
		return poly, nil

	default:
		return nil, eris.Errorf("arcgis: unsupported geometry type %q", geometryType)
	}
}

// flatten converts wire vertices into flat XY pairs, dropping vertices with
// fewer than two ordinates and extra ordinates (z, m) beyond the first two.
func flatten(coords [][]float64) []float64 {
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		flat = append(flat, c[0], c[1])
	}
	return flat
}
