package enrich

import (
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// ErrInvalidArgument marks a query rejected before any network call: an
// out-of-range point or a non-positive radius. Everything else degrades to
// an empty result, never an error.
var ErrInvalidArgument = eris.New("enrich: invalid argument")

// QueryPoint is a WGS84 coordinate.
type QueryPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Coord returns the point in (lon, lat) axis order.
func (p QueryPoint) Coord() geom.Coord {
	return geom.Coord{p.Lon, p.Lat}
}

// Validate checks the point is a real coordinate.
func (p QueryPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return eris.Wrap(ErrInvalidArgument, "point has NaN coordinates")
	}
	if p.Lat < -90 || p.Lat > 90 {
		return eris.Wrapf(ErrInvalidArgument, "latitude %v out of range", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return eris.Wrapf(ErrInvalidArgument, "longitude %v out of range", p.Lon)
	}
	return nil
}

// Feature is one enriched record: the raw attributes of a remote feature
// plus the canonical fields and spatial relation computed against the query
// point.
type Feature struct {
	ID            string          `json:"id,omitempty"`
	Name          string          `json:"name,omitempty"`
	Source        string          `json:"source"`
	Label         string          `json:"label,omitempty"`
	LayerID       int             `json:"layer_id"`
	DistanceMiles float64         `json:"distance_miles"`
	IsContaining  bool            `json:"is_containing"`
	Attributes    map[string]any  `json:"attributes,omitempty"`
	Geometry      json.RawMessage `json:"geometry,omitempty"`
}

// SourceResult groups the features one descriptor produced during a
// multi-source sweep.
type SourceResult struct {
	Source   string    `json:"source"`
	Label    string    `json:"label,omitempty"`
	Features []Feature `json:"features"`
}
