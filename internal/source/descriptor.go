// Package source carries the data-driven catalog of queryable feature
// services. Every dataset is a Descriptor; the enrichment engine is generic
// over them, so adding a dataset means adding a table entry, not code.
package source

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geoenrich/pkg/arcgis"
)

// GeometryKind is the geometry a layer's features carry.
type GeometryKind string

// Geometry kinds.
const (
	KindPoint    GeometryKind = "point"
	KindPolyline GeometryKind = "polyline"
	KindPolygon  GeometryKind = "polygon"
)

// ArcGISType maps the kind to the protocol's geometry type identifier.
func (k GeometryKind) ArcGISType() string {
	switch k {
	case KindPoint:
		return arcgis.GeometryTypePoint
	case KindPolyline:
		return arcgis.GeometryTypePolyline
	case KindPolygon:
		return arcgis.GeometryTypePolygon
	}
	return ""
}

// Valid reports whether the kind is one of the three supported kinds.
func (k GeometryKind) Valid() bool {
	return k == KindPoint || k == KindPolyline || k == KindPolygon
}

// Category groups datasets for listing and filtering.
type Category string

// Dataset categories.
const (
	CategoryBoundary       Category = "boundary"
	CategoryHazard         Category = "hazard"
	CategoryEnvironment    Category = "environment"
	CategoryInfrastructure Category = "infrastructure"
	CategoryHydrography    Category = "hydrography"
)

var categories = []Category{
	CategoryBoundary,
	CategoryHazard,
	CategoryEnvironment,
	CategoryInfrastructure,
	CategoryHydrography,
}

// ParseCategory validates a category name from user input.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range categories {
		if c == known {
			return c, nil
		}
	}
	return "", eris.Errorf("source: unknown category %q", s)
}

// Descriptor is the immutable configuration of one external dataset: where
// it lives, what geometry its features carry, and how far out a proximity
// search may reach against it.
type Descriptor struct {
	Name             string       // registry key, e.g. "tiger-counties"
	Label            string       // human-readable layer name
	Category         Category
	BaseURL          string       // service root, ending in MapServer or FeatureServer
	LayerID          int
	GeometryKind     GeometryKind
	MaxRadiusMiles   float64      // cap on the requested search radius
	SupportsContains bool         // service honors the contains operator
	IDFields         []string     // dataset-specific id keys, tried before the common ones
	NameFields       []string     // dataset-specific name keys, tried before the common ones
}

// Validate checks the descriptor is usable before it reaches the engine.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return eris.New("source: descriptor name is required")
	}
	u, err := url.Parse(d.BaseURL)
	if err != nil {
		return eris.Wrapf(err, "source: %s: invalid base url", d.Name)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return eris.Errorf("source: %s: base url %q is not an http(s) url", d.Name, d.BaseURL)
	}
	if !d.GeometryKind.Valid() {
		return eris.Errorf("source: %s: unknown geometry kind %q", d.Name, d.GeometryKind)
	}
	if d.MaxRadiusMiles <= 0 {
		return eris.Errorf("source: %s: max radius must be positive, got %v", d.Name, d.MaxRadiusMiles)
	}
	if d.LayerID < 0 {
		return eris.Errorf("source: %s: negative layer id %d", d.Name, d.LayerID)
	}
	if _, err := ParseCategory(string(d.Category)); err != nil {
		return eris.Errorf("source: %s: unknown category %q", d.Name, d.Category)
	}
	return nil
}
