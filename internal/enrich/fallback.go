package enrich

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/geoenrich/pkg/arcgis"
)

// Fallback kinds, used as metric labels.
const (
	fallbackWithin = "within"
	fallbackCircle = "circle"
)

// fallbackFor returns the one retry a failed leg is allowed. A containment
// leg that asked a feature service for "contains" retries as "within";
// a proximity leg whose distance parameter was rejected retries with an
// explicit circle polygon. Other failures have no fallback.
func fallbackFor(spec arcgis.QuerySpec, center geom.Coord) (arcgis.QuerySpec, string, bool) {
	switch {
	case spec.SpatialRel == arcgis.RelContains && arcgis.IsFeatureService(spec.BaseURL):
		retry := spec
		retry.SpatialRel = arcgis.RelWithin
		return retry, fallbackWithin, true
	case spec.DistanceMeters > 0:
		return arcgis.NewCircleSpec(spec.BaseURL, spec.LayerID, center, spec.DistanceMeters), fallbackCircle, true
	}
	return arcgis.QuerySpec{}, "", false
}
