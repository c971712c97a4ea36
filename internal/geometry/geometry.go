// Package geometry provides the spatial predicates behind coordinate
// enrichment: ray-cast containment tests and great-circle distances from a
// query point to point, polyline, and polygon geometries. Coordinates are
// (lon, lat) pairs in WGS84, matching the x,y order of feature services.
package geometry

import (
	"math"

	"github.com/twpayne/go-geom"
)

// EarthRadiusMiles is the mean Earth radius used for great-circle math.
const EarthRadiusMiles = 3958.8

// Haversine returns the great-circle distance in miles between two
// (lon, lat) coordinates. NaN or missing ordinates yield +Inf.
func Haversine(a, b geom.Coord) float64 {
	if !validCoord(a) || !validCoord(b) {
		return math.Inf(1)
	}

	lat1 := a[1] * math.Pi / 180
	lat2 := b[1] * math.Pi / 180
	dLat := (b[1] - a[1]) * math.Pi / 180
	dLon := (b[0] - a[0]) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMiles * c
}

// PointInRing reports whether p falls inside the ring using an even-odd ray
// cast over its edges. Rings are closed vertex loops (first vertex repeated
// at the end); anything with fewer than three distinct edges contains nothing.
func PointInRing(p geom.Coord, ring *geom.LinearRing) bool {
	if ring == nil || !validCoord(p) {
		return false
	}
	n := ring.NumCoords()
	if n < 3 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a := ring.Coord(i)
		b := ring.Coord(j)
		if (a[1] > p[1]) != (b[1] > p[1]) &&
			p[0] < (b[0]-a[0])*(p[1]-a[1])/(b[1]-a[1])+a[0] {
			inside = !inside
		}
	}
	return inside
}

// PointInPolygon reports whether p falls inside the polygon's outer ring and
// outside every hole. Ring 0 is the outer boundary; rings 1.. subtract.
func PointInPolygon(p geom.Coord, poly *geom.Polygon) bool {
	if poly == nil || poly.NumLinearRings() == 0 {
		return false
	}
	if !PointInRing(p, poly.LinearRing(0)) {
		return false
	}
	for i := 1; i < poly.NumLinearRings(); i++ {
		if PointInRing(p, poly.LinearRing(i)) {
			return false
		}
	}
	return true
}

// DistanceToSegment returns the great-circle distance in miles from p to the
// nearest location on segment ab. The point is projected onto the segment in
// degree space with the projection parameter clamped to [0,1]; a degenerate
// segment (a == b) reduces to point-to-point distance.
func DistanceToSegment(p, a, b geom.Coord) float64 {
	if !validCoord(p) || !validCoord(a) || !validCoord(b) {
		return math.Inf(1)
	}

	dx := b[0] - a[0]
	dy := b[1] - a[1]
	if dx == 0 && dy == 0 {
		return Haversine(p, a)
	}

	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / (dx*dx + dy*dy)
	if t < 0 {
		return Haversine(p, a)
	}
	if t > 1 {
		return Haversine(p, b)
	}

	return Haversine(p, geom.Coord{a[0] + t*dx, a[1] + t*dy})
}

// DistanceToPoint returns the great-circle distance in miles from p to pt.
func DistanceToPoint(p geom.Coord, pt *geom.Point) float64 {
	if pt == nil {
		return math.Inf(1)
	}
	return Haversine(p, pt.Coords())
}

// DistanceToPolyline returns the minimum distance in miles from p to any
// segment of any path. An empty polyline is infinitely far away.
func DistanceToPolyline(p geom.Coord, line *geom.MultiLineString) float64 {
	minDist := math.Inf(1)
	if line == nil {
		return minDist
	}
	for i := 0; i < line.NumLineStrings(); i++ {
		path := line.LineString(i)
		for j := 0; j < path.NumCoords()-1; j++ {
			if d := DistanceToSegment(p, path.Coord(j), path.Coord(j+1)); d < minDist {
				minDist = d
			}
		}
	}
	return minDist
}

// DistanceToPolygonBoundary returns the minimum distance in miles from p to
// any edge of any ring. Holes are boundaries too.
func DistanceToPolygonBoundary(p geom.Coord, poly *geom.Polygon) float64 {
	minDist := math.Inf(1)
	if poly == nil {
		return minDist
	}
	for i := 0; i < poly.NumLinearRings(); i++ {
		ring := poly.LinearRing(i)
		for j := 0; j < ring.NumCoords()-1; j++ {
			if d := DistanceToSegment(p, ring.Coord(j), ring.Coord(j+1)); d < minDist {
				minDist = d
			}
		}
	}
	return minDist
}

// validCoord reports whether c carries usable lon/lat ordinates.
func validCoord(c geom.Coord) bool {
	return len(c) >= 2 && !math.IsNaN(c[0]) && !math.IsNaN(c[1])
}
