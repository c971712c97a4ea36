// Package enrich answers "what is at, and near, this coordinate" against
// configured government feature services. Each query runs two legs: a
// containment leg that finds features the point falls inside, and a
// proximity leg that finds features within a search radius. Results are
// normalized, deduplicated, and ranked.
package enrich

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geoenrich/internal/geometry"
	"github.com/sells-group/geoenrich/internal/metrics"
	"github.com/sells-group/geoenrich/internal/source"
	"github.com/sells-group/geoenrich/pkg/arcgis"
)

const metersPerMile = 1609.344

// Engine runs enrichment queries. It holds no per-query state, so one
// engine serves concurrent callers.
type Engine struct {
	client      arcgis.Client
	instruments *metrics.Instruments
	concurrency int
}

// Option configures the engine.
type Option func(*Engine)

// WithMetrics attaches query instruments. Without it the engine records
// nothing.
func WithMetrics(in *metrics.Instruments) Option {
	return func(e *Engine) {
		e.instruments = in
	}
}

// WithConcurrency sets the source-level parallelism of multi-source sweeps.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// New creates an engine on top of a feature-service client.
func New(client arcgis.Client, opts ...Option) *Engine {
	e := &Engine{
		client:      client,
		concurrency: 5,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query enriches one point against one source. It fails only for invalid
// input; upstream failures degrade to an empty or partial list and are
// visible through logs and metrics, not the error return. The returned
// slice is never nil.
func (e *Engine) Query(ctx context.Context, point QueryPoint, radiusMiles float64, d source.Descriptor) ([]Feature, error) {
	start := time.Now()
	if err := validateQuery(point, radiusMiles); err != nil {
		e.instruments.RecordQuery(d.Name, metrics.OutcomeInvalid, time.Since(start).Seconds(), 0)
		return nil, err
	}

	center := point.Coord()
	effective := math.Min(radiusMiles, d.MaxRadiusMiles)

	out := make([]Feature, 0)
	seen := make(map[string]bool)

	rel := arcgis.RelIntersects
	if d.SupportsContains {
		rel = arcgis.RelContains
	}
	containment := arcgis.NewContainmentSpec(d.BaseURL, d.LayerID, center, rel)
	for _, raw := range e.runLeg(ctx, d, "containment", containment, center) {
		if f, ok := e.enrichContainment(d, center, raw, seen); ok {
			out = append(out, f)
		}
	}

	proximity := arcgis.NewProximitySpec(d.BaseURL, d.LayerID, center, effective*metersPerMile)
	for _, raw := range e.runLeg(ctx, d, "proximity", proximity, center) {
		if f, ok := e.enrichProximity(d, center, raw, seen, effective); ok {
			out = append(out, f)
		}
	}

	Rank(out)

	outcome := metrics.OutcomeOK
	if len(out) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	e.instruments.RecordQuery(d.Name, outcome, time.Since(start).Seconds(), len(out))
	return out, nil
}

// QueryMany runs one query per descriptor with bounded concurrency. Results
// keep descriptor order. Only invalid input fails the sweep; per-source
// trouble degrades that source to an empty feature list.
func (e *Engine) QueryMany(ctx context.Context, point QueryPoint, radiusMiles float64, descriptors []source.Descriptor) ([]SourceResult, error) {
	if err := validateQuery(point, radiusMiles); err != nil {
		return nil, err
	}

	results := make([]SourceResult, len(descriptors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, d := range descriptors {
		g.Go(func() error {
			features, err := e.Query(gctx, point, radiusMiles, d)
			if err != nil {
				zap.L().Error("source query failed",
					zap.String("source", d.Name),
					zap.Error(err),
				)
				features = make([]Feature, 0)
			}
			results[i] = SourceResult{Source: d.Name, Label: d.Label, Features: features}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func validateQuery(point QueryPoint, radiusMiles float64) error {
	if err := point.Validate(); err != nil {
		return err
	}
	if math.IsNaN(radiusMiles) || radiusMiles <= 0 {
		return eris.Wrapf(ErrInvalidArgument, "radius %v must be positive", radiusMiles)
	}
	return nil
}

// runLeg executes one query leg, applying the partial-success rule and at
// most one fallback. A leg never fails the query: on unrecoverable error it
// contributes nothing.
func (e *Engine) runLeg(ctx context.Context, d source.Descriptor, leg string, spec arcgis.QuerySpec, center geom.Coord) []arcgis.Feature {
	log := zap.L().With(zap.String("source", d.Name), zap.String("leg", leg))

	res, err := e.client.QueryAll(ctx, spec)
	e.instruments.RecordPages(d.Name, res.Pages, res.CapReached)
	if err == nil {
		return res.Features
	}
	if len(res.Features) > 0 {
		// Partial success: the service errored mid-pagination but data
		// arrived. Keep what we have.
		log.Warn("leg degraded to partial results",
			zap.Int("features", len(res.Features)),
			zap.Error(err),
		)
		return res.Features
	}

	retry, kind, ok := fallbackFor(spec, center)
	if !ok {
		log.Warn("leg failed", zap.Error(err))
		return nil
	}

	log.Info("retrying leg", zap.String("fallback", kind), zap.Error(err))
	e.instruments.RecordFallback(d.Name, kind)

	fb, fbErr := e.client.QueryAll(ctx, retry)
	e.instruments.RecordPages(d.Name, fb.Pages, fb.CapReached)
	if fbErr != nil {
		if len(fb.Features) == 0 {
			log.Warn("fallback failed, leg yields nothing", zap.Error(fbErr))
			return nil
		}
		log.Warn("fallback degraded to partial results",
			zap.Int("features", len(fb.Features)),
			zap.Error(fbErr),
		)
	}
	return fb.Features
}

// enrichContainment normalizes one containment-leg feature. Polygon features
// are re-verified client-side because services return near-matches under
// the intersects relation; features that fail verification are dropped here
// and left for the proximity leg to pick up with a real distance.
func (e *Engine) enrichContainment(d source.Descriptor, center geom.Coord, raw arcgis.Feature, seen map[string]bool) (Feature, bool) {
	id := fieldValue(raw.Attributes, d.IDFields, idCandidates)
	if id != "" && seen[id] {
		return Feature{}, false
	}

	if d.GeometryKind == source.KindPolygon {
		g, err := arcgis.DecodeGeometry(raw.Geometry, arcgis.GeometryTypePolygon)
		if err != nil {
			zap.L().Debug("skipping feature with malformed geometry",
				zap.String("source", d.Name),
				zap.String("id", id),
				zap.Error(err),
			)
			return Feature{}, false
		}
		if !geometry.PointInPolygon(center, g.(*geom.Polygon)) {
			return Feature{}, false
		}
	}

	if id != "" {
		seen[id] = true
	}
	return Feature{
		ID:           id,
		Name:         fieldValue(raw.Attributes, d.NameFields, nameCandidates),
		Source:       d.Name,
		Label:        d.Label,
		LayerID:      d.LayerID,
		IsContaining: true,
		Attributes:   raw.Attributes,
		Geometry:     raw.Geometry,
	}, true
}

// enrichProximity normalizes one proximity-leg feature: dedup against the
// containment leg, compute the distance for the layer's geometry kind, and
// enforce the effective radius.
func (e *Engine) enrichProximity(d source.Descriptor, center geom.Coord, raw arcgis.Feature, seen map[string]bool, effectiveRadius float64) (Feature, bool) {
	id := fieldValue(raw.Attributes, d.IDFields, idCandidates)
	if id != "" && seen[id] {
		return Feature{}, false
	}

	g, err := arcgis.DecodeGeometry(raw.Geometry, d.GeometryKind.ArcGISType())
	if err != nil {
		zap.L().Debug("skipping feature with malformed geometry",
			zap.String("source", d.Name),
			zap.String("id", id),
			zap.Error(err),
		)
		return Feature{}, false
	}

	var dist float64
	switch d.GeometryKind {
	case source.KindPoint:
		dist = geometry.DistanceToPoint(center, g.(*geom.Point))
	case source.KindPolyline:
		dist = geometry.DistanceToPolyline(center, g.(*geom.MultiLineString))
	case source.KindPolygon:
		dist = geometry.DistanceToPolygonBoundary(center, g.(*geom.Polygon))
	}
	if !(dist <= effectiveRadius) { // also rejects NaN and +Inf
		return Feature{}, false
	}

	if id != "" {
		seen[id] = true
	}
	return Feature{
		ID:            id,
		Name:          fieldValue(raw.Attributes, d.NameFields, nameCandidates),
		Source:        d.Name,
		Label:         d.Label,
		LayerID:       d.LayerID,
		DistanceMiles: dist,
		Attributes:    raw.Attributes,
		Geometry:      raw.Geometry,
	}, true
}
