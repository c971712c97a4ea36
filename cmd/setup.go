package main

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/geoenrich/internal/enrich"
	"github.com/sells-group/geoenrich/internal/metrics"
	"github.com/sells-group/geoenrich/internal/source"
	"github.com/sells-group/geoenrich/pkg/arcgis"
)

// loadRegistry builds the source registry: the builtin catalog, extended or
// overridden by the configured catalog file when one is set.
func loadRegistry() (*source.Registry, error) {
	reg := source.Builtin()
	if cfg.Catalog.Path != "" {
		if err := reg.LoadFile(cfg.Catalog.Path); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// newEngine wires an enrichment engine from config. Instruments may be nil
// for one-shot commands that do not expose /metrics.
func newEngine(instruments *metrics.Instruments) *enrich.Engine {
	client := arcgis.NewClient(
		arcgis.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.HTTP.TimeoutSecs) * time.Second}),
		arcgis.WithLimiter(rate.NewLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst)),
		arcgis.WithUserAgent(cfg.HTTP.UserAgent),
		arcgis.WithPageSize(cfg.Query.PageSize),
		arcgis.WithPageDelay(time.Duration(cfg.Query.PageDelayMS)*time.Millisecond),
		arcgis.WithMaxRecords(cfg.Query.MaxRecords),
		arcgis.WithMaxRetries(cfg.HTTP.MaxRetries),
		arcgis.WithRetryBackoff(time.Duration(cfg.HTTP.RetryBackoffMS)*time.Millisecond),
	)
	return enrich.New(client,
		enrich.WithMetrics(instruments),
		enrich.WithConcurrency(cfg.Query.Concurrency),
	)
}

// selectSources resolves --sources and --category flags against the registry.
func selectSources(reg *source.Registry, names []string, category string) ([]source.Descriptor, error) {
	var cat *source.Category
	if category != "" {
		c, err := source.ParseCategory(category)
		if err != nil {
			return nil, err
		}
		cat = &c
	}
	return reg.Select(names, cat)
}
