package main

import (
	"context"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geoenrich/internal/enrich"
	"github.com/sells-group/geoenrich/internal/pointfile"
)

var (
	batchInput       string
	batchOutput      string
	batchRadius      float64
	batchSources     []string
	batchCategory    string
	batchConcurrency int
)

// batchResult is the outcome for one input record.
type batchResult struct {
	ID      string                `json:"id,omitempty"`
	Label   string                `json:"label,omitempty"`
	Row     int                   `json:"row"`
	Point   enrich.QueryPoint     `json:"point"`
	Error   string                `json:"error,omitempty"`
	Sources []enrich.SourceResult `json:"sources,omitempty"`
}

// batchReport is the JSON document emitted for a whole input file.
type batchReport struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	RadiusMiles float64       `json:"radius_miles"`
	Succeeded   int64         `json:"succeeded"`
	Failed      int64         `json:"failed"`
	Skipped     int64         `json:"skipped"`
	Results     []batchResult `json:"results"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enrich coordinates from a CSV, XLSX, or JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		descriptors, err := selectSources(reg, batchSources, batchCategory)
		if err != nil {
			return err
		}

		radius := batchRadius
		if radius == 0 {
			radius = cfg.Query.RadiusMiles
		}

		concurrency := batchConcurrency
		if concurrency == 0 {
			concurrency = cfg.Query.Concurrency
		}

		engine := newEngine(nil)
		recCh, errCh := pointfile.Stream(ctx, batchInput)

		report, err := processBatch(ctx, recCh, errCh, concurrency, func(ctx context.Context, point enrich.QueryPoint) ([]enrich.SourceResult, error) {
			return engine.QueryMany(ctx, point, radius, descriptors)
		})
		if err != nil {
			return err
		}
		report.RadiusMiles = radius

		out, closeOut, err := openOutput(batchOutput)
		if err != nil {
			return err
		}
		defer closeOut()
		return writeJSON(out, report)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "input file of coordinates: .csv, .xlsx, or .json (required)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write report to file instead of stdout")
	batchCmd.Flags().Float64Var(&batchRadius, "radius-miles", 0, "search radius in miles (default from config)")
	batchCmd.Flags().StringSliceVar(&batchSources, "sources", nil, "source names to query (default all)")
	batchCmd.Flags().StringVar(&batchCategory, "category", "", "restrict to one source category")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "records enriched in parallel (default from config)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// queryFunc is the callback signature for enriching one point.
type queryFunc func(ctx context.Context, point enrich.QueryPoint) ([]enrich.SourceResult, error)

// processBatch drains the record stream, enriching records concurrently.
// Rows that failed to parse are skipped with a warning; rows whose
// enrichment fails are reported but do not abort the batch.
func processBatch(ctx context.Context, recCh <-chan pointfile.Record, errCh <-chan error, concurrency int, query queryFunc) (*batchReport, error) {
	report := &batchReport{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
	}
	log := zap.L().With(zap.String("run_id", report.RunID))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed, skipped atomic.Int64
	var mu sync.Mutex

	for rec := range recCh {
		if rec.Err != nil {
			skipped.Add(1)
			log.Warn("skipping unparseable record", zap.Int("row", rec.Row), zap.Error(rec.Err))
			continue
		}
		g.Go(func() error {
			point := enrich.QueryPoint{Lat: rec.Lat, Lon: rec.Lon}
			res := batchResult{ID: rec.ID, Label: rec.Label, Row: rec.Row, Point: point}

			sources, err := query(gctx, point)
			if err != nil {
				failed.Add(1)
				log.Error("record enrichment failed", zap.Int("row", rec.Row), zap.Error(err))
				res.Error = err.Error()
			} else {
				succeeded.Add(1)
				res.Sources = sources
			}

			mu.Lock()
			report.Results = append(report.Results, res)
			mu.Unlock()
			return nil // don't abort batch on individual failure
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}
	// Stream errors surface after the record channel closes.
	for err := range errCh {
		if err != nil {
			return nil, eris.Wrap(err, "read input")
		}
	}

	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].Row < report.Results[j].Row
	})
	report.Succeeded = succeeded.Load()
	report.Failed = failed.Load()
	report.Skipped = skipped.Load()

	log.Info("batch complete",
		zap.Int64("succeeded", report.Succeeded),
		zap.Int64("failed", report.Failed),
		zap.Int64("skipped", report.Skipped),
	)
	return report, nil
}
