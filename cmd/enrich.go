package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geoenrich/internal/enrich"
)

var (
	enrichLat      float64
	enrichLon      float64
	enrichRadius   float64
	enrichSources  []string
	enrichCategory string
	enrichOutput   string
	enrichFormat   string
)

// enrichReport is the JSON document emitted for a single coordinate.
type enrichReport struct {
	QueryID     string                `json:"query_id"`
	Point       enrich.QueryPoint     `json:"point"`
	RadiusMiles float64               `json:"radius_miles"`
	GeneratedAt time.Time             `json:"generated_at"`
	Sources     []enrich.SourceResult `json:"sources"`
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a single coordinate",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		descriptors, err := selectSources(reg, enrichSources, enrichCategory)
		if err != nil {
			return err
		}

		radius := enrichRadius
		if radius == 0 {
			radius = cfg.Query.RadiusMiles
		}

		engine := newEngine(nil)
		point := enrich.QueryPoint{Lat: enrichLat, Lon: enrichLon}

		results, err := engine.QueryMany(ctx, point, radius, descriptors)
		if err != nil {
			return eris.Wrap(err, "enrich")
		}

		total := 0
		for _, r := range results {
			total += len(r.Features)
		}
		zap.L().Info("enrichment complete",
			zap.Float64("lat", point.Lat),
			zap.Float64("lon", point.Lon),
			zap.Int("sources", len(results)),
			zap.Int("features", total),
		)

		report := enrichReport{
			QueryID:     uuid.New().String(),
			Point:       point,
			RadiusMiles: radius,
			GeneratedAt: time.Now().UTC(),
			Sources:     results,
		}

		out, closeOut, err := openOutput(enrichOutput)
		if err != nil {
			return err
		}
		defer closeOut()

		if enrichFormat == "table" {
			formatSourceResults(out, report.Sources)
			return nil
		}
		return writeJSON(out, report)
	},
}

func init() {
	enrichCmd.Flags().Float64Var(&enrichLat, "lat", 0, "latitude in decimal degrees (required)")
	enrichCmd.Flags().Float64Var(&enrichLon, "lon", 0, "longitude in decimal degrees (required)")
	enrichCmd.Flags().Float64Var(&enrichRadius, "radius-miles", 0, "search radius in miles (default from config)")
	enrichCmd.Flags().StringSliceVar(&enrichSources, "sources", nil, "source names to query (default all)")
	enrichCmd.Flags().StringVar(&enrichCategory, "category", "", "restrict to one source category")
	enrichCmd.Flags().StringVar(&enrichOutput, "output", "", "write report to file instead of stdout")
	enrichCmd.Flags().StringVar(&enrichFormat, "format", "json", "output format: json or table")
	_ = enrichCmd.MarkFlagRequired("lat")
	_ = enrichCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(enrichCmd)
}

// openOutput returns stdout or a created file, plus a close func.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create %s", path)
	}
	return f, func() { _ = f.Close() }, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSourceResults writes a tabular feature listing grouped by source.
func formatSourceResults(out io.Writer, results []enrich.SourceResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SOURCE\tFEATURE\tID\tCONTAINS\tDISTANCE_MI")
	_, _ = fmt.Fprintln(w, "------\t-------\t--\t--------\t-----------")

	for _, r := range results {
		if len(r.Features) == 0 {
			_, _ = fmt.Fprintf(w, "%s\t(none)\t\t\t\n", r.Source)
			continue
		}
		for _, f := range r.Features {
			name := f.Name
			if len(name) > 40 {
				name = name[:37] + "..."
			}
			contains := ""
			if f.IsContaining {
				contains = "yes"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\n",
				r.Source, name, f.ID, contains, f.DistanceMiles)
		}
	}
	_ = w.Flush()
}
