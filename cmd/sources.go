package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/geoenrich/internal/source"
)

var (
	sourcesCategory string
	sourcesFormat   string
)

// sourceInfo is the wire shape of a descriptor in reports and API responses.
type sourceInfo struct {
	Name             string  `json:"name"`
	Label            string  `json:"label"`
	Category         string  `json:"category"`
	GeometryKind     string  `json:"geometry_kind"`
	BaseURL          string  `json:"base_url"`
	LayerID          int     `json:"layer_id"`
	MaxRadiusMiles   float64 `json:"max_radius_miles"`
	SupportsContains bool    `json:"supports_contains"`
}

func toSourceInfos(descriptors []source.Descriptor) []sourceInfo {
	infos := make([]sourceInfo, len(descriptors))
	for i, d := range descriptors {
		infos[i] = sourceInfo{
			Name:             d.Name,
			Label:            d.Label,
			Category:         string(d.Category),
			GeometryKind:     string(d.GeometryKind),
			BaseURL:          d.BaseURL,
			LayerID:          d.LayerID,
			MaxRadiusMiles:   d.MaxRadiusMiles,
			SupportsContains: d.SupportsContains,
		}
	}
	return infos
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured feature service sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		descriptors, err := selectSources(reg, nil, sourcesCategory)
		if err != nil {
			return err
		}

		if sourcesFormat == "table" {
			formatSources(os.Stdout, descriptors)
			return nil
		}
		return writeJSON(os.Stdout, toSourceInfos(descriptors))
	},
}

func init() {
	sourcesCmd.Flags().StringVar(&sourcesCategory, "category", "", "restrict to one source category")
	sourcesCmd.Flags().StringVar(&sourcesFormat, "format", "table", "output format: json or table")
	rootCmd.AddCommand(sourcesCmd)
}

func formatSources(out io.Writer, descriptors []source.Descriptor) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCATEGORY\tGEOMETRY\tLAYER\tMAX_MI\tCONTAINS")
	_, _ = fmt.Fprintln(w, "----\t--------\t--------\t-----\t------\t--------")

	for _, d := range descriptors {
		contains := ""
		if d.SupportsContains {
			contains = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0f\t%s\n",
			d.Name, d.Category, d.GeometryKind, d.LayerID, d.MaxRadiusMiles, contains)
	}
	_ = w.Flush()
}
