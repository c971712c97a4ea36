package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geoenrich/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geoenrich",
	Short: "Coordinate enrichment against public GIS feature services",
	Long:  "Queries government ArcGIS feature services for what surrounds a coordinate: the polygons that contain it plus every feature within a radius, deduplicated and ranked by distance.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
