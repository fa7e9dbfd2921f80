package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flywave/go-kriging-cv/internal/config"
	"github.com/flywave/go-kriging-cv/internal/metrics"
)

var (
	cfg       *config.Config
	collector *metrics.Collector
	runTimer  *metrics.Timer
)

var rootCmd = &cobra.Command{
	Use:   "kriging",
	Short: "Spatial interpolation of throughput measurements",
	Long: `Fits variograms to point measurements and compares k-nearest-neighbor,
inverse-distance and ordinary Kriging predictors by leave-one-out
cross-validation. Samples are read from CSV (lon,lat,value[,subset]) or
GeoJSON point features; every labeled subset is analyzed on its own next to
the aggregate set.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		runID := uuid.New().String()
		zap.ReplaceGlobals(zap.L().With(zap.String("run_id", runID), zap.String("command", cmd.Name())))

		if cfg.Metrics.Textfile != "" {
			collector = metrics.NewCollector("kriging")
			runTimer = collector.NewTimer(collector.RunDuration)
		}
		return nil
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("input", "", "samples file (.csv, .geojson or .json)")
	f.StringSlice("subset", nil, "subsets to analyze (default: all and every labeled subset)")
	f.String("out", "", "output file path (default: stdout)")
	f.Float64("thin", -1, "merge samples sharing a cell of this size in degrees (overrides config, negative disables)")
}

// flush writes the metrics textfile and syncs the logger. It runs after
// every command, failed ones included, which cobra's post-run hooks skip.
func flush() error {
	defer func() { _ = zap.L().Sync() }()
	if collector == nil {
		return nil
	}
	runTimer.ObserveDuration()
	err := collector.WriteTextfile(cfg.Metrics.Textfile)
	collector, runTimer = nil, nil
	return err
}

func run() error {
	err := rootCmd.Execute()
	if ferr := flush(); ferr != nil {
		if err != nil {
			zap.L().Error("write metrics textfile", zap.Error(ferr))
			return err
		}
		return ferr
	}
	return err
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}
