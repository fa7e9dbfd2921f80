package main

import (
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	vec2d "github.com/flywave/go3d/float64/vec2"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	kriging "github.com/flywave/go-kriging-cv"
	"github.com/flywave/go-kriging-cv/internal/dataset"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict a regular lon/lat grid from the samples",
	Long: `Lays a width×height grid of cell centers over --bounds (default: the
bounding box of the samples), optionally drops the cells outside the convex
hull of the samples, and predicts every remaining cell from its k nearest
samples. Grid cells are not samples, so the closest sample is kept.

Examples:
  # Krige a 200x200 grid over the sampled area
  kriging predict --input samples.csv --width 200 --height 200

  # Inverse-distance grid over a fixed box, as GeoJSON
  kriging predict --input samples.csv --method idw --k 6 \
    --bounds -98.5,29.5,-96.5,31.5 --format geojson --out grid.geojson`,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.String("bounds", "", "grid bounds minLon,minLat,maxLon,maxLat (default: sample bounding box)")
	f.Int("width", 100, "grid columns")
	f.Int("height", 100, "grid rows")
	f.String("method", "", "prediction method: knn, idw or kriging (overrides config)")
	f.Int("k", 0, "neighborhood size (overrides config)")
	f.String("format", "csv", "output format: csv or geojson")
	f.Bool("mask-hull", true, "predict only cells inside the convex hull of the samples (overrides config)")
	f.String("on-error", "", "singular Kriging systems: abort, skip or fallback (overrides config)")
	f.String("model", "", "variogram model (overrides config)")
	f.Float64("step", 0, "lag bin spacing in miles (overrides config)")
	f.Float64("max", 0, "largest lag in miles (overrides config)")

	rootCmd.AddCommand(predictCmd)
}

func parseBounds(s string) (vec2d.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return vec2d.Rect{}, eris.Errorf("bounds %q must be minLon,minLat,maxLon,maxLat", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return vec2d.Rect{}, eris.Wrapf(err, "bounds %q", s)
		}
		v[i] = f
	}
	return vec2d.Rect{Min: vec2d.T{v[0], v[1]}, Max: vec2d.T{v[2], v[3]}}, nil
}

func applyPredictOverrides(cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("method") {
		cfg.Predict.Method, _ = f.GetString("method")
	}
	if f.Changed("k") {
		cfg.Predict.K, _ = f.GetInt("k")
	}
	if f.Changed("mask-hull") {
		cfg.Predict.MaskHull, _ = f.GetBool("mask-hull")
	}
	if f.Changed("on-error") {
		cfg.Predict.OnError, _ = f.GetString("on-error")
	}
	return applyVariogramOverrides(cmd)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := applyPredictOverrides(cmd); err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format != "csv" && format != "geojson" {
		return eris.Errorf("predict: --format must be csv or geojson (got %q)", format)
	}
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	boundsFlag, _ := cmd.Flags().GetString("bounds")

	if !cmd.Flags().Changed("subset") {
		if err := cmd.Flags().Set("subset", dataset.AllSubsets); err != nil {
			return err
		}
	}

	opts := cfg.Options()
	opts.Workers = cfg.Predict.Workers
	opts.OnError = kriging.FailurePolicy(cfg.Predict.OnError)
	opts.FallbackMethod = kriging.Method(cfg.Predict.Fallback)

	analyses, err := loadAnalyses(cmd, opts)
	if err != nil {
		return err
	}
	if len(analyses) != 1 {
		return eris.Errorf("predict: choose one subset with --subset (got %d)", len(analyses))
	}
	a := analyses[0]
	method := kriging.Method(cfg.Predict.Method)
	if cfg.Predict.K > a.Samples().Len() {
		return eris.Errorf("predict: k=%d exceeds the %d samples of subset %s", cfg.Predict.K, a.Samples().Len(), a.Subset())
	}

	hull := kriging.NewConvex(a.Samples().Points())
	bounds := hull.Rect()
	if boundsFlag != "" {
		if bounds, err = parseBounds(boundsFlag); err != nil {
			return err
		}
	}
	grid, err := kriging.NewGrid(bounds, width, height)
	if err != nil {
		return eris.Wrap(err, "predict: grid")
	}
	if cfg.Predict.MaskHull {
		grid.MaskOutside(hull)
	}
	targets, index := grid.Targets()

	results, err := a.Predict(ctx, targets, method, kriging.Nearest(cfg.Predict.K))
	if err != nil {
		return err
	}

	var failed, fallbacks int
	for _, r := range results {
		if r.Fallback {
			fallbacks++
		} else if !r.OK() {
			failed++
		}
	}
	zap.L().Info("grid predicted",
		zap.String("subset", a.Subset()),
		zap.String("method", string(method)),
		zap.Int("cells", len(grid.Points)),
		zap.Int("predicted", len(targets)),
		zap.Int("skipped", failed),
		zap.Int("fallbacks", fallbacks),
	)

	pred := &dataset.GridPrediction{
		Subset:  a.Subset(),
		Method:  method,
		Grid:    grid,
		Index:   index,
		Results: results,
	}
	return writeOutput(cmd, func(w io.Writer) error {
		if format == "geojson" {
			return dataset.WriteGeoJSON(w, pred)
		}
		return dataset.WriteCSV(w, pred)
	})
}
