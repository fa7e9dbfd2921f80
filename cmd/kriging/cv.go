package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	kriging "github.com/flywave/go-kriging-cv"
)

var cvCmd = &cobra.Command{
	Use:   "cv",
	Short: "Cross-validate the predictors over a neighborhood-size sweep",
	Long: `Predicts every sample from the others with each method and every
neighborhood size, and reports the mean squared error per size together with
the best size and the fitted variogram of each subset.

Examples:
  # Compare all methods with the configured sweep
  kriging cv --input samples.csv

  # Sweep a few sizes for Kriging only, skipping singular systems
  kriging cv --input samples.geojson --methods kriging --sizes 2,4,8 --on-error skip`,
	RunE: runCV,
}

func init() {
	f := cvCmd.Flags()
	f.StringSlice("methods", nil, "methods to compare: knn, idw, kriging (overrides config)")
	f.IntSlice("sizes", nil, "neighborhood sizes to sweep (overrides config)")
	f.Int("workers", 0, "prediction workers, 0 for one per CPU (overrides config)")
	f.String("on-error", "", "singular Kriging systems: abort, skip or fallback (overrides config)")
	f.String("model", "", "variogram model (overrides config)")
	f.Float64("step", 0, "lag bin spacing in miles (overrides config)")
	f.Float64("max", 0, "largest lag in miles (overrides config)")

	rootCmd.AddCommand(cvCmd)
}

func applyCVOverrides(cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("methods") {
		cfg.CV.Methods, _ = f.GetStringSlice("methods")
	}
	if f.Changed("sizes") {
		cfg.CV.Sizes, _ = f.GetIntSlice("sizes")
	}
	if f.Changed("workers") {
		cfg.CV.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("on-error") {
		cfg.CV.OnError, _ = f.GetString("on-error")
	}
	return applyVariogramOverrides(cmd)
}

func runCV(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := applyCVOverrides(cmd); err != nil {
		return err
	}
	analyses, err := loadAnalyses(cmd, cfg.Options())
	if err != nil {
		return err
	}

	methods := cfg.CV.ParsedMethods()
	reports := make([]*kriging.Report, 0, len(analyses))
	for _, a := range analyses {
		rep, err := a.Report(ctx, methods)
		if err != nil {
			return err
		}
		for _, res := range rep.CrossValidation {
			zap.L().Info("best neighborhood size",
				zap.String("subset", rep.Subset),
				zap.String("method", string(res.Method)),
				zap.Int("k", res.BestK),
				zap.Float64("mse", res.BestMSE),
			)
		}
		reports = append(reports, rep)
	}
	return writeYAML(cmd, reports)
}
