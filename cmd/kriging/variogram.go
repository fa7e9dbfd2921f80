package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	kriging "github.com/flywave/go-kriging-cv"
)

var variogramCmd = &cobra.Command{
	Use:   "variogram",
	Short: "Estimate and fit the variogram of every subset",
	Long: `Computes the robust empirical semivariogram of each subset over the
configured lag bins and fits the configured model to it by gradient descent.

Examples:
  # Fit a spherical model to every subset
  kriging variogram --input samples.csv

  # Fit an exponential model with wider bins
  kriging variogram --input samples.csv --model exponential --step 10`,
	RunE: runVariogram,
}

func init() {
	f := variogramCmd.Flags()
	f.String("model", "", "variogram model: spherical, exponential or gaussian (overrides config)")
	f.Float64("step", 0, "lag bin spacing in miles (overrides config)")
	f.Float64("max", 0, "largest lag in miles (overrides config)")

	rootCmd.AddCommand(variogramCmd)
}

func applyVariogramOverrides(cmd *cobra.Command) error {
	if cmd.Flags().Changed("model") {
		name, _ := cmd.Flags().GetString("model")
		if _, err := kriging.ParseModelType(name); err != nil {
			return err
		}
		cfg.Variogram.Model = name
	}
	if cmd.Flags().Changed("step") {
		cfg.Variogram.Step, _ = cmd.Flags().GetFloat64("step")
	}
	if cmd.Flags().Changed("max") {
		cfg.Variogram.Max, _ = cmd.Flags().GetFloat64("max")
	}
	return cfg.Validate()
}

func runVariogram(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := applyVariogramOverrides(cmd); err != nil {
		return err
	}
	analyses, err := loadAnalyses(cmd, cfg.Options())
	if err != nil {
		return err
	}

	reports := make([]*kriging.Report, 0, len(analyses))
	for _, a := range analyses {
		rep, err := a.Report(ctx, nil)
		if err != nil {
			return err
		}
		reports = append(reports, rep)
	}
	return writeYAML(cmd, reports)
}
