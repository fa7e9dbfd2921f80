package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	kriging "github.com/flywave/go-kriging-cv"
	"github.com/flywave/go-kriging-cv/internal/dataset"
)

// loadAnalyses reads --input and builds one analysis per requested subset.
func loadAnalyses(cmd *cobra.Command, opts kriging.Options) ([]*kriging.Analysis, error) {
	input, _ := cmd.Flags().GetString("input")
	if input == "" {
		return nil, eris.New("--input is required")
	}
	subsets, _ := cmd.Flags().GetStringSlice("subset")
	thin := cfg.Variogram.ThinCell
	if cmd.Flags().Changed("thin") {
		thin, _ = cmd.Flags().GetFloat64("thin")
	}

	log := zap.L().With(zap.String("input", input))

	d, err := dataset.Load(input)
	if err != nil {
		return nil, err
	}
	log.Info("samples loaded", zap.Int("records", len(d.Records)), zap.Int("dropped", d.Dropped))

	if len(subsets) == 0 {
		subsets = d.Groups()
	}
	if collector != nil {
		opts.Observer = collector
	}

	ret := make([]*kriging.Analysis, 0, len(subsets))
	for _, subset := range subsets {
		samples, err := d.Samples(subset)
		if err != nil {
			return nil, err
		}
		if thin >= 0 {
			before := samples.Len()
			if samples, err = kriging.Thin(samples, thin); err != nil {
				return nil, eris.Wrapf(err, "thin subset %s", subset)
			}
			log.Debug("samples thinned", zap.String("subset", subset), zap.Int("before", before), zap.Int("after", samples.Len()))
		}
		a, err := kriging.NewAnalysis(subset, samples, opts)
		if err != nil {
			return nil, err
		}
		ret = append(ret, a)
	}
	return ret, nil
}

// writeOutput writes to --out, or to the command's stdout when unset.
func writeOutput(cmd *cobra.Command, write func(io.Writer) error) error {
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}

func writeYAML(cmd *cobra.Command, v interface{}) error {
	return writeOutput(cmd, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	})
}
