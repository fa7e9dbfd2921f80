package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	kriging "github.com/flywave/go-kriging-cv"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Variogram VariogramConfig `yaml:"variogram" mapstructure:"variogram"`
	Fit       FitConfig       `yaml:"fit" mapstructure:"fit"`
	CV        CVConfig        `yaml:"cv" mapstructure:"cv"`
	Predict   PredictConfig   `yaml:"predict" mapstructure:"predict"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// VariogramConfig configures lag binning and the model family.
type VariogramConfig struct {
	Radius     float64 `yaml:"radius" mapstructure:"radius"`
	Step       float64 `yaml:"step" mapstructure:"step"`
	Max        float64 `yaml:"max" mapstructure:"max"`
	Model      string  `yaml:"model" mapstructure:"model"`
	RangeGuess float64 `yaml:"range_guess" mapstructure:"range_guess"`
	// ThinCell merges samples sharing a cell of this size in degrees; a
	// negative value disables thinning.
	ThinCell float64 `yaml:"thin_cell" mapstructure:"thin_cell"`
}

// FitConfig configures the gradient descent.
type FitConfig struct {
	Alpha  float64 `yaml:"alpha" mapstructure:"alpha"`
	Delta  float64 `yaml:"delta" mapstructure:"delta"`
	Limit  int     `yaml:"limit" mapstructure:"limit"`
	Thresh float64 `yaml:"thresh" mapstructure:"thresh"`
}

// CVConfig configures the cross-validation sweep.
type CVConfig struct {
	Methods  []string `yaml:"methods" mapstructure:"methods"`
	Sizes    []int    `yaml:"sizes" mapstructure:"sizes"`
	Workers  int      `yaml:"workers" mapstructure:"workers"`
	OnError  string   `yaml:"on_error" mapstructure:"on_error"`
	Fallback string   `yaml:"fallback" mapstructure:"fallback"`
}

// PredictConfig configures grid prediction.
type PredictConfig struct {
	Method   string `yaml:"method" mapstructure:"method"`
	K        int    `yaml:"k" mapstructure:"k"`
	Workers  int    `yaml:"workers" mapstructure:"workers"`
	OnError  string `yaml:"on_error" mapstructure:"on_error"`
	Fallback string `yaml:"fallback" mapstructure:"fallback"`
	MaskHull bool   `yaml:"mask_hull" mapstructure:"mask_hull"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("KRIGING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("variogram.radius", 2.5)
	v.SetDefault("variogram.step", 5.0)
	v.SetDefault("variogram.max", 100.0)
	v.SetDefault("variogram.model", string(kriging.Spherical))
	v.SetDefault("variogram.range_guess", 10.0)
	v.SetDefault("variogram.thin_cell", -1.0)
	v.SetDefault("fit.alpha", 0.1)
	v.SetDefault("fit.delta", 1e-6)
	v.SetDefault("fit.limit", 100000)
	v.SetDefault("fit.thresh", 1e-9)
	v.SetDefault("cv.methods", []string{"knn", "idw", "kriging"})
	v.SetDefault("cv.sizes", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15})
	v.SetDefault("cv.workers", 0)
	v.SetDefault("cv.on_error", string(kriging.PolicyAbort))
	v.SetDefault("cv.fallback", string(kriging.MethodIDW))
	v.SetDefault("predict.method", string(kriging.MethodKriging))
	v.SetDefault("predict.k", 8)
	v.SetDefault("predict.workers", 0)
	v.SetDefault("predict.on_error", string(kriging.PolicyFallback))
	v.SetDefault("predict.fallback", string(kriging.MethodIDW))
	v.SetDefault("predict.mask_hull", true)
	v.SetDefault("metrics.textfile", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks ranges and enum values.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return eris.Wrapf(err, "config: log.level %q", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return eris.Errorf("config: log.format %q must be json or console", c.Log.Format)
	}
	if !(c.Variogram.Radius > 0) || !(c.Variogram.Step > 0) || !(c.Variogram.Max > c.Variogram.Radius) {
		return eris.Errorf("config: variogram bins radius=%v step=%v max=%v", c.Variogram.Radius, c.Variogram.Step, c.Variogram.Max)
	}
	if _, err := kriging.ParseModelType(c.Variogram.Model); err != nil {
		return eris.Wrap(err, "config: variogram.model")
	}
	if !(c.Variogram.RangeGuess > 0) {
		return eris.Errorf("config: variogram.range_guess %v must be positive", c.Variogram.RangeGuess)
	}
	if !(c.Fit.Alpha > 0) || !(c.Fit.Delta > 0) || c.Fit.Limit <= 0 || c.Fit.Thresh < 0 {
		return eris.Errorf("config: fit %+v", c.Fit)
	}
	if len(c.CV.Methods) == 0 {
		return eris.New("config: cv.methods is empty")
	}
	for _, m := range c.CV.Methods {
		if _, err := kriging.ParseMethod(m); err != nil {
			return eris.Wrap(err, "config: cv.methods")
		}
	}
	for _, k := range c.CV.Sizes {
		if k < 1 {
			return eris.Errorf("config: cv.sizes contains %d", k)
		}
	}
	if err := checkPolicy("cv", c.CV.OnError, c.CV.Fallback); err != nil {
		return err
	}
	if _, err := kriging.ParseMethod(c.Predict.Method); err != nil {
		return eris.Wrap(err, "config: predict.method")
	}
	if c.Predict.K < 1 {
		return eris.Errorf("config: predict.k %d must be positive", c.Predict.K)
	}
	return checkPolicy("predict", c.Predict.OnError, c.Predict.Fallback)
}

func checkPolicy(section, onError, fallback string) error {
	if _, err := kriging.ParseFailurePolicy(onError); err != nil {
		return eris.Wrapf(err, "config: %s.on_error", section)
	}
	m, err := kriging.ParseMethod(fallback)
	if err != nil {
		return eris.Wrapf(err, "config: %s.fallback", section)
	}
	if m == kriging.MethodKriging {
		return eris.Errorf("config: %s.fallback cannot be kriging", section)
	}
	return nil
}

// Bins returns the lag bins.
func (c VariogramConfig) Bins() kriging.Bins {
	return kriging.Bins{Radius: c.Radius, Step: c.Step, Max: c.Max}
}

// Options assembles the analysis options for the CV section.
func (c *Config) Options() kriging.Options {
	model := kriging.ModelType(c.Variogram.Model)
	rangeGuess := c.Variogram.RangeGuess
	fit := kriging.FitOptions{Alpha: c.Fit.Alpha, Delta: c.Fit.Delta, Limit: c.Fit.Limit, Thresh: c.Fit.Thresh}
	return kriging.Options{
		Bins:           c.Variogram.Bins(),
		Model:          &model,
		RangeGuess:     &rangeGuess,
		Fit:            &fit,
		Sizes:          c.CV.Sizes,
		Workers:        c.CV.Workers,
		OnError:        kriging.FailurePolicy(c.CV.OnError),
		FallbackMethod: kriging.Method(c.CV.Fallback),
	}
}

// ParsedMethods returns the cross-validation methods as kriging methods.
func (c CVConfig) ParsedMethods() []kriging.Method {
	ret := make([]kriging.Method, 0, len(c.Methods))
	for _, m := range c.Methods {
		ret = append(ret, kriging.Method(m))
	}
	return ret
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
