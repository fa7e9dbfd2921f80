package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"

	kriging "github.com/flywave/go-kriging-cv"
)

// Collector records analysis outcomes on its own registry. It implements
// kriging.Observer.
type Collector struct {
	registry *prometheus.Registry

	// Fit Metrics
	FitIterations *prometheus.GaugeVec
	FitConverged  *prometheus.GaugeVec
	FitMSE        *prometheus.GaugeVec
	FitParams     *prometheus.GaugeVec

	// Cross-validation Metrics
	CVMSE      *prometheus.GaugeVec
	CVBestK    *prometheus.GaugeVec
	CVDuration *prometheus.HistogramVec

	// Prediction Metrics
	PredictionsTotal   *prometheus.CounterVec
	PredictionDuration *prometheus.HistogramVec
	QueryFailuresTotal *prometheus.CounterVec

	// Run Metrics
	RunDuration prometheus.Histogram
}

var _ kriging.Observer = (*Collector)(nil)

// NewCollector creates a collector with a fresh registry.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,

		FitIterations: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fit_iterations",
				Help:      "Gradient descent iterations of the last variogram fit",
			},
			[]string{"subset"},
		),

		FitConverged: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fit_converged",
				Help:      "1 when the last variogram fit converged before the iteration limit",
			},
			[]string{"subset"},
		),

		FitMSE: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fit_mse",
				Help:      "Mean squared error of the fitted model over the populated lags",
			},
			[]string{"subset"},
		),

		FitParams: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "variogram_parameter",
				Help:      "Fitted variogram parameters",
			},
			[]string{"subset", "model", "param"}, // "nugget", "sill", "range"
		),

		CVMSE: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cv_mse",
				Help:      "Leave-one-out mean squared error by method and neighborhood size",
			},
			[]string{"subset", "method", "k"},
		),

		CVBestK: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cv_best_k",
				Help:      "Neighborhood size with the smallest cross-validation error",
			},
			[]string{"subset", "method"},
		),

		CVDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cv_duration_seconds",
				Help:      "Duration of a cross-validation sweep in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"method"},
		),

		PredictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Total number of predicted query points",
			},
			[]string{"subset", "method"},
		),

		PredictionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "prediction_duration_seconds",
				Help:      "Duration of a batch prediction in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"method"},
		),

		QueryFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_failures_total",
				Help:      "Total number of queries handled by the failure policy",
			},
			[]string{"subset", "method", "outcome"}, // "skipped", "fallback"
		),

		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of a command run in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
			},
		),
	}
}

// Registry exposes the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveFit records the fitted parameters of a subset.
func (c *Collector) ObserveFit(subset string, res kriging.FitResult) {
	c.FitIterations.WithLabelValues(subset).Set(float64(res.Iterations))
	converged := 0.0
	if res.Converged {
		converged = 1
	}
	c.FitConverged.WithLabelValues(subset).Set(converged)
	c.FitMSE.WithLabelValues(subset).Set(res.MSE)

	model := string(res.Variogram.Model)
	c.FitParams.WithLabelValues(subset, model, "nugget").Set(res.Variogram.Params.Nugget)
	c.FitParams.WithLabelValues(subset, model, "sill").Set(res.Variogram.Params.Sill)
	c.FitParams.WithLabelValues(subset, model, "range").Set(res.Variogram.Params.Range)
}

// ObserveCrossValidation records the error sweep of one method.
func (c *Collector) ObserveCrossValidation(subset string, res kriging.CVResult, elapsed time.Duration) {
	method := string(res.Method)
	for _, s := range res.Scores {
		c.CVMSE.WithLabelValues(subset, method, strconv.Itoa(s.K)).Set(s.MSE)
		c.recordFailures(subset, method, s.Skipped, s.Fallbacks)
	}
	c.CVBestK.WithLabelValues(subset, method).Set(float64(res.BestK))
	c.CVDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObservePredictions records a batch prediction.
func (c *Collector) ObservePredictions(subset string, method kriging.Method, results []kriging.Result, elapsed time.Duration) {
	var skipped, fallbacks int
	for _, r := range results {
		switch {
		case r.Fallback:
			fallbacks++
		case r.Err != nil:
			skipped++
		}
	}
	c.PredictionsTotal.WithLabelValues(subset, string(method)).Add(float64(len(results)))
	c.recordFailures(subset, string(method), skipped, fallbacks)
	c.PredictionDuration.WithLabelValues(string(method)).Observe(elapsed.Seconds())
}

func (c *Collector) recordFailures(subset, method string, skipped, fallbacks int) {
	if skipped > 0 {
		c.QueryFailuresTotal.WithLabelValues(subset, method, "skipped").Add(float64(skipped))
	}
	if fallbacks > 0 {
		c.QueryFailuresTotal.WithLabelValues(subset, method, "fallback").Add(float64(fallbacks))
	}
}

// WriteTextfile writes the registry in the text exposition format for the
// node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return eris.Wrapf(err, "metrics: write %s", path)
	}
	return nil
}

// Timer provides timing functionality for operations
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer
func (c *Collector) NewTimer(histogram prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}
