package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AngelCh415/ad-cutoff/internal/analytics"
)

// Collectors holds the batch-level Prometheus instruments.
type Collectors struct {
	Batches      *prometheus.CounterVec
	Discarded    prometheus.Counter
	SourceErrors prometheus.Counter
	Ads          prometheus.Counter
	OptimalFound prometheus.Counter
	Pipeline     prometheus.Histogram
}

func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pocc_batches_total",
			Help: "Batches processed, by outcome.",
		}, []string{"status"}),
		Discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pocc_rows_discarded_total",
			Help: "Input rows dropped for missing ad id or spend.",
		}),
		SourceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pocc_source_errors_total",
			Help: "Input sources that failed to parse.",
		}),
		Ads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pocc_ads_analyzed_total",
			Help: "Ads run through the scoring pipeline.",
		}),
		OptimalFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pocc_optimal_found_total",
			Help: "Ads for which a stop day was recommended.",
		}),
		Pipeline: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pocc_pipeline_seconds",
			Help:    "Time spent parsing and scoring one batch.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(c.Batches, c.Discarded, c.SourceErrors, c.Ads, c.OptimalFound, c.Pipeline)
	}
	return c
}

// ObserveBatch records a finished batch.
func (c *Collectors) ObserveBatch(b *analytics.Batch, seconds float64) {
	if c == nil {
		return
	}
	status := "ok"
	if len(b.SourceErrors) > 0 {
		status = "partial"
	}
	c.Batches.WithLabelValues(status).Inc()
	c.Discarded.Add(float64(b.Discarded))
	c.SourceErrors.Add(float64(len(b.SourceErrors)))
	c.Ads.Add(float64(len(b.Ads)))
	for _, a := range b.Ads {
		if a.Optimal != nil {
			c.OptimalFound.Inc()
		}
	}
	c.Pipeline.Observe(seconds)
}

// ObserveFailure records a batch in which nothing could be analyzed.
func (c *Collectors) ObserveFailure(sourceErrors int) {
	if c == nil {
		return
	}
	c.Batches.WithLabelValues("failed").Inc()
	c.SourceErrors.Add(float64(sourceErrors))
}
