/*
 * Filename: /Users/htang/code/svgeno/metrics.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Tuesday, March 10th 2020, 11:16:38 am
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects run statistics in a private registry, to be dumped as a
// node exporter textfile
type Metrics struct {
	Registry      *prometheus.Registry
	readsTotal    prometheus.Counter
	readsAssigned prometheus.Counter
	readsSkipped  *prometheus.CounterVec
	calls         *prometheus.CounterVec
	quality       prometheus.Histogram
}

// NewMetrics registers the svgeno collectors
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		readsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "svgeno_reads_total",
			Help: "Reads handed to the disambiguator",
		}),
		readsAssigned: factory.NewCounter(prometheus.CounterOpts{
			Name: "svgeno_reads_assigned_total",
			Help: "Reads assigned to at least one graph element",
		}),
		readsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "svgeno_reads_skipped_total",
			Help: "Reads left out of the counts, by reason",
		}, []string{"reason"}),
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "svgeno_genotype_calls_total",
			Help: "Genotype calls by level and outcome",
		}, []string{"level", "outcome"}),
		quality: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "svgeno_breakpoint_quality",
			Help:    "Genotype quality of the called breakpoints",
			Buckets: []float64{0, 5, 10, 20, 30, 50, 70, 99},
		}),
	}
}

// Observe records one finished run
func (r *Metrics) Observe(result *Result) {
	r.readsTotal.Add(float64(result.Diagnostics.Reads))
	r.readsAssigned.Add(float64(result.Diagnostics.Assigned))
	for reason, n := range result.Diagnostics.Skipped {
		r.readsSkipped.WithLabelValues(reason).Add(float64(n))
	}
	for _, call := range result.Breakpoints {
		r.calls.WithLabelValues("breakpoint", outcome(&call)).Inc()
		if !call.NoCall {
			r.quality.Observe(call.Quality)
		}
	}
	if result.Genotype != nil {
		r.calls.WithLabelValues("variant", outcome(result.Genotype)).Inc()
	}
}

// WriteTextfile dumps the metrics in the Prometheus text format
func (r *Metrics) WriteTextfile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, r.Registry); err != nil {
		return err
	}
	log.Noticef("Metrics written to `%s`", filename)
	return nil
}

func outcome(call *GenotypeCall) string {
	if call.NoCall {
		return "no_call"
	}
	return "called"
}
