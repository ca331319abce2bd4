/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics defines the Prometheus collectors exported by the API
// server. All observation methods are safe on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kubegen"

// Generate outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

type Metrics struct {
	// GenerateRequestsTotal counts generate calls by outcome: ok, failed
	// (model error, fallback returned) or error (template or write error).
	GenerateRequestsTotal *prometheus.CounterVec

	// GenerationLatency observes the whole pipeline, model call included.
	GenerationLatency prometheus.Histogram

	// ManifestProblemsTotal counts per-document validation problems found
	// in generated manifests.
	ManifestProblemsTotal prometheus.Counter

	// AppliesTotal counts kubectl applies by outcome: ok, invalid
	// (rejected before kubectl ran) or failed.
	AppliesTotal *prometheus.CounterVec

	// RequestsWaiting is the number of requests queued behind the one
	// currently talking to the model or the cluster.
	RequestsWaiting prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GenerateRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generate_requests_total",
				Help:      "Total number of manifest generation requests.",
			},
			[]string{"outcome"},
		),

		GenerationLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_latency_seconds",
				Help:      "Time to produce a manifest, in seconds.",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
		),

		ManifestProblemsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "manifest_problems_total",
				Help:      "Total number of validation problems in generated manifests.",
			},
		),

		AppliesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "applies_total",
				Help:      "Total number of kubectl apply attempts.",
			},
			[]string{"outcome"},
		),

		RequestsWaiting: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_waiting",
				Help:      "Requests waiting for the pipeline lock.",
			},
		),
	}

	reg.MustRegister(
		m.GenerateRequestsTotal,
		m.GenerationLatency,
		m.ManifestProblemsTotal,
		m.AppliesTotal,
		m.RequestsWaiting,
	)
	return m
}

// ObserveGenerate records one generate request. Latency is recorded only
// when the pipeline ran to completion.
func (m *Metrics) ObserveGenerate(outcome string, elapsed time.Duration, problems int) {
	if m == nil {
		return
	}
	m.GenerateRequestsTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeError {
		m.GenerationLatency.Observe(elapsed.Seconds())
	}
	if problems > 0 {
		m.ManifestProblemsTotal.Add(float64(problems))
	}
}

// ObserveApply records one apply attempt.
func (m *Metrics) ObserveApply(outcome string) {
	if m == nil {
		return
	}
	m.AppliesTotal.WithLabelValues(outcome).Inc()
}

// Wait marks a request as queued and returns the func that unmarks it.
func (m *Metrics) Wait() func() {
	if m == nil {
		return func() {}
	}
	m.RequestsWaiting.Inc()
	return m.RequestsWaiting.Dec
}
