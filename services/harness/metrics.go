// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package harness

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the engine's counter set. All methods are nil-safe so an
// engine without metrics pays nothing.
type Metrics struct {
	executions   *prometheus.CounterVec
	checkResults *prometheus.CounterVec
}

// NewMetrics registers the engine counters with the given registerer.
//
// Inputs:
//   - reg: The Prometheus registerer. If nil, prometheus.DefaultRegisterer
//     is used.
//
// Outputs:
//   - *Metrics: The registered counter set. Never nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vigil",
			Subsystem: "harness",
			Name:      "executions_total",
			Help:      "Backend executions by source (reference or variation).",
		}, []string{"source"}),
		checkResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vigil",
			Subsystem: "harness",
			Name:      "check_results_total",
			Help:      "Check results by merged severity label.",
		}, []string{"severity"}),
	}

	reg.MustRegister(m.executions, m.checkResults)
	return m
}

func (m *Metrics) observeExecution(source string) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(source).Inc()
}

func (m *Metrics) observeCheck(severity Severity) {
	if m == nil {
		return
	}
	m.checkResults.WithLabelValues(severity.String()).Inc()
}
