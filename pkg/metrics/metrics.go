// Copyright 2025 Kubecheck Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scanner status metrics
	ScannerRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kubecheck_scanner_running",
		Help: "Indicates whether the scanner is currently running (1 for running, 0 for stopped)",
	})

	ScanTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kubecheck_scan_total",
		Help: "Total number of scan rounds performed",
	})

	ScanErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kubecheck_scan_errors_total",
		Help: "Total number of scan round errors",
	})

	ScanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kubecheck_scan_duration_seconds",
		Help:    "Time taken to complete a single scan round",
		Buckets: prometheus.DefBuckets,
	})

	// Check evaluation metrics
	ChecksEvaluatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kubecheck_checks_evaluated_total",
		Help: "Total number of benchmark checks evaluated",
	})

	ChecksByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kubecheck_checks_by_status",
		Help: "Number of checks in the last scan round by component family and status",
	}, []string{"family", "status"})

	CheckErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kubecheck_check_errors_total",
		Help: "Total number of checks that failed with an unexpected error",
	})

	// Remediation metrics
	RemediationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kubecheck_remediations_total",
		Help: "Total number of auto remediations attempted",
	})

	RemediationsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kubecheck_remediations_failed_total",
		Help: "Total number of failed auto remediations",
	})

	// Performance metrics
	MemoryUsageBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kubecheck_memory_usage_bytes",
		Help: "Current memory usage in bytes",
	})
)
