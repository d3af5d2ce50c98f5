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

// Package metrics collects scan and evaluation statistics and exposes
// them in Prometheus format.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/bearslyricattack/kubecheck/pkg/logger"
	"github.com/bearslyricattack/kubecheck/pkg/models"
)

// Collector records scan-level and check-level metrics.
type Collector struct {
	startTime time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
	}
}

// RecordScanStart marks the scanner as running.
func (c *Collector) RecordScanStart() {
	ScannerRunning.Set(1)
}

// RecordScanComplete records one finished scan round.
func (c *Collector) RecordScanComplete(duration time.Duration) {
	ScanTotal.Inc()
	ScanDurationSeconds.Observe(duration.Seconds())
}

// RecordScanError records a failed scan round.
func (c *Collector) RecordScanError() {
	ScanErrorsTotal.Inc()
}

// RecordCheckResults updates per-family status gauges from one round's
// results.
func (c *Collector) RecordCheckResults(family string, results []*models.CheckResult) {
	var passed, failed, manual, errored float64
	for _, res := range results {
		ChecksEvaluatedTotal.Inc()
		switch {
		case res.Error != "":
			errored++
			CheckErrorsTotal.Inc()
		case res.Passed == nil:
			manual++
		case *res.Passed:
			passed++
		default:
			failed++
		}
	}
	ChecksByStatus.WithLabelValues(family, "pass").Set(passed)
	ChecksByStatus.WithLabelValues(family, "fail").Set(failed)
	ChecksByStatus.WithLabelValues(family, "manual").Set(manual)
	ChecksByStatus.WithLabelValues(family, "error").Set(errored)
}

// RecordRemediation records one auto-remediation attempt.
func (c *Collector) RecordRemediation(success bool) {
	RemediationsTotal.Inc()
	if !success {
		RemediationsFailedTotal.Inc()
	}
}

// StartMetricsUpdater periodically refreshes process-level gauges until
// the context is cancelled.
func (c *Collector) StartMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.L.Debug("Metrics updater stopped")
			return
		case <-ticker.C:
			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)
			MemoryUsageBytes.Set(float64(memStats.Alloc))
		}
	}
}
