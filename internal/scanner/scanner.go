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

// Package scanner schedules benchmark scan rounds: it fans the checks of
// each configured component family out over a worker pool and keeps the
// latest results for reporting.
package scanner

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/bearslyricattack/kubecheck/internal/api"
	"github.com/bearslyricattack/kubecheck/internal/check"
	"github.com/bearslyricattack/kubecheck/pkg/benchmark"
	"github.com/bearslyricattack/kubecheck/pkg/logger"
	"github.com/bearslyricattack/kubecheck/pkg/metrics"
	"github.com/bearslyricattack/kubecheck/pkg/models"
	"github.com/sirupsen/logrus"
)

// checkRunner abstracts check evaluation for testing.
type checkRunner interface {
	Run(def *models.CheckDefinition, execCtx check.ExecContext) *models.CheckResult
	ComponentConfig(execCtx check.ExecContext) map[string]string
}

type Scanner struct {
	mu       sync.RWMutex
	config   *models.Config
	runner   checkRunner
	registry *benchmark.Registry

	metrics    *metrics.Collector
	metricsSrv *metrics.Server
	apiServer  *api.Server
	ticker     *time.Ticker

	resultsMu    sync.RWMutex
	results      map[string][]*models.CheckResult
	lastScan     time.Time
	scanRequests chan struct{}
}

// NewScanner creates a scanner instance from the service configuration.
func NewScanner(config *models.Config) *Scanner {
	s := &Scanner{
		config:       config,
		runner:       check.NewRunner(),
		registry:     benchmark.NewRegistry(config.Benchmarks.Dir),
		metrics:      metrics.NewCollector(),
		results:      make(map[string][]*models.CheckResult),
		scanRequests: make(chan struct{}, 1),
	}

	if config.Metrics.Enabled {
		s.metricsSrv = metrics.NewServerFromConfig(config.Metrics)
		logger.L.WithFields(logrus.Fields{
			"port": config.Metrics.Port,
			"path": config.Metrics.Path,
		}).Info("Metrics server configured")
	} else {
		logger.L.Info("Metrics server disabled")
	}

	if config.API.Enabled {
		s.apiServer = api.NewServer(s, config.API.Port)
		logger.L.WithField("port", config.API.Port).Info("API server configured")
	} else {
		logger.L.Info("API server disabled")
	}

	return s
}

// UpdateConfig applies a hot-reloaded configuration.
func (s *Scanner) UpdateConfig(newConfig *models.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.L.Info("Applying new configuration...")
	oldConfig := s.config
	s.config = newConfig

	if oldConfig.Scanner.LogLevel != newConfig.Scanner.LogLevel {
		logger.SetLevel(newConfig.Scanner.LogLevel)
	}

	if oldConfig.Benchmarks.Dir != newConfig.Benchmarks.Dir {
		s.registry = benchmark.NewRegistry(newConfig.Benchmarks.Dir)
		logger.L.WithFields(logrus.Fields{
			"key":  "benchmarks.dir",
			"from": oldConfig.Benchmarks.Dir,
			"to":   newConfig.Benchmarks.Dir,
		}).Info("Configuration changed")
	}

	oldInterval := time.Duration(oldConfig.Scanner.ScanIntervalSecond) * time.Second
	newInterval := time.Duration(newConfig.Scanner.ScanIntervalSecond) * time.Second
	if oldInterval != newInterval {
		if s.ticker != nil {
			s.ticker.Reset(newInterval)
		}
		logger.L.WithFields(logrus.Fields{
			"key":  "scanner.scan_interval",
			"from": oldInterval.String(),
			"to":   newInterval.String(),
		}).Info("Configuration changed")
	}

	logger.L.Info("Configuration hot-reloaded successfully")
}

// Start runs the scan loop until the context is cancelled. The first
// round runs immediately; later rounds follow the configured interval
// or an API trigger.
func (s *Scanner) Start(ctx context.Context) error {
	if s.metricsSrv != nil {
		go func() {
			if err := s.metricsSrv.StartWithRetry(ctx, 3, 5*time.Second); err != nil {
				logger.L.WithError(err).Error("Failed to start metrics server")
			}
		}()
	}

	if s.apiServer != nil {
		go func() {
			if err := s.apiServer.Start(ctx); err != nil {
				logger.L.WithError(err).Error("Failed to start API server")
			}
		}()
	}

	go s.metrics.StartMetricsUpdater(ctx, 30*time.Second)
	s.metrics.RecordScanStart()

	s.mu.RLock()
	interval := time.Duration(s.config.Scanner.ScanIntervalSecond) * time.Second
	s.mu.RUnlock()
	s.ticker = time.NewTicker(interval)

	logger.L.WithField("interval", interval.String()).Info("Kubecheck benchmark scanner started")

	s.runRound()
	return s.runScanLoop(ctx)
}

func (s *Scanner) runScanLoop(ctx context.Context) error {
	defer s.ticker.Stop()
	defer metrics.ScannerRunning.Set(0)

	for {
		select {
		case <-ctx.Done():
			logger.L.Info("Scanner stopped")
			if s.metricsSrv != nil {
				s.metricsSrv.Stop(ctx)
			}
			if s.apiServer != nil {
				s.apiServer.Stop(ctx)
			}
			return ctx.Err()
		case <-s.scanRequests:
			s.runRound()
		case <-s.ticker.C:
			s.runRound()
		}
	}
}

func (s *Scanner) runRound() {
	start := time.Now()
	if err := s.scanFamilies(); err != nil {
		logger.L.WithError(err).Error("Scan round failed")
		s.metrics.RecordScanError()
		return
	}
	s.metrics.RecordScanComplete(time.Since(start))
}

func (s *Scanner) scanFamilies() error {
	logger.L.Info("Starting new scan round...")

	s.mu.RLock()
	targets := s.config.Scanner.Targets
	s.mu.RUnlock()

	for _, target := range targets {
		execCtx, err := check.ParseContext(target)
		if err != nil {
			logger.L.WithField("target", target).Warn("Skipping unknown scan target")
			continue
		}

		results, err := s.RunFamily(execCtx)
		if err != nil {
			logger.L.WithFields(logrus.Fields{
				"family": target,
			}).WithError(err).Warn("Skipping family without a benchmark file")
			continue
		}

		s.resultsMu.Lock()
		s.results[target] = results
		s.lastScan = time.Now()
		s.resultsMu.Unlock()

		s.metrics.RecordCheckResults(target, results)
	}

	logger.L.Info("Scan round completed")
	return nil
}

// RunFamily evaluates every check of one component family concurrently
// and returns the results in benchmark order. Check evaluation is
// side-effect free apart from the shared config-file cache, which is
// safe under concurrent access.
func (s *Scanner) RunFamily(execCtx check.ExecContext) ([]*models.CheckResult, error) {
	controls, err := s.registry.Load(string(execCtx))
	if err != nil {
		return nil, err
	}

	checks := controls.Checks()
	logger.L.WithFields(logrus.Fields{
		"family": string(execCtx),
		"count":  len(checks),
	}).Info("Evaluating benchmark checks...")

	s.mu.RLock()
	numWorkers := s.config.Scanner.Workers
	s.mu.RUnlock()
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	jobs := make(chan int, len(checks))
	results := make([]*models.CheckResult, len(checks))
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = s.runner.Run(&checks[idx], execCtx)
			}
		}()
	}

	for idx := range checks {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results, nil
}

// GetComponentConfig returns the flat config-file mapping extracted for
// one component family.
func (s *Scanner) GetComponentConfig(family string) (map[string]string, error) {
	execCtx, err := check.ParseContext(family)
	if err != nil {
		return nil, err
	}
	return s.runner.ComponentConfig(execCtx), nil
}

// TriggerScan requests an immediate scan round. A round already pending
// coalesces with the request.
func (s *Scanner) TriggerScan() {
	select {
	case s.scanRequests <- struct{}{}:
	default:
	}
}

// GetResults returns the latest results per component family.
func (s *Scanner) GetResults() map[string][]*models.CheckResult {
	s.resultsMu.RLock()
	defer s.resultsMu.RUnlock()

	snapshot := make(map[string][]*models.CheckResult, len(s.results))
	for family, results := range s.results {
		snapshot[family] = append([]*models.CheckResult(nil), results...)
	}
	return snapshot
}

// GetSummary aggregates the latest results into pass/fail/manual
// counts.
func (s *Scanner) GetSummary() models.ScanSummary {
	s.resultsMu.RLock()
	defer s.resultsMu.RUnlock()

	summary := models.ScanSummary{}
	for _, results := range s.results {
		for _, res := range results {
			summary.Total++
			switch {
			case res.Error != "":
				summary.Errors++
			case res.Passed == nil:
				summary.Manual++
			case *res.Passed:
				summary.Passed++
			default:
				summary.Failed++
			}
		}
	}
	if !s.lastScan.IsZero() {
		summary.LastScan = s.lastScan.Format(time.RFC3339)
	}
	return summary
}
