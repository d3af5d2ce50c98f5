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
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bearslyricattack/kubecheck/pkg/logger"
	"github.com/bearslyricattack/kubecheck/pkg/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server manages the Prometheus metrics HTTP server.
type Server struct {
	server *http.Server
	port   int
	path   string
}

// NewServer creates a metrics server for the given port and path.
func NewServer(port int, path string) *Server {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return &Server{
		server: server,
		port:   port,
		path:   path,
	}
}

// NewServerFromConfig creates a metrics server from the service
// configuration.
func NewServerFromConfig(config models.MetricsConfig) *Server {
	server := NewServer(config.Port, config.Path)

	if config.ReadTimeout > 0 {
		server.server.ReadTimeout = config.ReadTimeout
	}
	if config.WriteTimeout > 0 {
		server.server.WriteTimeout = config.WriteTimeout
	}

	return server
}

// Start starts the metrics server and blocks until it exits.
func (s *Server) Start() error {
	logger.L.WithFields(map[string]interface{}{
		"port": s.port,
		"path": s.path,
	}).Info("Starting Prometheus metrics server")

	return s.server.ListenAndServe()
}

// StartWithRetry starts the metrics server, retrying on failure.
func (s *Server) StartWithRetry(ctx context.Context, maxRetries int, retryInterval time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := s.Start()
		if err == nil || err == http.ErrServerClosed {
			return nil
		}

		logger.L.WithFields(map[string]interface{}{
			"attempt":     i + 1,
			"max_retries": maxRetries,
			"error":       err.Error(),
		}).Warn("Metrics server failed to start, preparing to retry")

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryInterval):
			}
		}
	}

	return fmt.Errorf("metrics server failed to start after %d attempts", maxRetries)
}

// Stop shuts the metrics server down.
func (s *Server) Stop(ctx context.Context) error {
	logger.L.Info("Stopping Prometheus metrics server")
	return s.server.Shutdown(ctx)
}

// GetAddr returns the server address.
func (s *Server) GetAddr() string {
	return s.server.Addr
}
