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

// Package api provides the HTTP surface over the latest scan results.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/bearslyricattack/kubecheck/pkg/logger"
	"github.com/bearslyricattack/kubecheck/pkg/models"
	"github.com/sirupsen/logrus"
)

// ResultsProvider is the scanner-side contract the API serves from.
type ResultsProvider interface {
	GetResults() map[string][]*models.CheckResult
	GetSummary() models.ScanSummary
	GetComponentConfig(family string) (map[string]string, error)
	TriggerScan()
}

// Handler serves the scan-result endpoints.
type Handler struct {
	provider ResultsProvider
}

// NewHandler creates a new API handler.
func NewHandler(provider ResultsProvider) *Handler {
	return &Handler{
		provider: provider,
	}
}

// GetResultsHandler returns the latest check results per component
// family.
func (h *Handler) GetResultsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	results := h.provider.GetResults()

	logger.L.WithFields(logrus.Fields{
		"families": len(results),
		"remote":   r.RemoteAddr,
	}).Info("API: Returning check results")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		logger.L.WithError(err).Error("Failed to encode check results")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}

// GetSummaryHandler returns aggregate pass/fail/manual counts.
func (h *Handler) GetSummaryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.provider.GetSummary()); err != nil {
		logger.L.WithError(err).Error("Failed to encode scan summary")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}

// GetConfigHandler returns the flat config mapping extracted from a
// component family's on-disk files, selected by the family query
// parameter.
func (h *Handler) GetConfigHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	family := r.URL.Query().Get("family")
	if family == "" {
		http.Error(w, "Missing family parameter", http.StatusBadRequest)
		return
	}

	config, err := h.provider.GetComponentConfig(family)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.L.WithFields(logrus.Fields{
		"family": family,
		"keys":   len(config),
		"remote": r.RemoteAddr,
	}).Info("API: Returning component config")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(config); err != nil {
		logger.L.WithError(err).Error("Failed to encode component config")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}

// TriggerScanHandler requests an immediate scan round.
func (h *Handler) TriggerScanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.provider.TriggerScan()
	logger.L.WithField("remote", r.RemoteAddr).Info("API: Scan round triggered")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "scan triggered"})
}

// HealthHandler is the health check endpoint.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
