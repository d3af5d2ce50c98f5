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

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bearslyricattack/kubecheck/internal/config"
	"github.com/bearslyricattack/kubecheck/internal/scanner"
	"github.com/bearslyricattack/kubecheck/pkg/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark scanner as a long-running service",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.L.Info("Kubecheck is starting...")

		loader := config.NewLoader(configPath)
		cfg, err := loader.Load()
		if err != nil {
			return err
		}

		if cfg.Scanner.LogLevel != "" && logLevel == "" {
			logger.SetLevel(cfg.Scanner.LogLevel)
		}
		logger.L.Info("Initial configuration loaded successfully")

		s := scanner.NewScanner(cfg)

		configWatcher, err := config.NewWatcher(loader, s.UpdateConfig)
		if err != nil {
			logger.L.WithError(err).Warn("Failed to create configuration watcher, hot-reload will be unavailable")
		} else {
			if err := configWatcher.Start(context.Background()); err != nil {
				logger.L.WithError(err).Warn("Failed to start configuration watcher, hot-reload will be unavailable")
			} else {
				defer configWatcher.Stop()
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go handleSignals(cancel)

		if err := s.Start(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the service configuration file")
	rootCmd.AddCommand(runCmd)
}

// handleSignals handles OS signals for graceful shutdown
func handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.L.WithFields(logrus.Fields{
		"signal": sig.String(),
	}).Info("Received shutdown signal, preparing graceful shutdown...")
	cancel()
}
