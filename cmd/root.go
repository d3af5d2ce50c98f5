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

// Package cmd defines the kubecheck command line interface.
package cmd

import (
	"github.com/bearslyricattack/kubecheck/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	logLevel     string
	benchmarkDir string
	version      = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kubecheck",
	Short: "Audit a Kubernetes host against declarative security benchmarks",
	Long: `kubecheck evaluates declaratively defined security benchmark checks
against a running host: it runs audit probes (or reads component config
files), extracts values from the output, and compares them against the
expected conditions declared in the benchmark files.

Example usage:
  kubecheck scan --targets master,node
  kubecheck run --config configs/config.yaml
  kubecheck remediate 1.1.1 --dry-run`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			logger.SetLevel(logLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&benchmarkDir, "benchmarks", "b", "benchmarks", "Directory containing benchmark control files")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the kubecheck version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("kubecheck " + version)
	},
}
