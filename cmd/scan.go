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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bearslyricattack/kubecheck/internal/check"
	"github.com/bearslyricattack/kubecheck/internal/scanner"
	"github.com/bearslyricattack/kubecheck/pkg/models"
	"github.com/spf13/cobra"
)

var scanTargets string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan round and print the results as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &models.Config{
			Benchmarks: models.BenchmarkConfig{Dir: benchmarkDir},
		}
		s := scanner.NewScanner(cfg)

		results := make(map[string][]*models.CheckResult)
		for _, target := range strings.Split(scanTargets, ",") {
			target = strings.TrimSpace(target)
			if target == "" {
				continue
			}
			execCtx, err := check.ParseContext(target)
			if err != nil {
				return err
			}
			familyResults, err := s.RunFamily(execCtx)
			if err != nil {
				return fmt.Errorf("failed to scan %s: %w", target, err)
			}
			results[target] = familyResults
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanTargets, "targets", "t", "master,node", "Comma-separated component families to scan")
	rootCmd.AddCommand(scanCmd)
}
