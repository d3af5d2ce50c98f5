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

	"github.com/bearslyricattack/kubecheck/internal/check"
	"github.com/bearslyricattack/kubecheck/pkg/benchmark"
	"github.com/bearslyricattack/kubecheck/pkg/metrics"
	"github.com/bearslyricattack/kubecheck/pkg/models"
	"github.com/spf13/cobra"
)

var remediateDryRun bool

var remediateCmd = &cobra.Command{
	Use:   "remediate <check-id>",
	Short: "Run the auto remediation attached to a check",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		checkID := args[0]

		def, err := findCheck(checkID)
		if err != nil {
			return err
		}

		runner := check.NewRunner()
		result := runner.Remediate(def, remediateDryRun)
		metrics.NewCollector().RecordRemediation(result.Success)

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
		if !result.Success && result.Error != "" {
			return fmt.Errorf("remediation failed: %s", result.Error)
		}
		return nil
	},
}

// findCheck searches every available benchmark file for a check ID.
func findCheck(checkID string) (*models.CheckDefinition, error) {
	registry := benchmark.NewRegistry(benchmarkDir)
	families, err := registry.Available()
	if err != nil {
		return nil, err
	}

	for _, family := range families {
		controls, err := registry.Load(family)
		if err != nil {
			continue
		}
		if def, ok := controls.Check(checkID); ok {
			return &def, nil
		}
	}
	return nil, fmt.Errorf("check %s not found in %s", checkID, benchmarkDir)
}

func init() {
	remediateCmd.Flags().BoolVar(&remediateDryRun, "dry-run", false, "Echo the remediation command instead of executing it")
	rootCmd.AddCommand(remediateCmd)
}
