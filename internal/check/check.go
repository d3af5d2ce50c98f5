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

package check

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bearslyricattack/kubecheck/pkg/logger"
	"github.com/bearslyricattack/kubecheck/pkg/models"
	"github.com/sirupsen/logrus"
)

const maxLineContent = 100

// Runner evaluates benchmark checks. It is stateless apart from the
// injected command runner and the config-file extractor's cache, so one
// Runner may serve many goroutines.
type Runner struct {
	commands *CommandRunner
	files    *Extractor
}

// NewRunner returns a runner with default probe execution and config
// extraction.
func NewRunner() *Runner {
	return &Runner{
		commands: NewCommandRunner(),
		files:    NewExtractor(),
	}
}

// ComponentConfig exposes the extractor's flat mapping for a family.
func (r *Runner) ComponentConfig(execCtx ExecContext) map[string]string {
	return r.files.ComponentConfig(execCtx)
}

// Run evaluates one check against an execution context and always
// returns a CheckResult: probe failures degrade to empty evidence and
// an unexpected panic is captured into the result's Error field with
// the verdict forced to failing.
func (r *Runner) Run(def *models.CheckDefinition, execCtx ExecContext) (result *models.CheckResult) {
	start := time.Now()
	checkType := resolveType(def)

	logger.L.WithFields(logrus.Fields{
		"id":      def.ID,
		"context": string(execCtx),
	}).Info("Evaluating check")

	// Pure-manual checks carry no probe at all; their verdict stays
	// unknown. A check marked manual that still declares an audit is
	// evaluated like any other.
	if def.Audit == "" && def.AuditConfig == "" {
		return &models.CheckResult{
			ID:          def.ID,
			Text:        def.Text,
			Passed:      nil,
			Scored:      def.Scored,
			Type:        models.TypeManual,
			TestResults: []models.TestResult{},
			Remediation: def.Remediation,
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.L.WithFields(logrus.Fields{
				"id":    def.ID,
				"panic": rec,
			}).Error("Unexpected error evaluating check")
			result = &models.CheckResult{
				ID:            def.ID,
				Text:          def.Text,
				Passed:        boolPtr(false),
				Scored:        def.Scored,
				Type:          checkType,
				TestResults:   []models.TestResult{},
				Remediation:   def.Remediation,
				Error:         fmt.Sprintf("%v", rec),
				ExecutionTime: elapsedSeconds(start),
			}
		}
	}()

	auditOutput := r.commands.Run(def.Audit, execCtx)
	configOutput := r.commands.Run(def.AuditConfig, execCtx)

	if def.UseMultipleValues {
		return r.runMultipleValues(def, auditOutput, execCtx, checkType, start)
	}

	var testItems []models.TestItem
	binOp := ""
	if def.Tests != nil {
		testItems = def.Tests.TestItems
		binOp = def.Tests.BinOp
	}

	results := make([]models.TestResult, 0, len(testItems))
	for _, item := range testItems {
		if configOutput != "" && item.Path != "" {
			results = append(results, r.evaluateDualTest(item, auditOutput, configOutput, execCtx))
		} else {
			results = append(results, r.evaluateTest(item, auditOutput, execCtx))
		}
	}

	passed := combine(results, binOp)

	res := &models.CheckResult{
		ID:            def.ID,
		Text:          def.Text,
		Passed:        boolPtr(passed),
		Scored:        def.Scored,
		Type:          checkType,
		TestResults:   results,
		ExecutionTime: elapsedSeconds(start),
		HasDualAudit:  def.AuditConfig != "",
	}
	if !passed {
		res.Remediation = def.Remediation
	}
	return res
}

// evaluateTest evaluates one predicate against a single evidence blob.
func (r *Runner) evaluateTest(item models.TestItem, output string, execCtx ExecContext) models.TestResult {
	found, value := ParseOutput(output, item.Flag, item.Env, execCtx)

	res := models.TestResult{
		Flag:   item.Flag,
		Found:  found,
		Value:  value,
		Source: models.SourceProcess,
	}

	switch {
	case item.Set != nil:
		shouldExist := *item.Set
		if shouldExist == found {
			res.Passed = true
			if shouldExist {
				res.Message = fmt.Sprintf("Flag %s is set with value: %s", item.Flag, value)
			} else {
				res.Message = fmt.Sprintf("Flag %s is not set (as required)", item.Flag)
			}
		} else {
			res.Message = fmt.Sprintf("Flag %s existence check failed", item.Flag)
		}

	case item.Compare != nil:
		if !found {
			res.Message = fmt.Sprintf("Flag %s not found for comparison", item.Flag)
			break
		}
		res.Passed = EvaluateComparison(value, item.Compare.Op, item.Compare.Value, execCtx)
		verdict := "failed"
		if res.Passed {
			verdict = "passed"
		}
		res.Message = fmt.Sprintf("Flag %s comparison %s: %s %s %v", item.Flag, verdict, value, item.Compare.Op, item.Compare.Value)

	default:
		res.Passed = found
		if found {
			res.Message = fmt.Sprintf("Flag %s found", item.Flag)
		} else {
			res.Message = fmt.Sprintf("Flag %s not found", item.Flag)
		}
	}

	return res
}

// evaluateDualTest evaluates one predicate with two evidence sources:
// live process output first, the audit_config document as fallback. The
// result records which source produced the match.
func (r *Runner) evaluateDualTest(item models.TestItem, auditOutput, configOutput string, execCtx ExecContext) models.TestResult {
	res := models.TestResult{
		Flag: item.Flag,
		Path: item.Path,
	}

	if item.Flag != "" && auditOutput != "" {
		if found, value := ParseOutput(auditOutput, item.Flag, item.Env, execCtx); found {
			res.Found = true
			res.Value = value
			res.Source = models.SourceProcess
		}
	}
	if !res.Found && item.Path != "" && configOutput != "" {
		if found, value := LookupConfigPath(configOutput, item.Path); found {
			res.Found = true
			res.Value = value
			res.Source = models.SourceConfig
		}
	}
	if !res.Found {
		res.Value = fmt.Sprintf("Neither flag %s nor config path %s found", item.Flag, item.Path)
	}

	switch {
	case item.Set != nil:
		shouldExist := *item.Set
		if shouldExist == res.Found {
			res.Passed = true
			if shouldExist {
				res.Message = fmt.Sprintf("Value found: %s (from %s)", res.Value, res.Source)
			} else {
				res.Message = "Value not found (as required)"
			}
		} else {
			res.Message = fmt.Sprintf("Set check failed: expected %t, found %t", shouldExist, res.Found)
		}

	case item.Compare != nil:
		if !res.Found {
			res.Message = res.Value
			break
		}
		res.Passed = EvaluateComparison(res.Value, item.Compare.Op, item.Compare.Value, execCtx)
		verdict := "failed"
		if res.Passed {
			verdict = "passed"
		}
		res.Message = fmt.Sprintf("Check %s: %s %s %v (from %s)", verdict, res.Value, item.Compare.Op, item.Compare.Value, res.Source)

	default:
		res.Passed = res.Found
		if res.Found {
			res.Message = fmt.Sprintf("Value found (from %s)", res.Source)
		} else {
			res.Message = "Value not found"
		}
	}

	return res
}

// runMultipleValues splits the primary evidence into non-blank lines
// and evaluates every predicate independently against each line.
func (r *Runner) runMultipleValues(def *models.CheckDefinition, auditOutput string, execCtx ExecContext, checkType string, start time.Time) *models.CheckResult {
	var testItems []models.TestItem
	binOp := ""
	if def.Tests != nil {
		testItems = def.Tests.TestItems
		binOp = def.Tests.BinOp
	}

	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(auditOutput), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return &models.CheckResult{
			ID:             def.ID,
			Text:           def.Text,
			Passed:         boolPtr(false),
			Scored:         def.Scored,
			Type:           checkType,
			TestResults:    []models.TestResult{},
			Remediation:    def.Remediation,
			ExecutionTime:  elapsedSeconds(start),
			MultipleValues: true,
		}
	}

	results := make([]models.TestResult, 0, len(lines)*len(testItems))
	for idx, line := range lines {
		for _, item := range testItems {
			res := r.evaluateTest(item, line, execCtx)
			res.LineNumber = idx + 1
			res.LineContent = truncateLine(line)
			results = append(results, res)
		}
	}

	passed := r.combineMultiple(def, results, binOp)

	res := &models.CheckResult{
		ID:             def.ID,
		Text:           def.Text,
		Passed:         boolPtr(passed),
		Scored:         def.Scored,
		Type:           checkType,
		TestResults:    results,
		ExecutionTime:  elapsedSeconds(start),
		LinesProcessed: len(lines),
		MultipleValues: true,
	}
	if !passed {
		res.Remediation = def.Remediation
	}
	return res
}

// combineMultiple applies the check's aggregation mode over per-line
// results. The named modes cover policy checks whose lines are
// per-resource compliance rows rather than flag/value pairs.
func (r *Runner) combineMultiple(def *models.CheckDefinition, results []models.TestResult, binOp string) bool {
	switch def.Aggregation {
	case models.AggregationAllCompliant:
		compliance := filterByFlag(results, "is_compliant")
		if len(compliance) == 0 {
			return false
		}
		failed := countFailed(compliance)
		logger.L.WithFields(logrus.Fields{
			"id":     def.ID,
			"total":  len(compliance),
			"failed": failed,
		}).Info("Compliance aggregation evaluated")
		return failed == 0

	case models.AggregationRoleSplit:
		roles := filterByFlag(results, "role_is_compliant")
		clusterRoles := filterByFlag(results, "clusterrole_is_compliant")
		logger.L.WithFields(logrus.Fields{
			"id":                  def.ID,
			"roles":               len(roles),
			"roles_failed":        countFailed(roles),
			"clusterroles":        len(clusterRoles),
			"clusterroles_failed": countFailed(clusterRoles),
		}).Info("Role split aggregation evaluated")
		return countFailed(roles) == 0 && countFailed(clusterRoles) == 0

	default:
		if len(results) == 0 {
			return false
		}
		if binOp == "or" {
			return anyPassed(results)
		}
		// and, or absent: every line must independently satisfy its
		// predicates.
		return countFailed(results) == 0
	}
}

// combine folds per-predicate results with the check's bin_op. The
// default is and.
func combine(results []models.TestResult, binOp string) bool {
	if binOp == "or" {
		return anyPassed(results)
	}
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func anyPassed(results []models.TestResult) bool {
	for _, r := range results {
		if r.Passed {
			return true
		}
	}
	return false
}

func countFailed(results []models.TestResult) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}

func filterByFlag(results []models.TestResult, flag string) []models.TestResult {
	var filtered []models.TestResult
	for _, r := range results {
		if r.Flag == flag {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// resolveType trusts the declared check type; "(Manual)" in the
// description reclassifies a check only when the declared type is
// absent or automated.
func resolveType(def *models.CheckDefinition) string {
	checkType := def.Type
	if checkType == "" || checkType == models.TypeAutomated {
		if strings.Contains(def.Text, "(Manual)") {
			return models.TypeManual
		}
		if checkType == "" {
			return models.TypeAutomated
		}
	}
	return checkType
}

func truncateLine(line string) string {
	if len(line) > maxLineContent {
		return line[:maxLineContent] + "..."
	}
	return line
}

func elapsedSeconds(start time.Time) float64 {
	return math.Round(time.Since(start).Seconds()*1000) / 1000
}

func boolPtr(b bool) *bool {
	return &b
}
