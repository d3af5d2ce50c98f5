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

// Package models defines the shared data types for kubecheck: the
// declarative benchmark check format and the structured results the
// evaluation engine produces.
package models

import "gopkg.in/yaml.v3"

// Check types.
const (
	TypeAutomated = "automated"
	TypeManual    = "manual"
)

// Aggregation modes. The default combines predicate results with the
// check's bin_op; the named modes cover policy checks whose output is a
// set of heterogeneous per-resource compliance rows.
const (
	AggregationDefault      = ""
	AggregationAllCompliant = "all_compliant"
	AggregationRoleSplit    = "role_split"
)

// Evidence sources recorded on a TestResult.
const (
	SourceProcess = "process"
	SourceConfig  = "config"
)

// CheckDefinition is one benchmark rule as declared in a control file.
// It is immutable for the duration of one evaluation.
type CheckDefinition struct {
	ID                string           `yaml:"id" json:"id"`
	Text              string           `yaml:"text" json:"text"`
	Type              string           `yaml:"type,omitempty" json:"type,omitempty"`
	Audit             string           `yaml:"audit,omitempty" json:"audit,omitempty"`
	AuditConfig       string           `yaml:"audit_config,omitempty" json:"audit_config,omitempty"`
	Tests             *Tests           `yaml:"tests,omitempty" json:"tests,omitempty"`
	UseMultipleValues bool             `yaml:"use_multiple_values,omitempty" json:"use_multiple_values,omitempty"`
	Aggregation       string           `yaml:"aggregation,omitempty" json:"aggregation,omitempty"`
	Scored            bool             `yaml:"scored" json:"scored"`
	Remediation       string           `yaml:"remediation,omitempty" json:"remediation,omitempty"`
	AutoRemediation   *AutoRemediation `yaml:"auto_remediation,omitempty" json:"auto_remediation,omitempty"`
}

// Tests groups the predicates of a check with their combination operator.
type Tests struct {
	BinOp     string     `yaml:"bin_op,omitempty" json:"bin_op,omitempty"`
	TestItems []TestItem `yaml:"test_items" json:"test_items"`
}

// TestItem is one assertion inside a check. Set and Compare are mutually
// exclusive; Path enables the config-file evidence fallback.
type TestItem struct {
	Flag    string   `yaml:"flag,omitempty" json:"flag,omitempty"`
	Env     string   `yaml:"env,omitempty" json:"env,omitempty"`
	Path    string   `yaml:"path,omitempty" json:"path,omitempty"`
	Set     *bool    `yaml:"set,omitempty" json:"set,omitempty"`
	Compare *Compare `yaml:"compare,omitempty" json:"compare,omitempty"`
}

// Compare is a typed comparison against an expected value. Value keeps
// the YAML-declared type; policy check files declare booleans directly.
type Compare struct {
	Op    string      `yaml:"op" json:"op"`
	Value interface{} `yaml:"value" json:"value"`
}

// AutoRemediation describes an optional remediation command attached to
// a check. DryRunSafe defaults to true: only a descriptor that declares
// itself unsafe is refused in dry-run mode.
type AutoRemediation struct {
	Command      string `yaml:"command" json:"command"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty"`
	RequiresSudo bool   `yaml:"requires_sudo,omitempty" json:"requires_sudo,omitempty"`
	DryRunSafe   bool   `yaml:"dry_run_safe" json:"dry_run_safe"`
}

// UnmarshalYAML seeds DryRunSafe before decoding so an absent key keeps
// the safe default while an explicit dry_run_safe: false wins.
func (a *AutoRemediation) UnmarshalYAML(value *yaml.Node) error {
	type plain AutoRemediation
	tmp := plain{DryRunSafe: true}
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	*a = AutoRemediation(tmp)
	return nil
}

// TestResult is the outcome of evaluating one TestItem. When Found is
// false, Value carries a diagnostic message instead of extracted
// evidence.
type TestResult struct {
	Flag        string `json:"flag"`
	Path        string `json:"path,omitempty"`
	Found       bool   `json:"found"`
	Value       string `json:"value"`
	Passed      bool   `json:"passed"`
	Message     string `json:"message"`
	Source      string `json:"source,omitempty"`
	LineNumber  int    `json:"line_number,omitempty"`
	LineContent string `json:"line_content,omitempty"`
}

// CheckResult is the outcome of evaluating a whole CheckDefinition.
// Passed is nil only for manual checks that declare no audit command at
// all. Remediation is populated only when the check did not pass.
type CheckResult struct {
	ID             string       `json:"id"`
	Text           string       `json:"text"`
	Passed         *bool        `json:"passed"`
	Scored         bool         `json:"scored"`
	Type           string       `json:"type"`
	TestResults    []TestResult `json:"test_results"`
	Remediation    string       `json:"remediation,omitempty"`
	Error          string       `json:"error,omitempty"`
	ExecutionTime  float64      `json:"execution_time"`
	LinesProcessed int          `json:"lines_processed,omitempty"`
	MultipleValues bool         `json:"multiple_values,omitempty"`
	HasDualAudit   bool         `json:"has_dual_audit,omitempty"`
}

// RemediationResult is the outcome of the auto-remediation side channel.
type RemediationResult struct {
	Success     bool   `json:"success"`
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
	ReturnCode  int    `json:"return_code"`
	Stdout      string `json:"stdout,omitempty"`
	Stderr      string `json:"stderr,omitempty"`
	Executed    bool   `json:"executed"`
	DryRun      bool   `json:"dry_run"`
	Error       string `json:"error,omitempty"`
}

// ScanSummary aggregates one scan round for reporting.
type ScanSummary struct {
	Total    int    `json:"total"`
	Passed   int    `json:"passed"`
	Failed   int    `json:"failed"`
	Manual   int    `json:"manual"`
	Errors   int    `json:"errors"`
	LastScan string `json:"last_scan,omitempty"`
}
