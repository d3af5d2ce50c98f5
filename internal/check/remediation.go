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
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/bearslyricattack/kubecheck/pkg/logger"
	"github.com/bearslyricattack/kubecheck/pkg/models"
	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
)

const remediationTimeout = 30 * time.Second

// shellMetaChars marks commands that genuinely need a shell. Everything
// else runs as a plain argument vector.
const shellMetaChars = "|&;<>()$`*?[]{}~#\n"

// Remediate runs a check's auto-remediation command. The command gets
// the full substitution table, an optional sudo prefix, and a dry-run
// mode that only echoes the command; descriptors that declare
// themselves unsafe for dry-run are refused in that mode.
func (r *Runner) Remediate(def *models.CheckDefinition, dryRun bool) *models.RemediationResult {
	auto := def.AutoRemediation
	if auto == nil {
		return &models.RemediationResult{
			Error: "No auto remediation available for this check",
		}
	}

	command := SubstituteAll(auto.Command)

	if dryRun && !auto.DryRunSafe {
		return &models.RemediationResult{
			Command:     command,
			Description: auto.Description,
			DryRun:      true,
			Error:       "This remediation is not safe for dry run",
		}
	}

	argv := remediationArgv(command, auto.RequiresSudo, dryRun)

	logger.L.WithFields(logrus.Fields{
		"id":      def.ID,
		"command": command,
		"dry_run": dryRun,
	}).Info("Executing auto remediation")

	ctx, cancel := context.WithTimeout(context.Background(), remediationTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return &models.RemediationResult{
			Command:     command,
			Description: auto.Description,
			DryRun:      dryRun,
			Error:       "Command execution timed out",
		}
	}

	res := &models.RemediationResult{
		Command:     command,
		Description: auto.Description,
		Stdout:      stdout.String(),
		Stderr:      stderr.String(),
		Executed:    !dryRun,
		DryRun:      dryRun,
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ReturnCode = exitErr.ExitCode()
		} else {
			res.Executed = false
			res.Error = "Command execution failed: " + err.Error()
			return res
		}
	}
	res.Success = res.ReturnCode == 0 && res.Error == ""
	return res
}

// remediationArgv builds the argument vector for a remediation command.
// Commands without shell metacharacters are split with shlex and exec'd
// directly; anything needing pipes or globs falls back to sh -c.
// Substitution values are reviewed configuration, not user input, but
// there is no reason to hand them to a shell when a plain argv works.
func remediationArgv(command string, requiresSudo, dryRun bool) []string {
	if dryRun {
		argv := []string{"sh", "-c", "echo \"DRY RUN: " + command + "\""}
		if requiresSudo {
			argv = []string{"sudo", "-n", "echo", "DRY RUN: " + command}
		}
		return argv
	}

	var argv []string
	if !strings.ContainsAny(command, shellMetaChars) {
		if split, err := shlex.Split(command); err == nil && len(split) > 0 {
			argv = split
		}
	}
	if argv == nil {
		argv = []string{"sh", "-c", command}
	}

	if requiresSudo {
		argv = append([]string{"sudo", "-n"}, argv...)
	}
	return argv
}
