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
	"github.com/sirupsen/logrus"
)

const (
	defaultAuditTimeout  = 60 * time.Second
	defaultScriptTimeout = 120 * time.Second
)

// CommandRunner executes probe commands and captures their standard
// output. A failing probe always degrades to empty evidence; one broken
// probe must not abort a multi-check scan.
type CommandRunner struct {
	Shell         string
	ScriptShell   string
	AuditTimeout  time.Duration
	ScriptTimeout time.Duration
}

// NewCommandRunner returns a runner with the standard shells and
// timeouts.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		Shell:         "/bin/sh",
		ScriptShell:   "/bin/bash",
		AuditTimeout:  defaultAuditTimeout,
		ScriptTimeout: defaultScriptTimeout,
	}
}

// Run substitutes the context's tokens into the audit command and
// executes it. Multi-line commands run as scripts under the script
// shell with the longer timeout. On timeout or execution failure the
// output is empty; a non-zero exit by itself does not discard output,
// many audits return 1 for "not found".
func (r *CommandRunner) Run(auditCmd string, execCtx ExecContext) string {
	if auditCmd == "" {
		return ""
	}

	substituted := Substitute(auditCmd, execCtx)

	shell := r.Shell
	timeout := r.AuditTimeout
	if strings.Contains(substituted, "\n") {
		shell = r.ScriptShell
		timeout = r.ScriptTimeout
	}

	logger.L.WithFields(logrus.Fields{
		"context": string(execCtx),
		"command": substituted,
	}).Debug("Executing audit command")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, shell, "-c", substituted)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		logger.L.WithField("command", substituted).Error("Audit command timed out")
		return ""
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if code := exitErr.ExitCode(); code != 1 {
				logger.L.WithFields(logrus.Fields{
					"code":   code,
					"stderr": stderr.String(),
				}).Debug("Audit command returned non-zero exit code")
			}
			return stdout.String()
		}
		logger.L.WithError(err).Error("Error executing audit command")
		return ""
	}

	return stdout.String()
}
