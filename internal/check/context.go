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

// Package check implements the benchmark check evaluation engine: probe
// execution, config-file evidence extraction, output parsing, predicate
// evaluation and per-check aggregation.
package check

import "fmt"

// ExecContext identifies the component family a check is evaluated against.
// It selects the variable substitution table and the config-file
// extraction strategy.
type ExecContext string

const (
	ContextEtcd         ExecContext = "etcd"
	ContextControlPlane ExecContext = "controlplane"
	ContextMaster       ExecContext = "master"
	ContextNode         ExecContext = "node"
	ContextPolicies     ExecContext = "policies"
)

// Contexts lists every known execution context.
var Contexts = []ExecContext{
	ContextEtcd,
	ContextControlPlane,
	ContextMaster,
	ContextNode,
	ContextPolicies,
}

// ParseContext validates a context tag supplied by a caller.
func ParseContext(s string) (ExecContext, error) {
	c := ExecContext(s)
	for _, known := range Contexts {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown execution context: %q", s)
}
