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
	"encoding/json"
	"fmt"
	"strings"

	yamlv3 "gopkg.in/yaml.v3"
)

// LookupConfigPath resolves a jsonpath-style expression like
// "{.authentication.anonymous.enabled}" against the output of an
// audit_config probe. The document may be JSON or YAML. Lookups never
// panic; a missing segment reports (false, diagnostic).
func LookupConfigPath(configOutput, path string) (bool, string) {
	trimmed := strings.TrimSpace(configOutput)
	if trimmed == "" {
		return false, "Empty config output"
	}

	var doc map[string]interface{}
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
			return false, fmt.Sprintf("JSON parse error: %v", err)
		}
	} else {
		if err := yamlv3.Unmarshal([]byte(trimmed), &doc); err != nil {
			return false, fmt.Sprintf("YAML parse error: %v", err)
		}
	}
	if len(doc) == 0 {
		return false, "Empty config data"
	}

	cleaned := strings.Trim(strings.Trim(path, "{}"), ".")
	if cleaned == "" {
		return false, "Empty path"
	}

	var current interface{} = doc
	for _, part := range strings.Split(cleaned, ".") {
		if part == "" {
			continue
		}
		node, ok := current.(map[string]interface{})
		if !ok {
			return false, "Path not found: " + part
		}
		current, ok = node[part]
		if !ok {
			return false, "Path not found: " + part
		}
	}

	return true, fmt.Sprintf("%v", current)
}
