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
	"regexp"
	"strings"
)

// OutputKind classifies raw probe output into one of the known shapes.
// The classifier inspects the text once; each kind then has a dedicated
// extractor.
type OutputKind int

const (
	KindEmpty OutputKind = iota
	KindPermissions
	KindOwnership
	KindError
	KindLiteral
	KindFlags
)

var (
	accessPermRe = regexp.MustCompile(`Access:\s*\((\d+)/`)
	plainPermRe  = regexp.MustCompile(`permissions=(\d+)`)
	ownershipRe  = regexp.MustCompile(`ownership=(\S+)`)
	uidRe        = regexp.MustCompile(`Uid:\s*\(\s*\d+/\s*(\w+)\)`)
	gidRe        = regexp.MustCompile(`Gid:\s*\(\s*\d+/\s*(\w+)\)`)
)

// literalFlags are flag values matched verbatim against the output
// instead of being parsed out of it.
var literalFlags = map[string]bool{
	"root:root":      true,
	"File not found": true,
}

// classifyOutput decides which shape non-policy probe output is in for
// the given target flag.
func classifyOutput(output, flag string) OutputKind {
	if output == "" {
		return KindEmpty
	}
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(output, "permissions=") || strings.Contains(output, "Access:"):
		return KindPermissions
	case strings.Contains(output, "ownership=") || strings.Contains(output, "Uid:"):
		return KindOwnership
	case strings.Contains(lower, "error:") || strings.Contains(lower, "no such file"):
		return KindError
	case literalFlags[flag] && strings.Contains(output, flag):
		return KindLiteral
	default:
		return KindFlags
	}
}

// ParseOutput extracts (found, value) for a flag from raw probe output.
// The policies family has its own dispatch chain; everything else goes
// through the OutputKind classifier. No input ever causes an error: a
// miss at every stage reports found=false with a diagnostic value.
func ParseOutput(output, flag, envVar string, execCtx ExecContext) (bool, string) {
	if output == "" {
		return false, "No output from audit command"
	}

	if execCtx == ContextPolicies {
		return parsePolicyOutput(output, flag)
	}

	switch classifyOutput(output, flag) {
	case KindPermissions:
		return extractPermissions(output)
	case KindOwnership:
		return extractOwnership(output, flag)
	case KindError:
		return false, "Error: " + strings.TrimSpace(output)
	case KindLiteral:
		return true, flag
	default:
		return scanFlagTokens(output, flag, envVar)
	}
}

// extractPermissions pulls an octal permission string out of stat-style
// output, either "Access: (0644/-rw-r--r--)" or "permissions=644".
func extractPermissions(output string) (bool, string) {
	if m := accessPermRe.FindStringSubmatch(output); m != nil {
		return true, m[1]
	}
	if m := plainPermRe.FindStringSubmatch(output); m != nil {
		return true, m[1]
	}
	return false, "Permissions not found"
}

// extractOwnership handles "ownership=user:group" and stat Uid/Gid
// output. Three flag variants are honored: "ownership" returns the raw
// value, "root:root" asserts equality, anything else asserts substring
// containment.
func extractOwnership(output, flag string) (bool, string) {
	if m := ownershipRe.FindStringSubmatch(output); m != nil {
		value := m[1]
		switch flag {
		case "ownership":
			return true, value
		case "root:root":
			return value == "root:root", value
		default:
			return strings.Contains(value, flag), value
		}
	}

	if strings.Contains(output, flag) {
		return true, flag
	}

	uid := uidRe.FindStringSubmatch(output)
	gid := gidRe.FindStringSubmatch(output)
	switch {
	case uid != nil && gid != nil:
		return true, uid[1] + ":" + gid[1]
	case uid != nil:
		return true, uid[1]
	}
	return false, "Ownership not found"
}

// scanFlagTokens is the generic flag scan over process command lines:
// keep lines mentioning the flag, tokenize by whitespace, and return
// the first flag=value token, or "true" for a bare boolean flag. The
// environment variable name is only consulted on lines where the flag
// itself did not match.
func scanFlagTokens(output, flag, envVar string) (bool, string) {
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if !strings.Contains(line, flag) {
			continue
		}

		tokens := strings.Fields(line)
		for _, tok := range tokens {
			if strings.HasPrefix(tok, flag+"=") {
				return true, tok[len(flag)+1:]
			}
			if tok == flag {
				return true, "true"
			}
		}

		if envVar != "" {
			for _, tok := range tokens {
				if strings.HasPrefix(tok, envVar+"=") {
					return true, tok[len(envVar)+1:]
				}
			}
		}
	}
	return false, "Flag not found"
}

// parsePolicyOutput extracts values from the policy family's kubectl
// probe output. Dispatch order: key: value line, comma-separated
// "flag: value" token, double-asterisk marker line, triple-asterisk
// marker line.
func parsePolicyOutput(output, flag string) (bool, string) {
	lines := strings.Split(strings.TrimSpace(output), "\n")

	for _, line := range lines {
		if !strings.Contains(line, ":") || !strings.Contains(line, flag) {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if strings.Contains(parts[0], flag) {
			return true, strings.TrimSpace(parts[1])
		}
	}

	tokenRe := regexp.MustCompile(regexp.QuoteMeta(flag) + `:\s*([^,\s]+)`)
	for _, line := range lines {
		if !strings.Contains(line, flag) {
			continue
		}
		if m := tokenRe.FindStringSubmatch(line); m != nil {
			return true, m[1]
		}
	}

	markerRe := regexp.MustCompile(regexp.QuoteMeta(flag) + `:\s*(\S+)`)
	for _, marker := range []string{"**", "***"} {
		for _, line := range lines {
			if !strings.Contains(line, marker) || !strings.Contains(line, flag+":") {
				continue
			}
			if m := markerRe.FindStringSubmatch(line); m != nil {
				return true, m[1]
			}
		}
	}

	return false, "Policy flag not found"
}
