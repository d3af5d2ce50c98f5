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
	"strconv"
	"strings"

	"github.com/bearslyricattack/kubecheck/pkg/logger"
)

// Comparison operators accepted in test items.
const (
	OpEq            = "eq"
	OpNotEq         = "noteq"
	OpHas           = "has"
	OpNotHave       = "nothave"
	OpGte           = "gte"
	OpLte           = "lte"
	OpGt            = "gt"
	OpLt            = "lt"
	OpBitmask       = "bitmask"
	OpValidElements = "valid_elements"
)

// EvaluateComparison applies one typed comparison. String comparisons
// are case-insensitive; numeric operators fail on non-numeric operands
// instead of raising. For the policies family, yes/no answers are
// mapped to true/false first so boolean expectations from the check
// files line up with kubectl output.
func EvaluateComparison(actual string, op string, expected interface{}, execCtx ExecContext) bool {
	actualStr := strings.TrimSpace(actual)
	expectedStr := strings.TrimSpace(fmt.Sprintf("%v", expected))

	if execCtx == ContextPolicies {
		switch strings.ToLower(actualStr) {
		case "no":
			actualStr = "false"
		case "yes":
			actualStr = "true"
		}
		if b, ok := expected.(bool); ok {
			expectedStr = strconv.FormatBool(b)
		}
	}

	switch op {
	case OpEq:
		return strings.EqualFold(actualStr, expectedStr)
	case OpNotEq:
		return !strings.EqualFold(actualStr, expectedStr)
	case OpHas:
		return strings.Contains(actualStr, expectedStr)
	case OpNotHave:
		return !strings.Contains(actualStr, expectedStr)
	case OpGte, OpLte, OpGt, OpLt:
		return compareNumeric(actualStr, op, expectedStr)
	case OpBitmask:
		return compareBitmask(actualStr, expectedStr)
	case OpValidElements:
		for _, allowed := range strings.Split(expectedStr, ",") {
			if actualStr == strings.TrimSpace(allowed) {
				return true
			}
		}
		return false
	default:
		logger.L.WithField("op", op).Warn("Unknown comparison operator")
		return false
	}
}

func compareNumeric(actualStr, op, expectedStr string) bool {
	actual, err := strconv.ParseFloat(actualStr, 64)
	if err != nil {
		return false
	}
	expected, err := strconv.ParseFloat(expectedStr, 64)
	if err != nil {
		return false
	}

	switch op {
	case OpGte:
		return actual >= expected
	case OpLte:
		return actual <= expected
	case OpGt:
		return actual > expected
	default:
		return actual < expected
	}
}

// compareBitmask treats both operands as file permission modes and
// passes when the actual mode grants no more than the expected one:
// (actual & 0777) <= expected.
func compareBitmask(actualStr, expectedStr string) bool {
	actual, err := parsePermission(actualStr)
	if err != nil {
		return false
	}
	expected, err := parsePermission(expectedStr)
	if err != nil {
		return false
	}
	return actual&0o777 <= expected
}

// parsePermission reads an all-digit string as octal, anything else as
// decimal. stat emits permission modes without a 0o prefix.
func parsePermission(s string) (int64, error) {
	allDigits := s != ""
	for _, r := range s {
		if r < '0' || r > '9' {
			allDigits = false
			break
		}
	}
	if allDigits {
		return strconv.ParseInt(s, 8, 64)
	}
	return strconv.ParseInt(s, 10, 64)
}
