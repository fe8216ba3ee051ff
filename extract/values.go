// Copyright 2025 Coverscope Labs
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

package extract

import (
	"strconv"
	"strings"
)

// parseAmount coerces an LLM-produced value into a monetary amount.
// Models return numbers inconsistently: raw JSON numbers, quoted
// strings, currency-formatted strings, or null. Anything unusable
// yields nil.
func parseAmount(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case string:
		return parseAmountString(n)
	default:
		return nil
	}
}

func parseAmountString(s string) *float64 {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "n/a", "none", "unknown", "included":
		return nil
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	// "1M" / "2.5M" / "500K" shorthand shows up in schedule text.
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		mult = 1_000_000
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		mult = 1_000
		s = s[:len(s)-1]
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f *= mult
	return &f
}

// parseBool coerces an LLM-produced value into a boolean, defaulting to
// false for anything it cannot interpret.
func parseBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "claims-made", "claims made":
			return true
		}
	}
	return false
}

// parseString coerces an LLM-produced value into a trimmed string,
// mapping null-like values to "".
func parseString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "n/a", "none", "unknown":
		return ""
	}
	return s
}
