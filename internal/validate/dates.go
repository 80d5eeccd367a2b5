// Package validate implements the validation stages that run over one
// extraction result: structural schema conformance, deterministic
// plausibility rules, the semantic judgement adapter and the optional
// cross-model comparison. Every stage is a pure function of its
// inputs and reports through a ValidatorOutcome, never through panics.
package validate

import (
	"strings"
	"time"

	"veridoc/internal/model"
)

// Accepted date layouts, matching what the extraction models are
// prompted to emit
var dateLayouts = []string{"02.01.2006", "02.01.06"}

// parseDate parses a field value as a date. Returns the zero time and
// false for empty values, non-strings and unknown layouts.
func parseDate(v model.Value) (time.Time, bool) {
	if v.Kind != model.KindString {
		return time.Time{}, false
	}
	s := strings.TrimSpace(v.Str)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
