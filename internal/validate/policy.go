package validate

import (
	"strings"

	"veridoc/internal/model"
	"veridoc/internal/schema"
)

// SeverityPolicy maps semantic disagreements to severities. Which
// field types escalate to error is a policy choice, so the table is
// configuration-driven with conservative defaults: disagreements on
// exact-valued fields (numbers, dates, booleans) are errors, free-text
// fields where near-matches are common are warnings.
type SeverityPolicy struct {
	mismatch    map[schema.FieldType]model.Severity
	unparseable model.Severity
}

// NewSeverityPolicy builds a policy from configuration; nil or partial
// configuration falls back to the defaults.
func NewSeverityPolicy(cfg *model.PolicyConfig) *SeverityPolicy {
	p := &SeverityPolicy{
		mismatch: map[schema.FieldType]model.Severity{
			schema.TypeNumber:  model.SeverityError,
			schema.TypeInteger: model.SeverityError,
			schema.TypeDate:    model.SeverityError,
			schema.TypeBool:    model.SeverityError,
			schema.TypeString:  model.SeverityWarning,
			schema.TypeObject:  model.SeverityWarning,
			schema.TypeList:    model.SeverityWarning,
		},
		unparseable: model.SeverityWarning,
	}
	if cfg == nil {
		return p
	}

	for typeName, sevName := range cfg.MismatchSeverity {
		ft := schema.FieldType(strings.ToLower(typeName))
		sev := parseSeverity(sevName)
		if ft.Valid() && sev.Valid() {
			p.mismatch[ft] = sev
		}
	}
	if sev := parseSeverity(cfg.UnparseableSeverity); sev.Valid() {
		p.unparseable = sev
	}
	return p
}

// ForMismatch returns the severity of a semantic disagreement on a
// field of the given type. Fields unknown to the schema get warning:
// the model may simply have invented the field name.
func (p *SeverityPolicy) ForMismatch(ft schema.FieldType, known bool) model.Severity {
	if !known {
		return model.SeverityWarning
	}
	if sev, ok := p.mismatch[ft]; ok {
		return sev
	}
	return model.SeverityWarning
}

// ForUnparseable returns the severity of the fallback finding when a
// judgement cannot be parsed
func (p *SeverityPolicy) ForUnparseable() model.Severity {
	return p.unparseable
}

func parseSeverity(s string) model.Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return model.SeverityError
	case "warning":
		return model.SeverityWarning
	case "info":
		return model.SeverityInfo
	default:
		return ""
	}
}
