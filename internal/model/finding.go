package model

// Severity classifies how serious a finding is
type Severity string

const (
	SeverityError   Severity = "error"   // Extraction demonstrably wrong or unusable
	SeverityWarning Severity = "warning" // Suspicious, needs a human look
	SeverityInfo    Severity = "info"    // Informational only, never affects the verdict
)

// Rank orders severities for dominance comparisons (higher is worse)
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the known severities
func (s Severity) Valid() bool {
	return s == SeverityError || s == SeverityWarning || s == SeverityInfo
}

// Source identifies which validation layer produced a finding
type Source string

const (
	SourceSchema   Source = "schema"   // Structural conformance checks
	SourceRule     Source = "rule"     // Deterministic plausibility rules
	SourceSemantic Source = "semantic" // Independent model re-derivation
)

// Finding is the atomic unit of validation output. Findings are value
// objects: once built they are never mutated, only collected.
type Finding struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`               // Stable machine-readable identifier (e.g. "missing_field")
	Field    string   `json:"field,omitempty"`    // Schema field the finding refers to, if attributable
	Message  string   `json:"message"`            // Human-readable explanation
	Source   Source   `json:"source"`
}

// Well-known finding codes emitted by the deterministic validators
const (
	CodeMissingField    = "missing_field"
	CodeTypeMismatch    = "type_mismatch"
	CodeUnexpectedField = "unexpected_field"
	CodeUnknownDocType  = "unknown_doc_type"

	// Emitted by the semantic adapter when the judgement cannot be parsed
	CodeSemanticUnparseable = "semantic_validation_unparseable"
)

// SeverityCounts tallies findings per severity
type SeverityCounts struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

// CountSeverities tallies a finding list by severity
func CountSeverities(findings []Finding) SeverityCounts {
	var c SeverityCounts
	for _, f := range findings {
		switch f.Severity {
		case SeverityError:
			c.Errors++
		case SeverityWarning:
			c.Warnings++
		default:
			c.Infos++
		}
	}
	return c
}
