// Package schema holds the document type definitions: for every
// supported document type, which fields an extraction must contain and
// which deterministic plausibility rules apply to them. Definitions
// are data, not code: they are loaded once at startup, validated
// strictly, and shared read-only across all runs.
package schema

import (
	"fmt"

	"veridoc/internal/model"
)

// FieldType is the expected type tag of an extracted field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeBool    FieldType = "bool"
	TypeDate    FieldType = "date" // String in one of the accepted date formats
	TypeObject  FieldType = "object"
	TypeList    FieldType = "list"
)

// Valid reports whether t is a known field type
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeInteger, TypeBool, TypeDate, TypeObject, TypeList:
		return true
	}
	return false
}

// Matches reports whether a decoded value conforms to the type tag.
// Null always conforms; emptiness is the schema validator's concern.
func (t FieldType) Matches(v model.Value) bool {
	if v.Kind == model.KindNull {
		return true
	}
	switch t {
	case TypeString, TypeDate:
		return v.Kind == model.KindString
	case TypeNumber:
		return v.Kind == model.KindNumber
	case TypeInteger:
		return v.Kind == model.KindNumber && v.Num == float64(int64(v.Num))
	case TypeBool:
		return v.Kind == model.KindBool
	case TypeObject:
		return v.Kind == model.KindObject
	case TypeList:
		return v.Kind == model.KindList
	default:
		return false
	}
}

// FieldSpec describes one field of a document type
type FieldSpec struct {
	Required    bool        `yaml:"required" json:"required"`
	Type        FieldType   `yaml:"type" json:"type" validate:"required"`
	Pattern     string      `yaml:"pattern,omitempty" json:"pattern,omitempty"` // Optional regex the string value must match
	Example     interface{} `yaml:"example,omitempty" json:"example,omitempty"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
}

// RuleKind selects which check the rule evaluator runs. New kinds are
// added to the evaluator; rule sets themselves stay declarative.
type RuleKind string

const (
	RuleDateFormat    RuleKind = "date_format"     // Fields parse in an accepted date format
	RuleDateOrder     RuleKind = "date_order"      // Fields[0] must not lie after Fields[1]
	RuleDayRange      RuleKind = "day_range"       // Fields[2] day count fits the Fields[0]..Fields[1] span
	RuleItemsPresent  RuleKind = "items_present"   // Field is a non-empty list of objects
	RuleItemTotals    RuleKind = "item_totals"     // quantity*unit_price matches total per item
	RuleVATConsistent RuleKind = "vat_consistency" // Fields[0]+Fields[1] matches Fields[2]
	RuleSumCheck      RuleKind = "sum_check"       // Sum of Fields[0] object values matches Fields[1]
	RulePositiveValue RuleKind = "positive_value"  // Numeric field must be > 0
	RulePastDate      RuleKind = "past_date"       // Date field must not lie in the future
	RulePattern       RuleKind = "pattern"         // String field matches Pattern
	RulePresence      RuleKind = "presence"        // Field is non-empty; used for business-dimension hints
)

// Valid reports whether k is a known rule kind
func (k RuleKind) Valid() bool {
	switch k {
	case RuleDateFormat, RuleDateOrder, RuleDayRange, RuleItemsPresent, RuleItemTotals,
		RuleVATConsistent, RuleSumCheck, RulePositiveValue, RulePastDate, RulePattern, RulePresence:
		return true
	}
	return false
}

// RuleDef declares one deterministic plausibility rule as data
type RuleDef struct {
	Kind     RuleKind       `yaml:"kind" json:"kind" validate:"required"`
	Field    string         `yaml:"field,omitempty" json:"field,omitempty"`   // Single-field rules
	Fields   []string       `yaml:"fields,omitempty" json:"fields,omitempty"` // Multi-field rules, order matters
	Severity model.Severity `yaml:"severity" json:"severity" validate:"required"`

	// Business marks rules on the business/legal dimension (e.g.
	// signature presence). Their findings are structurally clamped to
	// info severity; extraction validation never judges whether a
	// signature should be there, only whether one was read.
	Business bool `yaml:"business,omitempty" json:"business,omitempty"`

	Message   string  `yaml:"message,omitempty" json:"message,omitempty"`
	Pattern   string  `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Tolerance float64 `yaml:"tolerance,omitempty" json:"tolerance,omitempty"` // Numeric comparisons; defaults to 0.02
}

// FieldRef names the field a finding about this rule is attributed to
func (r RuleDef) FieldRef() string {
	if r.Field != "" {
		return r.Field
	}
	if len(r.Fields) > 0 {
		ref := r.Fields[0]
		for _, f := range r.Fields[1:] {
			ref += "/" + f
		}
		return ref
	}
	return ""
}

// DocSchema is the complete definition of one document type
type DocSchema struct {
	Type   string               `yaml:"type" json:"type" validate:"required"`
	Fields map[string]FieldSpec `yaml:"fields" json:"fields" validate:"required,min=1"`
	Rules  []RuleDef            `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// RequiredFields returns the required field names in sorted order
func (s DocSchema) RequiredFields() []string {
	var out []string
	for _, name := range sortedFieldNames(s.Fields) {
		if s.Fields[name].Required {
			out = append(out, name)
		}
	}
	return out
}

// ExampleJSON builds an example extraction from the field examples,
// used to show the extraction model the expected output shape.
func (s DocSchema) ExampleJSON() map[string]interface{} {
	out := make(map[string]interface{}, len(s.Fields))
	for name, spec := range s.Fields {
		out[name] = spec.Example
	}
	return out
}

// DefinitionError reports a malformed schema or rule definition. It is
// fatal at startup: definitions are shared by every run, so a broken
// one must never reach document processing.
type DefinitionError struct {
	DocType string
	Detail  string
	Err     error
}

func (e *DefinitionError) Error() string {
	msg := fmt.Sprintf("schema definition %q: %s", e.DocType, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DefinitionError) Unwrap() error { return e.Err }
