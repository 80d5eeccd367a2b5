package validate

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"veridoc/internal/model"
	"veridoc/internal/schema"
)

// SchemaValidator checks structural conformance of an extraction
// against a document schema. It has no external dependencies and no
// side effects.
type SchemaValidator struct{}

// NewSchemaValidator creates a new schema validator
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

// Validate runs the structural checks and always returns an outcome:
// any internal fault is recovered into a faulted outcome rather than
// propagated to the aggregator.
func (v *SchemaValidator) Validate(res model.ExtractionResult, s schema.DocSchema) (outcome model.ValidatorOutcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			outcome = model.FaultedOutcome(fmt.Sprintf("schema validator panic: %v", r), time.Since(start))
		}
	}()

	findings := v.check(res, s)
	return model.NewOutcome(findings, time.Since(start))
}

func (v *SchemaValidator) check(res model.ExtractionResult, s schema.DocSchema) []model.Finding {
	var findings []model.Finding
	add := func(sev model.Severity, code, field, msg string) {
		findings = append(findings, model.Finding{
			Severity: sev,
			Code:     code,
			Field:    field,
			Message:  msg,
			Source:   model.SourceSchema,
		})
	}

	// Schema fields, in deterministic order
	names := make([]string, 0, len(s.Fields))
	for n := range s.Fields {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := s.Fields[name]
		val, present := res[name]

		if !present || val.IsEmpty() {
			if spec.Required {
				add(model.SeverityError, model.CodeMissingField, name,
					fmt.Sprintf("required field %q is missing or empty in the extraction", name))
			} else if !present {
				// Optional fields are still part of the contract; note
				// their absence for the audit trail only.
				add(model.SeverityInfo, model.CodeMissingField, name,
					fmt.Sprintf("optional field %q is absent from the extraction", name))
			}
			continue
		}

		if !spec.Type.Matches(val) {
			add(model.SeverityError, model.CodeTypeMismatch, name,
				fmt.Sprintf("field %q has type %s, schema expects %s", name, val.Kind, spec.Type))
			continue
		}

		if spec.Pattern != "" && val.Kind == model.KindString {
			// Patterns are compile-checked at definition load time
			if !regexp.MustCompile(spec.Pattern).MatchString(val.Str) {
				add(model.SeverityWarning, "pattern_mismatch", name,
					fmt.Sprintf("field %q value %q does not match the expected pattern", name, val.Str))
			}
		}
	}

	// Fields present in the extraction but absent from the schema
	for _, name := range res.SortedKeys() {
		if _, ok := s.Fields[name]; !ok {
			add(model.SeverityWarning, model.CodeUnexpectedField, name,
				fmt.Sprintf("field %q is not part of the %s schema", name, s.Type))
		}
	}

	return findings
}
