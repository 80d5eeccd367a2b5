package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"veridoc/internal/model"
)

// Registry routes a document type to its schema. Built once at
// startup from the built-in types plus any external definition files,
// then shared read-only by every run.
type Registry struct {
	schemas map[string]DocSchema
}

// NewRegistry builds a registry holding the built-in document types.
// The built-ins are validated too: a broken built-in is a programming
// defect and must fail the process immediately.
func NewRegistry() (*Registry, error) {
	r := &Registry{schemas: make(map[string]DocSchema)}
	for _, s := range builtinSchemas() {
		if err := r.add(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// add validates and registers one schema, overriding any previous
// definition of the same type.
func (r *Registry) add(s DocSchema) error {
	if err := validateSchema(s); err != nil {
		return err
	}
	r.schemas[strings.ToLower(s.Type)] = s
	return nil
}

// ForType returns the schema for a document type
func (r *Registry) ForType(docType string) (DocSchema, error) {
	dt := strings.ToLower(strings.TrimSpace(docType))
	s, ok := r.schemas[dt]
	if !ok {
		return DocSchema{}, fmt.Errorf("unknown document type %q (available: %s)", dt, strings.Join(r.Types(), ", "))
	}
	return s, nil
}

// ForExtraction routes on the extraction's "typ" field
func (r *Registry) ForExtraction(res model.ExtractionResult) (DocSchema, error) {
	dt := res.DocType()
	if dt == "" {
		return DocSchema{}, fmt.Errorf("extraction carries no document type field %q, routing not possible", "typ")
	}
	return r.ForType(dt)
}

// Types lists the registered document types in sorted order
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// validateSchema enforces definition well-formedness. Definitions are
// process-wide shared state, so any defect here is fatal at load time,
// never discovered mid-run.
func validateSchema(s DocSchema) error {
	if err := structValidator.Struct(s); err != nil {
		return &DefinitionError{DocType: s.Type, Detail: "invalid structure", Err: err}
	}
	fail := func(detail string, err error) error {
		return &DefinitionError{DocType: s.Type, Detail: detail, Err: err}
	}

	for name, spec := range s.Fields {
		if !spec.Type.Valid() {
			return fail(fmt.Sprintf("field %q has unknown type %q", name, spec.Type), nil)
		}
		if spec.Pattern != "" {
			if _, err := regexp.Compile(spec.Pattern); err != nil {
				return fail(fmt.Sprintf("field %q pattern does not compile", name), err)
			}
		}
	}

	for i, rule := range s.Rules {
		if !rule.Kind.Valid() {
			return fail(fmt.Sprintf("rule %d has unknown kind %q", i, rule.Kind), nil)
		}
		if !rule.Severity.Valid() {
			return fail(fmt.Sprintf("rule %d (%s) has unknown severity %q", i, rule.Kind, rule.Severity), nil)
		}
		if rule.Business && rule.Severity != model.SeverityInfo {
			return fail(fmt.Sprintf("rule %d (%s) is business-tagged but declares severity %q; business rules are info-only", i, rule.Kind, rule.Severity), nil)
		}
		if rule.Pattern != "" {
			if _, err := regexp.Compile(rule.Pattern); err != nil {
				return fail(fmt.Sprintf("rule %d (%s) pattern does not compile", i, rule.Kind), err)
			}
		}
		if err := validateRuleArity(rule); err != nil {
			return fail(fmt.Sprintf("rule %d (%s)", i, rule.Kind), err)
		}
		for _, ref := range ruleFieldRefs(rule) {
			if _, ok := s.Fields[ref]; !ok {
				return fail(fmt.Sprintf("rule %d (%s) references undefined field %q", i, rule.Kind, ref), nil)
			}
		}
	}
	return nil
}

// validateRuleArity checks that a rule names the fields its kind needs
func validateRuleArity(rule RuleDef) error {
	needFields := func(n int) error {
		if len(rule.Fields) != n {
			return fmt.Errorf("needs exactly %d entries in fields, got %d", n, len(rule.Fields))
		}
		return nil
	}
	needField := func() error {
		if rule.Field == "" {
			return fmt.Errorf("needs a field")
		}
		return nil
	}

	switch rule.Kind {
	case RuleDateFormat:
		if len(rule.Fields) == 0 {
			return fmt.Errorf("needs at least one entry in fields")
		}
		return nil
	case RuleDateOrder:
		return needFields(2)
	case RuleDayRange, RuleVATConsistent:
		return needFields(3)
	case RuleSumCheck:
		return needFields(2)
	case RulePattern:
		if rule.Pattern == "" {
			return fmt.Errorf("needs a pattern")
		}
		return needField()
	default:
		return needField()
	}
}

// ruleFieldRefs lists every field a rule definition references
func ruleFieldRefs(rule RuleDef) []string {
	if rule.Field != "" {
		return []string{rule.Field}
	}
	return rule.Fields
}

func sortedFieldNames(fields map[string]FieldSpec) []string {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
