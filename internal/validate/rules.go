package validate

import (
	"fmt"
	"regexp"
	"time"

	"veridoc/internal/model"
	"veridoc/internal/schema"
)

const defaultTolerance = 0.02 // Cent tolerance for monetary comparisons

// ruleNowFunc supplies the current time for past_date checks
// (injectable for tests)
var ruleNowFunc = time.Now

// RuleValidator evaluates the declarative rule set of a document
// schema against an extraction. Every rule runs independently; there
// is no short-circuiting, because the audit record must show every
// violation, not just the first.
type RuleValidator struct{}

// NewRuleValidator creates a new rule validator
func NewRuleValidator() *RuleValidator {
	return &RuleValidator{}
}

// Validate evaluates all rules and always returns an outcome; internal
// faults are recovered into a faulted outcome.
func (v *RuleValidator) Validate(res model.ExtractionResult, s schema.DocSchema) (outcome model.ValidatorOutcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			outcome = model.FaultedOutcome(fmt.Sprintf("rule validator panic: %v", r), time.Since(start))
		}
	}()

	findings := []model.Finding{}
	for _, rule := range s.Rules {
		findings = append(findings, evalRule(res, rule)...)
	}
	return model.NewOutcome(findings, time.Since(start))
}

// evalRule dispatches one rule to its evaluator and applies the
// business clamp: rules on the business/legal dimension can never
// escalate beyond info, regardless of what the evaluator produced.
func evalRule(res model.ExtractionResult, rule schema.RuleDef) []model.Finding {
	var findings []model.Finding

	switch rule.Kind {
	case schema.RuleDateFormat:
		findings = evalDateFormat(res, rule)
	case schema.RuleDateOrder:
		findings = evalDateOrder(res, rule)
	case schema.RuleDayRange:
		findings = evalDayRange(res, rule)
	case schema.RuleItemsPresent:
		findings = evalItemsPresent(res, rule)
	case schema.RuleItemTotals:
		findings = evalItemTotals(res, rule)
	case schema.RuleVATConsistent:
		findings = evalVATConsistency(res, rule)
	case schema.RuleSumCheck:
		findings = evalSumCheck(res, rule)
	case schema.RulePositiveValue:
		findings = evalPositiveValue(res, rule)
	case schema.RulePastDate:
		findings = evalPastDate(res, rule)
	case schema.RulePattern:
		findings = evalPattern(res, rule)
	case schema.RulePresence:
		findings = evalPresence(res, rule)
	}

	if rule.Business {
		for i := range findings {
			findings[i].Severity = model.SeverityInfo
		}
	}
	return findings
}

func ruleFinding(rule schema.RuleDef, field, defaultMsg string) model.Finding {
	msg := rule.Message
	if msg == "" {
		msg = defaultMsg
	}
	return model.Finding{
		Severity: rule.Severity,
		Code:     string(rule.Kind),
		Field:    field,
		Message:  msg,
		Source:   model.SourceRule,
	}
}

func evalDateFormat(res model.ExtractionResult, rule schema.RuleDef) []model.Finding {
	var out []model.Finding
	for _, field := range rule.Fields {
		val, ok := res[field]
		if !ok || val.IsEmpty() {
			continue
		}
		if _, parsed := parseDate(val); !parsed {
			out = append(out, ruleFinding(rule, field,
				fmt.Sprintf("value %q in field %q matches no accepted date format", val.String(), field)))
		}
	}
	return out
}

func evalDateOrder(res model.ExtractionResult, rule schema.RuleDef) []model.Finding {
	start, okA := parseDate(res[rule.Fields[0]])
	end, okB := parseDate(res[rule.Fields[1]])
	if okA && okB && start.After(end) {
		return []model.Finding{ruleFinding(rule, rule.FieldRef(),
			fmt.Sprintf("date %q lies after %q", rule.Fields[0], rule.Fields[1]))}
	}
	return nil
}

func evalDayRange(res model.ExtractionResult, rule schema.RuleDef) []model.Finding {
	start, okA := parseDate(res[rule.Fields[0]])
	end, okB := parseDate(res[rule.Fields[1]])
	days, okDays := numberOf(res[rule.Fields[2]])
	if !okA || !okB || !okDays {
		return nil
	}
	span := int(end.Sub(start).Hours()/24) + 1
	if days <= 0 || int(days) > span {
		return []model.Finding{ruleFinding(rule, rule.Fields[2],
			fmt.Sprintf("day count (%d) is not consistent with the period (%d possible days)", int(days), span))}
	}
	return nil
}

func evalItemsPresent(res model.ExtractionResult, rule schema.RuleDef) []model.Finding {
	val, ok := res[rule.Field]
	if !ok || val.Kind != model.KindList || len(val.List) == 0 {
		return []model.Finding{ruleFinding(rule, rule.Field,
			fmt.Sprintf("field %q contains no positions", rule.Field))}
	}
	var out []model.Finding
	for i, item := range val.List {
		if item.Kind != model.KindObject {
			out = append(out, ruleFinding(rule, fmt.Sprintf("%s[%d]", rule.Field, i), "position is not an object"))
		}
	}
	return out
}

func evalItemTotals(res model.ExtractionResult, rule schema.RuleDef) []model.Finding {
	val, ok := res[rule.Field]
	if !ok || val.Kind != model.KindList {
		return nil
	}
	tol := rule.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}
	var out []model.Finding
	for i, item := range val.List {
		if item.Kind != model.KindObject {
			continue
		}
		q, okQ := numberOf(item.Obj["quantity"])
		up, okU := numberOf(item.Obj["unit_price"])
		total, okT := numberOf(item.Obj["total"])
		if !okQ || !okU || !okT {
			continue
		}
		expected := q * up
		if diff := expected - total; diff > tol || diff < -tol {
			out = append(out, ruleFinding(rule, fmt.Sprintf("%s[%d].total", rule.Field, i),
				fmt.Sprintf("position total deviates: quantity*unit_price=%.2f vs total=%.2f", expected, total)))
		}
	}
	return out
}

func evalVATConsistency(res model.ExtractionResult, rule schema.RuleDef) []model.Finding {
	net, okN := numberOf(res[rule.Fields[0]])
	vat, okV := numberOf(res[rule.Fields[1]])
	gross, okG := numberOf(res[rule.Fields[2]])
	if !okN || !okV || !okG {
		return nil
	}
	tol := rule.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}
	expected := net + vat
	if diff := gross - expected; diff > tol || diff < -tol {
		return []model.Finding{ruleFinding(rule, rule.Fields[2],
			fmt.Sprintf("gross (%.2f) is not net plus VAT (%.2f)", gross, expected))}
	}
	return nil
}

func evalSumCheck(res model.ExtractionResult, rule schema.RuleDef) []model.Finding {
	details, ok := res[rule.Fields[0]]
	if !ok || details.Kind != model.KindObject {
		return nil
	}
	total, okT := numberOf(res[rule.Fields[1]])
	if !okT {
		return nil
	}
	sum := 0.0
	counted := 0
	for _, v := range details.Obj {
		if n, okN := numberOf(v); okN {
			sum += n
			counted++
		}
	}
	if counted == 0 {
		return nil
	}
	tol := rule.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}
	if diff := total - sum; diff > tol || diff < -tol {
		return []model.Finding{ruleFinding(rule, rule.Fields[1],
			fmt.Sprintf("total (%.2f) does not match the sum of positions (%.2f)", total, sum))}
	}
	return nil
}

func evalPositiveValue(res model.ExtractionResult, rule schema.RuleDef) []model.Finding {
	n, ok := numberOf(res[rule.Field])
	if ok && n <= 0 {
		return []model.Finding{ruleFinding(rule, rule.Field,
			fmt.Sprintf("value in field %q must be greater than zero", rule.Field))}
	}
	return nil
}

func evalPastDate(res model.ExtractionResult, rule schema.RuleDef) []model.Finding {
	t, ok := parseDate(res[rule.Field])
	if ok && t.After(ruleNowFunc()) {
		return []model.Finding{ruleFinding(rule, rule.Field,
			fmt.Sprintf("date in field %q lies in the future", rule.Field))}
	}
	return nil
}

func evalPattern(res model.ExtractionResult, rule schema.RuleDef) []model.Finding {
	val, ok := res[rule.Field]
	if !ok || val.Kind != model.KindString || val.IsEmpty() {
		return nil
	}
	// Patterns are compile-checked at definition load time
	if !regexp.MustCompile(rule.Pattern).MatchString(val.Str) {
		return []model.Finding{ruleFinding(rule, rule.Field,
			fmt.Sprintf("value %q does not match the expected pattern", val.Str))}
	}
	return nil
}

func evalPresence(res model.ExtractionResult, rule schema.RuleDef) []model.Finding {
	val, ok := res[rule.Field]
	if !ok || val.IsEmpty() || (val.Kind == model.KindBool && !val.Bool) {
		return []model.Finding{ruleFinding(rule, rule.Field,
			fmt.Sprintf("field %q was not read from the document", rule.Field))}
	}
	return nil
}

// numberOf extracts a numeric value; integers decoded from JSON are
// numbers as well.
func numberOf(v model.Value) (float64, bool) {
	if v.Kind != model.KindNumber {
		return 0, false
	}
	return v.Num, true
}
