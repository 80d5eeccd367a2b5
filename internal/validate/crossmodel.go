package validate

import (
	"fmt"
	"sort"
	"time"

	"veridoc/internal/model"
	"veridoc/internal/schema"
)

// CrossModelValidator compares two independent extractions of the same
// document field by field. Divergence between extractors is treated
// like semantic disagreement: a signal for human review, not an
// authoritative failure, since either extractor may be the wrong one.
type CrossModelValidator struct {
	policy *SeverityPolicy
}

// NewCrossModelValidator creates a cross-model validator
func NewCrossModelValidator(policy *SeverityPolicy) *CrossModelValidator {
	if policy == nil {
		policy = NewSeverityPolicy(nil)
	}
	return &CrossModelValidator{policy: policy}
}

// Compare cross-checks the primary extraction a against the secondary
// extraction b over the schema's fields.
func (v *CrossModelValidator) Compare(a, b model.ExtractionResult, s schema.DocSchema) (outcome model.ValidatorOutcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			outcome = model.FaultedOutcome(fmt.Sprintf("cross-model validator panic: %v", r), time.Since(start))
		}
	}()

	findings := []model.Finding{}
	add := func(sev model.Severity, code, field, msg string) {
		findings = append(findings, model.Finding{
			Severity: sev,
			Code:     code,
			Field:    field,
			Message:  msg,
			Source:   model.SourceSemantic,
		})
	}

	names := make([]string, 0, len(s.Fields))
	for n := range s.Fields {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := s.Fields[name]
		av, aHas := a[name]
		bv, bHas := b[name]

		if !aHas && !bHas {
			// Both extractors skipped the field; that is agreement
			continue
		}
		if !aHas || !bHas {
			side := "secondary"
			if !aHas {
				side = "primary"
			}
			sev := model.SeverityWarning
			if spec.Required {
				sev = v.policy.ForMismatch(spec.Type, true)
			}
			add(sev, "cross_model_missing", name,
				fmt.Sprintf("field %q is absent from the %s extraction", name, side))
			continue
		}

		if av.Kind == model.KindObject && bv.Kind == model.KindObject {
			subkeys := map[string]struct{}{}
			for k := range av.Obj {
				subkeys[k] = struct{}{}
			}
			for k := range bv.Obj {
				subkeys[k] = struct{}{}
			}
			sorted := make([]string, 0, len(subkeys))
			for k := range subkeys {
				sorted = append(sorted, k)
			}
			sort.Strings(sorted)
			for _, k := range sorted {
				if !av.Obj[k].EquivalentTo(bv.Obj[k]) {
					add(v.policy.ForMismatch(spec.Type, true), "cross_model_mismatch", name,
						fmt.Sprintf("extractors disagree at %s.%s: %q vs %q", name, k, av.Obj[k].String(), bv.Obj[k].String()))
				}
			}
			continue
		}

		if !av.EquivalentTo(bv) {
			add(v.policy.ForMismatch(spec.Type, true), "cross_model_mismatch", name,
				fmt.Sprintf("extractors disagree on %q: %q vs %q", name, av.String(), bv.String()))
		}
	}

	return model.NewOutcome(findings, time.Since(start))
}
