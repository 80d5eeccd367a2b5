package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"veridoc/internal/model"
)

// Aggregator folds per-stage outcomes into a single DecisionRecord.
// It is a pure function of its inputs: same outcomes in, bit-identical
// record out.
type Aggregator struct{}

// NewAggregator creates a new aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// InvariantViolationError reports aggregation called without the stage
// outcomes it needs. This is a caller bug, so it fails loudly instead
// of degrading into a review_needed verdict.
type InvariantViolationError struct {
	Missing []string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("aggregation invariant violation: missing stage outcomes: %s", strings.Join(e.Missing, ", "))
}

// Aggregate builds the decision record from the given stage outcomes.
// required names the stages that must be present for this run.
func (a *Aggregator) Aggregate(stages map[string]model.ValidatorOutcome, required []string) (model.DecisionRecord, error) {
	var missing []string
	for _, name := range required {
		if _, ok := stages[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return model.DecisionRecord{}, &InvariantViolationError{Missing: missing}
	}

	findings := unionFindings(stages)
	status := finalStatus(findings, stages)

	perStage := make(map[string]model.ValidatorOutcome, len(stages))
	for name, out := range stages {
		perStage[name] = out
	}

	return model.DecisionRecord{
		FinalStatus: status,
		Findings:    findings,
		PerStage:    perStage,
		Summary:     buildSummary(status, stages),
	}, nil
}

// unionFindings concatenates stage findings in canonical stage order so
// the record never depends on map iteration order.
func unionFindings(stages map[string]model.ValidatorOutcome) []model.Finding {
	findings := []model.Finding{}
	for _, name := range stageNames(stages) {
		findings = append(findings, stages[name].Findings...)
	}
	return findings
}

// stageNames orders present stages canonically; stages outside the
// canonical list follow in sorted name order.
func stageNames(stages map[string]model.ValidatorOutcome) []string {
	names := make([]string, 0, len(stages))
	seen := make(map[string]bool, len(stages))
	for _, name := range model.StageOrder {
		if _, ok := stages[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var extra []string
	for name := range stages {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// finalStatus applies severity dominance. A deterministic error means
// the extraction is demonstrably wrong, so it outranks everything. A
// semantic error is one model's word against another's and routes to
// review instead. A stage that failed to run keeps the verdict at
// review_needed at best, because its findings are absent, not empty.
func finalStatus(findings []model.Finding, stages map[string]model.ValidatorOutcome) model.FinalStatus {
	var deterministicError, semanticError, warning bool
	for _, f := range findings {
		switch f.Severity {
		case model.SeverityError:
			if f.Source == model.SourceSemantic {
				semanticError = true
			} else {
				deterministicError = true
			}
		case model.SeverityWarning:
			warning = true
		}
	}
	if deterministicError {
		return model.StatusInvalid
	}

	faulted := false
	for _, out := range stages {
		if out.Status == model.StageError {
			faulted = true
			break
		}
	}
	if semanticError || warning || faulted {
		return model.StatusReviewNeeded
	}
	return model.StatusValid
}

func buildSummary(status model.FinalStatus, stages map[string]model.ValidatorOutcome) string {
	parts := make([]string, 0, len(stages)+1)
	for _, name := range stageNames(stages) {
		out := stages[name]
		if out.Status == model.StageError {
			parts = append(parts, fmt.Sprintf("%s: failed (%s)", name, out.ErrorDetail))
			continue
		}
		c := model.CountSeverities(out.Findings)
		parts = append(parts, fmt.Sprintf("%s: %d errors, %d warnings, %d infos", name, c.Errors, c.Warnings, c.Infos))
	}
	parts = append(parts, fmt.Sprintf("final: %s", status))
	return strings.Join(parts, " | ")
}
