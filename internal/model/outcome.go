package model

import "time"

// StageStatus signals whether a validator stage actually ran to completion
type StageStatus string

const (
	StageOK    StageStatus = "ok"
	StageError StageStatus = "error" // The stage itself failed; its findings are absent, not empty
)

// Canonical stage names, in aggregation order
const (
	StageSchema     = "schema"
	StageRule       = "rule"
	StageSemantic   = "semantic"
	StageCrossModel = "cross_model" // Optional second-extractor comparison
)

// StageOrder is the canonical ordering of stages in summaries and the
// unioned finding sequence. Aggregation output must not depend on map
// iteration order.
var StageOrder = []string{StageSchema, StageRule, StageSemantic, StageCrossModel}

// ValidatorOutcome is the complete output of one validator stage.
// Exactly one is produced per stage per run, on success or failure,
// and it is never mutated after creation.
type ValidatorOutcome struct {
	Findings    []Finding     `json:"findings"`
	Duration    time.Duration `json:"-"`
	DurationSec float64       `json:"duration_seconds"` // Duration rounded for the audit record
	Status      StageStatus   `json:"status"`
	ErrorDetail string        `json:"error_detail,omitempty"`
}

// NewOutcome builds a successful outcome from a finding list
func NewOutcome(findings []Finding, d time.Duration) ValidatorOutcome {
	if findings == nil {
		findings = []Finding{}
	}
	return ValidatorOutcome{
		Findings:    findings,
		Duration:    d,
		DurationSec: roundSeconds(d),
		Status:      StageOK,
	}
}

// FaultedOutcome builds a failed outcome carrying the fault message and
// zero findings. A faulted stage contributes nothing to the finding
// union but is always visible in the audit record.
func FaultedOutcome(detail string, d time.Duration) ValidatorOutcome {
	return ValidatorOutcome{
		Findings:    []Finding{},
		Duration:    d,
		DurationSec: roundSeconds(d),
		Status:      StageError,
		ErrorDetail: detail,
	}
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Round(time.Millisecond)) / float64(time.Second)
}

// FinalStatus is the aggregate verdict over one extraction
type FinalStatus string

const (
	StatusValid        FinalStatus = "valid"         // No errors, no warnings, all stages ran
	StatusReviewNeeded FinalStatus = "review_needed" // Routed to human adjudication
	StatusInvalid      FinalStatus = "invalid"       // Deterministic validation failed
)

// DecisionRecord is the sole artifact of an aggregation run. It is a
// pure function of the per-stage outcomes: no timestamps, no
// identifiers, so aggregating the same outcomes twice yields
// bit-identical records.
type DecisionRecord struct {
	FinalStatus FinalStatus                 `json:"final_status"`
	Findings    []Finding                   `json:"findings"`
	PerStage    map[string]ValidatorOutcome `json:"per_stage"`
	Summary     string                      `json:"summary"`
}

// RunState tracks pipeline progress for the audit trail. Transitions
// are strictly sequential even when stages execute concurrently.
type RunState string

const (
	RunPending         RunState = "pending"
	RunSchemaChecked   RunState = "schema_checked"
	RunRuleChecked     RunState = "rule_checked"
	RunSemanticChecked RunState = "semantically_checked"
	RunAggregated      RunState = "aggregated"
)
