package validate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"veridoc/internal/model"
	"veridoc/internal/schema"
)

// Judgement is the parsed output of the independent review model
type Judgement struct {
	Status   string           `json:"status"` // valid | invalid | uncertain
	Issues   []JudgementIssue `json:"issues"`
	Comments string           `json:"comments"`
}

// JudgementIssue is one field-level observation by the review model
type JudgementIssue struct {
	Field    string `json:"field"`
	Type     string `json:"type"` // mismatch, missing, uncertain, info
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// SemanticValidator converts the raw judgement of the independent
// review model into findings. It owns the adapter side only; the
// network call itself happens upstream and its failure arrives here as
// a stage fault, never as a panic.
type SemanticValidator struct {
	policy *SeverityPolicy
}

// NewSemanticValidator creates a semantic validator with the given
// disagreement policy
func NewSemanticValidator(policy *SeverityPolicy) *SemanticValidator {
	if policy == nil {
		policy = NewSeverityPolicy(nil)
	}
	return &SemanticValidator{policy: policy}
}

// Evaluate maps a raw model judgement to an outcome. The review model
// is stochastic: malformed or partially structured responses degrade
// to a single unparseable finding instead of failing the stage, so one
// bad completion never blocks aggregation.
func (v *SemanticValidator) Evaluate(raw string, callDuration time.Duration, s schema.DocSchema) (outcome model.ValidatorOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = model.FaultedOutcome(fmt.Sprintf("semantic validator panic: %v", r), callDuration)
		}
	}()

	judgement, err := ParseJudgement(raw)
	if err != nil {
		return model.NewOutcome([]model.Finding{{
			Severity: v.policy.ForUnparseable(),
			Code:     model.CodeSemanticUnparseable,
			Message:  fmt.Sprintf("review model returned no parseable judgement: %v", err),
			Source:   model.SourceSemantic,
		}}, callDuration)
	}

	findings := []model.Finding{}
	for _, issue := range judgement.Issues {
		findings = append(findings, v.mapIssue(issue, s))
	}
	return model.NewOutcome(findings, callDuration)
}

// mapIssue assigns the severity of one disagreement. For genuine
// divergences (mismatch/missing) the policy table decides by field
// type; the model's own severity only counts for the softer issue
// types it is better placed to judge (uncertainty, hints).
func (v *SemanticValidator) mapIssue(issue JudgementIssue, s schema.DocSchema) model.Finding {
	spec, known := s.Fields[issue.Field]

	var severity model.Severity
	switch strings.ToLower(issue.Type) {
	case "mismatch", "missing":
		severity = v.policy.ForMismatch(spec.Type, known)
	case "info":
		severity = model.SeverityInfo
	default:
		severity = parseSeverity(issue.Severity)
		if !severity.Valid() {
			severity = model.SeverityWarning
		}
	}

	code := strings.ToLower(strings.TrimSpace(issue.Type))
	if code == "" {
		code = "observation"
	}
	return model.Finding{
		Severity: severity,
		Code:     "semantic_" + code,
		Field:    issue.Field,
		Message:  issue.Message,
		Source:   model.SourceSemantic,
	}
}

// ParseJudgement parses a raw model response into a judgement,
// stripping Markdown fences and surrounding chatter first.
func ParseJudgement(raw string) (*Judgement, error) {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("response contains no JSON object")
	}
	var j Judgement
	if err := json.Unmarshal([]byte(cleaned), &j); err != nil {
		return nil, fmt.Errorf("parse judgement: %w", err)
	}
	if j.Status == "" {
		j.Status = "uncertain"
	}
	return &j, nil
}

// ExtractJSON cuts a single JSON object out of a model response,
// tolerating code fences and leading/trailing prose.
func ExtractJSON(text string) string {
	cleaned := strings.TrimSpace(text)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = strings.TrimSpace(cleaned[:idx])
		}
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return cleaned[start : end+1]
}
