package pipeline

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridoc/internal/model"
)

func okStage(findings ...model.Finding) model.ValidatorOutcome {
	return model.NewOutcome(findings, 5*time.Millisecond)
}

func finding(sev model.Severity, code string, src model.Source) model.Finding {
	return model.Finding{Severity: sev, Code: code, Field: "f", Message: "m", Source: src}
}

func TestAggregate_AllClean(t *testing.T) {
	agg := NewAggregator()
	stages := map[string]model.ValidatorOutcome{
		model.StageSchema:   okStage(),
		model.StageRule:     okStage(),
		model.StageSemantic: okStage(),
	}

	record, err := agg.Aggregate(stages, []string{model.StageSchema, model.StageRule, model.StageSemantic})
	require.NoError(t, err)

	assert.Equal(t, model.StatusValid, record.FinalStatus)
	assert.Empty(t, record.Findings)
	assert.Len(t, record.PerStage, 3)
	assert.Contains(t, record.Summary, "final: valid")
}

func TestAggregate_WarningMeansReview(t *testing.T) {
	agg := NewAggregator()
	stages := map[string]model.ValidatorOutcome{
		model.StageSchema: okStage(),
		model.StageRule:   okStage(finding(model.SeverityWarning, "day_range", model.SourceRule)),
	}

	record, err := agg.Aggregate(stages, []string{model.StageSchema, model.StageRule})
	require.NoError(t, err)

	assert.Equal(t, model.StatusReviewNeeded, record.FinalStatus)
	assert.Len(t, record.Findings, 1)
}

func TestAggregate_DeterministicErrorMeansInvalid(t *testing.T) {
	agg := NewAggregator()
	stages := map[string]model.ValidatorOutcome{
		model.StageSchema: okStage(finding(model.SeverityError, model.CodeMissingField, model.SourceSchema)),
		model.StageRule:   okStage(),
	}

	record, err := agg.Aggregate(stages, []string{model.StageSchema, model.StageRule})
	require.NoError(t, err)

	assert.Equal(t, model.StatusInvalid, record.FinalStatus)
}

func TestAggregate_SemanticErrorMeansReviewOnly(t *testing.T) {
	// One model's word against another's is a review trigger, not a
	// deterministic failure.
	agg := NewAggregator()
	stages := map[string]model.ValidatorOutcome{
		model.StageSchema:   okStage(),
		model.StageRule:     okStage(),
		model.StageSemantic: okStage(finding(model.SeverityError, "semantic_mismatch", model.SourceSemantic)),
	}

	record, err := agg.Aggregate(stages, []string{model.StageSchema, model.StageRule, model.StageSemantic})
	require.NoError(t, err)

	assert.Equal(t, model.StatusReviewNeeded, record.FinalStatus)
}

func TestAggregate_ErrorDominatesWarning(t *testing.T) {
	agg := NewAggregator()
	stages := map[string]model.ValidatorOutcome{
		model.StageSchema: okStage(finding(model.SeverityError, model.CodeTypeMismatch, model.SourceSchema)),
		model.StageRule:   okStage(finding(model.SeverityWarning, "day_range", model.SourceRule)),
	}

	record, err := agg.Aggregate(stages, []string{model.StageSchema, model.StageRule})
	require.NoError(t, err)

	assert.Equal(t, model.StatusInvalid, record.FinalStatus)
	assert.Len(t, record.Findings, 2)
}

func TestAggregate_InfoNeverAffectsVerdict(t *testing.T) {
	agg := NewAggregator()
	stages := map[string]model.ValidatorOutcome{
		model.StageSchema: okStage(finding(model.SeverityInfo, model.CodeMissingField, model.SourceSchema)),
		model.StageRule:   okStage(finding(model.SeverityInfo, "presence", model.SourceRule)),
	}

	record, err := agg.Aggregate(stages, []string{model.StageSchema, model.StageRule})
	require.NoError(t, err)

	assert.Equal(t, model.StatusValid, record.FinalStatus)
	assert.Len(t, record.Findings, 2, "info findings still appear in the record")
}

func TestAggregate_FaultedStageMeansReview(t *testing.T) {
	// A stage that did not run has absent findings, not empty ones;
	// the extraction can never be fully valid without them.
	agg := NewAggregator()
	stages := map[string]model.ValidatorOutcome{
		model.StageSchema:   okStage(),
		model.StageRule:     okStage(),
		model.StageSemantic: model.FaultedOutcome("judge call: connection refused", time.Second),
	}

	record, err := agg.Aggregate(stages, []string{model.StageSchema, model.StageRule, model.StageSemantic})
	require.NoError(t, err)

	assert.Equal(t, model.StatusReviewNeeded, record.FinalStatus)
	assert.Empty(t, record.Findings)
	assert.Contains(t, record.Summary, "semantic: failed (judge call: connection refused)")
}

func TestAggregate_FaultedStageDoesNotMaskErrors(t *testing.T) {
	agg := NewAggregator()
	stages := map[string]model.ValidatorOutcome{
		model.StageSchema:   okStage(finding(model.SeverityError, model.CodeMissingField, model.SourceSchema)),
		model.StageRule:     okStage(),
		model.StageSemantic: model.FaultedOutcome("timeout", time.Second),
	}

	record, err := agg.Aggregate(stages, []string{model.StageSchema, model.StageRule, model.StageSemantic})
	require.NoError(t, err)

	assert.Equal(t, model.StatusInvalid, record.FinalStatus)
}

func TestAggregate_MissingRequiredStageFailsLoudly(t *testing.T) {
	agg := NewAggregator()
	stages := map[string]model.ValidatorOutcome{
		model.StageSchema: okStage(),
	}

	_, err := agg.Aggregate(stages, []string{model.StageSchema, model.StageRule, model.StageSemantic})
	require.Error(t, err)

	var iv *InvariantViolationError
	require.ErrorAs(t, err, &iv)
	assert.Equal(t, []string{model.StageRule, model.StageSemantic}, iv.Missing)
}

func TestAggregate_Idempotent(t *testing.T) {
	agg := NewAggregator()
	stages := map[string]model.ValidatorOutcome{
		model.StageSchema:     okStage(finding(model.SeverityWarning, model.CodeUnexpectedField, model.SourceSchema)),
		model.StageRule:       okStage(finding(model.SeverityInfo, "presence", model.SourceRule)),
		model.StageSemantic:   okStage(),
		model.StageCrossModel: okStage(finding(model.SeverityWarning, "cross_model_mismatch", model.SourceSemantic)),
	}
	required := []string{model.StageSchema, model.StageRule, model.StageSemantic, model.StageCrossModel}

	first, err := agg.Aggregate(stages, required)
	require.NoError(t, err)
	second, err := agg.Aggregate(stages, required)
	require.NoError(t, err)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("aggregation is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestAggregate_FindingOrderIsCanonical(t *testing.T) {
	agg := NewAggregator()
	stages := map[string]model.ValidatorOutcome{
		model.StageCrossModel: okStage(finding(model.SeverityWarning, "cross_model_mismatch", model.SourceSemantic)),
		model.StageSemantic:   okStage(finding(model.SeverityWarning, "semantic_mismatch", model.SourceSemantic)),
		model.StageRule:       okStage(finding(model.SeverityWarning, "day_range", model.SourceRule)),
		model.StageSchema:     okStage(finding(model.SeverityWarning, model.CodeUnexpectedField, model.SourceSchema)),
	}

	record, err := agg.Aggregate(stages, model.StageOrder)
	require.NoError(t, err)

	codes := make([]string, len(record.Findings))
	for i, f := range record.Findings {
		codes[i] = f.Code
	}
	assert.Equal(t, []string{model.CodeUnexpectedField, "day_range", "semantic_mismatch", "cross_model_mismatch"}, codes)
}

func TestAggregate_SummaryCounts(t *testing.T) {
	agg := NewAggregator()
	stages := map[string]model.ValidatorOutcome{
		model.StageSchema: okStage(
			finding(model.SeverityError, model.CodeMissingField, model.SourceSchema),
			finding(model.SeverityWarning, model.CodeUnexpectedField, model.SourceSchema),
		),
		model.StageRule: okStage(),
	}

	record, err := agg.Aggregate(stages, []string{model.StageSchema, model.StageRule})
	require.NoError(t, err)

	assert.Contains(t, record.Summary, "schema: 1 errors, 1 warnings, 0 infos")
	assert.Contains(t, record.Summary, "rule: 0 errors, 0 warnings, 0 infos")
	assert.Contains(t, record.Summary, "final: invalid")
	assert.Contains(t, record.Summary, " | ")
}
