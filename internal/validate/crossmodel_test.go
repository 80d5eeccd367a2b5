package validate

import (
	"testing"

	"veridoc/internal/model"
)

func TestCrossModel_Agreement(t *testing.T) {
	a := mustExtraction(t, validRechnung)
	b := mustExtraction(t, validRechnung)

	out := NewCrossModelValidator(nil).Compare(a, b, schemaFor(t, "rechnung"))

	if out.Status != model.StageOK {
		t.Fatalf("expected ok stage, got %s", out.Status)
	}
	if len(out.Findings) != 0 {
		t.Errorf("identical extractions should agree, got %+v", out.Findings)
	}
}

func TestCrossModel_NormalizedEquivalence(t *testing.T) {
	a := mustExtraction(t, validRechnung)
	b := mustExtraction(t, validRechnung)

	// Case, whitespace and sub-cent noise are not disagreements
	b["sender"] = model.Value{Kind: model.KindString, Str: "  JÄKEL MARTIN E.V. "}
	b["total_net"] = model.Value{Kind: model.KindNumber, Num: 181.23}

	out := NewCrossModelValidator(nil).Compare(a, b, schemaFor(t, "rechnung"))
	if len(out.Findings) != 0 {
		t.Errorf("normalized values should agree, got %+v", out.Findings)
	}
}

func TestCrossModel_NumberMismatchIsError(t *testing.T) {
	a := mustExtraction(t, validRechnung)
	b := mustExtraction(t, validRechnung)
	b["total_gross"] = model.Value{Kind: model.KindNumber, Num: 999.99}

	out := NewCrossModelValidator(nil).Compare(a, b, schemaFor(t, "rechnung"))

	findings := findByCode(out.Findings, "cross_model_mismatch")
	if len(findings) != 1 {
		t.Fatalf("expected 1 mismatch, got %+v", out.Findings)
	}
	if findings[0].Severity != model.SeverityError {
		t.Errorf("number divergence should be error, got %s", findings[0].Severity)
	}
	if findings[0].Source != model.SourceSemantic {
		t.Errorf("cross-model findings carry the semantic source, got %s", findings[0].Source)
	}
}

func TestCrossModel_StringMismatchIsWarning(t *testing.T) {
	a := mustExtraction(t, validRechnung)
	b := mustExtraction(t, validRechnung)
	b["empfaenger"] = model.Value{Kind: model.KindString, Str: "Someone Else"}

	out := NewCrossModelValidator(nil).Compare(a, b, schemaFor(t, "rechnung"))

	findings := findByCode(out.Findings, "cross_model_mismatch")
	if len(findings) != 1 {
		t.Fatalf("expected 1 mismatch, got %+v", out.Findings)
	}
	if findings[0].Severity != model.SeverityWarning {
		t.Errorf("string divergence should be warning, got %s", findings[0].Severity)
	}
}

func TestCrossModel_MissingField(t *testing.T) {
	a := mustExtraction(t, validRechnung)
	b := mustExtraction(t, validRechnung)
	delete(b, "total_vat")

	out := NewCrossModelValidator(nil).Compare(a, b, schemaFor(t, "rechnung"))

	findings := findByCode(out.Findings, "cross_model_missing")
	if len(findings) != 1 {
		t.Fatalf("expected 1 missing finding, got %+v", out.Findings)
	}
	// Required number field: escalates by the mismatch policy
	if findings[0].Severity != model.SeverityError {
		t.Errorf("missing required number should be error, got %s", findings[0].Severity)
	}
}

func TestCrossModel_BothMissingIsAgreement(t *testing.T) {
	a := mustExtraction(t, validUrlaubsantrag)
	b := mustExtraction(t, validUrlaubsantrag)
	delete(a, "datum")
	delete(b, "datum")

	out := NewCrossModelValidator(nil).Compare(a, b, schemaFor(t, "urlaubsantrag"))
	if len(out.Findings) != 0 {
		t.Errorf("a field absent on both sides is agreement, got %+v", out.Findings)
	}
}

func TestCrossModel_NestedObject(t *testing.T) {
	a := mustExtraction(t, `{
		"typ": "reisekosten",
		"mitarbeiter": "Herr Hans Dieter Conradi",
		"zielort": "Mittweida",
		"start": "03.01.2026",
		"ende": "05.01.2026",
		"kosten_details": {"transport": 96.60, "hotel": 258.07, "tagegeld": 84.00},
		"erstattungsbetrag": 438.67
	}`)
	b := mustExtraction(t, `{
		"typ": "reisekosten",
		"mitarbeiter": "Herr Hans Dieter Conradi",
		"zielort": "Mittweida",
		"start": "03.01.2026",
		"ende": "05.01.2026",
		"kosten_details": {"transport": 96.60, "hotel": 300.00, "tagegeld": 84.00},
		"erstattungsbetrag": 438.67
	}`)

	out := NewCrossModelValidator(nil).Compare(a, b, schemaFor(t, "reisekosten"))

	findings := findByCode(out.Findings, "cross_model_mismatch")
	if len(findings) != 1 {
		t.Fatalf("expected 1 nested mismatch, got %+v", out.Findings)
	}
	if findings[0].Field != "kosten_details" {
		t.Errorf("expected finding on kosten_details, got %q", findings[0].Field)
	}
}
