package validate

import (
	"testing"
	"time"

	"veridoc/internal/model"
)

const validRechnung = `{
	"typ": "rechnung",
	"sender": "Jäkel Martin e.V.",
	"empfaenger": "Iwona Martin",
	"rechnungsnummer": "RE-2026-1520",
	"datum": "09.01.2026",
	"items": [
		{"description": "Incubate collaborative eyeballs", "quantity": 2, "unit_price": 40.61, "total": 81.22},
		{"description": "Aggregate granular schemas", "quantity": 1, "unit_price": 100.00, "total": 100.00}
	],
	"total_net": 181.22,
	"total_vat": 34.43,
	"total_gross": 215.65
}`

func TestRuleValidator_Clean(t *testing.T) {
	out := NewRuleValidator().Validate(mustExtraction(t, validRechnung), schemaFor(t, "rechnung"))

	if out.Status != model.StageOK {
		t.Fatalf("expected ok stage, got %s (%s)", out.Status, out.ErrorDetail)
	}
	if len(out.Findings) != 0 {
		t.Errorf("expected no findings, got %+v", out.Findings)
	}
}

func TestRuleValidator_DateFormat(t *testing.T) {
	res := mustExtraction(t, validRechnung)
	res["datum"] = model.Value{Kind: model.KindString, Str: "2026-01-09"}

	out := NewRuleValidator().Validate(res, schemaFor(t, "rechnung"))

	findings := findByCode(out.Findings, "date_format")
	if len(findings) != 1 {
		t.Fatalf("expected 1 date_format finding, got %d: %+v", len(findings), out.Findings)
	}
	if findings[0].Severity != model.SeverityError || findings[0].Source != model.SourceRule {
		t.Errorf("unexpected finding: %+v", findings[0])
	}
}

func TestRuleValidator_DateFormatSkipsEmpty(t *testing.T) {
	res := mustExtraction(t, validRechnung)
	res["datum"] = model.Null

	out := NewRuleValidator().Validate(res, schemaFor(t, "rechnung"))
	if n := len(findByCode(out.Findings, "date_format")); n != 0 {
		t.Errorf("empty date should not trip the format rule, got %d findings", n)
	}
}

func TestRuleValidator_DateOrder(t *testing.T) {
	res := mustExtraction(t, validUrlaubsantrag)
	res["von"] = model.Value{Kind: model.KindString, Str: "10.09.2026"}
	res["bis"] = model.Value{Kind: model.KindString, Str: "06.09.2026"}

	out := NewRuleValidator().Validate(res, schemaFor(t, "urlaubsantrag"))

	if len(findByCode(out.Findings, "date_order")) != 1 {
		t.Errorf("expected date_order finding, got %+v", out.Findings)
	}
}

func TestRuleValidator_DayRange(t *testing.T) {
	res := mustExtraction(t, validUrlaubsantrag)
	res["tage"] = model.Value{Kind: model.KindNumber, Num: 30}

	out := NewRuleValidator().Validate(res, schemaFor(t, "urlaubsantrag"))

	findings := findByCode(out.Findings, "day_range")
	if len(findings) != 1 {
		t.Fatalf("expected day_range finding for 30 days in a 5-day period, got %+v", out.Findings)
	}
	if findings[0].Severity != model.SeverityWarning {
		t.Errorf("expected warning, got %s", findings[0].Severity)
	}

	res["tage"] = model.Value{Kind: model.KindNumber, Num: 0}
	out = NewRuleValidator().Validate(res, schemaFor(t, "urlaubsantrag"))
	if len(findByCode(out.Findings, "day_range")) != 1 {
		t.Errorf("expected day_range finding for zero days")
	}
}

func TestRuleValidator_ItemsPresent(t *testing.T) {
	res := mustExtraction(t, validRechnung)
	res["items"] = model.Value{Kind: model.KindList}

	out := NewRuleValidator().Validate(res, schemaFor(t, "rechnung"))

	findings := findByCode(out.Findings, "items_present")
	if len(findings) != 1 {
		t.Fatalf("expected items_present finding, got %+v", out.Findings)
	}
	if findings[0].Severity != model.SeverityError {
		t.Errorf("expected error, got %s", findings[0].Severity)
	}
}

func TestRuleValidator_ItemTotals(t *testing.T) {
	res := mustExtraction(t, `{
		"typ": "rechnung",
		"items": [{"description": "x", "quantity": 3, "unit_price": 10.00, "total": 35.00}]
	}`)

	out := NewRuleValidator().Validate(res, schemaFor(t, "rechnung"))

	findings := findByCode(out.Findings, "item_totals")
	if len(findings) != 1 {
		t.Fatalf("expected item_totals finding, got %+v", out.Findings)
	}
	if findings[0].Field != "items[0].total" {
		t.Errorf("expected finding on items[0].total, got %q", findings[0].Field)
	}
}

func TestRuleValidator_ItemTotalsWithinTolerance(t *testing.T) {
	res := mustExtraction(t, `{
		"typ": "rechnung",
		"items": [{"description": "x", "quantity": 3, "unit_price": 10.00, "total": 30.01}]
	}`)

	out := NewRuleValidator().Validate(res, schemaFor(t, "rechnung"))
	if n := len(findByCode(out.Findings, "item_totals")); n != 0 {
		t.Errorf("a cent of rounding should pass, got %d findings", n)
	}
}

func TestRuleValidator_VATConsistency(t *testing.T) {
	res := mustExtraction(t, validRechnung)
	res["total_gross"] = model.Value{Kind: model.KindNumber, Num: 999.99}

	out := NewRuleValidator().Validate(res, schemaFor(t, "rechnung"))

	findings := findByCode(out.Findings, "vat_consistency")
	if len(findings) != 1 {
		t.Fatalf("expected vat_consistency finding, got %+v", out.Findings)
	}
	if findings[0].Severity != model.SeverityError {
		t.Errorf("expected error, got %s", findings[0].Severity)
	}
}

func TestRuleValidator_SumCheck(t *testing.T) {
	res := mustExtraction(t, `{
		"typ": "reisekosten",
		"mitarbeiter": "Herr Hans Dieter Conradi",
		"zielort": "Mittweida",
		"start": "03.01.2026",
		"ende": "05.01.2026",
		"kosten_details": {"transport": 96.60, "hotel": 258.07, "tagegeld": 84.00},
		"erstattungsbetrag": 500.00
	}`)

	out := NewRuleValidator().Validate(res, schemaFor(t, "reisekosten"))

	findings := findByCode(out.Findings, "sum_check")
	if len(findings) != 1 {
		t.Fatalf("expected sum_check finding, got %+v", out.Findings)
	}

	res["erstattungsbetrag"] = model.Value{Kind: model.KindNumber, Num: 438.67}
	out = NewRuleValidator().Validate(res, schemaFor(t, "reisekosten"))
	if n := len(findByCode(out.Findings, "sum_check")); n != 0 {
		t.Errorf("matching sum should pass, got %d findings", n)
	}
}

func TestRuleValidator_PositiveValue(t *testing.T) {
	res := mustExtraction(t, `{
		"typ": "bescheid",
		"behoerde": "Stadtverwaltung Aurich",
		"aktenzeichen": "AZ-325772",
		"datum": "11.01.2026",
		"grund": "Meldebescheinigung",
		"betrag": -5.0,
		"zahlungsfrist": "06.02.2026"
	}`)

	out := NewRuleValidator().Validate(res, schemaFor(t, "bescheid"))

	if len(findByCode(out.Findings, "positive_value")) != 1 {
		t.Errorf("expected positive_value finding for negative amount, got %+v", out.Findings)
	}
}

func TestRuleValidator_PastDate(t *testing.T) {
	// Pin the clock so the test never rots
	orig := ruleNowFunc
	ruleNowFunc = func() time.Time {
		return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	}
	defer func() { ruleNowFunc = orig }()

	res := mustExtraction(t, `{
		"typ": "bescheid",
		"behoerde": "Stadtverwaltung Aurich",
		"aktenzeichen": "AZ-325772",
		"datum": "20.01.2026",
		"grund": "Meldebescheinigung",
		"betrag": 77.22,
		"zahlungsfrist": "06.02.2026"
	}`)

	out := NewRuleValidator().Validate(res, schemaFor(t, "bescheid"))

	findings := findByCode(out.Findings, "past_date")
	if len(findings) != 1 {
		t.Fatalf("expected past_date finding for a future notice date, got %+v", out.Findings)
	}
	if findings[0].Severity != model.SeverityWarning {
		t.Errorf("expected warning, got %s", findings[0].Severity)
	}

	res["datum"] = model.Value{Kind: model.KindString, Str: "11.01.2026"}
	out = NewRuleValidator().Validate(res, schemaFor(t, "bescheid"))
	if n := len(findByCode(out.Findings, "past_date")); n != 0 {
		t.Errorf("past date should pass, got %d findings", n)
	}
}

func TestRuleValidator_Pattern(t *testing.T) {
	res := mustExtraction(t, validRechnung)
	res["rechnungsnummer"] = model.Value{Kind: model.KindString, Str: "totally wrong"}

	out := NewRuleValidator().Validate(res, schemaFor(t, "rechnung"))

	if len(findByCode(out.Findings, "pattern")) != 1 {
		t.Errorf("expected pattern finding, got %+v", out.Findings)
	}
}

func TestRuleValidator_BusinessRuleClampedToInfo(t *testing.T) {
	// Presence of a signature is a business concern; whatever the
	// evaluator says, the finding may never outrank info.
	res := mustExtraction(t, validUrlaubsantrag)
	res["unterschrift_arbeitnehmer"] = model.Value{Kind: model.KindString, Str: ""}

	out := NewRuleValidator().Validate(res, schemaFor(t, "urlaubsantrag"))

	findings := findByCode(out.Findings, "presence")
	if len(findings) != 1 {
		t.Fatalf("expected presence finding for the missing signature, got %+v", out.Findings)
	}
	if findings[0].Severity != model.SeverityInfo {
		t.Errorf("business rules must be clamped to info, got %s", findings[0].Severity)
	}
}

func TestRuleValidator_PresenceFalseBool(t *testing.T) {
	res := mustExtraction(t, `{
		"typ": "meldebescheinigung",
		"behoerde": "Stadt Hoyerswerda",
		"name": "Hedda Stadelmann",
		"geburtsdatum": "18.05.1945",
		"anschrift_aktuell": "Geißlerallee 32/14, 08607 Hoyerswerda",
		"einzugsdatum": "13.10.2022",
		"datum": "26.01.2026",
		"siegel": false
	}`)

	out := NewRuleValidator().Validate(res, schemaFor(t, "meldebescheinigung"))

	findings := findByCode(out.Findings, "presence")
	if len(findings) != 1 {
		t.Fatalf("expected presence finding for siegel=false, got %+v", out.Findings)
	}
	if findings[0].Severity != model.SeverityInfo {
		t.Errorf("seal presence is a business rule, expected info, got %s", findings[0].Severity)
	}
}
