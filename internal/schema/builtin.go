package schema

import "veridoc/internal/model"

// Builtin document types, ported from the administrative document set
// the extraction models are prompted for. Field names match the keys
// the extractors emit, so they are intentionally German.

func urlaubsantragSchema() DocSchema {
	return DocSchema{
		Type: "urlaubsantrag",
		Fields: map[string]FieldSpec{
			"typ":                       {Required: true, Type: TypeString, Example: "urlaubsantrag", Description: "document type"},
			"personalnummer":            {Required: true, Type: TypeString, Example: "13278", Description: "employee number"},
			"name":                      {Required: true, Type: TypeString, Example: "Prof. Sandra Staude MBA.", Description: "name, first name"},
			"abteilung":                 {Required: true, Type: TypeString, Example: "Vertrieb", Description: "department"},
			"art":                       {Required: true, Type: TypeString, Example: "Erholungsurlaub", Description: "leave type"},
			"von":                       {Required: true, Type: TypeDate, Example: "02.09.2026", Description: "leave start date"},
			"bis":                       {Required: true, Type: TypeDate, Example: "06.09.2026", Description: "leave end date"},
			"tage":                      {Required: true, Type: TypeInteger, Example: 4, Description: "number of leave days"},
			"datum":                     {Type: TypeDate, Example: "18.01.2026", Description: "application date"},
			"unterschrift_arbeitnehmer": {Type: TypeString, Example: "", Description: "employee signature (may be empty)"},
		},
		Rules: []RuleDef{
			{Kind: RuleDateFormat, Fields: []string{"von", "bis", "datum"}, Severity: model.SeverityError},
			{Kind: RuleDateOrder, Fields: []string{"von", "bis"}, Severity: model.SeverityError, Message: "start date lies after end date"},
			{Kind: RuleDayRange, Fields: []string{"von", "bis", "tage"}, Severity: model.SeverityWarning, Message: "day count is not consistent with the leave period"},
			{Kind: RulePresence, Field: "unterschrift_arbeitnehmer", Severity: model.SeverityInfo, Business: true, Message: "no employee signature was read from the document"},
		},
	}
}

func rechnungSchema() DocSchema {
	return DocSchema{
		Type: "rechnung",
		Fields: map[string]FieldSpec{
			"typ":             {Required: true, Type: TypeString, Example: "rechnung", Description: "document type"},
			"sender":          {Required: true, Type: TypeString, Example: "Jäkel Martin e.V.", Description: "sender/company"},
			"empfaenger":      {Required: true, Type: TypeString, Example: "Iwona Martin", Description: "recipient"},
			"rechnungsnummer": {Required: true, Type: TypeString, Pattern: `^[A-Za-z]{1,4}-?[0-9][0-9-]*$`, Example: "RE-2026-1520", Description: "invoice number"},
			"datum":           {Required: true, Type: TypeDate, Example: "09.01.2026", Description: "invoice date"},
			"items": {Required: true, Type: TypeList, Description: "line items (description, quantity, unit_price, total)",
				Example: []interface{}{map[string]interface{}{"description": "Incubate collaborative eyeballs", "quantity": 2, "unit_price": 40.61, "total": 81.22}}},
			"total_net":   {Required: true, Type: TypeNumber, Example: 929.74, Description: "net total"},
			"total_vat":   {Required: true, Type: TypeNumber, Example: 176.65, Description: "VAT total"},
			"total_gross": {Required: true, Type: TypeNumber, Example: 1106.39, Description: "gross total"},
		},
		Rules: []RuleDef{
			{Kind: RuleDateFormat, Fields: []string{"datum"}, Severity: model.SeverityError},
			{Kind: RulePattern, Field: "rechnungsnummer", Pattern: `^[A-Za-z]{1,4}-?[0-9][0-9-]*$`, Severity: model.SeverityWarning, Message: "invoice number does not look like an invoice number"},
			{Kind: RuleItemsPresent, Field: "items", Severity: model.SeverityError, Message: "invoice contains no line items"},
			{Kind: RuleItemTotals, Field: "items", Severity: model.SeverityWarning},
			{Kind: RuleVATConsistent, Fields: []string{"total_net", "total_vat", "total_gross"}, Severity: model.SeverityError, Message: "gross total does not equal net plus VAT"},
		},
	}
}

func reisekostenSchema() DocSchema {
	return DocSchema{
		Type: "reisekosten",
		Fields: map[string]FieldSpec{
			"typ":         {Required: true, Type: TypeString, Example: "reisekosten", Description: "document type"},
			"mitarbeiter": {Required: true, Type: TypeString, Example: "Herr Hans Dieter Conradi", Description: "employee"},
			"zielort":     {Required: true, Type: TypeString, Example: "Mittweida", Description: "destination"},
			"start":       {Required: true, Type: TypeDate, Example: "03.01.2026", Description: "trip start date"},
			"ende":        {Required: true, Type: TypeDate, Example: "05.01.2026", Description: "trip end date"},
			"kosten_details": {Required: true, Type: TypeObject, Description: "cost breakdown (transport/hotel/tagegeld)",
				Example: map[string]interface{}{"transport": 96.60, "hotel": 258.07, "tagegeld": 84.00}},
			"erstattungsbetrag": {Required: true, Type: TypeNumber, Example: 438.67, Description: "reimbursement total"},
		},
		Rules: []RuleDef{
			{Kind: RuleDateFormat, Fields: []string{"start", "ende"}, Severity: model.SeverityError},
			{Kind: RuleDateOrder, Fields: []string{"start", "ende"}, Severity: model.SeverityError, Message: "trip start lies after trip end"},
			{Kind: RuleSumCheck, Fields: []string{"kosten_details", "erstattungsbetrag"}, Severity: model.SeverityError, Message: "reimbursement total does not match the sum of cost positions"},
		},
	}
}

func bescheidSchema() DocSchema {
	return DocSchema{
		Type: "bescheid",
		Fields: map[string]FieldSpec{
			"typ":           {Required: true, Type: TypeString, Example: "bescheid", Description: "document type"},
			"behoerde":      {Required: true, Type: TypeString, Example: "Stadtverwaltung Aurich", Description: "issuing authority"},
			"adressat":      {Type: TypeString, Example: "Dipl.-Ing. Nikolai Bien", Description: "addressee"},
			"aktenzeichen":  {Required: true, Type: TypeString, Pattern: `^[A-Za-z]{1,4}-?[0-9][0-9-]*$`, Example: "AZ-325772", Description: "file reference"},
			"datum":         {Required: true, Type: TypeDate, Example: "11.01.2026", Description: "notice date"},
			"grund":         {Required: true, Type: TypeString, Example: "Meldebescheinigung", Description: "fee reason"},
			"betrag":        {Required: true, Type: TypeNumber, Example: 77.22, Description: "assessed amount"},
			"zahlungsfrist": {Required: true, Type: TypeDate, Example: "06.02.2026", Description: "payment deadline"},
		},
		Rules: []RuleDef{
			{Kind: RuleDateFormat, Fields: []string{"datum", "zahlungsfrist"}, Severity: model.SeverityError},
			{Kind: RuleDateOrder, Fields: []string{"datum", "zahlungsfrist"}, Severity: model.SeverityError, Message: "payment deadline lies before the notice date"},
			{Kind: RulePositiveValue, Field: "betrag", Severity: model.SeverityError, Message: "assessed amount must be greater than zero"},
			{Kind: RulePastDate, Field: "datum", Severity: model.SeverityWarning, Message: "notice date lies in the future"},
		},
	}
}

func meldebescheinigungSchema() DocSchema {
	return DocSchema{
		Type: "meldebescheinigung",
		Fields: map[string]FieldSpec{
			"typ":               {Required: true, Type: TypeString, Example: "meldebescheinigung", Description: "document type"},
			"behoerde":          {Required: true, Type: TypeString, Example: "Stadt Hoyerswerda", Description: "issuing authority"},
			"name":              {Required: true, Type: TypeString, Example: "Hedda Stadelmann", Description: "name (family name, first name)"},
			"geburtsdatum":      {Required: true, Type: TypeDate, Example: "18.05.1945", Description: "date of birth"},
			"anschrift_aktuell": {Required: true, Type: TypeString, Example: "Geißlerallee 32/14, 08607 Hoyerswerda", Description: "current address"},
			"einzugsdatum":      {Required: true, Type: TypeDate, Example: "13.10.2022", Description: "move-in date"},
			"anschrift_vorher":  {Type: TypeString, Example: "Hermannallee 77/60, 03397 Iserlohn", Description: "previous address"},
			"datum":             {Required: true, Type: TypeDate, Example: "26.01.2026", Description: "issue date"},
			"siegel":            {Type: TypeBool, Example: true, Description: "seal present (true/false)"},
		},
		Rules: []RuleDef{
			{Kind: RuleDateFormat, Fields: []string{"geburtsdatum", "einzugsdatum", "datum"}, Severity: model.SeverityError},
			{Kind: RuleDateOrder, Fields: []string{"einzugsdatum", "datum"}, Severity: model.SeverityError, Message: "move-in date lies after the issue date"},
			{Kind: RulePastDate, Field: "geburtsdatum", Severity: model.SeverityError, Message: "date of birth lies in the future"},
			{Kind: RulePresence, Field: "siegel", Severity: model.SeverityInfo, Business: true, Message: "no official seal was read from the document"},
		},
	}
}

// builtinSchemas returns fresh copies of all built-in document types
func builtinSchemas() []DocSchema {
	return []DocSchema{
		urlaubsantragSchema(),
		rechnungSchema(),
		reisekostenSchema(),
		bescheidSchema(),
		meldebescheinigungSchema(),
	}
}
