package model

import "time"

// Report is the persisted envelope around one DecisionRecord. The
// envelope carries everything that is run-specific (identifiers,
// timestamps, document info) so the record itself stays deterministic.
type Report struct {
	RunID    string       `json:"run_id"`
	Document DocumentInfo `json:"document"`
	DocType  string       `json:"doc_type"`

	Decision DecisionRecord `json:"decision"`

	// Extraction echoes the validated data for the audit trail
	Extraction ExtractionResult `json:"extraction"`

	Models    ModelInfo `json:"models"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentInfo identifies the source document of a run
type DocumentInfo struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// ModelInfo records which external models contributed to a run
type ModelInfo struct {
	SemanticProvider string `json:"semantic_provider,omitempty"`
	SemanticModel    string `json:"semantic_model,omitempty"`
	FromCache        bool   `json:"semantic_from_cache,omitempty"`
}
