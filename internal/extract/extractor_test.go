package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"veridoc/internal/llm"
	"veridoc/internal/schema"
)

type scriptedProvider struct {
	content string
	err     error
	lastReq llm.VisionRequest
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) IsAvailable(ctx context.Context) bool { return true }

func (s *scriptedProvider) Complete(ctx context.Context, req llm.VisionRequest) (*llm.Completion, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Completion{Content: s.content, Model: "scripted-model"}, nil
}

func rechnungSchema(t *testing.T) schema.DocSchema {
	t.Helper()
	r, err := schema.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	s, err := r.ForType("rechnung")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExtract(t *testing.T) {
	p := &scriptedProvider{content: `{"typ": "rechnung", "total_gross": 215.65}`}
	e := NewExtractor(p)

	res, err := e.Extract(context.Background(), []byte("imagebytes"), "image/png", rechnungSchema(t))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if res.Data.DocType() != "rechnung" {
		t.Errorf("DocType = %q", res.Data.DocType())
	}
	if res.Model != "scripted-model" {
		t.Errorf("Model = %q", res.Model)
	}
	if res.Raw != p.content {
		t.Errorf("Raw = %q", res.Raw)
	}

	if !p.lastReq.ForceJSON {
		t.Error("extraction must request JSON output")
	}
	if len(p.lastReq.Document) == 0 {
		t.Error("document bytes missing from the request")
	}
	// The prompt shows the schema's expected output shape
	if !strings.Contains(p.lastReq.Prompt, "rechnungsnummer") {
		t.Errorf("prompt does not carry the example shape:\n%s", p.lastReq.Prompt)
	}
	if !strings.Contains(p.lastReq.Prompt, "rechnung document") {
		t.Errorf("prompt does not name the document type:\n%s", p.lastReq.Prompt)
	}
}

func TestExtract_FencedResponse(t *testing.T) {
	p := &scriptedProvider{content: "```json\n{\"typ\": \"rechnung\"}\n```"}
	res, err := NewExtractor(p).Extract(context.Background(), []byte("img"), "image/png", rechnungSchema(t))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Data.DocType() != "rechnung" {
		t.Errorf("DocType = %q", res.Data.DocType())
	}
}

func TestExtract_ProviderError(t *testing.T) {
	p := &scriptedProvider{err: errors.New("timeout")}
	_, err := NewExtractor(p).Extract(context.Background(), []byte("img"), "image/png", rechnungSchema(t))
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Errorf("err = %v", err)
	}
}

func TestExtract_NoJSON(t *testing.T) {
	p := &scriptedProvider{content: "I cannot read this document."}
	_, err := NewExtractor(p).Extract(context.Background(), []byte("img"), "image/png", rechnungSchema(t))
	if err == nil {
		t.Error("expected error for a JSON-free response")
	}
}

func TestLoadExtractionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extraction.json")
	if err := os.WriteFile(path, []byte(`{"typ": "bescheid"}`), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := LoadExtractionFile(path)
	if err != nil {
		t.Fatalf("LoadExtractionFile: %v", err)
	}
	if res.DocType() != "bescheid" {
		t.Errorf("DocType = %q", res.DocType())
	}

	if _, err := LoadExtractionFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	_ = os.WriteFile(bad, []byte("not json"), 0644)
	if _, err := LoadExtractionFile(bad); err == nil || !strings.Contains(err.Error(), "bad.json") {
		t.Errorf("err = %v, want path in message", err)
	}
}
