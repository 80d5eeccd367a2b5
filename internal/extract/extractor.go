// Package extract wraps the extraction model call: given a document
// image and a document schema, it asks a vision model for the field
// values and decodes the response. The validation core treats the
// result as opaque input; nothing here is trusted until validated.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"veridoc/internal/llm"
	"veridoc/internal/model"
	"veridoc/internal/schema"
	"veridoc/internal/validate"
)

// Extractor runs document extraction through a vision provider
type Extractor struct {
	provider llm.Provider
}

// NewExtractor creates an extractor on top of a provider
func NewExtractor(provider llm.Provider) *Extractor {
	return &Extractor{provider: provider}
}

// Result is one extraction run with its metadata
type Result struct {
	Data     model.ExtractionResult
	Raw      string
	Model    string
	Duration time.Duration
}

// Extract asks the model to read the document's fields per schema
func (e *Extractor) Extract(ctx context.Context, document []byte, mime string, s schema.DocSchema) (*Result, error) {
	system, user, err := buildExtractionPrompts(s)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	completion, err := e.provider.Complete(ctx, llm.VisionRequest{
		System:    system,
		Prompt:    user,
		Document:  document,
		MIME:      mime,
		ForceJSON: true,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	cleaned := validate.ExtractJSON(completion.Content)
	if cleaned == "" {
		return nil, fmt.Errorf("extraction model returned no JSON object")
	}
	data, err := model.DecodeExtraction([]byte(cleaned))
	if err != nil {
		return nil, fmt.Errorf("extraction response: %w", err)
	}

	return &Result{
		Data:     data,
		Raw:      completion.Content,
		Model:    completion.Model,
		Duration: time.Since(start),
	}, nil
}

func buildExtractionPrompts(s schema.DocSchema) (string, string, error) {
	example, err := json.MarshalIndent(s.ExampleJSON(), "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal schema example: %w", err)
	}

	system := "You are an extraction model for administrative documents. " +
		"You read document images and return their field values as JSON. " +
		"Respond with JSON only."

	user := fmt.Sprintf(`Read the attached %s document and extract its fields.

Return exactly the keys of the following example, with the values you read
from the document. Use null for fields that are not present or not readable.
Dates keep the format shown in the document (DD.MM.YYYY). Do not invent values.

Example output shape:
%s

Write NO additional text outside the JSON and use NO Markdown code blocks.`, s.Type, string(example))

	return system, user, nil
}

// LoadExtractionFile reads a pre-extracted JSON file, the usual input
// when extraction ran elsewhere.
func LoadExtractionFile(path string) (model.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read extraction file: %w", err)
	}
	res, err := model.DecodeExtraction(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
