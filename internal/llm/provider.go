// Package llm wraps the external vision models used for extraction
// and for independent semantic review. Providers return raw
// completions only; interpreting a judgement into findings is the
// validate package's job, so a misbehaving model can never corrupt the
// deterministic part of the pipeline.
package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"veridoc/internal/model"
)

// Provider is a vision-capable completion backend
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one vision request and returns the raw completion
	Complete(ctx context.Context, req VisionRequest) (*Completion, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// VisionRequest is one prompt plus document image
type VisionRequest struct {
	System string
	Prompt string

	// Document is the raw image the model must read
	Document []byte
	MIME     string // e.g. image/png

	Model       string
	MaxTokens   int
	Temperature float32

	// ForceJSON requests a JSON-only response where the provider
	// supports enforcing it
	ForceJSON bool
}

// Completion is the raw model output
type Completion struct {
	Content    string
	Model      string
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "mistral", "anthropic", "ollama", ""
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	Timeout int // seconds

	MaxTokens   int
	Temperature float32

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromSemantic converts the semantic section of the app config
func ConfigFromSemantic(c model.SemanticConfig) Config {
	return Config{
		Provider:    c.Provider,
		Model:       c.Model,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Timeout:     int(c.Timeout.Seconds()),
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		HTTPProxy:   c.HTTPProxy,
		HTTPSProxy:  c.HTTPSProxy,
		NoProxy:     c.NoProxy,
	}
}

// BuildJudgePrompts builds the system and user prompts for the
// independent review call. The contract is anti-sycophantic by
// construction: the model is instructed to read the document on its
// own first; the extraction JSON appears only afterwards and only for
// disagreement detection, never as ground truth to confirm.
func BuildJudgePrompts(extraction model.ExtractionResult) (system string, user string, err error) {
	extractionJSON, err := json.MarshalIndent(extraction, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal extraction: %w", err)
	}

	system = "You are a validation model for administrative documents. " +
		"Your task is to check extracted fields critically and independently " +
		"against the original document. " +
		"Be explicit in your assessments and report uncertainties as well. " +
		"Respond with JSON only."

	user = fmt.Sprintf(`First, read the relevant information from the attached document yourself.
Use ONLY the document for this, NOT the JSON data below.

Then compare your own observations with the JSON data given below.
Your task is not to agree with the JSON, but to identify deviations, errors and uncertainties.

Return the result exclusively as valid JSON in the following format:

{
  "status": "valid" | "invalid" | "uncertain",
  "issues": [
    {
      "field": "<field name>",
      "type": "<issue type (e.g. 'mismatch', 'missing', 'uncertain', 'info')>",
      "severity": "<'error' | 'warning' | 'info'>",
      "message": "<short description of the deviation, uncertainty or information>"
    }
  ],
  "comments": "<short overall assessment of the extraction>"
}

Definitions:
- 'error' for real errors (wrong value, important field missing).
- 'warning' for uncertainties (hard to read, unclear context).
- 'info' only for notes where everything is correct but you want to comment
  (e.g. a field is empty and was correctly extracted as empty).

Rules:
- If all values look correct and there are only 'info' entries, set status="valid".
- If uncertainties remain but there are no clear errors, set status="uncertain".
- If essential values are clearly wrong or contradictory, set status="invalid".
- Write NO additional text outside the JSON and use NO Markdown code blocks.

Here is the JSON data produced by the extraction model:
%s`, string(extractionJSON))

	return system, user, nil
}

// dataURL encodes an image for inline transmission
func dataURL(document []byte, mime string) string {
	if mime == "" {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(document))
}
