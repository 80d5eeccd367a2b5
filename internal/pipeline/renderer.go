package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"veridoc/internal/model"
)

// Renderer persists reports and prints run summaries
type Renderer struct {
	resultsDir string
}

// NewRenderer creates a renderer writing into resultsDir
func NewRenderer(resultsDir string) *Renderer {
	return &Renderer{resultsDir: resultsDir}
}

// WriteReport persists the report as indented JSON under the results
// directory and returns the written path. The filename combines the
// sanitized document name with the run timestamp so repeated checks
// never overwrite each other.
func (r *Renderer) WriteReport(report *model.Report) (string, error) {
	if err := os.MkdirAll(r.resultsDir, 0755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	name := sanitizeName(report.Document.Name)
	if name == "" {
		name = "extraction"
	}
	filename := fmt.Sprintf("%s_%s.json", name, report.CreatedAt.Format("20060102_150405"))
	path := filepath.Join(r.resultsDir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// PrintSummary writes a human-readable run summary
func (r *Renderer) PrintSummary(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "Document:   %s\n", report.Document.Name)
	fmt.Fprintf(w, "Type:       %s\n", report.DocType)
	fmt.Fprintf(w, "Verdict:    %s\n", report.Decision.FinalStatus)
	if report.Models.SemanticModel != "" {
		cached := ""
		if report.Models.FromCache {
			cached = " (cached)"
		}
		fmt.Fprintf(w, "Judge:      %s/%s%s\n", report.Models.SemanticProvider, report.Models.SemanticModel, cached)
	}
	fmt.Fprintf(w, "Stages:     %s\n", report.Decision.Summary)

	if len(report.Decision.Findings) > 0 {
		fmt.Fprintln(w, "Findings:")
		for _, f := range report.Decision.Findings {
			field := ""
			if f.Field != "" {
				field = " [" + f.Field + "]"
			}
			fmt.Fprintf(w, "  %-7s %s%s: %s\n", strings.ToUpper(string(f.Severity)), f.Code, field, f.Message)
		}
	}
}

// sanitizeName keeps letters, digits, dash and underscore so the
// report filename is safe on any filesystem.
func sanitizeName(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
