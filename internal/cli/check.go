package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"veridoc/internal/model"
	"veridoc/internal/pipeline"
	"veridoc/internal/worker"
)

var (
	documentPath string
	secondPath   string
	docTypeFlag  string
	resultsDir   string
	noSave       bool
	checkTimeout time.Duration
	noCache      bool
	schemaDir    string

	semanticEnabled  bool
	semanticProvider string
	semanticModel    string
	semanticBaseURL  string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <extraction.json>",
	Short: "Validate one extraction and produce a decision record",
	Long: `Check runs a single extraction through all validation stages:
- Structural conformance against the document type's schema
- Deterministic plausibility rules (date order, totals, VAT math, ...)
- Independent re-derivation by a second vision model (with --semantic)
- Cross-model comparison against a second extraction (with --second)

The stage outcomes are aggregated into one decision record with a
final verdict: valid, review_needed, or invalid.

Example:
  veridoc check extraction.json
  veridoc check extraction.json --document invoice.png --semantic
  veridoc check extraction.json --second other_model.json --type rechnung`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&documentPath, "document", "", "document image the extraction came from (required for --semantic)")
	checkCmd.Flags().StringVar(&secondPath, "second", "", "second extraction for cross-model comparison")
	checkCmd.Flags().StringVar(&docTypeFlag, "type", "", "document type override (default: routed on the extraction's typ field)")
	checkCmd.Flags().StringVar(&resultsDir, "results-dir", "results", "directory for persisted decision records")
	checkCmd.Flags().BoolVar(&noSave, "no-save", false, "print the decision without persisting it")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall check timeout")
	checkCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the judgement cache (force a fresh model call)")
	checkCmd.Flags().StringVar(&schemaDir, "schema-dir", "", "directory with additional YAML schema definitions")

	checkCmd.Flags().BoolVar(&semanticEnabled, "semantic", false, "enable semantic validation by an independent vision model")
	checkCmd.Flags().StringVar(&semanticProvider, "provider", "openai", "judge provider (openai, mistral, anthropic, ollama)")
	checkCmd.Flags().StringVar(&semanticModel, "model", "gpt-4o", "judge model name")
	checkCmd.Flags().StringVar(&semanticBaseURL, "base-url", "", "judge provider base URL override")
}

func runCheck(cmd *cobra.Command, args []string) error {
	extractionPath := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	limiter := worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst)
	p, err := pipeline.NewPipeline(cfg, limiter, logger, nil)
	if err != nil {
		return err
	}

	report, err := p.Run(ctx, pipeline.RunInput{
		DocumentPath:         documentPath,
		ExtractionPath:       extractionPath,
		SecondExtractionPath: secondPath,
		DocType:              docTypeFlag,
	})
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.ResultsDir)
	renderer.PrintSummary(os.Stdout, report)

	if !noSave {
		path, err := renderer.WriteReport(report)
		if err != nil {
			return fmt.Errorf("persist decision: %w", err)
		}
		fmt.Printf("\nDecision record written: %s\n", path)
	}

	// The exit code mirrors the verdict so scripts can branch on it
	if report.Decision.FinalStatus == model.StatusInvalid {
		os.Exit(2)
	}
	return nil
}

// buildConfig assembles the effective configuration from defaults,
// flags and environment. API keys come from the environment only.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Output.Verbose = verbose
	cfg.Output.ResultsDir = resultsDir
	cfg.Cache.Enabled = !noCache
	if schemaDir != "" {
		cfg.Schemas.Dir = schemaDir
	}

	if semanticEnabled {
		cfg.Semantic.Enabled = true
		cfg.Semantic.Provider = semanticProvider
		cfg.Semantic.Model = semanticModel
		if semanticBaseURL != "" {
			cfg.Semantic.BaseURL = semanticBaseURL
		}

		switch semanticProvider {
		case "openai":
			cfg.Semantic.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.Semantic.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "mistral", "pixtral":
			cfg.Semantic.APIKey = os.Getenv("MISTRAL_API_KEY")
			if cfg.Semantic.APIKey == "" {
				return nil, fmt.Errorf("MISTRAL_API_KEY environment variable not set")
			}
		case "anthropic", "claude":
			cfg.Semantic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			if cfg.Semantic.APIKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.Semantic.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}
