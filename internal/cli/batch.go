package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"veridoc/internal/metrics"
	"veridoc/internal/model"
	"veridoc/internal/pipeline"
	"veridoc/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
	metricsAddr  string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Validate multiple extractions from a manifest in parallel",
	Long: `Batch checks many documents concurrently:
- Read tasks from a manifest file (document and extraction per line)
- Run the full validation pipeline per task with a worker pool
- Share one judgement cache and one per-provider rate limit
- Persist an individual decision record per document

Manifest format, one task per line:
  document.png extraction.json [second_extraction.json]

Example:
  veridoc batch manifest.txt
  veridoc batch manifest.txt --concurrency 8 --results-dir ./decisions
  veridoc batch manifest.txt --semantic --provider ollama --model llava`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address (e.g. :9090)")

	batchCmd.Flags().StringVar(&resultsDir, "results-dir", "results", "directory for persisted decision records")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the judgement cache")
	batchCmd.Flags().StringVar(&schemaDir, "schema-dir", "", "directory with additional YAML schema definitions")

	batchCmd.Flags().BoolVar(&semanticEnabled, "semantic", false, "enable semantic validation by an independent vision model")
	batchCmd.Flags().StringVar(&semanticProvider, "provider", "openai", "judge provider (openai, mistral, anthropic, ollama)")
	batchCmd.Flags().StringVar(&semanticModel, "model", "gpt-4o", "judge model name")
	batchCmd.Flags().StringVar(&semanticBaseURL, "base-url", "", "judge provider base URL override")
}

func runBatch(cmd *cobra.Command, args []string) error {
	manifest := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Concurrency.BatchWorkers = concurrency
	cfg.Output.MetricsAddr = metricsAddr

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	var m *metrics.Metrics
	if cfg.Output.MetricsAddr != "" {
		m = metrics.New()
		go func() {
			if err := metrics.Serve(cfg.Output.MetricsAddr); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
	}

	limiter := worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst)
	p, err := pipeline.NewPipeline(cfg, limiter, logger, m)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Manifest:   %s\n", manifest)
	fmt.Fprintf(os.Stderr, "Workers:    %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "Results:    %s\n", cfg.Output.ResultsDir)
	if semanticEnabled {
		fmt.Fprintf(os.Stderr, "Judge:      %s/%s\n", semanticProvider, semanticModel)
	}
	fmt.Fprintln(os.Stderr)

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.BatchWorkers)
	results, err := processor.ProcessManifest(ctx, manifest)
	if err != nil {
		return fmt.Errorf("process manifest: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.ResultsDir)

	var counts struct {
		valid, review, invalid, failed int
	}
	for _, result := range results {
		if result.Error != nil {
			counts.failed++
			fmt.Fprintf(os.Stderr, "FAILED  %s: %v\n", result.Task.DocumentPath, result.Error)
			continue
		}

		switch result.Report.Decision.FinalStatus {
		case model.StatusValid:
			counts.valid++
		case model.StatusReviewNeeded:
			counts.review++
		case model.StatusInvalid:
			counts.invalid++
		}

		path, err := renderer.WriteReport(result.Report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAILED  %s: persist decision: %v\n", result.Task.DocumentPath, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "%-14s %s -> %s\n", result.Report.Decision.FinalStatus, result.Report.Document.Name, path)
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Total:          %d\n", len(results))
	fmt.Fprintf(os.Stderr, "Valid:          %d\n", counts.valid)
	fmt.Fprintf(os.Stderr, "Review needed:  %d\n", counts.review)
	fmt.Fprintf(os.Stderr, "Invalid:        %d\n", counts.invalid)
	fmt.Fprintf(os.Stderr, "Failed:         %d\n", counts.failed)

	if counts.failed > 0 {
		return fmt.Errorf("%d of %d checks failed", counts.failed, len(results))
	}
	return nil
}
