package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"veridoc/internal/model"
	"veridoc/internal/pipeline"
)

// Checker runs the validation pipeline for one input
type Checker interface {
	Run(ctx context.Context, in pipeline.RunInput) (*model.Report, error)
}

// Task names the files for one manifest entry
type Task struct {
	DocumentPath         string
	ExtractionPath       string
	SecondExtractionPath string
}

// CheckJob runs one task through the checker
type CheckJob struct {
	Task    Task
	Checker Checker
}

// Execute executes the check job
func (j *CheckJob) Execute(ctx context.Context) Result {
	report, err := j.Checker.Run(ctx, pipeline.RunInput{
		DocumentPath:         j.Task.DocumentPath,
		ExtractionPath:       j.Task.ExtractionPath,
		SecondExtractionPath: j.Task.SecondExtractionPath,
	})
	return &CheckResult{
		Task:   j.Task,
		Report: report,
		Error:  err,
	}
}

// CheckResult is the result of one check job
type CheckResult struct {
	Task   Task
	Report *model.Report
	Error  error
}

// GetError returns the error from the check result
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor checks multiple documents concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessTasks checks the given tasks concurrently
func (b *BatchProcessor) ProcessTasks(ctx context.Context, tasks []Task) []*CheckResult {
	if len(tasks) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, task := range tasks {
		pool.Submit(&CheckJob{
			Task:    task,
			Checker: b.checker,
		})
	}

	results := pool.Wait()

	checkResults := make([]*CheckResult, len(results))
	for i, result := range results {
		checkResults[i] = result.(*CheckResult)
	}

	return checkResults
}

// ProcessManifest reads tasks from a manifest file and checks them
// concurrently
func (b *BatchProcessor) ProcessManifest(ctx context.Context, path string) ([]*CheckResult, error) {
	tasks, err := ReadManifest(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return b.ProcessTasks(ctx, tasks), nil
}

// ReadManifest parses a batch manifest. Each line names a document
// image and its extraction file, optionally followed by a second
// extraction for cross-model comparison:
//
//	document.png extraction.json [second_extraction.json]
//
// Empty lines and # comments are skipped, duplicate lines collapsed.
func ReadManifest(path string) ([]Task, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer func() { _ = file.Close() }()

	var tasks []Task
	seen := make(map[string]bool)

	lineNo := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true

		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("manifest line %d: want document and extraction paths, got %d fields", lineNo, len(fields))
		}

		task := Task{
			DocumentPath:   fields[0],
			ExtractionPath: fields[1],
		}
		if len(fields) == 3 {
			task.SecondExtractionPath = fields[2]
		}
		tasks = append(tasks, task)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan manifest: %w", err)
	}

	return tasks, nil
}
