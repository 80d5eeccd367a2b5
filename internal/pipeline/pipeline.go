// Package pipeline orchestrates the validation stages and folds their
// outcomes into an auditable decision record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"veridoc/internal/cache"
	"veridoc/internal/extract"
	"veridoc/internal/llm"
	"veridoc/internal/metrics"
	"veridoc/internal/model"
	"veridoc/internal/schema"
	"veridoc/internal/validate"
)

// RateLimiter gates outbound model calls per provider
type RateLimiter interface {
	Wait(ctx context.Context, key string) error
}

// Pipeline runs the full check for one extraction: schema and rule
// validation always, semantic validation when a provider is
// configured, cross-model comparison when a second extraction is
// supplied.
type Pipeline struct {
	registry   *schema.Registry
	schemaV    *validate.SchemaValidator
	ruleV      *validate.RuleValidator
	semanticV  *validate.SemanticValidator
	crossV     *validate.CrossModelValidator
	aggregator *Aggregator
	loader     *DocumentLoader

	provider  llm.Provider
	extractor *extract.Extractor
	cache     cache.Cache
	limiter   RateLimiter

	logger  *zap.Logger
	metrics *metrics.Metrics
	config  *model.Config
}

// NewPipeline wires a pipeline from configuration. A nil limiter,
// logger or metrics disables the respective concern.
func NewPipeline(cfg *model.Config, limiter RateLimiter, logger *zap.Logger, m *metrics.Metrics) (*Pipeline, error) {
	registry, err := schema.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("schema registry: %w", err)
	}
	if cfg.Schemas.Dir != "" {
		if err := registry.LoadDir(cfg.Schemas.Dir); err != nil {
			return nil, fmt.Errorf("load schemas: %w", err)
		}
	}

	var provider llm.Provider
	var extractor *extract.Extractor
	if cfg.Semantic.Enabled {
		provider, err = llm.NewProvider(llm.ConfigFromSemantic(cfg.Semantic))
		if err != nil {
			return nil, fmt.Errorf("semantic provider: %w", err)
		}
		if provider != nil {
			extractor = extract.NewExtractor(provider)
		}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	policy := validate.NewSeverityPolicy(&cfg.Policy)

	return &Pipeline{
		registry:   registry,
		schemaV:    validate.NewSchemaValidator(),
		ruleV:      validate.NewRuleValidator(),
		semanticV:  validate.NewSemanticValidator(policy),
		crossV:     validate.NewCrossModelValidator(policy),
		aggregator: NewAggregator(),
		loader:     NewDocumentLoader(0),
		provider:   provider,
		extractor:  extractor,
		cache:      cache.FromConfig(cfg.Cache),
		limiter:    limiter,
		logger:     logger,
		metrics:    m,
		config:     cfg,
	}, nil
}

// Registry exposes the schema registry for introspection commands
func (p *Pipeline) Registry() *schema.Registry {
	return p.registry
}

// RunInput names the inputs of one check. Paths are resolved lazily;
// callers that already hold the data set the in-memory fields instead.
type RunInput struct {
	DocumentPath         string
	ExtractionPath       string
	SecondExtractionPath string
	DocType              string // Overrides the extraction's own type field

	Document         []byte
	MIME             string
	Extraction       model.ExtractionResult
	SecondExtraction model.ExtractionResult
}

// Run executes all applicable stages for one extraction and returns
// the persisted report envelope. Stage failures become faulted
// outcomes inside the decision, never errors; an error return means
// the run itself could not be set up.
func (p *Pipeline) Run(ctx context.Context, in RunInput) (*model.Report, error) {
	started := time.Now()
	state := model.RunPending
	p.logger.Debug("run state", zap.String("state", string(state)))

	doc, err := p.resolveDocument(in)
	if err != nil {
		return nil, err
	}

	extraction, extractionInfo, err := p.resolveExtraction(ctx, in, doc)
	if err != nil {
		return nil, err
	}

	second, err := p.resolveSecond(in)
	if err != nil {
		return nil, err
	}

	docType := in.DocType
	if docType == "" {
		docType = extraction.DocType()
	}

	s, err := p.registry.ForType(docType)
	if err != nil {
		// An unroutable extraction is a verdict, not a setup failure:
		// the type field is itself extracted data and it is wrong.
		report := p.buildReport(doc, in, docType, extraction, p.unknownTypeDecision(docType, err), extractionInfo)
		p.observe(report, started)
		return report, nil
	}

	stages := make(map[string]model.ValidatorOutcome, 4)
	required := []string{model.StageSchema, model.StageRule}

	var schemaOut, ruleOut, semanticOut, crossOut model.ValidatorOutcome
	var semanticInfo model.ModelInfo

	runSemantic := p.provider != nil
	runCross := second != nil
	if runSemantic {
		required = append(required, model.StageSemantic)
	}
	if runCross {
		required = append(required, model.StageCrossModel)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		schemaOut = p.schemaV.Validate(extraction, s)
		return nil
	})
	g.Go(func() error {
		ruleOut = p.ruleV.Validate(extraction, s)
		return nil
	})
	if runSemantic {
		g.Go(func() error {
			semanticOut, semanticInfo = p.runSemantic(gctx, doc, extraction, s)
			return nil
		})
	}
	if runCross {
		g.Go(func() error {
			crossOut = p.crossV.Compare(extraction, second, s)
			return nil
		})
	}
	// Stage goroutines fault their outcome instead of returning errors
	_ = g.Wait()

	stages[model.StageSchema] = schemaOut
	state = model.RunSchemaChecked
	p.logger.Debug("run state", zap.String("state", string(state)))

	stages[model.StageRule] = ruleOut
	state = model.RunRuleChecked
	p.logger.Debug("run state", zap.String("state", string(state)))

	if runSemantic {
		stages[model.StageSemantic] = semanticOut
		state = model.RunSemanticChecked
		p.logger.Debug("run state", zap.String("state", string(state)))
	}
	if runCross {
		stages[model.StageCrossModel] = crossOut
	}

	record, err := p.aggregator.Aggregate(stages, required)
	if err != nil {
		return nil, err
	}
	state = model.RunAggregated
	p.logger.Debug("run state", zap.String("state", string(state)))

	info := semanticInfo
	if info == (model.ModelInfo{}) {
		info = extractionInfo
	}

	report := p.buildReport(doc, in, s.Type, extraction, record, info)
	p.observe(report, started)

	p.logger.Info("check complete",
		zap.String("doc_type", report.DocType),
		zap.String("status", string(record.FinalStatus)),
		zap.Int("findings", len(record.Findings)),
		zap.Duration("elapsed", time.Since(started)))

	return report, nil
}

// resolveDocument loads the document image when a path is given. The
// document is optional unless semantic validation needs it.
func (p *Pipeline) resolveDocument(in RunInput) (*Document, error) {
	if in.Document != nil {
		name := in.DocumentPath
		if name == "" {
			name = "document"
		}
		mime := in.MIME
		if mime == "" {
			mime = detectMIME(name, in.Document)
		}
		return &Document{Path: in.DocumentPath, Name: name, Bytes: in.Document, MIME: mime}, nil
	}
	if in.DocumentPath == "" {
		if p.provider != nil {
			return nil, errors.New("semantic validation requires the document image")
		}
		return nil, nil
	}
	return p.loader.Load(in.DocumentPath)
}

// resolveExtraction returns the extraction under check. With no
// extraction supplied it falls back to extracting from the document,
// which needs a configured provider.
func (p *Pipeline) resolveExtraction(ctx context.Context, in RunInput, doc *Document) (model.ExtractionResult, model.ModelInfo, error) {
	if in.Extraction != nil {
		return in.Extraction, model.ModelInfo{}, nil
	}
	if in.ExtractionPath != "" {
		res, err := extract.LoadExtractionFile(in.ExtractionPath)
		if err != nil {
			return nil, model.ModelInfo{}, err
		}
		return res, model.ModelInfo{}, nil
	}

	if p.extractor == nil {
		return nil, model.ModelInfo{}, errors.New("no extraction supplied and no provider configured to produce one")
	}
	if doc == nil {
		return nil, model.ModelInfo{}, errors.New("no extraction and no document supplied")
	}
	if in.DocType == "" {
		return nil, model.ModelInfo{}, errors.New("extracting from the document requires an explicit document type")
	}
	s, err := p.registry.ForType(in.DocType)
	if err != nil {
		return nil, model.ModelInfo{}, err
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, p.provider.Name()); err != nil {
			return nil, model.ModelInfo{}, err
		}
	}
	res, err := p.extractor.Extract(ctx, doc.Bytes, doc.MIME, s)
	if err != nil {
		return nil, model.ModelInfo{}, fmt.Errorf("extract: %w", err)
	}
	p.logger.Debug("extracted from document",
		zap.String("model", res.Model),
		zap.Duration("elapsed", res.Duration))
	return res.Data, model.ModelInfo{SemanticProvider: p.provider.Name(), SemanticModel: res.Model}, nil
}

func (p *Pipeline) resolveSecond(in RunInput) (model.ExtractionResult, error) {
	if in.SecondExtraction != nil {
		return in.SecondExtraction, nil
	}
	if in.SecondExtractionPath == "" {
		return nil, nil
	}
	return extract.LoadExtractionFile(in.SecondExtractionPath)
}

// runSemantic asks the judge model to re-derive the fields from the
// document and maps its judgement to findings. Judgements are cached
// by document content and model.
func (p *Pipeline) runSemantic(ctx context.Context, doc *Document, extraction model.ExtractionResult, s schema.DocSchema) (model.ValidatorOutcome, model.ModelInfo) {
	info := model.ModelInfo{
		SemanticProvider: p.provider.Name(),
		SemanticModel:    p.config.Semantic.Model,
	}
	start := time.Now()

	if doc == nil {
		return model.FaultedOutcome("no document available for semantic validation", time.Since(start)), info
	}

	key := cache.JudgementKey(doc.Bytes, p.config.Semantic.Model)
	if p.cache != nil {
		if data, ok := p.cache.Get(key); ok {
			p.metrics.IncrementCacheLookup(true)
			info.FromCache = true
			return p.semanticV.Evaluate(string(data), time.Since(start), s), info
		}
		p.metrics.IncrementCacheLookup(false)
	}

	raw, callDur, err := p.callJudge(ctx, doc, extraction)
	if err != nil {
		return model.FaultedOutcome(err.Error(), time.Since(start)), info
	}
	out := p.semanticV.Evaluate(raw, callDur, s)

	// A garbled judgement gets a bounded number of fresh attempts
	// before the unparseable fallback stands.
	for attempt := 0; attempt < p.config.Semantic.RetryParse && unparseable(out); attempt++ {
		p.logger.Warn("judgement unparseable, retrying", zap.Int("attempt", attempt+1))
		retryRaw, retryDur, retryErr := p.callJudge(ctx, doc, extraction)
		if retryErr != nil {
			break
		}
		if retryOut := p.semanticV.Evaluate(retryRaw, retryDur, s); !unparseable(retryOut) {
			out, raw = retryOut, retryRaw
			break
		}
	}

	if p.cache != nil && !unparseable(out) {
		if err := p.cache.Set(key, []byte(raw), 0); err != nil {
			p.logger.Warn("cache judgement", zap.Error(err))
		}
	}
	return out, info
}

func (p *Pipeline) callJudge(ctx context.Context, doc *Document, extraction model.ExtractionResult) (string, time.Duration, error) {
	system, user, err := llm.BuildJudgePrompts(extraction)
	if err != nil {
		return "", 0, err
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, p.provider.Name()); err != nil {
			return "", 0, err
		}
	}

	start := time.Now()
	completion, err := p.provider.Complete(ctx, llm.VisionRequest{
		System:      system,
		Prompt:      user,
		Document:    doc.Bytes,
		MIME:        doc.MIME,
		Model:       p.config.Semantic.Model,
		MaxTokens:   p.config.Semantic.MaxTokens,
		Temperature: p.config.Semantic.Temperature,
		ForceJSON:   true,
	})
	if err != nil {
		return "", time.Since(start), fmt.Errorf("judge call: %w", err)
	}
	return completion.Content, time.Since(start), nil
}

func unparseable(out model.ValidatorOutcome) bool {
	return len(out.Findings) == 1 && out.Findings[0].Code == model.CodeSemanticUnparseable
}

// unknownTypeDecision renders an unroutable extraction as a decision:
// the schema stage carries the error finding and the rule stage is
// faulted because rules cannot run without a schema.
func (p *Pipeline) unknownTypeDecision(docType string, cause error) model.DecisionRecord {
	finding := model.Finding{
		Severity: model.SeverityError,
		Code:     model.CodeUnknownDocType,
		Field:    "typ",
		Message:  cause.Error(),
		Source:   model.SourceSchema,
	}
	stages := map[string]model.ValidatorOutcome{
		model.StageSchema: model.NewOutcome([]model.Finding{finding}, 0),
		model.StageRule:   model.FaultedOutcome(fmt.Sprintf("no schema for document type %q", docType), 0),
	}
	record, _ := p.aggregator.Aggregate(stages, []string{model.StageSchema, model.StageRule})
	return record
}

func (p *Pipeline) buildReport(doc *Document, in RunInput, docType string, extraction model.ExtractionResult, record model.DecisionRecord, info model.ModelInfo) *model.Report {
	docInfo := model.DocumentInfo{Path: in.ExtractionPath}
	if docInfo.Path != "" {
		docInfo.Name = filepath.Base(docInfo.Path)
	}
	if doc != nil {
		docInfo = model.DocumentInfo{Path: doc.Path, Name: doc.Name}
	}
	return &model.Report{
		RunID:      uuid.NewString(),
		Document:   docInfo,
		DocType:    docType,
		Decision:   record,
		Extraction: extraction,
		Models:     info,
		CreatedAt:  time.Now().UTC(),
	}
}

func (p *Pipeline) observe(report *model.Report, started time.Time) {
	p.metrics.IncrementDecision(string(report.Decision.FinalStatus), report.DocType)
	for stage, out := range report.Decision.PerStage {
		if out.Status == model.StageError {
			p.metrics.IncrementStageFault(stage)
		}
	}
	p.metrics.ObserveRunLatency(time.Since(started))
}
