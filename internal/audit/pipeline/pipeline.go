// Package pipeline sequences the audit stages into one run: gate, rule
// retrieval, gap analysis, scoring, and report synthesis. Each stage commits
// either its live result or its fallback exactly once; only the gate and
// unexpected errors can abort a run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"finaudit/internal/audit/metrics"
	"finaudit/internal/audit/models"
	"finaudit/internal/audit/ports"
	"finaudit/internal/audit/scoring"
	id "finaudit/pkg/domain"
	dErrors "finaudit/pkg/domain-errors"
	"finaudit/pkg/requestcontext"
)

const defaultStageTimeout = 2 * time.Minute

// Input is one audit request after boundary validation and text extraction.
type Input struct {
	Document     models.ExtractedDocument
	DocumentName string
	Category     id.Category
	Requester    id.RequesterID
}

type Pipeline struct {
	gate        ports.Gatekeeper
	rules       ports.RuleProvider
	analyzer    ports.Analyzer
	synthesizer ports.Synthesizer

	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	stageTimeout time.Duration
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithStageTimeout bounds each stage's external call.
func WithStageTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.stageTimeout = d
		}
	}
}

// New wires the four stages into a pipeline. Stages are injected so runs are
// independently testable.
func New(gate ports.Gatekeeper, rules ports.RuleProvider, analyzer ports.Analyzer, synthesizer ports.Synthesizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		gate:         gate,
		rules:        rules,
		analyzer:     analyzer,
		synthesizer:  synthesizer,
		logger:       slog.Default(),
		tracer:       otel.Tracer("finaudit/pipeline"),
		stageTimeout: defaultStageTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one full audit. The audit id and timestamp are assigned here,
// before any stage runs, so artifacts can reference them.
func (p *Pipeline) Run(ctx context.Context, in Input) (models.Audit, error) {
	auditID := id.NewAuditID()
	createdAt := requestcontext.Now(ctx)
	started := time.Now()

	logger := p.logger.With("audit_id", auditID.String(), "category", in.Category.String())
	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("audit.id", auditID.String())))
	defer span.End()

	run := &runState{pipeline: p, logger: logger, state: StateExtracted}

	if in.Document.FullText == "" {
		return models.Audit{}, run.fail(ctx,
			dErrors.New(dErrors.CodeExtractionFailed, "document text is empty"))
	}
	logger.InfoContext(ctx, "pipeline started",
		"document_name", in.DocumentName, "pages", in.Document.PageCount)

	// Gate
	verdict, err := p.classify(ctx, in)
	if err != nil {
		return models.Audit{}, run.fail(ctx, err)
	}
	if err := run.advance(ctx, StateClassified); err != nil {
		return models.Audit{}, err
	}
	if !verdict.Accepted {
		run.transition(ctx, StateRejected)
		p.metrics.IncrementAborted(StateRejected.String())
		logger.InfoContext(ctx, "document rejected by gate",
			"detected_type", verdict.DetectedType, "reason", verdict.Reason)
		return models.Audit{}, dErrors.New(dErrors.CodeDocumentRejected,
			fmt.Sprintf("not a financial document: %s", verdict.Reason))
	}

	// Rules
	ruleSet, err := p.fetchRules(ctx, in.Category)
	if err != nil {
		return models.Audit{}, run.fail(ctx, err)
	}
	if ruleSet.Fallback {
		run.fellBack(ctx, "rules")
	}
	if err := run.advance(ctx, StateRulesFetched); err != nil {
		return models.Audit{}, err
	}

	// Analysis
	gaps, analysisFellBack, err := p.analyze(ctx, in, ruleSet.RulesText)
	if err != nil {
		return models.Audit{}, run.fail(ctx, err)
	}
	if analysisFellBack {
		run.fellBack(ctx, "analyzer")
	}
	if err := run.advance(ctx, StateAnalyzed); err != nil {
		return models.Audit{}, err
	}

	// Scoring
	score := scoring.Score(gaps)
	grade := scoring.GradeFor(score)
	if err := run.advance(ctx, StateScored); err != nil {
		return models.Audit{}, err
	}

	// Report
	synthesis, err := p.synthesize(ctx, ports.SynthesisInput{
		AuditID:      auditID,
		DocumentName: in.DocumentName,
		Category:     in.Category,
		Score:        score,
		Grade:        grade,
		Gaps:         gaps,
	})
	if err != nil {
		return models.Audit{}, run.fail(ctx, err)
	}
	if synthesis.Fallback {
		run.fellBack(ctx, "report")
	}
	if err := run.advance(ctx, StateReported); err != nil {
		return models.Audit{}, err
	}

	audit := models.Audit{
		ID:               auditID,
		Requester:        in.Requester,
		DocumentName:     in.DocumentName,
		Category:         in.Category,
		CreatedAt:        createdAt,
		Score:            score,
		Grade:            grade,
		ExecutiveSummary: synthesis.ExecutiveSummary,
		Remediation:      synthesis.Remediation,
		Gaps:             gaps,
		ReportPath:       "/api/files/" + synthesis.ReportPath,
		Timestamp:        models.WireTimestamp(createdAt),
	}
	if err := run.advance(ctx, StateComplete); err != nil {
		return models.Audit{}, err
	}

	p.metrics.IncrementCompleted(grade.String())
	p.metrics.ObservePipelineLatency(time.Since(started))
	logger.InfoContext(ctx, "pipeline complete",
		"score", score, "grade", grade.String(), "gap_count", len(gaps))
	return audit, nil
}

func (p *Pipeline) classify(ctx context.Context, in Input) (models.Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	ctx, span := p.tracer.Start(ctx, "pipeline.classify")
	defer span.End()
	return p.gate.Classify(ctx, in.Document, in.Category)
}

func (p *Pipeline) fetchRules(ctx context.Context, category id.Category) (models.RuleSet, error) {
	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	ctx, span := p.tracer.Start(ctx, "pipeline.rules")
	defer span.End()
	return p.rules.Rules(ctx, category)
}

func (p *Pipeline) analyze(ctx context.Context, in Input, rulesText string) ([]models.Gap, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	ctx, span := p.tracer.Start(ctx, "pipeline.analyze")
	defer span.End()
	return p.analyzer.Analyze(ctx, in.Document, in.Category, rulesText)
}

func (p *Pipeline) synthesize(ctx context.Context, in ports.SynthesisInput) (ports.SynthesisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	ctx, span := p.tracer.Start(ctx, "pipeline.report")
	defer span.End()
	return p.synthesizer.Synthesize(ctx, in)
}

// runState tracks one run's position in the state machine.
type runState struct {
	pipeline *Pipeline
	logger   *slog.Logger
	state    State
}

func (r *runState) advance(ctx context.Context, to State) error {
	if !CanTransition(r.state, to) {
		err := dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("illegal pipeline transition %s -> %s", r.state, to))
		r.logger.ErrorContext(ctx, "illegal pipeline transition",
			"from", r.state.String(), "to", to.String())
		r.state = StateFailed
		return err
	}
	r.transition(ctx, to)
	return nil
}

func (r *runState) transition(ctx context.Context, to State) {
	r.logger.DebugContext(ctx, "pipeline transition",
		"from", r.state.String(), "to", to.String())
	r.state = to
}

func (r *runState) fail(ctx context.Context, cause error) error {
	r.transition(ctx, StateFailed)
	r.pipeline.metrics.IncrementAborted(StateFailed.String())
	r.logger.ErrorContext(ctx, "pipeline failed",
		"state", r.state.String(), "error", cause)
	var coded *dErrors.Error
	if errors.As(cause, &coded) {
		return cause
	}
	return dErrors.Wrap(cause, dErrors.CodeInternal, "pipeline failed")
}

func (r *runState) fellBack(ctx context.Context, stage string) {
	r.pipeline.metrics.IncrementFallback(stage)
	r.logger.WarnContext(ctx, "stage committed fallback result", "stage", stage)
}
