// Package ports defines the interfaces between the orchestrator, its stages,
// and the infrastructure. Stages are injected at construction time so
// pipeline instances stay independently testable.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"finaudit/internal/audit/models"
	id "finaudit/pkg/domain"
)

// Gatekeeper decides whether an extracted document is a legitimate instance
// of its declared category. Implementations must fail open (accept) when no
// classification capability is configured and fail closed (reject) when the
// capability is configured but returns unusable output.
type Gatekeeper interface {
	Classify(ctx context.Context, doc models.ExtractedDocument, declared id.Category) (models.Verdict, error)
}

// RuleProvider returns the compliance rule set for a category. Live
// retrieval failures must be absorbed into the static fallback; errors from
// here abort the pipeline and should therefore be reserved for programming
// mistakes.
type RuleProvider interface {
	Rules(ctx context.Context, category id.Category) (models.RuleSet, error)
}

// Analyzer finds compliance gaps in a document given the rule text. The
// second return reports whether the fallback (illustrative) gap list was
// used.
type Analyzer interface {
	Analyze(ctx context.Context, doc models.ExtractedDocument, category id.Category, rulesText string) ([]models.Gap, bool, error)
}

// SynthesisInput carries everything the Report Synthesizer needs.
type SynthesisInput struct {
	AuditID      id.AuditID
	DocumentName string
	Category     id.Category
	Score        int
	Grade        id.Grade
	Gaps         []models.Gap
}

// SynthesisResult is the synthesizer's output: a summary, exactly
// models.RemediationCount remediation steps, and the artifact reference.
type SynthesisResult struct {
	ExecutiveSummary string
	Remediation      []string
	ReportPath       string
	Fallback         bool
}

// Synthesizer produces the executive summary, the remediation plan, and the
// report artifact.
type Synthesizer interface {
	Synthesize(ctx context.Context, in SynthesisInput) (SynthesisResult, error)
}

// Store persists completed audits. Writes are once-per-audit-id; reads serve
// the history and detail queries.
type Store interface {
	Save(ctx context.Context, audit models.Audit) error
	Get(ctx context.Context, auditID id.AuditID) (models.Audit, error)
	ListByRequester(ctx context.Context, requester id.RequesterID) ([]models.Summary, error)
}
