// Package service is the application layer over the audit pipeline: input
// validation, persistence, event publishing, and the query surface.
package service

import (
	"context"
	"errors"
	"log/slog"

	"finaudit/internal/audit/models"
	"finaudit/internal/audit/pipeline"
	"finaudit/internal/audit/ports"
	id "finaudit/pkg/domain"
	dErrors "finaudit/pkg/domain-errors"
	"finaudit/pkg/platform/sentinel"
)

// Runner executes one audit pipeline run.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) (models.Audit, error)
}

// Publisher emits completed-audit events. A nil Publisher disables
// publishing.
type Publisher interface {
	PublishCompleted(ctx context.Context, audit models.Audit) error
}

type Service struct {
	runner    Runner
	store     ports.Store
	publisher Publisher
	logger    *slog.Logger

	maxDocumentBytes int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// WithMaxDocumentBytes bounds the accepted extracted text size.
func WithMaxDocumentBytes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxDocumentBytes = n
		}
	}
}

func NewService(runner Runner, store ports.Store, opts ...Option) *Service {
	s := &Service{
		runner:           runner,
		store:            store,
		logger:           slog.Default(),
		maxDocumentBytes: 10 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunRequest is one boundary-validated audit request.
type RunRequest struct {
	Document     models.ExtractedDocument
	DocumentName string
	Category     string
	Requester    id.RequesterID
}

// Run validates the request, executes the pipeline, persists the result, and
// publishes the completion event. Persistence and publishing failures are
// logged and swallowed; the in-memory audit is the authoritative response.
func (s *Service) Run(ctx context.Context, req RunRequest) (models.Audit, error) {
	category, err := id.ParseCategory(req.Category)
	if err != nil {
		return models.Audit{}, err
	}
	if req.Requester.IsZero() {
		return models.Audit{}, dErrors.New(dErrors.CodeInvalidInput, "requester is required")
	}
	if req.DocumentName == "" {
		return models.Audit{}, dErrors.New(dErrors.CodeInvalidInput, "document name is required")
	}
	if req.Document.FullText == "" {
		return models.Audit{}, dErrors.New(dErrors.CodeExtractionFailed, "document text is empty")
	}
	if len(req.Document.FullText) > s.maxDocumentBytes {
		return models.Audit{}, dErrors.New(dErrors.CodeInvalidInput, "document text exceeds size limit")
	}

	audit, err := s.runner.Run(ctx, pipeline.Input{
		Document:     req.Document,
		DocumentName: req.DocumentName,
		Category:     category,
		Requester:    req.Requester,
	})
	if err != nil {
		return models.Audit{}, err
	}

	if err := s.store.Save(ctx, audit); err != nil {
		s.logger.ErrorContext(ctx, "audit persistence failed, returning in-memory result",
			"audit_id", audit.ID.String(), "error", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishCompleted(ctx, audit); err != nil {
			s.logger.ErrorContext(ctx, "completed-event publish failed",
				"audit_id", audit.ID.String(), "error", err)
		}
	}
	return audit, nil
}

// Get returns the full audit record for a detail query.
func (s *Service) Get(ctx context.Context, auditID id.AuditID) (models.Audit, error) {
	audit, err := s.store.Get(ctx, auditID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Audit{}, dErrors.Wrap(err, dErrors.CodeNotFound, "audit not found")
		}
		return models.Audit{}, dErrors.Wrap(err, dErrors.CodeInternal, "load audit")
	}
	return audit, nil
}

// History returns the requester's audit summaries, newest first.
func (s *Service) History(ctx context.Context, requester id.RequesterID) ([]models.Summary, error) {
	if requester.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "requester is required")
	}
	summaries, err := s.store.ListByRequester(ctx, requester)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load audit history")
	}
	return summaries, nil
}
