// Package handler exposes the audit service over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-chi/chi/v5"

	"finaudit/internal/audit/models"
	"finaudit/internal/audit/service"
	id "finaudit/pkg/domain"
	dErrors "finaudit/pkg/domain-errors"
	"finaudit/pkg/platform/httputil"
	"finaudit/pkg/requestcontext"
)

// reportNamePattern is the only filename shape the files endpoint serves.
// Anything else (traversal attempts included) is a not-found.
var reportNamePattern = regexp.MustCompile(`^report_aud_[0-9a-f]{8}\.md$`)

// Service defines the audit operations the transport needs.
type Service interface {
	Run(ctx context.Context, req service.RunRequest) (models.Audit, error)
	Get(ctx context.Context, auditID id.AuditID) (models.Audit, error)
	History(ctx context.Context, requester id.RequesterID) ([]models.Summary, error)
}

type Handler struct {
	service    Service
	reportsDir string
	logger     *slog.Logger
}

func New(service Service, reportsDir string, logger *slog.Logger) *Handler {
	return &Handler{service: service, reportsDir: reportsDir, logger: logger}
}

// Register mounts the audit routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/audits", h.handleRunAudit)
	r.Get("/api/audits", h.handleHistory)
	r.Get("/api/audits/{auditID}", h.handleGetAudit)
	r.Get("/api/files/{filename}", h.handleServeReport)
}

type runAuditRequest struct {
	// UserID is the body-supplied requester identity, honored only when the
	// middleware put no authenticated identity in the context.
	UserID string `json:"user_id"`

	DocumentName string                   `json:"document_name"`
	DocumentType string                   `json:"document_type"`
	Document     models.ExtractedDocument `json:"document"`
}

func (h *Handler) handleRunAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[runAuditRequest](w, r)
	if !ok {
		return
	}

	requester := requestcontext.Requester(ctx)
	if requester.IsZero() {
		parsed, err := id.ParseRequesterID(req.UserID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		requester = parsed
	}

	audit, err := h.service.Run(ctx, service.RunRequest{
		Document:     req.Document,
		DocumentName: req.DocumentName,
		Category:     req.DocumentType,
		Requester:    requester,
	})
	if err != nil {
		h.logError(ctx, "audit run failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, audit)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester := requestcontext.Requester(ctx)
	if requester.IsZero() {
		parsed, err := id.ParseRequesterID(r.URL.Query().Get("user_id"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		requester = parsed
	}

	summaries, err := h.service.History(ctx, requester)
	if err != nil {
		h.logError(ctx, "history query failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"audits": summaries})
}

func (h *Handler) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	auditID, err := id.ParseAuditID(chi.URLParam(r, "auditID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit, err := h.service.Get(ctx, auditID)
	if err != nil {
		h.logError(ctx, "audit lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, audit)
}

func (h *Handler) handleServeReport(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !reportNamePattern.MatchString(filename) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "report not found"))
		return
	}

	path := filepath.Join(h.reportsDir, filename)
	if _, err := os.Stat(path); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "report not found"))
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	http.ServeFile(w, r, path)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "error", err}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.WarnContext(ctx, msg, attrs...)
}
