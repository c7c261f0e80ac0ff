// Package gate implements the document gatekeeper: the accept/reject decision
// made before any analysis runs. The gate fails open when no classification
// capability is configured and fails closed when the capability answers with
// something unusable.
package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"finaudit/internal/audit/models"
	"finaudit/internal/llm"
	id "finaudit/pkg/domain"
)

// previewLimit bounds how much document text goes into the classification
// prompt. The opening pages are enough to identify a document type.
const previewLimit = 3000

type Gatekeeper struct {
	client llm.Client
	logger *slog.Logger
}

type Option func(*Gatekeeper)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gatekeeper) { g.logger = logger }
}

// New builds a gatekeeper. A nil client means no classification capability is
// configured and every document is accepted with a skip notice.
func New(client llm.Client, opts ...Option) *Gatekeeper {
	g := &Gatekeeper{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type verdictPayload struct {
	IsFinancialDocument bool   `json:"is_financial_document"`
	DetectedType        string `json:"detected_type"`
	Reason              string `json:"reason"`
}

func (g *Gatekeeper) Classify(ctx context.Context, doc models.ExtractedDocument, declared id.Category) (models.Verdict, error) {
	if g.client == nil {
		g.logger.InfoContext(ctx, "classification skipped, no capability configured",
			"declared_category", declared.String())
		return models.Verdict{
			Accepted: true,
			Reason:   "Skipping validation (no classification capability configured)",
		}, nil
	}

	resp, err := g.client.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: classificationPrompt(doc, declared)}},
	})
	if err != nil {
		g.logger.ErrorContext(ctx, "classification call failed, rejecting document",
			"declared_category", declared.String(), "error", err)
		return models.Verdict{
			Accepted: false,
			Reason:   "Validation failed: classification backend did not respond.",
		}, nil
	}

	raw, err := llm.ExtractJSON(resp.Content)
	if err != nil {
		return g.rejectUnparseable(ctx, declared, err), nil
	}
	var payload verdictPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return g.rejectUnparseable(ctx, declared, err), nil
	}

	verdict := models.Verdict{
		Accepted:     payload.IsFinancialDocument,
		DetectedType: payload.DetectedType,
		Reason:       payload.Reason,
	}
	g.logger.InfoContext(ctx, "document classified",
		"declared_category", declared.String(),
		"accepted", verdict.Accepted,
		"detected_type", verdict.DetectedType)
	return verdict, nil
}

func (g *Gatekeeper) rejectUnparseable(ctx context.Context, declared id.Category, cause error) models.Verdict {
	g.logger.ErrorContext(ctx, "classification output unparseable, rejecting document",
		"declared_category", declared.String(), "error", cause)
	return models.Verdict{
		Accepted: false,
		Reason:   "Validation failed: classifier returned unparseable output.",
	}
}

func classificationPrompt(doc models.ExtractedDocument, declared id.Category) string {
	preview := doc.FullText
	if len(preview) > previewLimit {
		preview = preview[:previewLimit]
	}
	return fmt.Sprintf(`You are a document intake specialist. Your task is to verify whether the following document text is from a real financial document.

DOCUMENT TEXT (first portion):
---
%s
---

### RULES ###
1. Classify based ONLY on the document text above.
2. Is this a financial/regulatory document (e.g. SEC filing, annual report, invoice, audit report)? A resume, essay, or random PDF is NOT financial.
3. The declared type is %q; note the detected type even when it differs.
4. Your final answer MUST be a raw JSON object. Do not include markdown blocks or conversational text.

Provide your result as structured JSON:
{
  "is_financial_document": boolean,
  "detected_type": "what type of document this appears to be (e.g. 10-K, 8-K, Invoice, Resume, etc.)",
  "reason": "Brief explanation of what you saw in the document."
}`, preview, declared.String())
}
