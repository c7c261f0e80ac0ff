// Package analyzer finds compliance gaps in an extracted document given the
// applicable rule text. Live analysis goes through the chat backend; any
// failure routes to fixed illustrative gap lists flagged as fallback.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"finaudit/internal/audit/models"
	"finaudit/internal/llm"
	id "finaudit/pkg/domain"
)

type Analyzer struct {
	client llm.Client
	logger *slog.Logger
}

type Option func(*Analyzer)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// New builds an analyzer. A nil client means the fallback gap list is used
// for every document.
func New(client llm.Client, opts ...Option) *Analyzer {
	a := &Analyzer{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type gapPayload struct {
	Gaps []struct {
		Severity    string            `json:"severity"`
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Regulation  string            `json:"regulation"`
		Locations   []models.Location `json:"locations"`
	} `json:"gaps"`
}

// Analyze returns the gaps found in doc. The second return reports whether
// the fallback list was used.
func (a *Analyzer) Analyze(ctx context.Context, doc models.ExtractedDocument, category id.Category, rulesText string) ([]models.Gap, bool, error) {
	if a.client == nil {
		a.logger.InfoContext(ctx, "gap analysis has no capability configured, using fallback",
			"category", category.String())
		return fallbackGaps(category), true, nil
	}

	resp, err := a.client.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: analysisPrompt(doc, category, rulesText)}},
	})
	if err != nil {
		a.logger.WarnContext(ctx, "live gap analysis failed, using fallback",
			"category", category.String(), "error", err)
		return fallbackGaps(category), true, nil
	}

	gaps, err := decodeGaps(resp.Content)
	if err != nil {
		a.logger.WarnContext(ctx, "gap analysis output unparseable, using fallback",
			"category", category.String(), "error", err)
		return fallbackGaps(category), true, nil
	}
	return gaps, false, nil
}

// decodeGaps is the strict decode boundary: schema violations are treated
// like a backend outage. Individual gaps with unusable severities or empty
// titles are dropped rather than failing the whole list.
func decodeGaps(content string) ([]models.Gap, error) {
	raw, err := llm.ExtractJSON(content)
	if err != nil {
		return nil, err
	}
	var payload gapPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode gap list: %w", err)
	}

	gaps := make([]models.Gap, 0, len(payload.Gaps))
	for _, g := range payload.Gaps {
		severity, ok := normalizeSeverity(g.Severity)
		if !ok {
			continue
		}
		title := strings.TrimSpace(g.Title)
		if title == "" {
			continue
		}
		gaps = append(gaps, models.Gap{
			Severity:    severity,
			Title:       title,
			Description: strings.TrimSpace(g.Description),
			Regulation:  strings.TrimSpace(g.Regulation),
			Locations:   g.Locations,
		})
	}
	return gaps, nil
}

func analysisPrompt(doc models.ExtractedDocument, category id.Category, rulesText string) string {
	rules := strings.TrimSpace(rulesText)
	if rules == "" {
		rules = "General financial document compliance standards apply."
	}

	var pages strings.Builder
	for _, page := range doc.Pages {
		fmt.Fprintf(&pages, "\n\n--- PAGE %d ---\n%s", page.Number, page.Text)
	}

	return fmt.Sprintf(`You are a compliance analyst reviewing a %s document.

COMPLIANCE RULES TO CHECK AGAINST:
%s

DOCUMENT CONTENT (with page numbers):
%s

TASK:
Analyze this document against the compliance rules above. For each compliance gap you find:
1. Identify the severity (critical, high, or medium)
2. Give it a clear, specific title
3. Provide a detailed description of what's missing or non-compliant
4. Reference the specific regulation it violates
5. Quote the exact text from the document that indicates the gap, noting which page it's on

Focus on finding real gaps based on what's actually in (or missing from) the document.
If the document is very short or lacks substantive content, note that as a gap itself.

Provide your analysis as structured JSON with the following format:
{
  "gaps": [
    {
      "severity": "critical|high|medium",
      "title": "Short descriptive title",
      "description": "Detailed explanation of the compliance gap",
      "regulation": "Specific regulation reference",
      "locations": [
        {
          "page": 1,
          "quote": "Exact text from document",
          "context": "Section or heading where found"
        }
      ]
    }
  ]
}

Identify 2-4 gaps that are genuinely present based on the document content.`, category.String(), rules, pages.String())
}
