package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finaudit/internal/audit/models"
	"finaudit/internal/llm"
	id "finaudit/pkg/domain"
)

type stubClient struct {
	resp llm.ChatResponse
	err  error
	last llm.ChatRequest
}

func (s *stubClient) Chat(_ context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	s.last = req
	return s.resp, s.err
}

func doc() models.ExtractedDocument {
	return models.ExtractedDocument{
		FullText: "Invoice #1042\nTotal due: $12,000",
		Pages: []models.Page{
			{Number: 1, Text: "Invoice #1042"},
			{Number: 2, Text: "Total due: $12,000"},
		},
		PageCount: 2,
	}
}

func TestNormalizeSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want id.Severity
		ok   bool
	}{
		{"critical", id.SeverityCritical, true},
		{"CRITICAL", id.SeverityCritical, true},
		{"severe", id.SeverityCritical, true},
		{"blocker", id.SeverityCritical, true},
		{"high", id.SeverityHigh, true},
		{"major", id.SeverityHigh, true},
		{"medium", id.SeverityMedium, true},
		{"minor", id.SeverityMedium, true},
		{"moderate", id.SeverityMedium, true},
		{"low", id.SeverityMedium, true},
		{"  high  ", id.SeverityHigh, true},
		{"catastrophic", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := normalizeSeverity(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestAnalyze_NoCapabilityUsesFallback(t *testing.T) {
	a := New(nil)

	gaps, fallback, err := a.Analyze(context.Background(), doc(), id.CategorySOX404, "rules")
	require.NoError(t, err)
	assert.True(t, fallback)
	require.Len(t, gaps, 3)
	assert.Equal(t, id.SeverityCritical, gaps[0].Severity)
}

func TestAnalyze_LiveFailureUsesFallback(t *testing.T) {
	a := New(&stubClient{err: errors.New("timeout")})

	gaps, fallback, err := a.Analyze(context.Background(), doc(), id.CategoryInvoice, "rules")
	require.NoError(t, err)
	assert.True(t, fallback)
	assert.NotEmpty(t, gaps)
}

func TestAnalyze_UnparseableOutputUsesFallback(t *testing.T) {
	a := New(&stubClient{resp: llm.ChatResponse{Content: "the document looks mostly fine"}})

	gaps, fallback, err := a.Analyze(context.Background(), doc(), id.CategoryTenK, "rules")
	require.NoError(t, err)
	assert.True(t, fallback)
	assert.NotEmpty(t, gaps)
}

func TestAnalyze_DecodesLiveGaps(t *testing.T) {
	content := `{
		"gaps": [
			{
				"severity": "critical",
				"title": "Missing Authorized Signature",
				"description": "Invoice over $10K carries no approval signature.",
				"regulation": "Internal Controls - Invoice Approval",
				"locations": [{"page": 2, "quote": "Total due: $12,000", "context": "Totals"}]
			},
			{
				"severity": "major",
				"title": "No Purchase Order Reference",
				"description": "No PO number anywhere on the invoice.",
				"regulation": "Procurement Controls",
				"locations": []
			}
		]
	}`
	a := New(&stubClient{resp: llm.ChatResponse{Content: content}})

	gaps, fallback, err := a.Analyze(context.Background(), doc(), id.CategoryInvoice, "rules")
	require.NoError(t, err)
	assert.False(t, fallback)
	require.Len(t, gaps, 2)
	assert.Equal(t, id.SeverityCritical, gaps[0].Severity)
	assert.Equal(t, 2, gaps[0].Locations[0].Page)
	assert.Equal(t, id.SeverityHigh, gaps[1].Severity)
}

func TestAnalyze_DropsUnusableGaps(t *testing.T) {
	content := `{
		"gaps": [
			{"severity": "critical", "title": "Real Gap", "description": "d", "regulation": "r"},
			{"severity": "catastrophic", "title": "Made-up Tier", "description": "d", "regulation": "r"},
			{"severity": "high", "title": "   ", "description": "no title", "regulation": "r"}
		]
	}`
	a := New(&stubClient{resp: llm.ChatResponse{Content: content}})

	gaps, fallback, err := a.Analyze(context.Background(), doc(), id.CategoryEightK, "rules")
	require.NoError(t, err)
	assert.False(t, fallback)
	require.Len(t, gaps, 1)
	assert.Equal(t, "Real Gap", gaps[0].Title)
}

func TestAnalyze_EmptyLiveGapListIsNotPadded(t *testing.T) {
	a := New(&stubClient{resp: llm.ChatResponse{Content: `{"gaps": []}`}})

	gaps, fallback, err := a.Analyze(context.Background(), doc(), id.CategoryTenK, "rules")
	require.NoError(t, err)
	assert.False(t, fallback)
	assert.Empty(t, gaps)
}

func TestAnalyze_PromptCarriesPageMarkers(t *testing.T) {
	client := &stubClient{resp: llm.ChatResponse{Content: `{"gaps": []}`}}
	a := New(client)

	_, _, err := a.Analyze(context.Background(), doc(), id.CategoryInvoice, "invoice rules here")
	require.NoError(t, err)

	require.Len(t, client.last.Messages, 1)
	prompt := client.last.Messages[0].Content
	assert.Contains(t, prompt, "--- PAGE 1 ---")
	assert.Contains(t, prompt, "--- PAGE 2 ---")
	assert.Contains(t, prompt, "invoice rules here")
	assert.True(t, strings.Contains(prompt, "Invoice"))
}

func TestFallbackGaps_DistinctPerCategory(t *testing.T) {
	sox := fallbackGaps(id.CategorySOX404)
	filing := fallbackGaps(id.CategoryTenK)
	invoice := fallbackGaps(id.CategoryInvoice)

	assert.NotEqual(t, sox[0].Title, filing[0].Title)
	assert.NotEqual(t, filing[0].Title, invoice[0].Title)
	for _, gaps := range [][]models.Gap{sox, filing, invoice} {
		for _, g := range gaps {
			assert.True(t, id.ValidGapSeverity(g.Severity))
			assert.NotEmpty(t, g.Title)
		}
	}
}
