package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"finaudit/internal/audit/models"
	"finaudit/internal/audit/ports"
	"finaudit/internal/audit/ports/mocks"
	id "finaudit/pkg/domain"
	dErrors "finaudit/pkg/domain-errors"
	"finaudit/pkg/requestcontext"
)

type stages struct {
	gate        *mocks.MockGatekeeper
	rules       *mocks.MockRuleProvider
	analyzer    *mocks.MockAnalyzer
	synthesizer *mocks.MockSynthesizer
}

func newStages(t *testing.T) (stages, *Pipeline) {
	ctrl := gomock.NewController(t)
	s := stages{
		gate:        mocks.NewMockGatekeeper(ctrl),
		rules:       mocks.NewMockRuleProvider(ctrl),
		analyzer:    mocks.NewMockAnalyzer(ctrl),
		synthesizer: mocks.NewMockSynthesizer(ctrl),
	}
	return s, New(s.gate, s.rules, s.analyzer, s.synthesizer)
}

func invoiceInput() Input {
	return Input{
		Document: models.ExtractedDocument{
			FullText:  "Invoice #1042\nTotal due: $12,000",
			Pages:     []models.Page{{Number: 1, Text: "Invoice #1042\nTotal due: $12,000"}},
			PageCount: 1,
		},
		DocumentName: "q4_invoice.pdf",
		Category:     id.CategoryInvoice,
		Requester:    id.RequesterID("user-1"),
	}
}

func accepted() models.Verdict {
	return models.Verdict{Accepted: true, DetectedType: "Invoice", Reason: "invoice layout"}
}

func ruleSet() models.RuleSet {
	return models.RuleSet{
		Category:    id.CategoryInvoice,
		RulesText:   "Invoice Compliance Requirements: unique number, PO reference, signatures.",
		LastUpdated: "2026-01-15",
	}
}

func TestRun_InvoiceWithMixedSeverities(t *testing.T) {
	s, p := newStages(t)
	in := invoiceInput()
	gaps := []models.Gap{
		{Severity: id.SeverityCritical, Title: "Missing Authorized Signature"},
		{Severity: id.SeverityHigh, Title: "No Purchase Order Reference"},
		{Severity: id.SeverityMedium, Title: "Tax Rate Mismatch"},
	}

	s.gate.EXPECT().Classify(gomock.Any(), in.Document, id.CategoryInvoice).Return(accepted(), nil)
	s.rules.EXPECT().Rules(gomock.Any(), id.CategoryInvoice).Return(ruleSet(), nil)
	s.analyzer.EXPECT().Analyze(gomock.Any(), in.Document, id.CategoryInvoice, ruleSet().RulesText).
		Return(gaps, false, nil)
	s.synthesizer.EXPECT().Synthesize(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, syn ports.SynthesisInput) (ports.SynthesisResult, error) {
			assert.Equal(t, 74, syn.Score)
			assert.Equal(t, id.GradeC, syn.Grade)
			assert.False(t, syn.AuditID.IsZero())
			return ports.SynthesisResult{
				ExecutiveSummary: "Three gaps were found.",
				Remediation:      []string{"s1", "s2", "s3", "s4", "s5"},
				ReportPath:       "report_" + syn.AuditID.String() + ".md",
			}, nil
		})

	createdAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), createdAt)

	audit, err := p.Run(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 74, audit.Score)
	assert.Equal(t, id.GradeC, audit.Grade)
	assert.Equal(t, "q4_invoice.pdf", audit.DocumentName)
	assert.Equal(t, id.CategoryInvoice, audit.Category)
	assert.Equal(t, id.RequesterID("user-1"), audit.Requester)
	assert.Len(t, audit.Gaps, 3)
	assert.Len(t, audit.Remediation, models.RemediationCount)
	assert.Equal(t, "2026-03-14T09:30:00Z", audit.Timestamp)
	assert.Equal(t, "/api/files/report_"+audit.ID.String()+".md", audit.ReportPath)
}

func TestRun_NoGapsScoresPerfect(t *testing.T) {
	s, p := newStages(t)
	in := invoiceInput()

	s.gate.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).Return(accepted(), nil)
	s.rules.EXPECT().Rules(gomock.Any(), gomock.Any()).Return(ruleSet(), nil)
	s.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, false, nil)
	s.synthesizer.EXPECT().Synthesize(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, syn ports.SynthesisInput) (ports.SynthesisResult, error) {
			assert.Equal(t, 100, syn.Score)
			assert.Equal(t, id.GradeA, syn.Grade)
			return ports.SynthesisResult{
				ExecutiveSummary: "No gaps.",
				Remediation:      []string{"g1", "g2", "g3", "g4", "g5"},
				ReportPath:       "report_" + syn.AuditID.String() + ".md",
			}, nil
		})

	audit, err := p.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 100, audit.Score)
	assert.Equal(t, id.GradeA, audit.Grade)
	assert.Empty(t, audit.Gaps)
}

func TestRun_RejectionShortCircuits(t *testing.T) {
	s, p := newStages(t)
	in := invoiceInput()

	s.gate.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.Verdict{Accepted: false, DetectedType: "Resume", Reason: "work history, not finance"}, nil)
	s.rules.EXPECT().Rules(gomock.Any(), gomock.Any()).Times(0)
	s.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	s.synthesizer.EXPECT().Synthesize(gomock.Any(), gomock.Any()).Times(0)

	_, err := p.Run(context.Background(), in)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDocumentRejected))
	assert.Contains(t, err.Error(), "not a financial document")
}

func TestRun_FallbackRulesStillComplete(t *testing.T) {
	s, p := newStages(t)
	in := invoiceInput()
	fallbackRules := ruleSet()
	fallbackRules.Fallback = true

	s.gate.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).Return(accepted(), nil)
	s.rules.EXPECT().Rules(gomock.Any(), gomock.Any()).Return(fallbackRules, nil)
	s.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any(), gomock.Any(), fallbackRules.RulesText).
		Return([]models.Gap{{Severity: id.SeverityMedium, Title: "Tax Rate Mismatch"}}, true, nil)
	s.synthesizer.EXPECT().Synthesize(gomock.Any(), gomock.Any()).
		Return(ports.SynthesisResult{
			ExecutiveSummary: "One gap.",
			Remediation:      []string{"s1", "s2", "s3", "s4", "s5"},
			ReportPath:       "report_aud_0.md",
			Fallback:         true,
		}, nil)

	audit, err := p.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 97, audit.Score)
	assert.NotEmpty(t, audit.ExecutiveSummary)
}

func TestRun_EmptyDocumentFails(t *testing.T) {
	s, p := newStages(t)
	in := invoiceInput()
	in.Document = models.ExtractedDocument{}

	s.gate.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := p.Run(context.Background(), in)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExtractionFailed))
}

func TestRun_GateErrorIsInternal(t *testing.T) {
	s, p := newStages(t)
	in := invoiceInput()

	s.gate.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.Verdict{}, errors.New("capability wiring broken"))
	s.rules.EXPECT().Rules(gomock.Any(), gomock.Any()).Times(0)

	_, err := p.Run(context.Background(), in)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestRun_AssignsUniqueAuditIDs(t *testing.T) {
	s, p := newStages(t)

	for range 2 {
		s.gate.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).Return(accepted(), nil)
		s.rules.EXPECT().Rules(gomock.Any(), gomock.Any()).Return(ruleSet(), nil)
		s.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, false, nil)
		s.synthesizer.EXPECT().Synthesize(gomock.Any(), gomock.Any()).
			Return(ports.SynthesisResult{
				ExecutiveSummary: "ok",
				Remediation:      []string{"1", "2", "3", "4", "5"},
				ReportPath:       "report.md",
			}, nil)
	}

	first, err := p.Run(context.Background(), invoiceInput())
	require.NoError(t, err)
	second, err := p.Run(context.Background(), invoiceInput())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}
