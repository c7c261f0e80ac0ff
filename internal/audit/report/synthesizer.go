// Package report synthesizes the executive summary and remediation plan for
// a completed analysis and renders the report artifact. Live generation goes
// through the chat backend; the fallback derives everything deterministically
// from the gap list.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"finaudit/internal/audit/models"
	"finaudit/internal/audit/ports"
	"finaudit/internal/llm"
	id "finaudit/pkg/domain"
)

// genericSteps pad a remediation plan that came back shorter than
// models.RemediationCount. Order is fixed so padding is deterministic.
var genericSteps = []string{
	"Document all remediation actions taken with supporting evidence for audit trail.",
	"Conduct training for relevant personnel on updated compliance requirements.",
	"Schedule a follow-up compliance review within 60 days to verify remediation effectiveness.",
	"Update internal control documentation to reflect current processes.",
	"Establish a continuous monitoring program for high-risk areas.",
}

// fallbackTimeframes key remediation deadlines by severity.
var fallbackTimeframes = map[id.Severity]string{
	id.SeverityCritical: "within 14 days",
	id.SeverityHigh:     "within 30 days",
	id.SeverityMedium:   "within 60 days",
}

type Synthesizer struct {
	client   llm.Client
	renderer *Renderer
	logger   *slog.Logger
}

type Option func(*Synthesizer)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) { s.logger = logger }
}

// NewSynthesizer builds a synthesizer writing artifacts through renderer. A
// nil client means the deterministic fallback is used for every audit.
func NewSynthesizer(client llm.Client, renderer *Renderer, opts ...Option) *Synthesizer {
	s := &Synthesizer{client: client, renderer: renderer, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type reportPayload struct {
	ExecutiveSummary string   `json:"executive_summary"`
	Remediation      []string `json:"remediation"`
}

func (s *Synthesizer) Synthesize(ctx context.Context, in ports.SynthesisInput) (ports.SynthesisResult, error) {
	result := s.generate(ctx, in)
	result.ReportPath = ReportFilename(in.AuditID)

	if s.renderer != nil {
		if err := s.renderer.Write(in, result); err != nil {
			// The in-memory result is still authoritative; a missing
			// artifact only breaks the files endpoint for this audit.
			s.logger.ErrorContext(ctx, "report artifact write failed",
				"audit_id", in.AuditID.String(), "error", err)
		}
	}
	return result, nil
}

func (s *Synthesizer) generate(ctx context.Context, in ports.SynthesisInput) ports.SynthesisResult {
	if s.client == nil {
		return s.fallback(ctx, in)
	}

	resp, err := s.client.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: synthesisPrompt(in)}},
	})
	if err != nil {
		s.logger.WarnContext(ctx, "live report synthesis failed, using fallback",
			"audit_id", in.AuditID.String(), "error", err)
		return s.fallback(ctx, in)
	}

	payload, err := decodeReport(resp.Content)
	if err != nil || payload.ExecutiveSummary == "" || len(payload.Remediation) == 0 {
		s.logger.WarnContext(ctx, "live report synthesis incomplete, using fallback",
			"audit_id", in.AuditID.String(), "error", err)
		return s.fallback(ctx, in)
	}

	return ports.SynthesisResult{
		ExecutiveSummary: payload.ExecutiveSummary,
		Remediation:      EnsureStepCount(payload.Remediation),
	}
}

func decodeReport(content string) (reportPayload, error) {
	raw, err := llm.ExtractJSON(content)
	if err != nil {
		return reportPayload{}, err
	}
	var payload reportPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return reportPayload{}, fmt.Errorf("decode report: %w", err)
	}
	payload.ExecutiveSummary = strings.TrimSpace(payload.ExecutiveSummary)
	return payload, nil
}

func (s *Synthesizer) fallback(ctx context.Context, in ports.SynthesisInput) ports.SynthesisResult {
	s.logger.InfoContext(ctx, "deriving report from gap list",
		"audit_id", in.AuditID.String(), "gap_count", len(in.Gaps))
	return ports.SynthesisResult{
		ExecutiveSummary: fallbackSummary(in),
		Remediation:      EnsureStepCount(fallbackRemediation(in.Gaps)),
		Fallback:         true,
	}
}

// EnsureStepCount normalizes a remediation list to exactly
// models.RemediationCount entries: longer lists are truncated, shorter ones
// padded with the generic steps in order.
func EnsureStepCount(steps []string) []string {
	if len(steps) >= models.RemediationCount {
		return steps[:models.RemediationCount]
	}
	out := make([]string, 0, models.RemediationCount)
	out = append(out, steps...)
	return append(out, genericSteps[:models.RemediationCount-len(steps)]...)
}

func fallbackSummary(in ports.SynthesisInput) string {
	var critical, high, medium int
	for _, gap := range in.Gaps {
		switch gap.Severity {
		case id.SeverityCritical:
			critical++
		case id.SeverityHigh:
			high++
		default:
			medium++
		}
	}

	var parts []string
	if critical > 0 {
		parts = append(parts, fmt.Sprintf("%d critical", critical))
	}
	if high > 0 {
		parts = append(parts, fmt.Sprintf("%d high", high))
	}
	if medium > 0 {
		parts = append(parts, fmt.Sprintf("%d medium", medium))
	}
	severityText := "various"
	if len(parts) > 0 {
		severityText = strings.Join(parts, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The audit of the %s document identified %d compliance gaps (%s severity). ",
		in.Category.String(), len(in.Gaps), severityText)
	fmt.Fprintf(&b, "The overall compliance score is %d/100 (Grade: %s). ", in.Score, in.Grade)

	switch {
	case critical > 0:
		first := firstBySeverity(in.Gaps, id.SeverityCritical)
		fmt.Fprintf(&b, "The most critical finding involves %s. ", strings.ToLower(first.Title))
		b.WriteString("Immediate remediation is required for critical findings before the next reporting cycle.")
	case high > 0:
		b.WriteString("High-priority gaps should be addressed within 30 days. ")
		b.WriteString("A follow-up review should be scheduled after remediation actions are completed.")
	default:
		b.WriteString("The compliance posture is satisfactory with minor improvements recommended. ")
		b.WriteString("A follow-up review should be scheduled within the next quarter.")
	}
	return b.String()
}

func firstBySeverity(gaps []models.Gap, severity id.Severity) models.Gap {
	for _, gap := range gaps {
		if gap.Severity == severity {
			return gap
		}
	}
	return models.Gap{Title: "a critical deficiency"}
}

// fallbackRemediation derives one step per gap, most gaps first up to the
// fixed plan length, each with its severity-keyed timeframe.
func fallbackRemediation(gaps []models.Gap) []string {
	steps := make([]string, 0, models.RemediationCount)
	for _, gap := range gaps {
		if len(steps) == models.RemediationCount {
			break
		}
		timeframe, ok := fallbackTimeframes[gap.Severity]
		if !ok {
			timeframe = fallbackTimeframes[id.SeverityMedium]
		}
		regulation := gap.Regulation
		if regulation == "" {
			regulation = "applicable regulations"
		}
		steps = append(steps, fmt.Sprintf("Address %q %s by reviewing compliance with %s.",
			gap.Title, timeframe, regulation))
	}
	return steps
}

func synthesisPrompt(in ports.SynthesisInput) string {
	gapsJSON, err := json.MarshalIndent(in.Gaps, "", "  ")
	if err != nil {
		gapsJSON = []byte("[]")
	}
	return fmt.Sprintf(`You are a senior compliance officer writing an audit report.

DOCUMENT AUDITED:
- Filename: %s
- Type: %s
- Compliance Score: %d/100 (Grade: %s)

COMPLIANCE GAPS IDENTIFIED:
%s

TASK:
Generate two things:

1. EXECUTIVE SUMMARY (3-5 sentences):
   - Written for C-suite executives
   - State the number and severity of gaps found
   - Mention the compliance score and grade
   - Highlight the most critical finding
   - Recommend whether immediate action is needed

2. REMEDIATION STEPS (exactly 5 steps):
   - Specific, actionable steps to address the identified gaps
   - Ordered by priority (most urgent first)
   - Each step should reference which gap it addresses
   - Include timeframes (e.g., "within 30 days")
   - Be concrete, not generic
   - If fewer than 5 gaps, add general best-practice remediation steps to reach exactly 5.

Return JSON with:
{
  "executive_summary": "Your executive summary here",
  "remediation": ["Step 1", "Step 2", "Step 3", "Step 4", "Step 5"]
}`, in.DocumentName, in.Category.String(), in.Score, in.Grade, gapsJSON)
}
