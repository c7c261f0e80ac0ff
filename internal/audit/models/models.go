// Package models holds the value objects flowing through the audit pipeline.
// Everything here is plain data; behavior lives in the stage packages.
package models

import (
	"time"

	id "finaudit/pkg/domain"
)

// RemediationCount is the fixed length of every remediation plan. Live
// results shorter than this are padded with generic steps; longer results
// are truncated.
const RemediationCount = 5

// ExtractedDocument is the collaborator-supplied text representation of an
// uploaded document. The core never sees raw bytes.
type ExtractedDocument struct {
	FullText  string `json:"full_text"`
	Pages     []Page `json:"pages"`
	PageCount int    `json:"page_count"`
}

// Page is one page of extracted text, 1-indexed.
type Page struct {
	Number int    `json:"page_number"`
	Text   string `json:"text"`
}

// Verdict is the Gatekeeper's accept/reject decision. It is consumed only by
// the orchestrator and never persisted.
type Verdict struct {
	Accepted     bool
	DetectedType string
	Reason       string
}

// ComplianceRule is one rule inside a category's rule set.
type ComplianceRule struct {
	RuleID      string      `json:"rule_id" yaml:"rule_id"`
	Description string      `json:"description" yaml:"description"`
	Severity    id.Severity `json:"severity" yaml:"severity"`
	Regulation  string      `json:"regulation" yaml:"regulation"`
	Source      string      `json:"source,omitempty" yaml:"source,omitempty"`
}

// RuleSet is what the Rule Provider hands to the Gap Analyzer.
type RuleSet struct {
	Category    id.Category
	RulesText   string
	Sources     []string
	LastUpdated string

	// Fallback marks rule text that came from the static tables rather than
	// live retrieval. Observable in logs only, never in the audit payload.
	Fallback bool
}

// Location pins a gap to a place in the document.
type Location struct {
	Page    int    `json:"page"`
	Quote   string `json:"quote"`
	Context string `json:"context"`
}

// Gap is a single identified compliance deficiency.
type Gap struct {
	Severity    id.Severity `json:"severity"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Regulation  string      `json:"regulation"`
	Locations   []Location  `json:"locations"`
}

// Audit is one completed pipeline run. Created once by the orchestrator at
// pipeline completion and immutable thereafter.
type Audit struct {
	ID        id.AuditID     `json:"audit_id"`
	Requester id.RequesterID `json:"-"`

	DocumentName string      `json:"document_name"`
	Category     id.Category `json:"document_type"`
	CreatedAt    time.Time   `json:"-"`

	Score int      `json:"score"`
	Grade id.Grade `json:"grade"`

	ExecutiveSummary string   `json:"executive_summary"`
	Remediation      []string `json:"remediation"`
	Gaps             []Gap    `json:"gaps"`

	// ReportPath references the generated report artifact, served by the
	// files endpoint. Derived deterministically from the audit id.
	ReportPath string `json:"report_url"`

	// Timestamp is CreatedAt rendered in the fixed wire format
	// (UTC RFC3339, "Z" suffix).
	Timestamp string `json:"timestamp"`
}

// Summary is the gap-free view used by history listings.
type Summary struct {
	ID           id.AuditID  `json:"audit_id"`
	DocumentName string      `json:"document_name"`
	Category     id.Category `json:"document_type"`
	Score        int         `json:"score"`
	Grade        id.Grade    `json:"grade"`
	Timestamp    string      `json:"timestamp"`
}

// Summarize produces the history view of an audit.
func (a Audit) Summarize() Summary {
	return Summary{
		ID:           a.ID,
		DocumentName: a.DocumentName,
		Category:     a.Category,
		Score:        a.Score,
		Grade:        a.Grade,
		Timestamp:    a.Timestamp,
	}
}

// WireTimestamp renders t in the audit wire format.
func WireTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
