package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"finaudit/internal/audit/ports"
	id "finaudit/pkg/domain"
)

// ReportFilename derives the artifact name from the audit id. The files
// endpoint serves artifacts under exactly this name.
func ReportFilename(auditID id.AuditID) string {
	return fmt.Sprintf("report_%s.md", auditID)
}

// Renderer writes the human-readable markdown report into the reports
// directory. Filenames are audit-id derived, so concurrent audits never
// write the same path.
type Renderer struct {
	dir string
}

func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

func (r *Renderer) Write(in ports.SynthesisInput, result ports.SynthesisResult) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}
	path := filepath.Join(r.dir, ReportFilename(in.AuditID))
	if err := os.WriteFile(path, []byte(render(in, result)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func render(in ports.SynthesisInput, result ports.SynthesisResult) string {
	var b strings.Builder

	b.WriteString("# Compliance Audit Report\n\n")
	fmt.Fprintf(&b, "**Document:** %s  \n", in.DocumentName)
	fmt.Fprintf(&b, "**Type:** %s  \n", in.Category.String())
	fmt.Fprintf(&b, "**Audit ID:** %s\n\n", in.AuditID)

	fmt.Fprintf(&b, "## Compliance Score\n\n**%d/100** (Grade: %s)\n\n", in.Score, in.Grade)

	b.WriteString("## Executive Summary\n\n")
	b.WriteString(result.ExecutiveSummary)
	b.WriteString("\n\n")

	b.WriteString("## Findings\n\n")
	if len(in.Gaps) == 0 {
		b.WriteString("No compliance gaps were identified.\n\n")
	}
	for _, gap := range in.Gaps {
		fmt.Fprintf(&b, "### [%s] %s\n\n", strings.ToUpper(gap.Severity.String()), gap.Title)
		if gap.Description != "" {
			b.WriteString(gap.Description)
			b.WriteString("\n\n")
		}
		if gap.Regulation != "" {
			fmt.Fprintf(&b, "*Regulation: %s*\n\n", gap.Regulation)
		}
		for _, loc := range gap.Locations {
			fmt.Fprintf(&b, "- Page %d (%s): %q\n", loc.Page, loc.Context, loc.Quote)
		}
		if len(gap.Locations) > 0 {
			b.WriteString("\n")
		}
	}

	b.WriteString("## Remediation Steps\n\n")
	for i, step := range result.Remediation {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return b.String()
}
