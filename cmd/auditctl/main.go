// Command auditctl runs a single audit from the command line against a
// pre-extracted document, without the HTTP server. Useful for smoke-testing
// prompts and rule sets.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"finaudit/internal/audit/analyzer"
	"finaudit/internal/audit/gate"
	"finaudit/internal/audit/models"
	"finaudit/internal/audit/pipeline"
	"finaudit/internal/audit/report"
	"finaudit/internal/audit/rules"
	"finaudit/internal/llm"
	"finaudit/internal/platform/config"
	"finaudit/internal/platform/logger"
	id "finaudit/pkg/domain"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		documentType string
		reportsDir   string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "auditctl <extracted-document.json>",
		Short: "Run one compliance audit against an extracted document",
		Long: `auditctl runs the full audit pipeline on a single extracted document and
prints the result. The input file holds the extracted text as JSON:

  {"full_text": "...", "pages": [{"page_number": 1, "text": "..."}], "page_count": 1}

Live LLM stages are used when FINAUDIT_LLM_BASE_URL is set; otherwise every
stage runs its deterministic fallback.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, args[0], documentType, reportsDir, asJSON)
		},
	}

	cmd.Flags().StringVarP(&documentType, "type", "t", "Invoice", "document category (SOX 404, 10-K, 8-K, Invoice)")
	cmd.Flags().StringVar(&reportsDir, "reports-dir", "generated_reports", "directory for the report artifact")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full audit record as JSON")
	return cmd
}

func runAudit(cmd *cobra.Command, path, documentType, reportsDir string, asJSON bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	var doc models.ExtractedDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}

	category, err := id.ParseCategory(documentType)
	if err != nil {
		return err
	}

	log := logger.New()
	var chat llm.Client
	if client := llm.NewHTTPClient(config.FromEnv().LLM); client != nil {
		chat = client
	}

	pipe := pipeline.New(
		gate.New(chat, gate.WithLogger(log)),
		rules.NewProvider(chat, rules.WithLogger(log)),
		analyzer.New(chat, analyzer.WithLogger(log)),
		report.NewSynthesizer(chat, report.NewRenderer(reportsDir), report.WithLogger(log)),
		pipeline.WithLogger(log),
	)

	audit, err := pipe.Run(cmd.Context(), pipeline.Input{
		Document:     doc,
		DocumentName: filepath.Base(path),
		Category:     category,
		Requester:    id.RequesterID("auditctl"),
	})
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(audit)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Audit %s: %s scored %d/100 (Grade: %s)\n", audit.ID, audit.DocumentName, audit.Score, audit.Grade)
	for _, gap := range audit.Gaps {
		fmt.Fprintf(out, "  [%s] %s\n", gap.Severity, gap.Title)
	}
	fmt.Fprintf(out, "Report written to %s\n", filepath.Join(reportsDir, report.ReportFilename(audit.ID)))
	return nil
}
