package analyzer

import (
	"finaudit/internal/audit/models"
	id "finaudit/pkg/domain"
)

// fallbackGaps returns the fixed illustrative gap list for a category. These
// are representative findings, not document-derived ones; callers see the
// fallback flag and must not present them as real analysis.
func fallbackGaps(category id.Category) []models.Gap {
	switch category {
	case id.CategorySOX404:
		return []models.Gap{
			{
				Severity:    id.SeverityCritical,
				Title:       "Missing ITGC Documentation",
				Description: "No evidence of IT General Controls documentation for financial reporting systems.",
				Regulation:  "SOX Section 404(a) - COSO Framework CC5.1",
				Locations: []models.Location{
					{Page: 1, Quote: "Document lacks ITGC controls description", Context: "General"},
				},
			},
			{
				Severity:    id.SeverityHigh,
				Title:       "Inadequate Segregation of Duties",
				Description: "Same personnel responsible for transaction initiation and approval.",
				Regulation:  "SOX Section 404(b) - PCAOB AS 2201.22",
				Locations: []models.Location{
					{Page: 1, Quote: "No segregation of duties policy found", Context: "General"},
				},
			},
			{
				Severity:    id.SeverityMedium,
				Title:       "No Quarterly Access Review",
				Description: "Access logs for financial systems not reviewed on a quarterly basis.",
				Regulation:  "SOX Section 404 - COSO CC6.1",
				Locations: []models.Location{
					{Page: 1, Quote: "Access review frequency not specified", Context: "General"},
				},
			},
		}
	case id.CategoryTenK, id.CategoryEightK:
		return []models.Gap{
			{
				Severity:    id.SeverityHigh,
				Title:       "Risk Factor Disclosure Gap",
				Description: "Material risks not adequately disclosed in risk factors section.",
				Regulation:  "SEC Regulation S-K Item 105",
				Locations: []models.Location{
					{Page: 1, Quote: "Limited risk disclosure found", Context: "Risk Factors"},
				},
			},
			{
				Severity:    id.SeverityMedium,
				Title:       "Forward-Looking Statements",
				Description: "Forward-looking statements lack sufficient cautionary language.",
				Regulation:  "SEC Regulation S-K Item 303",
				Locations: []models.Location{
					{Page: 1, Quote: "Missing safe harbor language", Context: "MD&A"},
				},
			},
			{
				Severity:    id.SeverityMedium,
				Title:       "Executive Compensation Disclosure",
				Description: "Performance metrics for compensation not fully disclosed.",
				Regulation:  "SEC Regulation S-K Item 402",
				Locations: []models.Location{
					{Page: 1, Quote: "Compensation metrics unclear", Context: "Executive Compensation"},
				},
			},
		}
	default:
		return []models.Gap{
			{
				Severity:    id.SeverityHigh,
				Title:       "Documentation Gap",
				Description: "Required documentation elements are missing or incomplete.",
				Regulation:  "General compliance standards",
				Locations: []models.Location{
					{Page: 1, Quote: "Incomplete documentation", Context: "General"},
				},
			},
			{
				Severity:    id.SeverityMedium,
				Title:       "Approval Workflow Missing",
				Description: "No evidence of proper approval workflow.",
				Regulation:  "Internal control standards",
				Locations: []models.Location{
					{Page: 1, Quote: "No approval signatures found", Context: "General"},
				},
			},
		}
	}
}
