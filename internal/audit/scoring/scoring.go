// Package scoring turns a gap list into a compliance score and letter grade.
// Both functions are pure and order-independent so identical findings always
// produce identical results.
package scoring

import (
	"finaudit/internal/audit/models"
	id "finaudit/pkg/domain"
)

// Penalty weights are calibrated so filings with minor gaps land in the B/C
// range while documents with material deficiencies land in D/F.
var severityWeights = map[id.Severity]int{
	id.SeverityCritical: 15,
	id.SeverityHigh:     8,
	id.SeverityMedium:   3,
}

// Score computes the linear-penalty compliance score, clamped to [0, 100].
// Unknown severities weigh as medium; the analyzer normalizes severities
// before they get here, so that path only covers hand-built gap lists.
func Score(gaps []models.Gap) int {
	total := 0
	for _, gap := range gaps {
		weight, ok := severityWeights[gap.Severity]
		if !ok {
			weight = severityWeights[id.SeverityMedium]
		}
		total += weight
	}
	if total >= 100 {
		return 0
	}
	return 100 - total
}

// GradeFor maps a score to its letter grade using fixed bands.
func GradeFor(score int) id.Grade {
	switch {
	case score >= 90:
		return id.GradeA
	case score >= 80:
		return id.GradeB
	case score >= 70:
		return id.GradeC
	case score >= 60:
		return id.GradeD
	default:
		return id.GradeF
	}
}
