package analyzer

import (
	"strings"

	id "finaudit/pkg/domain"
)

// normalizeSeverity maps a live-backend severity label onto the three-level
// gap set. Labels with no sensible mapping are rejected so a made-up tier
// never reaches scoring.
func normalizeSeverity(raw string) (id.Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical", "severe", "blocker":
		return id.SeverityCritical, true
	case "high", "major":
		return id.SeverityHigh, true
	case "medium", "minor", "moderate", "low":
		return id.SeverityMedium, true
	}
	return "", false
}
