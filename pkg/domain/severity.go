package domain

// Severity ranks a compliance finding. Gaps use the three-level set
// critical|high|medium; rule definitions may additionally carry low.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"

	// SeverityLow appears only on rule definitions, never on gaps.
	SeverityLow Severity = "low"
)

// ValidGapSeverity reports whether s belongs to the gap severity set.
func ValidGapSeverity(s Severity) bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium:
		return true
	}
	return false
}

func (s Severity) String() string { return string(s) }

// Grade is the letter grade derived from a compliance score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

func (g Grade) String() string { return string(g) }
