package rules

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	"finaudit/internal/audit/models"
	id "finaudit/pkg/domain"
)

//go:embed rulesets.yaml
var rulesetsYAML []byte

type ruleTable struct {
	LastUpdated string         `yaml:"last_updated"`
	Categories  []categoryRule `yaml:"categories"`
}

type categoryRule struct {
	Category             string                  `yaml:"category"`
	MaterialityThreshold string                  `yaml:"materiality_threshold"`
	RequiredSections     []string                `yaml:"required_sections"`
	Rules                []models.ComplianceRule `yaml:"rules"`
}

var fallbackTable = mustLoadRuleTable()

func mustLoadRuleTable() ruleTable {
	var table ruleTable
	if err := yaml.Unmarshal(rulesetsYAML, &table); err != nil {
		panic(fmt.Sprintf("rules: embedded rulesets.yaml is invalid: %v", err))
	}
	return table
}

// FallbackRules returns the static rule set for a category. Unknown
// categories get a generic rule text so the analyzer always has something to
// check against.
func FallbackRules(category id.Category) models.RuleSet {
	for _, entry := range fallbackTable.Categories {
		if entry.Category == category.String() {
			return models.RuleSet{
				Category:    category,
				RulesText:   renderProse(entry),
				Sources:     []string{"static rule table"},
				LastUpdated: fallbackTable.LastUpdated,
				Fallback:    true,
			}
		}
	}
	return models.RuleSet{
		Category:    category,
		RulesText:   "General financial document compliance standards apply.",
		Sources:     []string{"static rule table"},
		LastUpdated: fallbackTable.LastUpdated,
		Fallback:    true,
	}
}

// renderProse turns a structured rule entry into the plain-text form the
// analyzer prompt expects.
func renderProse(entry categoryRule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Compliance Requirements:\n", entry.Category)
	for i, rule := range entry.Rules {
		fmt.Fprintf(&b, "\n%d. [%s] %s (%s) [%s]\n",
			i+1, rule.Severity, rule.Description, rule.Regulation, rule.RuleID)
	}
	if len(entry.RequiredSections) > 0 {
		fmt.Fprintf(&b, "\nRequired sections: %s\n", strings.Join(entry.RequiredSections, ", "))
	}
	if entry.MaterialityThreshold != "" {
		fmt.Fprintf(&b, "Materiality threshold: %s\n", entry.MaterialityThreshold)
	}
	return b.String()
}
