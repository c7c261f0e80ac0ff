// Package rules provides the compliance rule set for a document category,
// from live retrieval when a backend is configured and from static embedded
// tables otherwise. Live failures never leave this package.
package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"finaudit/internal/audit/models"
	"finaudit/internal/llm"
	"finaudit/internal/platform/redis"
	id "finaudit/pkg/domain"
)

// minRulesChars guards against a live answer that is too short to be a real
// rule set; anything below it routes to fallback.
const minRulesChars = 200

const defaultCacheTTL = 12 * time.Hour

type Provider struct {
	client   llm.Client
	cache    *redis.Client
	logger   *slog.Logger
	cacheTTL time.Duration
	group    singleflight.Group
}

type Option func(*Provider)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// WithCache enables the per-category Redis cache. A nil client disables it.
func WithCache(cache *redis.Client, ttl time.Duration) Option {
	return func(p *Provider) {
		p.cache = cache
		if ttl > 0 {
			p.cacheTTL = ttl
		}
	}
}

// NewProvider builds a rule provider. A nil client means fallback rules are
// used immediately for every category.
func NewProvider(client llm.Client, opts ...Option) *Provider {
	p := &Provider{
		client:   client,
		logger:   slog.Default(),
		cacheTTL: defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Rules returns the rule set for a category. Concurrent retrievals for the
// same category are collapsed into one upstream call.
func (p *Provider) Rules(ctx context.Context, category id.Category) (models.RuleSet, error) {
	if set, ok := p.fromCache(ctx, category); ok {
		return set, nil
	}

	result, err, _ := p.group.Do(category.String(), func() (any, error) {
		return p.retrieve(ctx, category), nil
	})
	if err != nil {
		return models.RuleSet{}, err
	}
	return result.(models.RuleSet), nil
}

func (p *Provider) retrieve(ctx context.Context, category id.Category) models.RuleSet {
	if p.client == nil {
		return FallbackRules(category)
	}

	resp, err := p.client.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: retrievalPrompt(category)}},
	})
	if err != nil {
		p.logger.WarnContext(ctx, "live rule retrieval failed, using fallback",
			"category", category.String(), "error", err)
		return FallbackRules(category)
	}

	rulesText, sources := normalizeRules(resp.Content)
	if len(rulesText) < minRulesChars {
		p.logger.WarnContext(ctx, "live rule retrieval too short, using fallback",
			"category", category.String(), "chars", len(rulesText))
		return FallbackRules(category)
	}

	set := models.RuleSet{
		Category:    category,
		RulesText:   rulesText,
		Sources:     sources,
		LastUpdated: models.WireTimestamp(time.Now()),
	}
	p.toCache(ctx, category, set)
	return set
}

type cachedRuleSet struct {
	RulesText   string   `json:"rules_text"`
	Sources     []string `json:"sources"`
	LastUpdated string   `json:"last_updated"`
}

func (p *Provider) fromCache(ctx context.Context, category id.Category) (models.RuleSet, bool) {
	if p.cache == nil {
		return models.RuleSet{}, false
	}
	raw, err := p.cache.Get(ctx, cacheKey(category)).Result()
	if err != nil {
		if err != goredis.Nil {
			p.logger.WarnContext(ctx, "rules cache read failed",
				"category", category.String(), "error", err)
		}
		return models.RuleSet{}, false
	}
	var cached cachedRuleSet
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return models.RuleSet{}, false
	}
	return models.RuleSet{
		Category:    category,
		RulesText:   cached.RulesText,
		Sources:     cached.Sources,
		LastUpdated: cached.LastUpdated,
	}, true
}

// toCache stores only live results; fallback rules are already local.
func (p *Provider) toCache(ctx context.Context, category id.Category, set models.RuleSet) {
	if p.cache == nil {
		return
	}
	raw, err := json.Marshal(cachedRuleSet{
		RulesText:   set.RulesText,
		Sources:     set.Sources,
		LastUpdated: set.LastUpdated,
	})
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, cacheKey(category), raw, p.cacheTTL).Err(); err != nil {
		p.logger.WarnContext(ctx, "rules cache write failed",
			"category", category.String(), "error", err)
	}
}

func cacheKey(category id.Category) string {
	return "finaudit:rules:" + category.String()
}

// normalizeRules turns a live answer into plain-text rule prose. Structured
// JSON rule entries are synthesized into prose; anything else is treated as
// prose directly.
func normalizeRules(content string) (string, []string) {
	raw, err := llm.ExtractJSON(content)
	if err != nil {
		return strings.TrimSpace(content), nil
	}

	var structured struct {
		Rules   []models.ComplianceRule `json:"rules"`
		Sources []string                `json:"sources"`
	}
	if err := json.Unmarshal([]byte(raw), &structured); err != nil || len(structured.Rules) == 0 {
		return strings.TrimSpace(content), nil
	}

	var b strings.Builder
	for i, rule := range structured.Rules {
		fmt.Fprintf(&b, "%d. [%s] %s (%s)", i+1, rule.Severity, rule.Description, rule.Regulation)
		if rule.RuleID != "" {
			fmt.Fprintf(&b, " [%s]", rule.RuleID)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), structured.Sources
}

func retrievalPrompt(category id.Category) string {
	return fmt.Sprintf(`You are a compliance research specialist. Compile the current compliance requirements that apply to a %q financial document.

Cover mandatory sections, disclosure obligations, control requirements, and filing deadlines where applicable. Cite the specific regulation for each requirement.

Answer either as plain prose, or as a JSON object of the form:
{
  "rules": [
    {"rule_id": "short code", "description": "requirement", "severity": "critical|high|medium|low", "regulation": "citation"}
  ],
  "sources": ["where each requirement comes from"]
}`, category.String())
}
