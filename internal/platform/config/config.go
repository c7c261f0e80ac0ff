package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Everything comes from the
// environment so main stays lean and deployments stay twelve-factor.
type Config struct {
	Addr          string
	JWTSigningKey string

	// DatabaseURL enables the PostgreSQL audit store when set; otherwise the
	// in-memory store is used.
	DatabaseURL string

	// RedisURL enables the rule-set cache when set.
	RedisURL string

	// KafkaBrokers enables audit-completed event publishing when set.
	KafkaBrokers []string
	KafkaTopic   string

	LLM LLMConfig

	// ReportsDir is where generated report artifacts are written.
	ReportsDir string

	// MaxDocumentBytes bounds the extracted text accepted per audit.
	MaxDocumentBytes int
}

// LLMConfig configures the OpenAI-compatible chat backend used by the live
// execution paths. An empty BaseURL means no live capability is configured
// and every stage runs its fallback.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Configured reports whether a live backend is reachable in principle.
func (c LLMConfig) Configured() bool { return c.BaseURL != "" }

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:             getenv("FINAUDIT_ADDR", ":8080"),
		JWTSigningKey:    os.Getenv("FINAUDIT_JWT_SIGNING_KEY"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		KafkaTopic:       getenv("FINAUDIT_KAFKA_TOPIC", "finaudit.audit.completed"),
		ReportsDir:       getenv("FINAUDIT_REPORTS_DIR", "generated_reports"),
		MaxDocumentBytes: getenvInt("FINAUDIT_MAX_DOCUMENT_BYTES", 10<<20),
		LLM: LLMConfig{
			BaseURL: os.Getenv("FINAUDIT_LLM_BASE_URL"),
			APIKey:  os.Getenv("FINAUDIT_LLM_API_KEY"),
			Model:   getenv("FINAUDIT_LLM_MODEL", "gpt-4o"),
			Timeout: getenvDuration("FINAUDIT_LLM_TIMEOUT", 60*time.Second),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitAndTrim(s string) []string {
	var out []string
	for _, token := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(token); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
