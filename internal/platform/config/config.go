// Package config loads application configuration from environment variables.
// All variables use the CASEFLOW_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	AI          AIConfig
	Auth        AuthConfig
	GuidanceDir string
	Log         LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL selects
// the in-memory intake store.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings for the session store. An
// empty URL selects in-memory sessions.
type CacheConfig struct {
	URL string
}

// AIConfig holds the navigator routing and budget settings.
type AIConfig struct {
	Enabled             bool
	APIKey              string
	CheapModel          string
	ExpensiveModel      string
	DailyTokenBudget    int64
	MaxTokensCheap      int
	MaxTokensExpensive  int
	CostPerToken        float64
	Temperature         float64
	EscalationThreshold float64
	CacheTTLFAQ         int // seconds
	CacheTTLTriage      int // seconds
	CacheTTLDefault     int // seconds
}

// AuthConfig holds staff authentication settings.
type AuthConfig struct {
	AdminPassword string
	SessionTTL    int // minutes
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with CASEFLOW_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("CASEFLOW_SERVER_PORT", 8080),
			Host: envStr("CASEFLOW_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("CASEFLOW_DATABASE_URL", ""),
			MaxConns: envInt("CASEFLOW_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("CASEFLOW_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL: envStr("CASEFLOW_CACHE_URL", ""),
		},
		AI: AIConfig{
			Enabled:             envBool("CASEFLOW_AI_ENABLE", false),
			APIKey:              envStr("CASEFLOW_AI_API_KEY", ""),
			CheapModel:          envStr("CASEFLOW_AI_CHEAP_MODEL", "gpt-4o-mini"),
			ExpensiveModel:      envStr("CASEFLOW_AI_EXPENSIVE_MODEL", "gpt-4o"),
			DailyTokenBudget:    int64(envInt("CASEFLOW_AI_DAILY_TOKEN_BUDGET", 100000)),
			MaxTokensCheap:      envInt("CASEFLOW_AI_MAX_TOKENS_CHEAP", 500),
			MaxTokensExpensive:  envInt("CASEFLOW_AI_MAX_TOKENS_EXPENSIVE", 2000),
			CostPerToken:        envFloat("CASEFLOW_AI_COST_PER_TOKEN", 0.000002),
			Temperature:         envFloat("CASEFLOW_AI_TEMPERATURE", 0.3),
			EscalationThreshold: envFloat("CASEFLOW_AI_ESCALATION_THRESHOLD", 0.7),
			CacheTTLFAQ:         envInt("CASEFLOW_CACHE_TTL_FAQ", 86400),
			CacheTTLTriage:      envInt("CASEFLOW_CACHE_TTL_TRIAGE", 7200),
			CacheTTLDefault:     envInt("CASEFLOW_CACHE_TTL_ANALYTICS", 3600),
		},
		Auth: AuthConfig{
			AdminPassword: envStr("CASEFLOW_AUTH_ADMIN_PASSWORD", ""),
			SessionTTL:    envInt("CASEFLOW_AUTH_SESSION_TTL", 480),
		},
		GuidanceDir: envStr("CASEFLOW_GUIDANCE_DIR", ""),
		Log: LogConfig{
			Level:  envStr("CASEFLOW_LOG_LEVEL", "info"),
			Format: envStr("CASEFLOW_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("CASEFLOW_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.AI.EscalationThreshold <= 0 || c.AI.EscalationThreshold > 1 {
		return fmt.Errorf("CASEFLOW_AI_ESCALATION_THRESHOLD must be in (0, 1], got %v", c.AI.EscalationThreshold)
	}

	if c.AI.Enabled {
		if c.AI.MaxTokensCheap <= 0 || c.AI.MaxTokensExpensive <= 0 {
			return fmt.Errorf("per-tier token ceilings must be positive when AI is enabled")
		}
		if c.AI.DailyTokenBudget <= 0 {
			return fmt.Errorf("CASEFLOW_AI_DAILY_TOKEN_BUDGET must be positive when AI is enabled")
		}
	}

	for _, ttl := range []int{c.AI.CacheTTLFAQ, c.AI.CacheTTLTriage, c.AI.CacheTTLDefault} {
		if ttl <= 0 {
			return fmt.Errorf("cache TTLs must be positive seconds")
		}
	}

	return nil
}

// HasAICredential returns true if a model provider credential is configured.
func (c *Config) HasAICredential() bool {
	return c.AI.APIKey != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
