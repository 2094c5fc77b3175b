// Package config reads the LocalArbiter settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Address string `env:"LOCALARBITER_ADDRESS" envDefault:":3000"`
	APIKeys []string `env:"LOCALARBITER_API_KEYS" envSeparator:","`

	LLMAPIURL  string        `env:"LOCALARBITER_LLM_API_URL"`
	LLMAPIKey  string        `env:"LOCALARBITER_LLM_API_KEY"`
	LLMModel   string        `env:"LOCALARBITER_MODEL"`
	LLMTimeout time.Duration `env:"LOCALARBITER_LLM_TIMEOUT" envDefault:"15s"`

	RelevanceWeight  float64       `env:"LOCALARBITER_RELEVANCE_WEIGHT" envDefault:"0.5"`
	InterestWeight   float64       `env:"LOCALARBITER_INTEREST_WEIGHT" envDefault:"0.3"`
	EmotionalWeight  float64       `env:"LOCALARBITER_EMOTIONAL_WEIGHT" envDefault:"0.2"`
	CascadeThreshold float64       `env:"LOCALARBITER_CASCADE_THRESHOLD" envDefault:"0.75"`
	TiebreakerMargin float64       `env:"LOCALARBITER_TIEBREAKER_MARGIN" envDefault:"0.1"`
	Cooldown         time.Duration `env:"LOCALARBITER_COOLDOWN" envDefault:"60s"`

	SuppressionEnabled  bool          `env:"LOCALARBITER_SUPPRESSION_ENABLED" envDefault:"true"`
	MinimumThreshold    float64       `env:"LOCALARBITER_MINIMUM_THRESHOLD" envDefault:"0.3"`
	ReevaluationDelay   time.Duration `env:"LOCALARBITER_REEVALUATION_DELAY" envDefault:"30s"`
	ReevaluationEvery   time.Duration `env:"LOCALARBITER_REEVALUATION_INTERVAL" envDefault:"10s"`
	MaxReevaluations    int           `env:"LOCALARBITER_MAX_REEVALUATIONS" envDefault:"3"`
	ContextChangeWeight float64       `env:"LOCALARBITER_CONTEXT_CHANGE_WEIGHT" envDefault:"0.2"`
	SuppressionHistory  int           `env:"LOCALARBITER_SUPPRESSION_HISTORY" envDefault:"100"`

	TurnTimeout        time.Duration `env:"LOCALARBITER_TURN_TIMEOUT" envDefault:"30s"`
	MaxDiscussionTurns int           `env:"LOCALARBITER_MAX_DISCUSSION_TURNS" envDefault:"5"`
	DefaultAgent       string        `env:"LOCALARBITER_DEFAULT_AGENT"`
	UseDefaultAgent    bool          `env:"LOCALARBITER_USE_DEFAULT_AGENT" envDefault:"false"`

	AgentsFile           string        `env:"LOCALARBITER_AGENTS_FILE"`
	AgentsReload         time.Duration `env:"LOCALARBITER_AGENTS_RELOAD" envDefault:"250ms"`
	ConversationDuration time.Duration `env:"LOCALARBITER_CONVERSATION_DURATION" envDefault:"30m"`
	ConversationHistory  int           `env:"LOCALARBITER_CONVERSATION_HISTORY" envDefault:"50"`
	Seed                 int64         `env:"LOCALARBITER_SEED"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `env:"LOCALARBITER_OTLP_INSECURE" envDefault:"false"`
}

// Load parses the environment and normalizes the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize clamps out of range values instead of rejecting them.
func (c *Config) Normalize() {
	c.RelevanceWeight = atLeast(c.RelevanceWeight, 0)
	c.InterestWeight = atLeast(c.InterestWeight, 0)
	c.EmotionalWeight = atLeast(c.EmotionalWeight, 0)
	if c.RelevanceWeight+c.InterestWeight+c.EmotionalWeight == 0 {
		c.RelevanceWeight, c.InterestWeight, c.EmotionalWeight = 0.5, 0.3, 0.2
	}

	c.CascadeThreshold = clamp(c.CascadeThreshold, 0, 1)
	c.TiebreakerMargin = clamp(c.TiebreakerMargin, 0, 1)
	c.MinimumThreshold = clamp(c.MinimumThreshold, 0, 1)
	c.ContextChangeWeight = clamp(c.ContextChangeWeight, 0, 1)

	if c.Cooldown <= 0 {
		c.Cooldown = 60 * time.Second
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = 15 * time.Second
	}
	if c.TurnTimeout < 5*time.Second {
		c.TurnTimeout = 5 * time.Second
	}
	if c.TurnTimeout > 120*time.Second {
		c.TurnTimeout = 120 * time.Second
	}
	if c.ReevaluationEvery < time.Second {
		c.ReevaluationEvery = time.Second
	}
	if c.ReevaluationDelay < 0 {
		c.ReevaluationDelay = 0
	}
	if c.MaxReevaluations < 1 {
		c.MaxReevaluations = 1
	}
	if c.MaxDiscussionTurns < 1 {
		c.MaxDiscussionTurns = 1
	}
	if c.SuppressionHistory < 1 {
		c.SuppressionHistory = 100
	}
	if c.ConversationHistory < 0 {
		c.ConversationHistory = 0
	}

	keys := []string{}
	for _, k := range c.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	c.APIKeys = keys
}

// OracleEnabled reports whether an LLM scoring oracle is configured.
func (c *Config) OracleEnabled() bool {
	return c.LLMAPIURL != "" && c.LLMModel != ""
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func atLeast(v, lo float64) float64 {
	if v < lo {
		return lo
	}
	return v
}
