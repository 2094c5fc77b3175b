package webui

import (
	"github.com/mudler/LocalArbiter/core/arbiter"
	"github.com/mudler/LocalArbiter/core/conversations"
	"github.com/mudler/LocalArbiter/core/sse"
	"github.com/mudler/LocalArbiter/core/turns"
	"github.com/mudler/LocalArbiter/pkg/config"
)

type Config struct {
	Arbiter  *arbiter.SocialArbiter
	Turns    *turns.Manager
	Bus      *sse.Bus
	Tracker  *conversations.DiscussionTracker[string]
	Settings *config.Config
	ApiKeys  []string
}

type Option func(*Config)

func WithArbiter(a *arbiter.SocialArbiter) Option {
	return func(c *Config) {
		c.Arbiter = a
	}
}

func WithTurnManager(m *turns.Manager) Option {
	return func(c *Config) {
		c.Turns = m
	}
}

func WithEventBus(b *sse.Bus) Option {
	return func(c *Config) {
		c.Bus = b
	}
}

func WithDiscussionTracker(t *conversations.DiscussionTracker[string]) Option {
	return func(c *Config) {
		c.Tracker = t
	}
}

func WithSettings(s *config.Config) Option {
	return func(c *Config) {
		c.Settings = s
	}
}

func WithApiKeys(keys ...string) Option {
	return func(c *Config) {
		c.ApiKeys = keys
	}
}

func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func NewConfig(opts ...Option) *Config {
	c := &Config{}
	c.Apply(opts...)
	if c.Arbiter == nil {
		c.Arbiter = arbiter.New()
	}
	if c.Turns == nil {
		c.Turns = turns.NewManager()
	}
	if c.Settings == nil {
		c.Settings = &config.Config{}
		c.Settings.Normalize()
	}
	return c
}
