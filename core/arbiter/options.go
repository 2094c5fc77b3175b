package arbiter

import (
	"math/rand"
	"time"

	"github.com/mudler/LocalArbiter/core/emotion"
	"github.com/mudler/LocalArbiter/core/names"
	"github.com/mudler/LocalArbiter/core/scoring"
	"github.com/mudler/LocalArbiter/core/suppression"
	"github.com/mudler/LocalArbiter/core/types"
)

const (
	DefaultCascadeThreshold   = 0.75
	DefaultMaxDiscussionTurns = 5
	DefaultContextTTL         = 30 * time.Minute
)

type Option func(*SocialArbiter)

// WithEngine sets the rule-based engine used for the repetition penalty,
// the tie margin and the default scoring source.
func WithEngine(e *scoring.Engine) Option {
	return func(a *SocialArbiter) {
		if e != nil {
			a.engine = e
		}
	}
}

// WithScoringSource replaces the rule-based scores, typically with a
// scoring.OracleSource.
func WithScoringSource(s scoring.Source) Option {
	return func(a *SocialArbiter) {
		if s != nil {
			a.source = s
		}
	}
}

func WithSuppressor(s *suppression.ResponseSuppressor) Option {
	return func(a *SocialArbiter) {
		if s != nil {
			a.suppressor = s
		}
	}
}

func WithRegistry(r *Registry) Option {
	return func(a *SocialArbiter) {
		if r != nil {
			a.registry = r
		}
	}
}

func WithEmotionDetector(d *emotion.Detector) Option {
	return func(a *SocialArbiter) {
		if d != nil {
			a.detector = d
		}
	}
}

func WithStateManager(m *emotion.StateManager) Option {
	return func(a *SocialArbiter) {
		if m != nil {
			a.states = m
		}
	}
}

func WithNameExtractor(n *names.Extractor) Option {
	return func(a *SocialArbiter) {
		if n != nil {
			a.names = n
		}
	}
}

func WithEventSink(sink types.EventSink) Option {
	return func(a *SocialArbiter) {
		if sink != nil {
			a.sink = sink
		}
	}
}

// WithDefaultAgent makes the arbiter answer with agentID, or with the least
// solicited active agent when agentID is inactive, instead of staying
// silent when no score clears the suppression threshold.
func WithDefaultAgent(agentID string) Option {
	return func(a *SocialArbiter) {
		a.defaultAgent = agentID
		a.useFallback = true
	}
}

// WithCascadeThreshold sets the score above which every agent answers,
// clamped to [0,1].
func WithCascadeThreshold(t float64) Option {
	return func(a *SocialArbiter) {
		a.cascadeThreshold = clamp(t, 0, 1)
	}
}

func WithMaxDiscussionTurns(n int) Option {
	return func(a *SocialArbiter) {
		if n > 0 {
			a.maxDiscussionTurns = n
		}
	}
}

// WithRand sets the source used to pick a spokesperson.
func WithRand(r *rand.Rand) Option {
	return func(a *SocialArbiter) {
		if r != nil {
			a.rand = r
		}
	}
}

// WithContextTTL sets how long the last context of an idle conversation is
// kept to re-evaluate its suppressed responses.
func WithContextTTL(ttl time.Duration) Option {
	return func(a *SocialArbiter) {
		if ttl > 0 {
			a.contextTTL = ttl
		}
	}
}
