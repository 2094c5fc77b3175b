package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/mudler/LocalArbiter/core/types"
	"github.com/mudler/LocalArbiter/pkg/llm"
	"github.com/mudler/xlog"
)

// NeutralScore is what every agent gets when the oracle cannot answer.
const NeutralScore = 0.5

// OracleSource asks an LLM to rate the agents. It uses Fallback when no
// client is configured or the context cannot wait on the network.
type OracleSource struct {
	client   llm.LLMClient
	model    string
	timeout  time.Duration
	fallback Source
	degraded func(error)
}

type OracleOption func(*OracleSource)

func WithOracleTimeout(d time.Duration) OracleOption {
	return func(o *OracleSource) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithDegradeHook is called every time the oracle reply is unusable.
func WithDegradeHook(f func(error)) OracleOption {
	return func(o *OracleSource) {
		o.degraded = f
	}
}

func NewOracleSource(client llm.LLMClient, model string, fallback Source, opts ...OracleOption) *OracleSource {
	if fallback == nil {
		fallback = NewRuleSource(nil)
	}
	o := &OracleSource{
		client:   client,
		model:    model,
		timeout:  15 * time.Second,
		fallback: fallback,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *OracleSource) Score(ctx context.Context, message string, agents []types.AgentProfile, emo *types.EmotionalContext) (map[string]float64, types.ScoreKind) {
	if o.client == nil || !SuspensionAllowed(ctx) {
		return o.fallback.Score(ctx, message, agents, emo)
	}
	return o.CalculateRelevanceLLM(ctx, message, agents, emo), types.ScoreKindOracle
}

// CalculateRelevanceLLM issues one scoring request for all agents. A failed
// or malformed reply yields NeutralScore for every agent.
func (o *OracleSource) CalculateRelevanceLLM(ctx context.Context, message string, agents []types.AgentProfile, emo *types.EmotionalContext) map[string]float64 {
	scores := make(map[string]float64, len(agents))
	for _, a := range agents {
		scores[a.ID] = NeutralScore
	}
	if len(agents) == 0 {
		return scores
	}

	prompt, err := renderScoringPrompt(message, agents, emo)
	if err != nil {
		o.degrade(fmt.Errorf("rendering scoring prompt: %w", err))
		return scores
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	candidates := make([]llm.Candidate, len(agents))
	for i, a := range agents {
		candidates[i] = llm.Candidate{ID: a.ID, Label: a.Name}
	}
	rated, err := llm.RateCandidates(callCtx, o.client, o.model, prompt, candidates)
	if err != nil {
		o.degrade(fmt.Errorf("scoring oracle: %w", err))
		return scores
	}
	for id, v := range rated {
		scores[id] = v
	}
	if len(rated) < len(agents) {
		xlog.Debug("Oracle skipped agents, using neutral scores", "rated", len(rated), "agents", len(agents))
	}
	return scores
}

func (o *OracleSource) degrade(err error) {
	xlog.Warn("Falling back to neutral scores", "error", err)
	if o.degraded != nil {
		o.degraded(err)
	}
}
