package scoring

import (
	"context"

	"github.com/mudler/LocalArbiter/core/types"
)

// Source produces raw per-agent scores for a message. Implementations must
// always return a score for every agent they are given.
type Source interface {
	Score(ctx context.Context, message string, agents []types.AgentProfile, emo *types.EmotionalContext) (map[string]float64, types.ScoreKind)
}

type noSuspensionKey struct{}

// WithoutSuspension marks ctx as unable to wait on network calls. Sources
// backed by an oracle fall back to rules for such contexts.
func WithoutSuspension(ctx context.Context) context.Context {
	return context.WithValue(ctx, noSuspensionKey{}, true)
}

// SuspensionAllowed reports whether ctx may wait on network calls.
func SuspensionAllowed(ctx context.Context) bool {
	v, _ := ctx.Value(noSuspensionKey{}).(bool)
	return !v
}

// RuleSource scores with the rule-based Engine.
type RuleSource struct {
	Engine *Engine
}

func NewRuleSource(engine *Engine) *RuleSource {
	if engine == nil {
		engine = NewEngine()
	}
	return &RuleSource{Engine: engine}
}

func (r *RuleSource) Score(_ context.Context, message string, agents []types.AgentProfile, emo *types.EmotionalContext) (map[string]float64, types.ScoreKind) {
	scores := make(map[string]float64, len(agents))
	for _, a := range agents {
		scores[a.ID] = r.Engine.ScoreAgent(a, message, emo)
	}
	return scores, types.ScoreKindRule
}
