// Package arbiter decides which agents answer a message.
package arbiter

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mudler/LocalArbiter/core/emotion"
	"github.com/mudler/LocalArbiter/core/names"
	"github.com/mudler/LocalArbiter/core/scoring"
	"github.com/mudler/LocalArbiter/core/suppression"
	"github.com/mudler/LocalArbiter/core/types"
	"github.com/mudler/LocalArbiter/pkg/xstrings"
	"github.com/mudler/xlog"
)

const (
	decayStep  = 0.1
	decayFloor = 0.1
)

// Decay is the score multiplier applied at the given discussion turn.
func Decay(turn int) float64 {
	if turn < 0 {
		turn = 0
	}
	return math.Max(1.0-decayStep*float64(turn), decayFloor)
}

// SocialArbiter owns the agent registry and the suppression queue and runs
// the decision algorithm over them.
type SocialArbiter struct {
	registry   *Registry
	engine     *scoring.Engine
	source     scoring.Source
	tiebreaker *scoring.Tiebreaker
	suppressor *suppression.ResponseSuppressor
	detector   *emotion.Detector
	states     *emotion.StateManager
	names      *names.Extractor
	sink       types.EventSink
	metrics    metrics

	cascadeThreshold   float64
	maxDiscussionTurns int
	defaultAgent       string
	useFallback        bool

	randMu sync.Mutex
	rand   *rand.Rand

	// last context seen per conversation, used to re-evaluate suppressed
	// responses
	ctxMu      sync.Mutex
	contexts   map[string]contextEntry
	contextTTL time.Duration

	now func() time.Time
}

func New(opts ...Option) *SocialArbiter {
	a := &SocialArbiter{
		registry:           NewRegistry(),
		engine:             scoring.NewEngine(),
		tiebreaker:         scoring.NewTiebreaker(),
		detector:           emotion.NewDetector(),
		states:             emotion.NewStateManager(),
		names:              names.NewExtractor(),
		sink:               types.DiscardEvents,
		cascadeThreshold:   DefaultCascadeThreshold,
		maxDiscussionTurns: DefaultMaxDiscussionTurns,
		rand:               rand.New(rand.NewSource(time.Now().UnixNano())),
		contexts:           make(map[string]contextEntry),
		contextTTL:         DefaultContextTTL,
		now:                time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	if a.source == nil {
		a.source = scoring.NewRuleSource(a.engine)
	}
	if a.suppressor == nil {
		a.suppressor = suppression.NewResponseSuppressor()
	}
	a.metrics = newMetrics()
	return a
}

func (a *SocialArbiter) Registry() *Registry {
	return a.registry
}

func (a *SocialArbiter) Suppressor() *suppression.ResponseSuppressor {
	return a.suppressor
}

func (a *SocialArbiter) States() *emotion.StateManager {
	return a.states
}

func (a *SocialArbiter) Detector() *emotion.Detector {
	return a.detector
}

func (a *SocialArbiter) RegisterAgent(p types.AgentProfile) error {
	return a.registry.Register(p)
}

// UpsertAgent registers p or refreshes the profile of a known agent.
func (a *SocialArbiter) UpsertAgent(p types.AgentProfile) error {
	return a.registry.Upsert(p)
}

// UnregisterAgent removes the agent with its emotional state and its
// suppressed responses.
func (a *SocialArbiter) UnregisterAgent(id string) error {
	if err := a.registry.Unregister(id); err != nil {
		return err
	}
	a.states.Forget(id)
	a.suppressor.ClearSuppressed(id)
	return nil
}

func (a *SocialArbiter) SetAgentActive(id string, active bool) error {
	return a.registry.SetActive(id, active)
}

func (a *SocialArbiter) UpdateAgentStats(id string, responseTime float64) error {
	return a.registry.UpdateStats(id, responseTime)
}

// ShouldStopDiscussion reports whether agents talked among themselves for
// too long.
func (a *SocialArbiter) ShouldStopDiscussion(discussionTurn int) bool {
	return discussionTurn >= a.maxDiscussionTurns
}

// DetermineResponder picks the agents that should answer req. An empty
// Winners list is a valid outcome.
func (a *SocialArbiter) DetermineResponder(ctx context.Context, req types.DecisionRequest) types.Decision {
	d := types.Decision{
		ID:        uuid.New().String(),
		Winners:   []string{},
		Reason:    types.ReasonNone,
		Decay:     Decay(req.DiscussionTurn),
		CreatedAt: a.now(),
	}

	emo := req.EmotionalContext
	if emo == nil {
		detected := a.detector.DetectEmotions(req.Message)
		emo = &detected
	}
	if emo.HasEmotion() {
		d.Emotion = emo
	}
	a.rememberContext(req, emo)

	switch {
	case a.byMention(req, &d):
	case a.byCollectiveGreeting(req, &d):
	case a.byName(req, &d):
	default:
		a.byScore(ctx, req, emo, &d)
	}

	if emo.HasEmotion() {
		for _, id := range d.Winners {
			a.states.UpdateEmotionalState(id, emo.PrimaryEmotion)
		}
	}

	a.metrics.recordDecision(ctx, d)
	xlog.Info("Decision taken", "id", d.ID, "winners", d.Winners, "reason", d.Reason, "kind", d.Kind, "suppressed", d.Suppressed)
	a.sink.Emit(types.Event{
		Type:      types.EventDecision,
		Winners:   d.Winners,
		Timestamp: d.CreatedAt,
	})
	return d
}

func (a *SocialArbiter) byMention(req types.DecisionRequest, d *types.Decision) bool {
	if len(req.MentionedAgents) == 0 {
		return false
	}
	for _, id := range xstrings.UniqueSlice(req.MentionedAgents) {
		if _, ok := a.registry.Get(id); ok {
			d.Winners = append(d.Winners, id)
		} else {
			xlog.Debug("Ignoring mention of unknown agent", "agent", id)
		}
	}
	if len(d.Winners) == 0 {
		return false
	}
	d.Reason = types.ReasonMention
	return true
}

func (a *SocialArbiter) byCollectiveGreeting(req types.DecisionRequest, d *types.Decision) bool {
	if !isCollectiveGreeting(req.Message) {
		return false
	}
	active := a.registry.Active()
	if len(active) == 0 {
		return false
	}
	a.randMu.Lock()
	pick := active[a.rand.Intn(len(active))]
	a.randMu.Unlock()

	d.Winners = []string{pick.ID}
	d.Reason = types.ReasonCollectiveGreeting
	return true
}

func (a *SocialArbiter) byName(req types.DecisionRequest, d *types.Decision) bool {
	id, exact := a.names.ResolveAgent(req.Message, a.registry.Active())
	if id == "" {
		return false
	}
	xlog.Debug("Message addresses an agent", "agent", id, "exact", exact)
	d.Winners = []string{id}
	d.Reason = types.ReasonNamed
	return true
}

func (a *SocialArbiter) byScore(ctx context.Context, req types.DecisionRequest, emo *types.EmotionalContext, d *types.Decision) {
	active := a.registry.Active()
	if len(active) == 0 {
		return
	}

	raw, kind := a.source.Score(ctx, req.Message, active, emo)
	d.Kind = kind
	now := a.now()
	d.Scores = make(map[string]float64, len(active))
	for _, agent := range active {
		s, ok := raw[agent.ID]
		if !ok {
			s = scoring.NeutralScore
		}
		s = a.engine.ApplyRepetitionPenalty(s, scoring.SecondsSinceLastSpoke(agent, now))
		d.Scores[agent.ID] = s * d.Decay
	}

	ranked := scoring.Rank(active, d.Scores)
	if kind == types.ScoreKindRule && len(ranked) > 1 && a.engine.AreScoresTied(ranked[0].Score, ranked[1].Score) {
		// Only practically equal scores are reordered, the best agent
		// keeps its place otherwise.
		ranked = a.tiebreaker.Apply(ranked)
	}

	var winners []scoring.Ranked
	for _, r := range ranked {
		if r.Score > a.cascadeThreshold {
			winners = append(winners, r)
		}
	}
	if len(winners) > 0 {
		d.Reason = types.ReasonCascade
	} else {
		best := ranked[0]
		threshold := a.suppressor.MinimumThreshold()
		switch {
		case best.Score > threshold:
			winners = []scoring.Ranked{best}
			d.Reason = types.ReasonFallback
		case a.useFallback:
			fb := scoring.NewFallback(threshold, a.defaultAgent)
			if id, ok := fb.SelectAgent(ranked, active); ok {
				for _, r := range ranked {
					if r.Agent.ID == id {
						winners = []scoring.Ranked{r}
					}
				}
				d.Reason = types.ReasonFallback
			}
		case req.AllowSuppression && a.suppressor.ShouldSuppress(best.Agent.ID, best.Score):
			a.suppress(req, emo, best, suppression.ReasonBelowThreshold, d)
		}
	}

	for _, w := range winners {
		if req.AllowSuppression && a.suppressor.ShouldSuppress(w.Agent.ID, w.Score) {
			a.suppress(req, emo, w, suppression.ReasonLowRelevance, d)
			continue
		}
		d.Winners = append(d.Winners, w.Agent.ID)
	}
	if len(d.Winners) == 0 {
		d.Reason = types.ReasonNone
	}
}

func (a *SocialArbiter) suppress(req types.DecisionRequest, emo *types.EmotionalContext, r scoring.Ranked, reason suppression.Reason, d *types.Decision) {
	a.suppressor.SuppressResponse(r.Agent.ID, req.Message, r.Score, reason, snapshot(req, emo), map[string]string{
		"decision_id": d.ID,
	})
	d.Suppressed = append(d.Suppressed, r.Agent.ID)
}

func snapshot(req types.DecisionRequest, emo *types.EmotionalContext) suppression.Snapshot {
	s := suppression.Snapshot{
		MentionedAgents: append([]string(nil), req.MentionedAgents...),
		ConversationID:  req.ConversationID,
	}
	if emo.HasEmotion() {
		s.PrimaryEmotion = emo.PrimaryEmotion
	}
	return s
}

type contextEntry struct {
	snapshot suppression.Snapshot
	seen     time.Time
}

// rememberContext stores the context of the latest decision of the
// conversation and forgets the conversations idle for longer than the TTL.
func (a *SocialArbiter) rememberContext(req types.DecisionRequest, emo *types.EmotionalContext) {
	now := a.now()
	a.ctxMu.Lock()
	defer a.ctxMu.Unlock()
	for id, e := range a.contexts {
		if now.Sub(e.seen) > a.contextTTL {
			delete(a.contexts, id)
		}
	}
	a.contexts[req.ConversationID] = contextEntry{snapshot: snapshot(req, emo), seen: now}
}

func (a *SocialArbiter) currentContext(conversationID string) suppression.Snapshot {
	a.ctxMu.Lock()
	defer a.ctxMu.Unlock()
	e, ok := a.contexts[conversationID]
	if !ok || a.now().Sub(e.seen) > a.contextTTL {
		return suppression.Snapshot{}
	}
	return e.snapshot
}

// Rescore scores a suppressed response against the current state of the
// registry. It fits suppression.Rescorer. Responses of agents that left,
// were deactivated or spoke since are not considered any more.
func (a *SocialArbiter) Rescore(ctx context.Context, item suppression.SuppressedResponse) (float64, suppression.Snapshot, bool) {
	agent, ok := a.registry.Get(item.AgentID)
	if !ok || !agent.Active {
		return 0, suppression.Snapshot{}, false
	}
	if agent.LastResponseTime.After(item.Timestamp) {
		xlog.Debug("Suppressed response superseded", "agent", agent.ID)
		return 0, suppression.Snapshot{}, false
	}

	current := a.currentContext(item.Context.ConversationID)
	var emo *types.EmotionalContext
	if current.PrimaryEmotion != "" {
		emo = &types.EmotionalContext{PrimaryEmotion: current.PrimaryEmotion}
	}
	scores, _ := a.source.Score(ctx, item.Message, []types.AgentProfile{agent}, emo)
	s, ok := scores[agent.ID]
	if !ok {
		s = scoring.NeutralScore
	}
	return a.engine.ApplyRepetitionPenalty(s, scoring.SecondsSinceLastSpoke(agent, a.now())), current, true
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
