package suppression

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mudler/LocalArbiter/core/types"
	"github.com/mudler/LocalArbiter/pkg/telemetry"
	"github.com/mudler/xlog"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/metric"
)

// Rescorer scores a suppressed response again and reports the context it
// is now in. ok is false when the response cannot be considered any more,
// for example because the agent went away.
type Rescorer func(ctx context.Context, item SuppressedResponse) (score float64, current Snapshot, ok bool)

// Reevaluator periodically takes a second look at suppressed responses.
type Reevaluator struct {
	suppressor *ResponseSuppressor
	rescore    Rescorer
	sink       types.EventSink
	interval   time.Duration

	mu     sync.Mutex
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	onAccept func(SuppressedResponse, float64)
	accepted metric.Int64Counter
}

type ReevaluatorOption func(*Reevaluator)

func WithEventSink(sink types.EventSink) ReevaluatorOption {
	return func(r *Reevaluator) {
		if sink != nil {
			r.sink = sink
		}
	}
}

// WithAcceptHook is called for every response that passed re-evaluation.
func WithAcceptHook(f func(SuppressedResponse, float64)) ReevaluatorOption {
	return func(r *Reevaluator) {
		r.onAccept = f
	}
}

func NewReevaluator(s *ResponseSuppressor, rescore Rescorer, interval time.Duration, opts ...ReevaluatorOption) *Reevaluator {
	if interval < time.Second {
		interval = time.Second
	}
	r := &Reevaluator{
		suppressor: s,
		rescore:    rescore,
		sink:       types.DiscardEvents,
		interval:   interval,
	}
	for _, o := range opts {
		o(r)
	}
	r.accepted, _ = telemetry.Meter("localarbiter/suppression").Int64Counter("localarbiter.reevaluations",
		metric.WithDescription("Suppressed responses released by re-evaluation"),
	)
	return r
}

// Start schedules the scan. It is a no-op when already running.
func (r *Reevaluator) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil {
		xlog.Warn("Reevaluator already started")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", r.interval), func() {
		r.RunOnce(ctx)
	}); err != nil {
		cancel()
		return fmt.Errorf("scheduling reevaluation: %w", err)
	}
	c.Start()

	r.cron, r.ctx, r.cancel = c, ctx, cancel
	xlog.Info("Suppression reevaluator started", "interval", r.interval)
	return nil
}

// Stop cancels the schedule and waits for a running scan to return.
func (r *Reevaluator) Stop() {
	r.mu.Lock()
	c, cancel := r.cron, r.cancel
	r.cron, r.ctx, r.cancel = nil, nil, nil
	r.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	xlog.Info("Suppression reevaluator stopped")
}

// Run starts the reevaluator and blocks until ctx is done.
func (r *Reevaluator) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	r.Stop()
	return nil
}

// RunOnce re-scores every due response and returns the accepted ones.
func (r *Reevaluator) RunOnce(ctx context.Context) []SuppressedResponse {
	pending := r.suppressor.GetPendingReevaluations()
	if len(pending) > 0 {
		xlog.Debug("Reevaluating suppressed responses", "count", len(pending))
	}

	accepted := []SuppressedResponse{}
	for _, item := range pending {
		if ctx.Err() != nil {
			break
		}
		score, current, ok := r.rescore(ctx, item)
		if !ok {
			r.suppressor.Drop(item.ID)
			continue
		}
		boosted := score + r.suppressor.CheckContextChange(item, current)
		if r.suppressor.ShouldSuppress(item.AgentID, boosted) {
			xlog.Debug("Response still suppressed", "agent", item.AgentID, "score", boosted, "attempt", item.ReevaluationCount)
			continue
		}

		r.suppressor.Resolve(item.ID)
		item.Score = boosted
		accepted = append(accepted, item)
		xlog.Info("Suppressed response reevaluated", "agent", item.AgentID, "score", boosted)
		if r.accepted != nil {
			r.accepted.Add(ctx, 1)
		}
		r.sink.Emit(types.Event{
			Type:      types.EventResponseReevaluated,
			AgentID:   item.AgentID,
			Score:     boosted,
			Timestamp: time.Now(),
		})
		if r.onAccept != nil {
			r.onAccept(item, boosted)
		}
	}
	return accepted
}
