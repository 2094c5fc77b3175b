// Package turns serializes who is allowed to speak.
package turns

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mudler/LocalArbiter/core/types"
	"github.com/mudler/LocalArbiter/pkg/telemetry"
	"github.com/mudler/xlog"
	"go.opentelemetry.io/otel/metric"
)

type State string

const (
	StateIdle       State = "IDLE"
	StateResponding State = "RESPONDING"
	StateQueued     State = "QUEUED"
)

const (
	DefaultTimeout = 30 * time.Second
	MinTimeout     = 5 * time.Second
	MaxTimeout     = 120 * time.Second
	warningRatio   = 0.8
)

// ClampTimeout brings d into [MinTimeout, MaxTimeout].
func ClampTimeout(d time.Duration) time.Duration {
	if d < MinTimeout {
		return MinTimeout
	}
	if d > MaxTimeout {
		return MaxTimeout
	}
	return d
}

// Turn is the current speaking slot.
type Turn struct {
	AgentID   string         `json:"agent_id"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Priority  int            `json:"priority"`
	StartedAt time.Time      `json:"started_at"`
}

// Status is a read-only view of the manager.
type Status struct {
	State        State            `json:"state"`
	CurrentAgent string           `json:"current_agent,omitempty"`
	Current      *Turn            `json:"current,omitempty"`
	Elapsed      time.Duration    `json:"elapsed"`
	Timeout      time.Duration    `json:"timeout"`
	Warning      bool             `json:"warning"`
	QueueSize    int              `json:"queue_size"`
	Queue        []QueuedResponse `json:"queue"`
}

// TimeoutCallback runs when an agent held the turn for too long. Its
// outcome never prevents the turn from being released.
type TimeoutCallback func(agentID string) error

// Manager is the turn taking state machine. Every read and transition
// happens under one mutex.
type Manager struct {
	mu sync.Mutex

	state   State
	current *Turn
	queue   responseQueue
	timeout time.Duration

	// generation identifies the armed timers of the current turn
	generation uint64
	timer      *time.Timer
	warnTimer  *time.Timer
	warned     bool

	sink      types.EventSink
	onTimeout TimeoutCallback
	now       func() time.Time
	timeouts  metric.Int64Counter
}

type Option func(*Manager)

// WithTimeout sets the turn timeout, clamped to [MinTimeout, MaxTimeout].
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.timeout = ClampTimeout(d)
	}
}

func WithEventSink(sink types.EventSink) Option {
	return func(m *Manager) {
		if sink != nil {
			m.sink = sink
		}
	}
}

func WithTimeoutCallback(cb TimeoutCallback) Option {
	return func(m *Manager) {
		m.onTimeout = cb
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		state:   StateIdle,
		timeout: DefaultTimeout,
		sink:    types.DiscardEvents,
		now:     time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	m.timeouts, _ = telemetry.Meter("localarbiter/turns").Int64Counter("localarbiter.turn.timeouts",
		metric.WithDescription("Turns released because the speaker ran out of time"),
	)
	return m
}

// RequestTurn gives agentID the turn when nobody holds it and returns true.
// A request from the current occupant is accepted without changes. Anybody
// else is queued and false is returned.
func (m *Manager) RequestTurn(agentID, message string, metadata map[string]any, priority int) bool {
	m.mu.Lock()
	var events []types.Event
	defer func() {
		m.mu.Unlock()
		m.emit(events)
	}()

	if m.current == nil {
		events = append(events, m.startLocked(Turn{
			AgentID:  agentID,
			Message:  message,
			Metadata: metadata,
			Priority: priority,
		}))
		return true
	}

	if m.current.AgentID == agentID {
		return true
	}

	m.queue = m.queue.push(QueuedResponse{
		AgentID:   agentID,
		Message:   message,
		Metadata:  metadata,
		Priority:  priority,
		Timestamp: m.now(),
	})
	m.state = StateQueued
	xlog.Debug("Agent queued", "agent", agentID, "priority", priority, "queue_size", len(m.queue))
	events = append(events, types.Event{
		Type:      types.EventAgentQueued,
		AgentID:   agentID,
		QueueSize: len(m.queue),
		Timestamp: m.now(),
	})
	return false
}

// ReleaseTurn ends the current turn and hands it to the head of the queue.
// It returns the new occupant, empty when the manager went idle.
func (m *Manager) ReleaseTurn() string {
	m.mu.Lock()
	var events []types.Event
	defer func() {
		m.mu.Unlock()
		m.emit(events)
	}()

	if m.current == nil {
		return ""
	}
	events = m.advanceLocked()
	return m.currentIDLocked()
}

// CancelTurn removes agentID from the manager. The current occupant loses
// the turn to the queue head; a queued agent leaves the queue. It returns
// false when agentID is neither.
func (m *Manager) CancelTurn(agentID string) bool {
	m.mu.Lock()
	var events []types.Event
	defer func() {
		m.mu.Unlock()
		m.emit(events)
	}()

	if m.current != nil && m.current.AgentID == agentID {
		events = m.advanceLocked()
		return true
	}

	i := m.queue.index(agentID)
	if i < 0 {
		return false
	}
	m.queue = m.queue.remove(i)
	if len(m.queue) == 0 && m.current != nil {
		m.state = StateResponding
	}
	xlog.Debug("Queued response cancelled", "agent", agentID, "queue_size", len(m.queue))
	events = append(events, types.Event{
		Type:      types.EventQueuedResponseCancelled,
		AgentID:   agentID,
		QueueSize: len(m.queue),
		Timestamp: m.now(),
	})
	return true
}

// ForceState is an administrative override. Forcing IDLE drops the current
// turn and the queue. Forcing RESPONDING promotes the queue head when
// nobody holds the turn. It returns false when the requested state cannot
// hold, for example QUEUED with an empty queue.
func (m *Manager) ForceState(state State) bool {
	m.mu.Lock()
	var events []types.Event
	defer func() {
		m.mu.Unlock()
		m.emit(events)
	}()

	switch state {
	case StateIdle:
		m.stopTimersLocked()
		m.current = nil
		m.queue = nil
		m.state = StateIdle
		xlog.Warn("Turn state forced to idle")
		return true
	case StateResponding:
		if m.current == nil {
			if len(m.queue) == 0 {
				return false
			}
			head := m.queue[0]
			m.queue = m.queue.remove(0)
			events = append(events, m.startLocked(turnFrom(head)))
		}
		m.state = StateResponding
		if len(m.queue) > 0 {
			m.state = StateQueued
		}
		return true
	case StateQueued:
		if m.current == nil || len(m.queue) == 0 {
			return false
		}
		m.state = StateQueued
		return true
	default:
		return false
	}
}

// SetTimeout changes the timeout of the next turns and returns the value
// applied after clamping.
func (m *Manager) SetTimeout(d time.Duration) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = ClampTimeout(d)
	return m.timeout
}

func (m *Manager) CurrentAgent() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentIDLocked()
}

func (m *Manager) GetQueueStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		State:     m.state,
		Timeout:   m.timeout,
		QueueSize: len(m.queue),
		Queue:     m.queue.snapshot(),
	}
	if m.current != nil {
		cur := *m.current
		st.Current = &cur
		st.CurrentAgent = cur.AgentID
		st.Elapsed = m.now().Sub(cur.StartedAt)
		st.Warning = m.warned || float64(st.Elapsed) >= warningRatio*float64(m.timeout)
	}
	return st
}

// Stop disarms the timers. The state is left untouched.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimersLocked()
}

func (m *Manager) currentIDLocked() string {
	if m.current == nil {
		return ""
	}
	return m.current.AgentID
}

func (m *Manager) startLocked(t Turn) types.Event {
	t.StartedAt = m.now()
	m.current = &t
	m.state = StateResponding
	if len(m.queue) > 0 {
		m.state = StateQueued
	}
	m.armLocked()
	xlog.Info("Turn started", "agent", t.AgentID, "timeout", m.timeout)
	return types.Event{
		Type:      types.EventTurnStarted,
		AgentID:   t.AgentID,
		Timestamp: t.StartedAt,
	}
}

// advanceLocked hands the turn to the queue head or goes idle.
func (m *Manager) advanceLocked() []types.Event {
	previous := m.currentIDLocked()
	m.stopTimersLocked()

	if len(m.queue) == 0 {
		m.current = nil
		m.state = StateIdle
		xlog.Info("Turn released", "agent", previous)
		return []types.Event{{
			Type:          types.EventTurnReleased,
			PreviousAgent: previous,
			Timestamp:     m.now(),
		}}
	}

	head := m.queue[0]
	m.queue = m.queue.remove(0)
	m.startLocked(turnFrom(head))
	xlog.Info("Turn transferred", "from", previous, "to", head.AgentID, "queue_size", len(m.queue))
	return []types.Event{{
		Type:          types.EventTurnTransferred,
		PreviousAgent: previous,
		NewAgent:      head.AgentID,
		QueueSize:     len(m.queue),
		Timestamp:     m.now(),
	}}
}

func (m *Manager) armLocked() {
	m.stopTimersLocked()
	m.generation++
	gen := m.generation
	timeout := m.timeout
	m.warned = false
	m.warnTimer = time.AfterFunc(time.Duration(warningRatio*float64(timeout)), func() { m.warn(gen) })
	m.timer = time.AfterFunc(timeout, func() { m.expire(gen) })
}

func (m *Manager) stopTimersLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.warnTimer != nil {
		m.warnTimer.Stop()
		m.warnTimer = nil
	}
	m.generation++
}

func (m *Manager) warn(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation || m.current == nil {
		return
	}
	m.warned = true
	xlog.Warn("Turn about to time out", "agent", m.current.AgentID, "timeout", m.timeout)
}

// expire force releases the turn armed as gen. A turn released or replaced
// meanwhile has another generation and is left alone.
func (m *Manager) expire(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || m.current == nil {
		m.mu.Unlock()
		return
	}
	agentID := m.current.AgentID
	cb := m.onTimeout
	m.mu.Unlock()

	xlog.Warn("Turn timed out", "agent", agentID)
	if m.timeouts != nil {
		m.timeouts.Add(context.Background(), 1)
	}
	if cb != nil {
		if err := runCallback(cb, agentID); err != nil {
			xlog.Error("Turn timeout callback failed", "agent", agentID, "error", err)
		}
	}

	m.mu.Lock()
	if gen != m.generation || m.current == nil || m.current.AgentID != agentID {
		m.mu.Unlock()
		return
	}
	events := []types.Event{{
		Type:      types.EventTurnTimeout,
		AgentID:   agentID,
		QueueSize: len(m.queue),
		Timestamp: m.now(),
	}}
	events = append(events, m.advanceLocked()...)
	m.mu.Unlock()
	m.emit(events)
}

func runCallback(cb TimeoutCallback, agentID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in timeout callback: %v", r)
		}
	}()
	return cb(agentID)
}

func (m *Manager) emit(events []types.Event) {
	for _, e := range events {
		m.sink.Emit(e)
	}
}

func turnFrom(q QueuedResponse) Turn {
	return Turn{
		AgentID:  q.AgentID,
		Message:  q.Message,
		Metadata: q.Metadata,
		Priority: q.Priority,
	}
}
