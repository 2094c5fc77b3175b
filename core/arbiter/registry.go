package arbiter

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mudler/LocalArbiter/core/types"
	"github.com/mudler/xlog"
)

var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrAgentExists   = errors.New("agent already registered")
)

// Registry holds the agent profiles. Decisions read it concurrently with
// the admin calls mutating it.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]types.AgentProfile
	now    func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]types.AgentProfile),
		now:    time.Now,
	}
}

// Register adds a new profile.
func (r *Registry) Register(p types.AgentProfile) error {
	if p.ID == "" {
		return fmt.Errorf("registering agent: empty agent_id")
	}
	p.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[p.ID]; exists {
		return fmt.Errorf("registering %q: %w", p.ID, ErrAgentExists)
	}
	r.agents[p.ID] = p
	xlog.Info("Agent registered", "agent", p.ID, "name", p.Name, "active", p.Active)
	return nil
}

// Upsert registers p or replaces the profile of an existing agent while
// keeping its response counters.
func (r *Registry) Upsert(p types.AgentProfile) error {
	if p.ID == "" {
		return fmt.Errorf("registering agent: empty agent_id")
	}
	p.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, exists := r.agents[p.ID]; exists {
		p.ResponseCount = old.ResponseCount
		p.LastResponseTime = old.LastResponseTime
		xlog.Debug("Agent profile updated", "agent", p.ID)
	} else {
		xlog.Info("Agent registered", "agent", p.ID, "name", p.Name, "active", p.Active)
	}
	r.agents[p.ID] = p
	return nil
}

func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[id]; !exists {
		return fmt.Errorf("unregistering %q: %w", id, ErrAgentNotFound)
	}
	delete(r.agents, id)
	xlog.Info("Agent unregistered", "agent", id)
	return nil
}

func (r *Registry) SetActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, exists := r.agents[id]
	if !exists {
		return fmt.Errorf("activating %q: %w", id, ErrAgentNotFound)
	}
	a.Active = active
	r.agents[id] = a
	xlog.Info("Agent activation changed", "agent", id, "active", active)
	return nil
}

// UpdateStats records that the agent just answered after responseTime
// seconds.
func (r *Registry) UpdateStats(id string, responseTime float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, exists := r.agents[id]
	if !exists {
		return fmt.Errorf("updating stats of %q: %w", id, ErrAgentNotFound)
	}
	a.ResponseCount++
	a.LastResponseTime = r.now()
	r.agents[id] = a
	xlog.Debug("Agent stats updated", "agent", id, "responses", a.ResponseCount, "response_time", responseTime)
	return nil
}

func (r *Registry) Get(id string) (types.AgentProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	return a, ok
}

// List returns every profile ordered by id.
func (r *Registry) List() []types.AgentProfile {
	return r.filter(func(types.AgentProfile) bool { return true })
}

// Active returns the active profiles ordered by id.
func (r *Registry) Active() []types.AgentProfile {
	return r.filter(func(a types.AgentProfile) bool { return a.Active })
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

func (r *Registry) filter(keep func(types.AgentProfile) bool) []types.AgentProfile {
	r.mu.RLock()
	out := make([]types.AgentProfile, 0, len(r.agents))
	for _, a := range r.agents {
		if keep(a) {
			out = append(out, a)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
