package turns_test

import (
	"errors"
	"sync"
	"time"

	"github.com/mudler/LocalArbiter/core/turns"
	"github.com/mudler/LocalArbiter/core/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recorder struct {
	sync.Mutex
	events []types.Event
}

func (r *recorder) Emit(e types.Event) {
	r.Lock()
	defer r.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Types() []types.EventType {
	r.Lock()
	defer r.Unlock()
	out := []types.EventType{}
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) Last() types.Event {
	r.Lock()
	defer r.Unlock()
	return r.events[len(r.events)-1]
}

type clock struct {
	sync.Mutex
	t time.Time
}

func (c *clock) Now() time.Time {
	c.Lock()
	defer c.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.Lock()
	c.t = c.t.Add(d)
	c.Unlock()
}

func queueIDs(st turns.Status) []string {
	ids := []string{}
	for _, q := range st.Queue {
		ids = append(ids, q.AgentID)
	}
	return ids
}

var _ = Describe("Manager", func() {
	var (
		sink *recorder
		clk  *clock
		m    *turns.Manager
	)

	BeforeEach(func() {
		sink = &recorder{}
		clk = &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		m = turns.NewManager(turns.WithEventSink(sink), turns.WithClock(clk.Now), turns.WithTimeout(time.Minute))
	})

	AfterEach(func() {
		m.Stop()
	})

	It("starts idle", func() {
		st := m.GetQueueStatus()
		Expect(st.State).To(Equal(turns.StateIdle))
		Expect(st.CurrentAgent).To(BeEmpty())
		Expect(st.Queue).To(BeEmpty())
	})

	It("gives the turn to the first requester", func() {
		Expect(m.RequestTurn("a", "hello", nil, 0)).To(BeTrue())
		Expect(m.CurrentAgent()).To(Equal("a"))
		Expect(m.GetQueueStatus().State).To(Equal(turns.StateResponding))
		Expect(sink.Types()).To(Equal([]types.EventType{types.EventTurnStarted}))
	})

	It("is idempotent for the occupant", func() {
		m.RequestTurn("a", "hello", nil, 0)
		Expect(m.RequestTurn("a", "again", nil, 5)).To(BeTrue())
		st := m.GetQueueStatus()
		Expect(st.State).To(Equal(turns.StateResponding))
		Expect(st.Current.Message).To(Equal("hello"))
		Expect(st.QueueSize).To(BeZero())
		Expect(sink.Types()).To(HaveLen(1))
	})

	It("queues other agents by priority then arrival", func() {
		m.RequestTurn("a", "", nil, 0)
		Expect(m.RequestTurn("low", "", nil, 0)).To(BeFalse())
		clk.Advance(time.Second)
		Expect(m.RequestTurn("high", "", nil, 5)).To(BeFalse())
		clk.Advance(time.Second)
		Expect(m.RequestTurn("low2", "", nil, 0)).To(BeFalse())

		st := m.GetQueueStatus()
		Expect(st.State).To(Equal(turns.StateQueued))
		Expect(queueIDs(st)).To(Equal([]string{"high", "low", "low2"}))
		Expect(sink.Last().Type).To(Equal(types.EventAgentQueued))
		Expect(sink.Last().QueueSize).To(Equal(3))
	})

	It("keeps one slot per queued agent", func() {
		m.RequestTurn("a", "", nil, 0)
		m.RequestTurn("b", "first", nil, 2)
		clk.Advance(time.Second)
		m.RequestTurn("c", "", nil, 1)
		clk.Advance(time.Second)
		m.RequestTurn("b", "second", nil, 0)

		st := m.GetQueueStatus()
		Expect(queueIDs(st)).To(Equal([]string{"b", "c"}))
		Expect(st.Queue[0].Message).To(Equal("second"))
		Expect(st.Queue[0].Priority).To(Equal(2))
	})

	It("transfers the turn on release", func() {
		m.RequestTurn("a", "", nil, 0)
		m.RequestTurn("b", "", nil, 0)

		Expect(m.ReleaseTurn()).To(Equal("b"))
		ev := sink.Last()
		Expect(ev.Type).To(Equal(types.EventTurnTransferred))
		Expect(ev.PreviousAgent).To(Equal("a"))
		Expect(ev.NewAgent).To(Equal("b"))
		Expect(ev.QueueSize).To(BeZero())
		Expect(m.GetQueueStatus().State).To(Equal(turns.StateResponding))

		Expect(m.ReleaseTurn()).To(BeEmpty())
		Expect(sink.Last().Type).To(Equal(types.EventTurnReleased))
		Expect(sink.Last().PreviousAgent).To(Equal("b"))
		st := m.GetQueueStatus()
		Expect(st.State).To(Equal(turns.StateIdle))
		Expect(st.Current).To(BeNil())
	})

	It("does nothing when releasing while idle", func() {
		Expect(m.ReleaseTurn()).To(BeEmpty())
		Expect(sink.Types()).To(BeEmpty())
	})

	Describe("CancelTurn", func() {
		BeforeEach(func() {
			m.RequestTurn("a", "", nil, 0)
			m.RequestTurn("b", "", nil, 0)
			clk.Advance(time.Second)
			m.RequestTurn("c", "", nil, 0)
			clk.Advance(time.Second)
			m.RequestTurn("d", "", nil, 0)
		})

		It("removes a queued agent keeping the order", func() {
			Expect(m.CancelTurn("c")).To(BeTrue())
			Expect(queueIDs(m.GetQueueStatus())).To(Equal([]string{"b", "d"}))
			Expect(sink.Last().Type).To(Equal(types.EventQueuedResponseCancelled))
			Expect(sink.Last().QueueSize).To(Equal(2))
		})

		It("promotes the head when the occupant cancels", func() {
			Expect(m.CancelTurn("a")).To(BeTrue())
			Expect(m.CurrentAgent()).To(Equal("b"))
			Expect(queueIDs(m.GetQueueStatus())).To(Equal([]string{"c", "d"}))
		})

		It("returns false for unknown agents", func() {
			Expect(m.CancelTurn("zed")).To(BeFalse())
		})

		It("goes back to responding when the queue empties", func() {
			m.CancelTurn("b")
			m.CancelTurn("c")
			m.CancelTurn("d")
			Expect(m.GetQueueStatus().State).To(Equal(turns.StateResponding))
		})
	})

	Describe("ForceState", func() {
		It("clears everything when forced idle", func() {
			m.RequestTurn("a", "", nil, 0)
			m.RequestTurn("b", "", nil, 0)
			Expect(m.ForceState(turns.StateIdle)).To(BeTrue())
			st := m.GetQueueStatus()
			Expect(st.State).To(Equal(turns.StateIdle))
			Expect(st.CurrentAgent).To(BeEmpty())
			Expect(st.Queue).To(BeEmpty())
		})

		It("refuses states that cannot hold", func() {
			Expect(m.ForceState(turns.StateQueued)).To(BeFalse())
			Expect(m.ForceState(turns.StateResponding)).To(BeFalse())
			Expect(m.ForceState(turns.State("BOGUS"))).To(BeFalse())
		})
	})

	Describe("timeouts", func() {
		It("clamps the configured timeout", func() {
			Expect(m.SetTimeout(time.Second)).To(Equal(turns.MinTimeout))
			Expect(m.SetTimeout(time.Hour)).To(Equal(turns.MaxTimeout))
			Expect(turns.NewManager().GetQueueStatus().Timeout).To(Equal(turns.DefaultTimeout))
		})

		It("raises the warning past 80%", func() {
			m.RequestTurn("a", "", nil, 0)
			clk.Advance(47 * time.Second)
			Expect(m.GetQueueStatus().Warning).To(BeFalse())
			clk.Advance(2 * time.Second)
			st := m.GetQueueStatus()
			Expect(st.Warning).To(BeTrue())
			Expect(st.Elapsed).To(Equal(49 * time.Second))
		})

		It("force releases even when the callback fails", func() {
			called := []string{}
			m = turns.NewManager(turns.WithEventSink(sink), turns.WithTimeoutCallback(func(agentID string) error {
				called = append(called, agentID)
				return errors.New("stuck")
			}))
			m.RequestTurn("a", "", nil, 0)
			m.RequestTurn("b", "", nil, 0)

			turns.Expire(m)
			Expect(called).To(Equal([]string{"a"}))
			Expect(m.CurrentAgent()).To(Equal("b"))
			Expect(sink.Types()).To(ContainElements(types.EventTurnTimeout, types.EventTurnTransferred))
		})

		It("recovers from a panicking callback", func() {
			m = turns.NewManager(turns.WithTimeoutCallback(func(string) error { panic("boom") }))
			m.RequestTurn("a", "", nil, 0)
			Expect(func() { turns.Expire(m) }).NotTo(Panic())
			Expect(m.GetQueueStatus().State).To(Equal(turns.StateIdle))
		})

		It("expires on its own", func() {
			m = turns.NewManager(turns.WithEventSink(sink), turns.WithTimeout(turns.MinTimeout))
			m.RequestTurn("a", "", nil, 0)
			Eventually(m.CurrentAgent, 2*turns.MinTimeout, 100*time.Millisecond).Should(BeEmpty())
			Expect(sink.Types()).To(ContainElement(types.EventTurnReleased))
		})

		It("does not fire against a later occupant", func() {
			m.RequestTurn("a", "", nil, 0)
			m.RequestTurn("b", "", nil, 0)
			m.ReleaseTurn()
			Expect(m.CurrentAgent()).To(Equal("b"))
			Consistently(m.CurrentAgent, 200*time.Millisecond).Should(Equal("b"))
		})
	})

	It("keeps a single occupant under concurrent requests", func() {
		var wg sync.WaitGroup
		accepted := make(chan string, 20)
		for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
			wg.Add(1)
			go func(id string) {
				defer GinkgoRecover()
				defer wg.Done()
				if m.RequestTurn(id, "", nil, 0) {
					accepted <- id
				}
			}(id)
		}
		wg.Wait()
		close(accepted)
		Expect(accepted).To(HaveLen(1))
		Expect(m.GetQueueStatus().QueueSize).To(Equal(7))
	})
})
