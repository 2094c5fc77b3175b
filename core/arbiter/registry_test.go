package arbiter_test

import (
	"github.com/mudler/LocalArbiter/core/arbiter"
	"github.com/mudler/LocalArbiter/core/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	var r *arbiter.Registry

	BeforeEach(func() {
		r = arbiter.NewRegistry()
		Expect(r.Register(types.NewAgentProfile("b", "Bob"))).To(Succeed())
		Expect(r.Register(types.NewAgentProfile("a", "Alice"))).To(Succeed())
	})

	It("rejects duplicates and empty ids", func() {
		Expect(r.Register(types.NewAgentProfile("a", "Again"))).To(MatchError(arbiter.ErrAgentExists))
		Expect(r.Register(types.AgentProfile{})).To(HaveOccurred())
	})

	It("lists agents by id", func() {
		ids := []string{}
		for _, a := range r.List() {
			ids = append(ids, a.ID)
		}
		Expect(ids).To(Equal([]string{"a", "b"}))
	})

	It("filters inactive agents", func() {
		Expect(r.SetActive("a", false)).To(Succeed())
		active := r.Active()
		Expect(active).To(HaveLen(1))
		Expect(active[0].ID).To(Equal("b"))
	})

	It("reports unknown agents", func() {
		Expect(r.SetActive("zed", true)).To(MatchError(arbiter.ErrAgentNotFound))
		Expect(r.Unregister("zed")).To(MatchError(arbiter.ErrAgentNotFound))
		Expect(r.UpdateStats("zed", 1)).To(MatchError(arbiter.ErrAgentNotFound))
	})

	It("counts responses", func() {
		Expect(r.UpdateStats("a", 1.5)).To(Succeed())
		a, ok := r.Get("a")
		Expect(ok).To(BeTrue())
		Expect(a.ResponseCount).To(Equal(1))
		Expect(a.HasSpoken()).To(BeTrue())
	})

	It("keeps counters on upsert", func() {
		Expect(r.UpdateStats("a", 1)).To(Succeed())
		p := types.NewAgentProfile("a", "Alicia")
		Expect(r.Upsert(p)).To(Succeed())
		a, _ := r.Get("a")
		Expect(a.Name).To(Equal("Alicia"))
		Expect(a.ResponseCount).To(Equal(1))
	})

	It("normalizes profiles", func() {
		p := types.NewAgentProfile("c", "")
		p.EmpathyLevel = 4
		p.PriorityWeight = -1
		Expect(r.Register(p)).To(Succeed())
		c, _ := r.Get("c")
		Expect(c.Name).To(Equal("c"))
		Expect(c.EmpathyLevel).To(Equal(1.0))
		Expect(c.PriorityWeight).To(BeZero())
	})
})
