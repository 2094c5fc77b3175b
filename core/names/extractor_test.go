package names_test

import (
	"github.com/mudler/LocalArbiter/core/names"
	"github.com/mudler/LocalArbiter/core/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Extractor", func() {
	var extractor *names.Extractor

	BeforeEach(func() {
		extractor = names.NewExtractor()
	})

	DescribeTable("ExtractNameFromMessage",
		func(message, expected string) {
			Expect(extractor.ExtractNameFromMessage(message)).To(Equal(expected))
		},
		Entry("comma address", "Lisa, peux-tu m'aider?", "Lisa"),
		Entry("comma address in french", "Lisa, comment vas-tu?", "Lisa"),
		Entry("at mention", "what do you think @marie?", "marie"),
		Entry("colon address", "Marie: any idea?", "Marie"),
		Entry("greeting", "hey Marie how are you", "Marie"),
		Entry("french greeting", "Bonjour Lisa !", "Lisa"),
		Entry("imperative", "can you ask Marie about it", "Marie"),
		Entry("capitalized first token", "Marie what now", "Marie"),
		Entry("single word is not a name", "Marie", ""),
		Entry("common sentence starter", "Tell me about technology", ""),
		Entry("greeting alone", "Bonjour, comment ça va?", ""),
		Entry("nothing", "what is the weather like", ""),
		Entry("empty", "", ""),
	)

	Describe("FindAgentByName", func() {
		var agents []types.AgentProfile

		BeforeEach(func() {
			lisa := types.NewAgentProfile("lisa", "Lisa")
			marie := types.NewAgentProfile("marie", "Marie Curie")
			marie.Nickname = "Mimi"
			agents = []types.AgentProfile{marie, lisa}
		})

		It("rejects short names", func() {
			id, exact := extractor.FindAgentByName("Li", agents)
			Expect(id).To(BeEmpty())
			Expect(exact).To(BeFalse())
		})

		It("matches exactly on name or nickname", func() {
			id, exact := extractor.FindAgentByName("LISA", agents)
			Expect(id).To(Equal("lisa"))
			Expect(exact).To(BeTrue())

			id, exact = extractor.FindAgentByName("mimi", agents)
			Expect(id).To(Equal("marie"))
			Expect(exact).To(BeTrue())
		})

		It("matches on prefix", func() {
			id, exact := extractor.FindAgentByName("Lis", agents)
			Expect(id).To(Equal("lisa"))
			Expect(exact).To(BeFalse())
		})

		It("matches on substring", func() {
			id, exact := extractor.FindAgentByName("curie", agents)
			Expect(id).To(Equal("marie"))
			Expect(exact).To(BeFalse())
		})

		It("matches on a shared token", func() {
			id, _ := extractor.FindAgentByName("Dr Marie Smith", agents)
			Expect(id).To(Equal("marie"))
		})

		It("finds a name inside a longer addressed name", func() {
			tech := types.NewAgentProfile("tech", "Tech")
			id, exact := extractor.FindAgentByName("Technology", append(agents, tech))
			Expect(id).To(Equal("tech"))
			Expect(exact).To(BeFalse())
		})

		It("returns nothing for unknown names", func() {
			id, exact := extractor.FindAgentByName("Robert", agents)
			Expect(id).To(BeEmpty())
			Expect(exact).To(BeFalse())
		})
	})

	Describe("ResolveAgent", func() {
		var agents []types.AgentProfile

		BeforeEach(func() {
			agents = []types.AgentProfile{
				types.NewAgentProfile("tech", "Tech"),
				types.NewAgentProfile("marie", "Marie Curie"),
			}
		})

		It("does not read a capitalized word as a longer name", func() {
			id, _ := extractor.ResolveAgent("Technology is fascinating", agents)
			Expect(id).To(BeEmpty())
			id, _ = extractor.ResolveAgent("Curiosity killed the cat", agents)
			Expect(id).To(BeEmpty())
		})

		It("still resolves a capitalized first word on a prefix", func() {
			id, exact := extractor.ResolveAgent("Marie what now", agents)
			Expect(id).To(Equal("marie"))
			Expect(exact).To(BeFalse())
		})

		It("keeps loose matching for addressed names", func() {
			id, _ := extractor.ResolveAgent("hey Techie, any idea?", agents)
			Expect(id).To(Equal("tech"))
		})
	})
})
