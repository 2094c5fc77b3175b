package topics_test

import (
	"github.com/mudler/LocalArbiter/core/topics"
	"github.com/mudler/LocalArbiter/core/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TopicExtractor", func() {
	var extractor *topics.TopicExtractor

	BeforeEach(func() {
		extractor = topics.NewTopicExtractor()
	})

	It("drops stopwords and short words", func() {
		t := extractor.Extract("Tell me about the new recipe")
		Expect(t.Keywords).To(Equal([]string{"recipe"}))
	})

	It("classifies keywords into categories", func() {
		t := extractor.Extract("I love programming and cooking dinner")
		Expect(t.Categories).To(ContainElements("technology", "cooking"))
	})

	It("recognizes bigrams", func() {
		t := extractor.Extract("what do you think of machine learning")
		Expect(t.Categories).To(ContainElement("technology"))
	})

	It("orders categories by number of hits", func() {
		t := extractor.Extract("recipe for a dessert, cook it in the kitchen with my computer")
		Expect(t.Categories[0]).To(Equal("cooking"))
	})

	It("handles empty text", func() {
		t := extractor.Extract("")
		Expect(t.Keywords).To(BeEmpty())
		Expect(t.Categories).To(BeEmpty())
		Expect(t.MatchFraction([]string{"tech"})).To(BeZero())
	})

	It("matches terms by category prefix", func() {
		t := extractor.Extract("Tell me about technology")
		Expect(t.Matches("tech")).To(BeTrue())
		Expect(t.Matches("cooking")).To(BeFalse())
		Expect(t.MatchFraction([]string{"tech", "cooking"})).To(Equal(0.5))
	})
})

var _ = Describe("InterestScorer", func() {
	var scorer *topics.InterestScorer

	BeforeEach(func() {
		scorer = topics.NewInterestScorer(nil)
	})

	It("weights interests, expertise and domains", func() {
		agent := types.NewAgentProfile("chef", "Chef")
		agent.Interests = []string{"dessert"}
		agent.Expertise = []string{"baking"}
		agent.Domains = []string{"cooking"}

		Expect(scorer.Score(agent, "any dessert idea for baking?")).To(BeNumerically("~", 1.0, 1e-9))
		Expect(scorer.Score(agent, "dessert please")).To(BeNumerically("~", 0.4+0.25, 1e-9))
	})

	It("returns zero for an agent without metadata", func() {
		Expect(scorer.Score(types.NewAgentProfile("x", "X"), "technology")).To(BeZero())
	})

	It("stays within [0,1]", func() {
		agent := types.NewAgentProfile("tech", "Tech")
		agent.Domains = []string{"tech", "technology"}
		Expect(scorer.Score(agent, "technology tech tech")).To(BeNumerically("<=", 1.0))
	})
})
