package llm_test

import (
	"context"

	"github.com/mudler/LocalArbiter/pkg/llm"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai/jsonschema"
)

var _ = Describe("RateCandidates", func() {
	candidates := []llm.Candidate{{ID: "tech", Label: "Tech"}, {ID: "chef", Label: "Chef"}}

	rate := func(arguments string) (map[string]float64, error) {
		client := answering(llm.ToolCallResponse(llm.ScoresTool, arguments), nil)
		return llm.RateCandidates(context.Background(), client, "m", "rate them", candidates)
	}

	It("asks for every candidate", func() {
		client := answering(llm.ToolCallResponse(llm.ScoresTool, `{"scores":{"tech":0.4,"chef":0.2}}`), nil)
		_, err := llm.RateCandidates(context.Background(), client, "m", "rate them", candidates)
		Expect(err).NotTo(HaveOccurred())

		tool := client.Requests[0].Tools[0].Function
		Expect(tool.Name).To(Equal(llm.ScoresTool))
		schema := tool.Parameters.(jsonschema.Definition)
		Expect(schema.Properties["scores"].Required).To(Equal([]string{"tech", "chef"}))
		Expect(schema.Properties["scores"].Properties["chef"].Description).To(ContainSubstring("Chef"))
	})

	It("clamps scores and accepts quoted numbers", func() {
		scores, err := rate(`{"scores":{"tech":"0.8","chef":-2}}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(scores).To(Equal(map[string]float64{"tech": 0.8, "chef": 0}))
	})

	It("drops unknown ids and unreadable values", func() {
		scores, err := rate(`{"scores":{"tech":"NaN","chef":true,"ghost":1,"x":0.3}}`)
		Expect(err).To(MatchError(llm.ErrNoScores))
		Expect(scores).To(BeNil())

		scores, err = rate(`{"scores":{"tech":0.7,"ghost":1}}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(scores).To(Equal(map[string]float64{"tech": 0.7}))
	})

	It("fails on malformed answers", func() {
		_, err := rate(`{"scores":[1,2]}`)
		Expect(err).To(HaveOccurred())
	})
})
