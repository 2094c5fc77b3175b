package scoring_test

import (
	"context"
	"errors"
	"strings"

	"github.com/mudler/LocalArbiter/core/scoring"
	"github.com/mudler/LocalArbiter/core/types"
	"github.com/mudler/LocalArbiter/pkg/llm"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
)

var _ = Describe("OracleSource", func() {
	var (
		agents []types.AgentProfile
		client *llm.MockClient
		reply  string
		err    error
	)

	BeforeEach(func() {
		tech := types.NewAgentProfile("tech", "Tech")
		tech.Domains = []string{"tech"}
		agents = []types.AgentProfile{tech, types.NewAgentProfile("chef", "Chef")}
		reply, err = "", nil
		client = &llm.MockClient{
			CreateChatCompletionFunc: func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				if err != nil {
					return openai.ChatCompletionResponse{}, err
				}
				return llm.ToolCallResponse(llm.ScoresTool, reply), nil
			},
		}
	})

	It("parses the score table", func() {
		reply = `{"scores":{"tech":0.9,"chef":0.1}}`
		src := scoring.NewOracleSource(client, "m", nil)
		scores, kind := src.Score(context.Background(), "Tell me about technology", agents, nil)
		Expect(kind).To(Equal(types.ScoreKindOracle))
		Expect(scores).To(Equal(map[string]float64{"tech": 0.9, "chef": 0.1}))
	})

	It("renders every agent into the prompt", func() {
		reply = `{"scores":{"tech":0.9,"chef":0.1}}`
		src := scoring.NewOracleSource(client, "m", nil)
		src.Score(context.Background(), "hello", agents, &types.EmotionalContext{PrimaryEmotion: "sad", OverallIntensity: 0.5})
		Expect(client.Requests).To(HaveLen(1))
		prompt := client.Requests[0].Messages[0].Content
		Expect(prompt).To(ContainSubstring("- tech: Tech; domains: tech"))
		Expect(prompt).To(ContainSubstring("- chef: Chef"))
		Expect(prompt).To(ContainSubstring("seems sad"))
		Expect(strings.Count(prompt, `"hello"`)).To(Equal(1))
	})

	It("clamps out of range values and fills missing agents", func() {
		reply = `{"scores":{"tech":3}}`
		src := scoring.NewOracleSource(client, "m", nil)
		scores, _ := src.Score(context.Background(), "x", agents, nil)
		Expect(scores).To(Equal(map[string]float64{"tech": 1, "chef": scoring.NeutralScore}))
	})

	It("degrades to neutral scores on malformed replies", func() {
		reply = `not json at all`
		degraded := 0
		src := scoring.NewOracleSource(client, "m", nil, scoring.WithDegradeHook(func(error) { degraded++ }))
		scores, kind := src.Score(context.Background(), "x", agents, nil)
		Expect(kind).To(Equal(types.ScoreKindOracle))
		Expect(scores).To(Equal(map[string]float64{"tech": 0.5, "chef": 0.5}))
		Expect(degraded).To(Equal(1))
	})

	It("degrades when no agent is rated", func() {
		reply = `{"scores":{"ghost":0.9}}`
		degraded := 0
		src := scoring.NewOracleSource(client, "m", nil, scoring.WithDegradeHook(func(error) { degraded++ }))
		scores, _ := src.Score(context.Background(), "x", agents, nil)
		Expect(scores).To(Equal(map[string]float64{"tech": 0.5, "chef": 0.5}))
		Expect(degraded).To(Equal(1))
	})

	It("degrades to neutral scores on client errors", func() {
		err = errors.New("timeout")
		src := scoring.NewOracleSource(client, "m", nil)
		scores, _ := src.Score(context.Background(), "x", agents, nil)
		Expect(scores).To(Equal(map[string]float64{"tech": 0.5, "chef": 0.5}))
	})

	It("uses the rules without a client", func() {
		src := scoring.NewOracleSource(nil, "m", nil)
		scores, kind := src.Score(context.Background(), "Tell me about technology", agents, nil)
		Expect(kind).To(Equal(types.ScoreKindRule))
		Expect(scores["tech"]).To(BeNumerically(">", scores["chef"]))
	})

	It("uses the rules when the context cannot suspend", func() {
		src := scoring.NewOracleSource(client, "m", nil)
		_, kind := src.Score(scoring.WithoutSuspension(context.Background()), "x", agents, nil)
		Expect(kind).To(Equal(types.ScoreKindRule))
		Expect(client.Requests).To(BeEmpty())
	})
})
