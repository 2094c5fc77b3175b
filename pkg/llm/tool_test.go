package llm_test

import (
	"context"
	"errors"

	"github.com/mudler/LocalArbiter/pkg/llm"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

func answering(resp openai.ChatCompletionResponse, err error) *llm.MockClient {
	return &llm.MockClient{
		CreateChatCompletionFunc: func(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
			return resp, err
		},
	}
}

var _ = Describe("CallTool", func() {
	var (
		req llm.ToolRequest
		dst struct {
			Name string `json:"name"`
		}
	)

	BeforeEach(func() {
		dst.Name = ""
		req = llm.ToolRequest{
			Model:  "test-model",
			System: "be brief",
			Prompt: "who?",
			Tool:   "pick",
			Schema: jsonschema.Definition{
				Type:       jsonschema.Object,
				Properties: map[string]jsonschema.Definition{"name": {Type: jsonschema.String}},
			},
		}
	})

	It("forces the tool and decodes its arguments", func() {
		client := answering(llm.ToolCallResponse("pick", `{"name":"lisa"}`), nil)
		Expect(llm.CallTool(context.Background(), client, req, &dst)).To(Succeed())
		Expect(dst.Name).To(Equal("lisa"))

		Expect(client.Requests).To(HaveLen(1))
		sent := client.Requests[0]
		Expect(sent.Model).To(Equal("test-model"))
		Expect(sent.Messages).To(HaveLen(2))
		Expect(sent.Messages[0].Role).To(Equal(openai.ChatMessageRoleSystem))
		Expect(sent.Messages[1].Content).To(Equal("who?"))
		Expect(sent.ToolChoice).To(Equal(openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: "pick"},
		}))
	})

	It("reads answers given in the content", func() {
		client := answering(llm.ContentResponse("```json\n{\"name\":\"marie\"}\n```"), nil)
		Expect(llm.CallTool(context.Background(), client, req, &dst)).To(Succeed())
		Expect(dst.Name).To(Equal("marie"))
	})

	It("rejects calls to another tool", func() {
		client := answering(llm.ToolCallResponse("other", `{"name":"x"}`), nil)
		Expect(llm.CallTool(context.Background(), client, req, &dst)).To(MatchError(ContainSubstring(`"other"`)))
	})

	It("fails without an answer", func() {
		Expect(llm.CallTool(context.Background(), &llm.MockClient{}, req, &dst)).To(MatchError(llm.ErrNoAnswer))
		Expect(llm.CallTool(context.Background(), answering(llm.ContentResponse("  "), nil), req, &dst)).To(MatchError(llm.ErrNoAnswer))
	})

	It("propagates client errors", func() {
		client := answering(openai.ChatCompletionResponse{}, errors.New("boom"))
		Expect(llm.CallTool(context.Background(), client, req, &dst)).To(MatchError("boom"))
	})
})
