package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

var ErrNoAnswer = errors.New("model gave no answer")

// ToolRequest asks the model to answer through a single forced tool call.
type ToolRequest struct {
	Model       string
	System      string
	Prompt      string
	Tool        string
	Description string
	Schema      jsonschema.Definition
	Temperature float32
}

func (r ToolRequest) chatRequest() openai.ChatCompletionRequest {
	messages := []openai.ChatCompletionMessage{}
	if r.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: r.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: r.Prompt})

	return openai.ChatCompletionRequest{
		Model:       r.Model,
		Messages:    messages,
		Temperature: r.Temperature,
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        r.Tool,
				Description: r.Description,
				Parameters:  r.Schema,
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: r.Tool},
		},
	}
}

// CallTool sends r and decodes the tool arguments into dst.
func CallTool(ctx context.Context, client LLMClient, r ToolRequest, dst any) error {
	resp, err := client.CreateChatCompletion(ctx, r.chatRequest())
	if err != nil {
		return err
	}
	raw, err := toolArguments(resp, r.Tool)
	if err != nil {
		return err
	}
	xlog.Debug("Tool answer", "tool", r.Tool, "arguments", string(raw))
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decoding %s answer: %w", r.Tool, err)
	}
	return nil
}

// toolArguments picks the arguments of the call to tool. Backends that ignore
// tool_choice answer in the content, possibly inside a markdown fence.
func toolArguments(resp openai.ChatCompletionResponse, tool string) ([]byte, error) {
	if len(resp.Choices) == 0 {
		return nil, ErrNoAnswer
	}
	msg := resp.Choices[0].Message

	for _, call := range msg.ToolCalls {
		if call.Function.Name == tool || call.Function.Name == "" {
			return []byte(call.Function.Arguments), nil
		}
	}
	if len(msg.ToolCalls) > 0 {
		return nil, fmt.Errorf("model called %q instead of %q", msg.ToolCalls[0].Function.Name, tool)
	}

	content := unfence(msg.Content)
	if content == "" {
		return nil, ErrNoAnswer
	}
	return []byte(content), nil
}

func unfence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
