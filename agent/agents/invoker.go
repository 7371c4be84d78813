// Package agents implements the four pipeline stages on top of a shared
// LLM invoker, and the handlers that adapt each stage to the registry's
// dispatch contract.
package agents

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/vanhoang/sales-agent-pipeline/agent/contract"
)

// LLMInvoker runs one system-prompted chat turn and returns the raw model
// text. Structured-output parsing is the caller's concern.
type LLMInvoker struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Invoker = (*LLMInvoker)(nil)

func NewLLMInvoker(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (*LLMInvoker, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: %s", contractx.ErrPromptMissing, graphName)
	}

	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("%w: compile %s: %v", contractx.ErrModelInvoke, graphName, err)
	}

	return &LLMInvoker{runner: runner}, nil
}

func (l *LLMInvoker) Invoke(ctx context.Context, input string) (string, error) {
	msg, err := l.runner.Invoke(ctx, map[string]any{"input": input})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%w: empty model response", contractx.ErrModelInvoke)
	}
	return msg.Content, nil
}
