package agents

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/vanhoang/sales-agent-pipeline/agent/contract"
	toolx "github.com/vanhoang/sales-agent-pipeline/agent/tool"
)

const reactMaxIterations = 3

// ReActHandler runs one stage with manual tool calling: the model declares
// tool invocations in its text output, the executor runs them, and the
// tool result is fed back until the model answers without a tool call or
// the iteration budget runs out.
func ReActHandler(name string, llm contractx.Invoker, executor *toolx.Executor) contractx.Handler {
	return func(ctx context.Context, in contractx.HandlerInput) (string, error) {
		prompt := in.Query

		var response string
		for iteration := 1; iteration <= reactMaxIterations; iteration++ {
			out, err := llm.Invoke(ctx, prompt)
			if err != nil {
				return "", err
			}
			response = out

			processed := executor.ProcessAgentOutput(ctx, response)
			if !processed.ToolCalled {
				return response, nil
			}

			log.Info().
				Str("agent", name).
				Str("tool", processed.ToolName).
				Int("iteration", iteration).
				Msg("tool call executed, continuing")

			prompt = fmt.Sprintf(
				"Bạn đã gọi tool '%s' và nhận được kết quả:\n%s\n\nHãy sử dụng kết quả này để hoàn thành nhiệm vụ và trả về JSON như yêu cầu.",
				processed.ToolName, processed.ToolResult,
			)
		}

		log.Warn().Str("agent", name).Int("max_iterations", reactMaxIterations).Msg("tool-calling iteration budget reached")
		return response, nil
	}
}
