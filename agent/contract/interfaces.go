package contract

import "context"

// Invoker is one LLM-backed agent: it takes a rendered prompt and returns
// the model's raw text output.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// HandlerInput carries the fields an agent handler may receive. Each handler
// reads only the fields its card declares.
type HandlerInput struct {
	Query         string
	Context       string
	InventoryInfo string
	CustomerInfo  string
}

// Handler invokes one registered agent and returns its textual output.
type Handler func(ctx context.Context, in HandlerInput) (string, error)

// ToolCaller performs one named-tool round trip against the remote tool
// service. The result is always text; callers detect failure by the error
// marker convention, never by a returned error.
type ToolCaller interface {
	CallTool(ctx context.Context, tool string, args map[string]any) string
}
