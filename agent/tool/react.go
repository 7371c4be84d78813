package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vanhoang/sales-agent-pipeline/agent/extract"
)

// The ReAct text protocol: an agent declares a tool invocation as
//
//	TOOL_CALL: tool_name
//	ARGS: {"key": "value"}
//
// The args boundary is found with the quote-aware balanced-brace scan, not
// a greedy regex, because argument values may themselves contain braces.
var (
	toolCallPattern = regexp.MustCompile(`(?i)TOOL_CALL:\s*(\w+)`)
	argsPattern     = regexp.MustCompile(`(?i)ARGS:\s*(\{)`)
)

type ToolCall struct {
	Name string
	Args map[string]any
}

// ProcessResult lets the caller distinguish "no tool call detected" from
// "tool call executed (possibly with a structured error result)".
type ProcessResult struct {
	ToolCalled     bool   `json:"tool_called"`
	ToolName       string `json:"tool_name,omitempty"`
	ToolResult     string `json:"tool_result,omitempty"`
	OriginalOutput string `json:"original_output"`
}

// Executor parses agent output for the ReAct protocol and runs the named
// tool from the catalog.
type Executor struct {
	catalog *Catalog
}

func NewExecutor(catalog *Catalog) *Executor {
	return &Executor{catalog: catalog}
}

// ParseToolCall extracts a declared tool invocation from agent output.
// It returns false when no TOOL_CALL marker is present or the ARGS section
// does not contain a decodable JSON object.
func ParseToolCall(agentOutput string) (ToolCall, bool) {
	nameMatch := toolCallPattern.FindStringSubmatch(agentOutput)
	if nameMatch == nil {
		return ToolCall{}, false
	}
	name := strings.TrimSpace(nameMatch[1])

	argsLoc := argsPattern.FindStringSubmatchIndex(agentOutput)
	if argsLoc == nil {
		log.Error().Str("tool", name).Msg("found TOOL_CALL but no ARGS section")
		return ToolCall{}, false
	}

	// argsLoc[2] is the start of the '{' capture: hand the tail to the
	// balanced-object extractor.
	argsSection := agentOutput[argsLoc[2]:]
	raw, err := extract.ObjectString(argsSection)
	if err != nil {
		log.Error().Str("tool", name).Err(err).Msg("could not extract ARGS object")
		return ToolCall{}, false
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		log.Error().Str("tool", name).Err(err).Msg("ARGS object is not valid JSON")
		return ToolCall{}, false
	}

	return ToolCall{Name: name, Args: args}, true
}

// Execute runs a parsed tool call. Unknown tools and tool failures are
// reported as structured error strings, never as returned errors, so the
// result can be fed back into the agent conversation verbatim.
func (e *Executor) Execute(ctx context.Context, call ToolCall) string {
	fn, ok := e.catalog.Lookup(call.Name)
	if !ok {
		msg := unknownToolError(call.Name, e.catalog.Names())
		log.Error().Str("tool", call.Name).Msg("unknown tool requested")
		return errorJSON(msg)
	}

	result, err := fn(ctx, call.Args)
	if err != nil {
		msg := fmt.Sprintf("Tool '%s' execution error: %v", call.Name, err)
		log.Error().Str("tool", call.Name).Err(err).Msg("tool execution failed")
		return errorJSON(msg)
	}
	return result
}

// ProcessAgentOutput detects a tool call in raw agent output, executes it
// when present, and reports the outcome alongside the original text.
func (e *Executor) ProcessAgentOutput(ctx context.Context, agentOutput string) ProcessResult {
	out := ProcessResult{OriginalOutput: agentOutput}

	call, ok := ParseToolCall(agentOutput)
	if !ok {
		return out
	}

	log.Info().Str("tool", call.Name).Int("args", len(call.Args)).Msg("executing tool call")
	out.ToolCalled = true
	out.ToolName = call.Name
	out.ToolResult = e.Execute(ctx, call)
	return out
}

func errorJSON(msg string) string {
	payload, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, msg)
	}
	return string(payload)
}
