package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func testCatalog(inventory Func, order Func) *Catalog {
	if inventory == nil {
		inventory = func(ctx context.Context, args map[string]any) (string, error) {
			return `{"status": "success"}`, nil
		}
	}
	if order == nil {
		order = func(ctx context.Context, args map[string]any) (string, error) {
			return "Order data successfully saved", nil
		}
	}
	return NewCatalog(inventory, order)
}

func TestParseToolCall(t *testing.T) {
	t.Parallel()

	output := "TOOL_CALL: create_customer_order\nARGS: {\"order_details\": {\"product\": \"X\"}}"
	call, ok := ParseToolCall(output)
	if !ok {
		t.Fatal("expected tool call to parse")
	}
	if call.Name != "create_customer_order" {
		t.Fatalf("tool name = %q", call.Name)
	}
	details, ok := call.Args["order_details"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected args: %#v", call.Args)
	}
	if details["product"] != "X" {
		t.Fatalf("unexpected order details: %#v", details)
	}
}

func TestParseToolCallNestedBraces(t *testing.T) {
	t.Parallel()

	output := `TOOL_CALL: create_customer_order
ARGS: {"order_details": {"product": "iPhone {15}", "customer_info": {"customer_name": "A"}}} trailing prose`
	call, ok := ParseToolCall(output)
	if !ok {
		t.Fatal("expected tool call to parse")
	}
	details := call.Args["order_details"].(map[string]any)
	if details["product"] != "iPhone {15}" {
		t.Fatalf("brace inside string mangled: %#v", details)
	}
}

func TestParseToolCallNoMarker(t *testing.T) {
	t.Parallel()

	if _, ok := ParseToolCall(`{"product_name": "iPhone 15"}`); ok {
		t.Fatal("expected no tool call")
	}
}

func TestParseToolCallMissingArgs(t *testing.T) {
	t.Parallel()

	if _, ok := ParseToolCall("TOOL_CALL: check_inventory_detail\nno args here"); ok {
		t.Fatal("expected parse failure without ARGS")
	}
}

func TestProcessAgentOutputExecutes(t *testing.T) {
	t.Parallel()

	var gotArgs map[string]any
	executor := NewExecutor(testCatalog(func(ctx context.Context, args map[string]any) (string, error) {
		gotArgs = args
		return `{"status": "success", "products": []}`, nil
	}, nil))

	out := executor.ProcessAgentOutput(context.Background(),
		"TOOL_CALL: check_inventory_detail\nARGS: {\"product\": \"iPhone 15 Pro Max\", \"storage\": \"256GB\"}")
	if !out.ToolCalled {
		t.Fatal("expected tool_called=true")
	}
	if out.ToolName != ToolCheckInventoryDetail {
		t.Fatalf("tool name = %q", out.ToolName)
	}
	if !strings.Contains(out.ToolResult, "success") {
		t.Fatalf("tool result = %q", out.ToolResult)
	}
	if gotArgs["product"] != "iPhone 15 Pro Max" {
		t.Fatalf("unexpected args: %#v", gotArgs)
	}
}

func TestProcessAgentOutputNoToolCall(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(testCatalog(nil, nil))
	out := executor.ProcessAgentOutput(context.Background(), "plain analysis text")
	if out.ToolCalled {
		t.Fatal("expected tool_called=false")
	}
	if out.OriginalOutput != "plain analysis text" {
		t.Fatalf("original output = %q", out.OriginalOutput)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(testCatalog(nil, nil))
	result := executor.Execute(context.Background(), ToolCall{Name: "delete_everything"})
	if !strings.Contains(result, "delete_everything") {
		t.Fatalf("error should name the unknown tool: %q", result)
	}
	if !strings.Contains(result, ToolCheckInventoryDetail) {
		t.Fatalf("error should list available tools: %q", result)
	}
}

func TestExecuteToolRuntimeError(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(testCatalog(func(ctx context.Context, args map[string]any) (string, error) {
		return "", errors.New("database offline")
	}, nil))

	result := executor.Execute(context.Background(), ToolCall{Name: ToolCheckInventoryDetail})
	if !strings.Contains(result, "error") || !strings.Contains(result, "database offline") {
		t.Fatalf("expected structured error string, got %q", result)
	}
}
