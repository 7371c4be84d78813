package agents

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	contractx "github.com/vanhoang/sales-agent-pipeline/agent/contract"
	toolx "github.com/vanhoang/sales-agent-pipeline/agent/tool"
)

type fakeInvoker struct {
	responses []string
	err       error
	prompts   []string
}

func (f *fakeInvoker) Invoke(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	idx := len(f.prompts) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

type toolCallRecord struct {
	Tool string
	Args map[string]any
}

type fakeToolCaller struct {
	result string
	calls  []toolCallRecord
}

func (f *fakeToolCaller) CallTool(_ context.Context, tool string, args map[string]any) string {
	f.calls = append(f.calls, toolCallRecord{Tool: tool, Args: args})
	return f.result
}

func inputWithQuery(query string) contractx.HandlerInput {
	return contractx.HandlerInput{Query: query}
}

func TestInventoryHandlerResolvesStock(t *testing.T) {
	t.Parallel()

	llm := &fakeInvoker{responses: []string{
		`{"product_name": "iPhone 15 Pro Max", "storage": "256GB", "color": "Titan tự nhiên"}`,
	}}
	tools := &fakeToolCaller{result: `{"status": "success", "products": [{"product": "iPhone 15 Pro Max", "storage": "256GB", "color": "Titan tự nhiên", "price": 27990000, "quantity": 3}]}`}

	handler := NewInventoryHandler(llm, tools)
	out, err := handler.Handle(context.Background(), contractx.HandlerInput{
		Query:   "iPhone 15 Pro Max 256GB Titan tự nhiên",
		Context: `{"product_details": "iPhone 15 Pro Max 256GB"}`,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	var result contractx.InventoryResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if result.StockStatus != contractx.StockInStock {
		t.Errorf("stock status = %q, want %q", result.StockStatus, contractx.StockInStock)
	}
	if result.Price != 27990000 {
		t.Errorf("price = %v, want 27990000", result.Price)
	}
	if result.Quantity != 3 {
		t.Errorf("quantity = %d, want 3", result.Quantity)
	}

	if len(tools.calls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(tools.calls))
	}
	if got := tools.calls[0].Tool; got != "get_product_info" {
		t.Errorf("tool = %q, want get_product_info", got)
	}
	if got := tools.calls[0].Args["product"]; got != "iPhone 15 Pro Max" {
		t.Errorf("product arg = %v", got)
	}
}

func TestInventoryHandlerFallsBackToContextProduct(t *testing.T) {
	t.Parallel()

	llm := &fakeInvoker{responses: []string{"tôi không chắc sản phẩm nào"}}
	tools := &fakeToolCaller{result: `{"status": "not_found", "products": []}`}

	handler := NewInventoryHandler(llm, tools)
	out, err := handler.Handle(context.Background(), contractx.HandlerInput{
		Query:   "còn hàng không",
		Context: `{"product_details": "iPad Air"}`,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	var result contractx.InventoryResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if result.ProductName != "iPad Air" {
		t.Errorf("product = %q, want context fallback iPad Air", result.ProductName)
	}
	if result.StockStatus != contractx.StockUnknown {
		t.Errorf("stock status = %q, want %q", result.StockStatus, contractx.StockUnknown)
	}
	if result.Error != "Product not found" {
		t.Errorf("error = %q", result.Error)
	}
}

func TestInventoryHandlerInvalidToolResponse(t *testing.T) {
	t.Parallel()

	llm := &fakeInvoker{responses: []string{`{"product_name": "iPhone 15"}`}}
	tools := &fakeToolCaller{result: "Error: failed to call tool 'get_product_info' after 3 attempts. Last error: timeout"}

	handler := NewInventoryHandler(llm, tools)
	out, err := handler.Handle(context.Background(), contractx.HandlerInput{Query: "iPhone 15"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	var result contractx.InventoryResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if result.StockStatus != contractx.StockError {
		t.Errorf("stock status = %q, want %q", result.StockStatus, contractx.StockError)
	}
}

func TestOrderHandlerCreatesOrder(t *testing.T) {
	t.Parallel()

	llm := &fakeInvoker{responses: []string{`{"quantity": 2}`}}
	tools := &fakeToolCaller{result: "Order data successfully saved to file: orders/order_a1b2c3d4e5f60718_conv123.json"}

	handler := NewOrderHandler(llm, tools)
	out, err := handler.Handle(context.Background(), contractx.HandlerInput{
		Query:         "mua 2 cái",
		InventoryInfo: `{"product_name": "iPhone 15 Pro Max", "storage": "256GB", "color": "Titan tự nhiên", "price": 27990000}`,
		CustomerInfo:  `{"customer_name": "Anh Hoàng", "conversation_id": "conv123"}`,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	var result contractx.OrderResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if !result.OrderCreated {
		t.Fatalf("order_created = false, message = %q", result.Message)
	}
	if result.OrderDetails.OrderID != "order_a1b2c3d4e5f60718" {
		t.Errorf("order id = %q", result.OrderDetails.OrderID)
	}
	if result.OrderDetails.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", result.OrderDetails.Quantity)
	}
	if want := 2 * 27990000.0; result.OrderDetails.TotalPrice != want {
		t.Errorf("total = %v, want %v", result.OrderDetails.TotalPrice, want)
	}

	if len(tools.calls) != 1 || tools.calls[0].Tool != "create_order" {
		t.Fatalf("unexpected tool calls: %+v", tools.calls)
	}
}

func TestOrderHandlerGuardsZeroPrice(t *testing.T) {
	t.Parallel()

	llm := &fakeInvoker{responses: []string{`{"quantity": 1}`}}
	tools := &fakeToolCaller{result: "should not be called"}

	handler := NewOrderHandler(llm, tools)
	out, err := handler.Handle(context.Background(), contractx.HandlerInput{
		Query:         "mua iPhone",
		InventoryInfo: `{"product_name": "iPhone 15 Pro Max", "price": 0}`,
		CustomerInfo:  `{"customer_name": "Khách hàng"}`,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	var result contractx.OrderResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if result.OrderCreated {
		t.Error("order_created = true, want soft failure")
	}
	if !strings.Contains(result.Message, "Không thể tạo đơn hàng") {
		t.Errorf("message = %q, want explanatory Vietnamese message", result.Message)
	}
	if len(tools.calls) != 0 {
		t.Errorf("order tool was called %d times, want 0", len(tools.calls))
	}
}

func TestOrderHandlerGuardsEmptyProduct(t *testing.T) {
	t.Parallel()

	llm := &fakeInvoker{responses: []string{`{"quantity": 1}`}}
	tools := &fakeToolCaller{}

	handler := NewOrderHandler(llm, tools)
	out, err := handler.Handle(context.Background(), contractx.HandlerInput{
		Query:         "mua hàng",
		InventoryInfo: `{"price": 1000}`,
		CustomerInfo:  `{}`,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	var result contractx.OrderResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if result.OrderCreated {
		t.Error("order_created = true, want soft failure")
	}
	if len(tools.calls) != 0 {
		t.Errorf("order tool was called %d times, want 0", len(tools.calls))
	}
}

func TestOrderHandlerDefaultsQuantity(t *testing.T) {
	t.Parallel()

	llm := &fakeInvoker{responses: []string{"không phải JSON"}}
	tools := &fakeToolCaller{result: "Order data successfully saved to file: orders/order_0011223344556677_c.json"}

	handler := NewOrderHandler(llm, tools)
	out, err := handler.Handle(context.Background(), contractx.HandlerInput{
		Query:         "mua iPhone",
		InventoryInfo: `{"product_name": "iPhone 15 Pro Max", "price": 27990000}`,
		CustomerInfo:  `{"customer_name": "Khách hàng", "conversation_id": "c"}`,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	var result contractx.OrderResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if result.OrderDetails.Quantity != 1 {
		t.Errorf("quantity = %d, want default 1", result.OrderDetails.Quantity)
	}
	if result.OrderDetails.TotalPrice != 27990000 {
		t.Errorf("total = %v, want 27990000", result.OrderDetails.TotalPrice)
	}
}

func TestStageCardsDescribeTools(t *testing.T) {
	t.Parallel()

	inv := InventoryCard()
	if len(inv.Tools) != 1 || inv.Tools[0].Name != toolx.ToolCheckInventoryDetail {
		t.Errorf("inventory card tools = %+v, want check_inventory_detail", inv.Tools)
	}

	ord := OrderCard()
	if len(ord.Tools) != 1 || ord.Tools[0].Name != toolx.ToolCreateCustomerOrder {
		t.Errorf("order card tools = %+v, want create_customer_order", ord.Tools)
	}

	if tools := AnalysisCard().Tools; len(tools) != 0 {
		t.Errorf("analysis card tools = %+v, want none", tools)
	}
	if tools := ConsultantCard().Tools; len(tools) != 0 {
		t.Errorf("consultant card tools = %+v, want none", tools)
	}
}
