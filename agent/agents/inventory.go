package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/vanhoang/sales-agent-pipeline/agent/contract"
	"github.com/vanhoang/sales-agent-pipeline/agent/extract"
	toolx "github.com/vanhoang/sales-agent-pipeline/agent/tool"
)

// InventoryHandler asks the inventory extractor model for the product
// parameters in the query, then resolves stock and price through the
// remote tool service. Model parse failures degrade to the raw product
// description; only marshal failures surface as errors.
type InventoryHandler struct {
	llm   contractx.Invoker
	tools contractx.ToolCaller
}

func NewInventoryHandler(llm contractx.Invoker, tools contractx.ToolCaller) *InventoryHandler {
	return &InventoryHandler{llm: llm, tools: tools}
}

func (h *InventoryHandler) Handle(ctx context.Context, in contractx.HandlerInput) (string, error) {
	contextData := extract.MapOrRaw(in.Context)

	payload, err := json.Marshal(map[string]any{
		"query":            in.Query,
		"analysis_context": contextData,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal inventory payload: %v", contractx.ErrValidation, err)
	}

	agentResponse, err := h.llm.Invoke(ctx, string(payload))
	if err != nil {
		return "", err
	}
	log.Debug().Str("agent", AgentInventory).Str("response", agentResponse).Msg("inventory extractor replied")

	product, storage, color := inventoryParams(agentResponse)
	if product == "" {
		if fromContext, _ := contextData["product_details"].(string); fromContext != "" {
			product = fromContext
		} else {
			product = in.Query
		}
	}

	args := map[string]any{"product": product}
	if storage != "" {
		args["storage"] = storage
	}
	if color != "" {
		args["color"] = color
	}
	toolResult := h.tools.CallTool(ctx, toolx.RemoteGetProductInfo, args)

	result := normalizeInventory(toolResult, product, storage, color)
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("%w: marshal inventory result: %v", contractx.ErrValidation, err)
	}
	return string(out), nil
}

func inventoryParams(agentResponse string) (product, storage, color string) {
	data, err := extract.Object(agentResponse)
	if err != nil {
		log.Warn().Err(err).Msg("inventory extractor output not parseable")
		return "", "", ""
	}

	product, _ = data["product_name"].(string)
	if product == "" {
		product, _ = data["product"].(string)
	}
	storage, _ = data["storage"].(string)
	color, _ = data["color"].(string)
	return strings.TrimSpace(product), strings.TrimSpace(storage), strings.TrimSpace(color)
}

func normalizeInventory(toolResult, product, storage, color string) contractx.InventoryResult {
	result := contractx.InventoryResult{
		ProductName: product,
		Storage:     storage,
		Color:       color,
	}

	data, err := extract.Object(toolResult)
	if err != nil {
		result.StockStatus = contractx.StockError
		result.Error = "invalid tool response"
		return result
	}

	products, _ := data["products"].([]any)
	if len(products) == 0 {
		result.StockStatus = contractx.StockUnknown
		result.Error = "Product not found"
		return result
	}

	first, _ := products[0].(map[string]any)
	if name, _ := first["product"].(string); name != "" {
		result.ProductName = name
	}
	if s, _ := first["storage"].(string); s != "" {
		result.Storage = s
	}
	if c, _ := first["color"].(string); c != "" {
		result.Color = c
	}
	result.Price = floatField(first, "price")
	result.Quantity = int(floatField(first, "quantity"))
	if result.Quantity > 0 {
		result.StockStatus = contractx.StockInStock
	} else {
		result.StockStatus = contractx.StockOutOfStock
	}
	return result
}

func floatField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}
