package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/vanhoang/sales-agent-pipeline/agent/contract"
	"github.com/vanhoang/sales-agent-pipeline/agent/extract"
	toolx "github.com/vanhoang/sales-agent-pipeline/agent/tool"
	"github.com/vanhoang/sales-agent-pipeline/pkg/toolrpc"
)

// Payload shape: the saved order file embeds "order_<hex>_" in its path.
var orderIDPattern = regexp.MustCompile(`order_([a-f0-9]+)_`)

// OrderHandler asks the order model how many units the customer wants,
// assembles the order payload from inventory data, and submits it to the
// remote order-creation tool. The two validity guards (empty product,
// zero total) fail softly with order_created=false instead of erroring.
type OrderHandler struct {
	llm   contractx.Invoker
	tools contractx.ToolCaller
}

func NewOrderHandler(llm contractx.Invoker, tools contractx.ToolCaller) *OrderHandler {
	return &OrderHandler{llm: llm, tools: tools}
}

func (h *OrderHandler) Handle(ctx context.Context, in contractx.HandlerInput) (string, error) {
	inventoryData := extract.MapOrRaw(in.InventoryInfo)
	customerData := extract.MapOrRaw(in.CustomerInfo)

	payload, err := json.Marshal(map[string]any{
		"customer_query":   in.Query,
		"inventory_result": inventoryData,
		"customer_info":    customerData,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal order payload: %v", contractx.ErrValidation, err)
	}

	agentResponse, err := h.llm.Invoke(ctx, string(payload))
	if err != nil {
		return "", err
	}
	log.Debug().Str("agent", AgentOrder).Str("response", agentResponse).Msg("order model replied")

	responseData, err := extract.Object(agentResponse)
	if err != nil {
		log.Warn().Err(err).Msg("order model output not parseable, using defaults")
		responseData = map[string]any{}
	}

	order := buildOrderPayload(responseData, inventoryData, customerData)
	if order.Product == "" || order.TotalPrice == 0 {
		return marshalOrderResult(contractx.OrderResult{
			OrderCreated: false,
			Error:        "Missing product or price information",
			Message:      "Không thể tạo đơn hàng do thiếu thông tin sản phẩm hoặc giá",
		})
	}

	toolResult := h.tools.CallTool(ctx, toolx.RemoteCreateOrder, map[string]any{
		"order_details": orderDetailsArg(order),
	})

	order.OrderID = "unknown"
	if m := orderIDPattern.FindStringSubmatch(toolResult); m != nil {
		order.OrderID = "order_" + m[1]
	}

	return marshalOrderResult(contractx.OrderResult{
		OrderCreated: toolrpc.IsSuccess(toolResult),
		OrderDetails: order,
		Message:      toolResult,
	})
}

func buildOrderPayload(responseData, inventoryData, customerData map[string]any) contractx.OrderPayload {
	quantity := intFromAny(responseData["quantity"], 1)
	if quantity < 1 {
		quantity = 1
	}

	product := stringField(inventoryData, "product_name")
	if product == "" {
		product = stringField(responseData, "product")
	}
	color := stringField(inventoryData, "color")
	if color == "" {
		color = stringField(responseData, "color")
	}
	storage := stringField(inventoryData, "storage")
	if storage == "" {
		storage = stringField(responseData, "storage")
	}

	price := floatField(inventoryData, "price")

	name := stringField(customerData, "customer_name")
	conversationID := stringField(customerData, "conversation_id")
	if conversationID == "" {
		conversationID = "conv_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	}

	return contractx.OrderPayload{
		Product:    product,
		Color:      color,
		Storage:    storage,
		Quantity:   quantity,
		UnitPrice:  price,
		TotalPrice: price * float64(quantity),
		CustomerInfo: contractx.CustomerInfo{
			CustomerName:   name,
			ConversationID: conversationID,
		},
	}
}

// orderDetailsArg is the wire shape the order-creation tool expects.
func orderDetailsArg(order contractx.OrderPayload) map[string]any {
	return map[string]any{
		"product":     order.Product,
		"color":       order.Color,
		"storage":     order.Storage,
		"quantity":    order.Quantity,
		"total_price": order.TotalPrice,
		"customer_info": map[string]any{
			"customer_name":   order.CustomerInfo.CustomerName,
			"conversation_id": order.CustomerInfo.ConversationID,
		},
	}
}

func marshalOrderResult(result contractx.OrderResult) (string, error) {
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("%w: marshal order result: %v", contractx.ErrValidation, err)
	}
	return string(out), nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func intFromAny(v any, fallback int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return fallback
		}
		return int(i)
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return fallback
		}
		var parsed int
		if _, err := fmt.Sscanf(trimmed, "%d", &parsed); err != nil {
			return fallback
		}
		return parsed
	default:
		return fallback
	}
}
