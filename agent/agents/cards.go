package agents

import (
	registryx "github.com/vanhoang/sales-agent-pipeline/agent/registry"
	toolx "github.com/vanhoang/sales-agent-pipeline/agent/tool"
)

// Registry names of the four pipeline stages.
const (
	AgentAnalysis   = "analysis_agent"
	AgentInventory  = "inventory_agent"
	AgentOrder      = "order_agent"
	AgentConsultant = "consultant_agent"
)

func AnalysisCard() registryx.Card {
	return registryx.Card{
		Name:         AgentAnalysis,
		DisplayName:  "Phân tích yêu cầu",
		Role:         "Phân tích và phân loại yêu cầu của khách hàng",
		Capabilities: []string{"intent_classification", "product_extraction"},
		InputSchema: map[string]any{
			"query": "string",
		},
		OutputSchema: map[string]any{
			"product_details":          "string",
			"customer_intent":          "string",
			"original_query":           "string",
			"requires_inventory_check": "bool",
			"requires_order_placement": "bool",
		},
	}
}

func InventoryCard() registryx.Card {
	return registryx.Card{
		Name:         AgentInventory,
		DisplayName:  "Kiểm tra tồn kho",
		Role:         "Kiểm tra tồn kho và giá sản phẩm",
		Capabilities: []string{"inventory_lookup", "price_lookup"},
		InputSchema: map[string]any{
			"query":   "string",
			"context": "json",
		},
		OutputSchema: map[string]any{
			"product_name": "string",
			"stock_status": "string",
			"price":        "number",
			"quantity":     "number",
		},
		Tools: toolx.InfosFor(toolx.ToolCheckInventoryDetail),
	}
}

func OrderCard() registryx.Card {
	return registryx.Card{
		Name:         AgentOrder,
		DisplayName:  "Tạo đơn hàng",
		Role:         "Tạo đơn hàng cho khách",
		Capabilities: []string{"order_creation"},
		InputSchema: map[string]any{
			"query":          "string",
			"inventory_info": "json",
			"customer_info":  "json",
		},
		OutputSchema: map[string]any{
			"order_created": "bool",
			"order_details": "object",
			"message":       "string",
		},
		Tools: toolx.InfosFor(toolx.ToolCreateCustomerOrder),
	}
}

func ConsultantCard() registryx.Card {
	return registryx.Card{
		Name:         AgentConsultant,
		DisplayName:  "Tư vấn khách hàng",
		Role:         "Tổng hợp và trả lời khách hàng bằng tiếng Việt",
		Capabilities: []string{"response_generation"},
		InputSchema: map[string]any{
			"query":   "string",
			"context": "json",
		},
		OutputSchema: map[string]any{
			"response": "string",
		},
	}
}
