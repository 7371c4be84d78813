package contract

import "time"

type AgentType string

const (
	AgentTypeAnalysis   AgentType = "analysis"
	AgentTypeInventory  AgentType = "inventory"
	AgentTypeOrder      AgentType = "order"
	AgentTypeConsultant AgentType = "consultant"
)

type CustomerIntent string

const (
	IntentCheckInventoryPrice CustomerIntent = "check_inventory_price"
	IntentPlaceOrder          CustomerIntent = "place_order"
	IntentGeneralQuery        CustomerIntent = "general_query"
	IntentProductInfo         CustomerIntent = "product_info"
)

type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockOutOfStock StockStatus = "out_of_stock"
	StockLowStock   StockStatus = "low_stock"
	StockUnknown    StockStatus = "unknown"
	StockError      StockStatus = "error"
	StockNotChecked StockStatus = "not_checked"
)

// QueryContext is the immutable per-run input: the raw customer text plus
// whatever the caller already knows about the customer.
type QueryContext struct {
	Query       string         `json:"query"`
	InitialData map[string]any `json:"initial_context_data,omitempty"`
	UserID      string         `json:"user_id"`
	SessionID   string         `json:"session_id"`
	StartedAt   time.Time      `json:"started_at"`
}

// AnalysisResult is the Analysis stage's classification of the query.
// Downstream stages read the two booleans to decide whether to run.
type AnalysisResult struct {
	ProductDetails         string         `json:"product_details"`
	CustomerIntent         CustomerIntent `json:"customer_intent"`
	OriginalQuery          string         `json:"original_query"`
	RequiresInventoryCheck bool           `json:"requires_inventory_check"`
	RequiresOrderPlacement bool           `json:"requires_order_placement"`
	FallbackUsed           bool           `json:"fallback_used,omitempty"`
}

// DefaultAnalysisResult degrades an unparseable analysis to the
// general-query path: both stage booleans off, fallback flagged.
func DefaultAnalysisResult(query string) AnalysisResult {
	return AnalysisResult{
		CustomerIntent: IntentGeneralQuery,
		OriginalQuery:  query,
		FallbackUsed:   true,
	}
}

type InventoryResult struct {
	ProductName  string      `json:"product_name"`
	Storage      string      `json:"storage,omitempty"`
	Color        string      `json:"color,omitempty"`
	StockStatus  StockStatus `json:"stock_status"`
	Price        float64     `json:"price"`
	Quantity     int         `json:"quantity"`
	FallbackUsed bool        `json:"fallback_used,omitempty"`
	Error        string      `json:"error,omitempty"`
}

func DefaultInventoryResult(product string) InventoryResult {
	return InventoryResult{
		ProductName:  product,
		StockStatus:  StockNotChecked,
		FallbackUsed: true,
	}
}

type CustomerInfo struct {
	CustomerName   string `json:"customer_name"`
	ConversationID string `json:"conversation_id"`
}

// OrderPayload is immutable once submitted to the order-creation tool.
type OrderPayload struct {
	OrderID      string       `json:"order_id,omitempty"`
	Product      string       `json:"product"`
	Color        string       `json:"color,omitempty"`
	Storage      string       `json:"storage,omitempty"`
	Quantity     int          `json:"quantity"`
	UnitPrice    float64      `json:"unit_price,omitempty"`
	TotalPrice   float64      `json:"total_price"`
	CustomerInfo CustomerInfo `json:"customer_info"`
}

type OrderResult struct {
	OrderCreated bool         `json:"order_created"`
	OrderDetails OrderPayload `json:"order_details,omitempty"`
	Message      string       `json:"message"`
	FallbackUsed bool         `json:"fallback_used,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// AgentOutput is one entry of the per-run audit trail: which agent ran and
// the raw text it produced.
type AgentOutput struct {
	Agent  string `json:"agent"`
	Output string `json:"output"`
}

type PipelineStatus string

const (
	StatusSuccess PipelineStatus = "success"
	StatusError   PipelineStatus = "error"
)

// PipelineResult is the sole contract returned to external callers.
type PipelineResult struct {
	CustomerResponse string         `json:"customer_response"`
	AgentOutputs     []AgentOutput  `json:"agent_outputs"`
	SessionID        string         `json:"session_id"`
	Status           PipelineStatus `json:"status"`
	Error            string         `json:"error,omitempty"`
}
