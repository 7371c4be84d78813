// Package toolserver implements the local tool-execution endpoint the
// pipeline's remote tool clients talk to: product lookups against an
// in-memory catalog and order persistence as JSON documents.
package toolserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Addr      string `split_words:"true" default:":8000"`
	OrdersDir string `split_words:"true" default:"orders"`
}

type Product struct {
	ProductID string  `json:"product_id"`
	Product   string  `json:"product"`
	Storage   string  `json:"storage"`
	Color     string  `json:"color"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// DefaultCatalog seeds the store inventory used by the demo setup.
func DefaultCatalog() []Product {
	return []Product{
		{ProductID: "1", Product: "iPhone 15 Pro Max", Storage: "256GB", Color: "Titan tự nhiên", Price: 27990000, Quantity: 3},
		{ProductID: "2", Product: "iPhone 15 Pro", Storage: "1TB", Color: "Gold Rose", Price: 26990000, Quantity: 1},
		{ProductID: "3", Product: "iPhone 12 Pro", Storage: "512GB", Color: "Graphite", Price: 24990000, Quantity: 5},
		{ProductID: "4", Product: "Samsung Galaxy S23 Ultra", Storage: "512GB", Color: "Phantom Black", Price: 32990000, Quantity: 2},
		{ProductID: "5", Product: "MacBook Pro 16 inch M1 Pro", Storage: "512GB", Color: "Silver", Price: 49990000, Quantity: 1},
	}
}

// Server dispatches named-tool invocations. Tool-level failures are
// reported as text payloads inside a normal response envelope; only
// malformed transport requests get an HTTP error status.
type Server struct {
	catalog   []Product
	ordersDir string

	mu sync.Mutex
}

func New(cfg Config, catalog []Product) *Server {
	ordersDir := strings.TrimSpace(cfg.OrdersDir)
	if ordersDir == "" {
		ordersDir = "orders"
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Server{
		catalog:   catalog,
		ordersDir: ordersDir,
	}
}

type invokeRequest struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type invokeResponse struct {
	Content []contentPart `json:"content"`
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	var text string
	switch req.Tool {
	case "get_product_info":
		text = s.getProductInfo(req.Arguments)
	case "create_order":
		text = s.createOrder(req.Arguments)
	case "get_order":
		text = s.getOrder(req.Arguments)
	default:
		text = fmt.Sprintf("Error: unknown tool '%s'", req.Tool)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(invokeResponse{
		Content: []contentPart{{Type: "text", Text: text}},
	}); err != nil {
		log.Error().Err(err).Msg("encode tool response")
	}
}

func (s *Server) getProductInfo(args map[string]any) string {
	product := stringArg(args, "product")
	storage := stringArg(args, "storage")
	color := stringArg(args, "color")

	if product == "" {
		return errorText("product is required", "error")
	}

	var matches []Product
	for _, p := range s.catalog {
		if !containsFold(p.Product, product) && !containsFold(product, p.Product) {
			continue
		}
		if storage != "" && !strings.EqualFold(p.Storage, storage) {
			continue
		}
		if color != "" && !strings.EqualFold(p.Color, color) {
			continue
		}
		matches = append(matches, p)
	}

	if len(matches) == 0 {
		log.Warn().Str("product", product).Msg("no product found")
		return errorText(fmt.Sprintf(
			"No product found matching product='%s', storage='%s', color='%s'",
			product, orAny(storage), orAny(color)), "not_found")
	}

	payload, err := json.Marshal(map[string]any{
		"status":   "success",
		"products": matches,
	})
	if err != nil {
		return errorText(fmt.Sprintf("encode products: %v", err), "error")
	}
	return string(payload)
}

// standardOrder is the persisted order document.
type standardOrder struct {
	OrderDetails orderDetails `json:"order_details"`
	Message      string       `json:"message"`
}

type orderDetails struct {
	OrderID      string       `json:"order_id"`
	Product      string       `json:"product"`
	Color        string       `json:"color"`
	Storage      string       `json:"storage"`
	Quantity     int          `json:"quantity"`
	TotalPrice   float64      `json:"total_price"`
	CustomerInfo customerInfo `json:"customer_info"`
}

type customerInfo struct {
	CustomerName   string `json:"customer_name"`
	ConversationID string `json:"conversation_id"`
}

func (s *Server) createOrder(args map[string]any) string {
	input, _ := args["order_details"].(map[string]any)
	if input == nil {
		input = args
	}
	// Tolerate a doubly nested payload from over-eager agents.
	if nested, ok := input["order_details"].(map[string]any); ok {
		input = nested
	}

	required := []string{"product", "color", "storage", "quantity", "total_price", "customer_info"}
	var missing []string
	for _, field := range required {
		if _, ok := input[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Sprintf("Error: Missing required fields: %s", strings.Join(missing, ", "))
	}

	customer, _ := input["customer_info"].(map[string]any)
	name := stringArg(customer, "customer_name")
	if name == "" {
		name = "Guest"
	}
	conversationID := stringArg(customer, "conversation_id")
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	orderID := "order_" + hexSuffix(16)
	message := stringArg(input, "message")
	if message == "" {
		message = "Đơn hàng đã được tạo."
	}

	order := standardOrder{
		OrderDetails: orderDetails{
			OrderID:    orderID,
			Product:    stringArg(input, "product"),
			Color:      stringArg(input, "color"),
			Storage:    stringArg(input, "storage"),
			Quantity:   intArg(input, "quantity", 1),
			TotalPrice: floatArg(input, "total_price"),
			CustomerInfo: customerInfo{
				CustomerName:   name,
				ConversationID: conversationID,
			},
		},
		Message: message,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.ordersDir, 0o755); err != nil {
		return fmt.Sprintf("Error saving order to file: %v", err)
	}

	filename := fmt.Sprintf("%s_%s.json", orderID, conversationID)
	path := filepath.Join(s.ordersDir, filename)

	payload, err := json.MarshalIndent(order, "", "    ")
	if err != nil {
		return fmt.Sprintf("Error saving order to file: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Sprintf("Error saving order to file: %v", err)
	}

	log.Info().Str("order_id", orderID).Str("path", path).Msg("order saved")
	return fmt.Sprintf("Order data successfully saved to file: %s", path)
}

func (s *Server) getOrder(args map[string]any) string {
	orderID := stringArg(args, "order_id")
	if orderID == "" {
		return errorText("order_id is required", "error")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.ordersDir)
	if err != nil {
		return errorText(fmt.Sprintf("Error retrieving order file: %v", err), "error")
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), orderID) && strings.HasSuffix(entry.Name(), ".json") {
			content, err := os.ReadFile(filepath.Join(s.ordersDir, entry.Name()))
			if err != nil {
				return errorText(fmt.Sprintf("Error retrieving order file: %v", err), "error")
			}
			return string(content)
		}
	}
	return errorText(fmt.Sprintf("Order file with ID %s not found", orderID), "not_found")
}

func hexSuffix(n int) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(raw) {
		n = len(raw)
	}
	return raw[:n]
}

func errorText(msg, status string) string {
	payload, err := json.Marshal(map[string]string{"error": msg, "status": status})
	if err != nil {
		return fmt.Sprintf("Error: %s", msg)
	}
	return string(payload)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func orAny(v string) string {
	if v == "" {
		return "any"
	}
	return v
}

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func floatArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
