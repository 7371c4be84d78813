package toolserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func invoke(t *testing.T, server *Server, tool string, args map[string]any) string {
	t.Helper()

	body, err := json.Marshal(map[string]any{"tool": tool, "arguments": args})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Content) != 1 {
		t.Fatalf("content parts = %d", len(resp.Content))
	}
	return resp.Content[0].Text
}

func TestGetProductInfoMatch(t *testing.T) {
	t.Parallel()

	server := New(Config{OrdersDir: t.TempDir()}, nil)
	text := invoke(t, server, "get_product_info", map[string]any{
		"product": "iPhone 15 Pro Max",
		"storage": "256GB",
		"color":   "Titan tự nhiên",
	})

	var result struct {
		Status   string    `json:"status"`
		Products []Product `json:"products"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Status != "success" || len(result.Products) != 1 {
		t.Fatalf("unexpected result: %s", text)
	}
	if result.Products[0].Price != 27990000 || result.Products[0].Quantity != 3 {
		t.Fatalf("unexpected product: %#v", result.Products[0])
	}
}

func TestGetProductInfoNotFound(t *testing.T) {
	t.Parallel()

	server := New(Config{OrdersDir: t.TempDir()}, nil)
	text := invoke(t, server, "get_product_info", map[string]any{"product": "Nokia 3310"})
	if !strings.Contains(text, "not_found") {
		t.Fatalf("expected not_found: %s", text)
	}
}

func TestCreateOrderPersistsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	server := New(Config{OrdersDir: dir}, nil)

	text := invoke(t, server, "create_order", map[string]any{
		"order_details": map[string]any{
			"product":     "iPhone 15 Pro Max",
			"color":       "Titan tự nhiên",
			"storage":     "256GB",
			"quantity":    2,
			"total_price": 55980000,
			"customer_info": map[string]any{
				"customer_name":   "Nguyễn Văn A",
				"conversation_id": "conv_001",
			},
		},
	})
	if !strings.Contains(text, "successfully saved") {
		t.Fatalf("unexpected result: %s", text)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read orders dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("order files = %d, want 1", len(entries))
	}

	name := entries[0].Name()
	if !strings.HasPrefix(name, "order_") || !strings.HasSuffix(name, "_conv_001.json") {
		t.Fatalf("unexpected filename: %s", name)
	}

	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read order file: %v", err)
	}
	var saved standardOrder
	if err := json.Unmarshal(raw, &saved); err != nil {
		t.Fatalf("decode order file: %v", err)
	}
	if saved.OrderDetails.TotalPrice != 55980000 || saved.OrderDetails.Quantity != 2 {
		t.Fatalf("unexpected saved order: %#v", saved)
	}
	if len(saved.OrderDetails.OrderID) != len("order_")+16 {
		t.Fatalf("order id = %q, want order_ plus 16 hex chars", saved.OrderDetails.OrderID)
	}
}

func TestCreateOrderMissingFields(t *testing.T) {
	t.Parallel()

	server := New(Config{OrdersDir: t.TempDir()}, nil)
	text := invoke(t, server, "create_order", map[string]any{
		"order_details": map[string]any{"product": "iPhone 15"},
	})
	if !strings.HasPrefix(text, "Error: Missing required fields") {
		t.Fatalf("unexpected result: %s", text)
	}
}

func TestGetOrderRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	server := New(Config{OrdersDir: dir}, nil)

	created := invoke(t, server, "create_order", map[string]any{
		"order_details": map[string]any{
			"product":       "iPhone 12 Pro",
			"color":         "Graphite",
			"storage":       "512GB",
			"quantity":      1,
			"total_price":   24990000,
			"customer_info": map[string]any{"conversation_id": "conv_xyz"},
		},
	})
	idx := strings.Index(created, "order_")
	if idx < 0 {
		t.Fatalf("no order id in %q", created)
	}
	orderID := created[idx : idx+len("order_")+16]

	fetched := invoke(t, server, "get_order", map[string]any{"order_id": orderID})
	if !strings.Contains(fetched, orderID) {
		t.Fatalf("fetched order missing id: %s", fetched)
	}
}

func TestUnknownTool(t *testing.T) {
	t.Parallel()

	server := New(Config{OrdersDir: t.TempDir()}, nil)
	text := invoke(t, server, "drop_database", nil)
	if !strings.HasPrefix(text, "Error: unknown tool") {
		t.Fatalf("unexpected result: %s", text)
	}
}
