package toolrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, serverURL string, httpClient *http.Client) *Client {
	t.Helper()
	client, err := NewClient(Config{
		URL:         serverURL,
		Timeout:     200 * time.Millisecond,
		MaxAttempts: 3,
		BackoffBase: time.Second,
	}, WithHTTPClient(httpClient))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestCallToolFirstAttemptSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req invokeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Tool != "get_product_info" {
			t.Errorf("tool = %q", req.Tool)
		}
		fmt.Fprint(w, `{"content": [{"type": "text", "text": "{\"status\": \"success\"}"}]}`)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, server.Client())
	client.sleep = func(time.Duration) { t.Error("no backoff expected on first-attempt success") }

	got := client.CallTool(context.Background(), "get_product_info", map[string]any{"product": "iPhone 15"})
	if got != `{"status": "success"}` {
		t.Fatalf("CallTool() = %q", got)
	}
}

func TestCallToolRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			// Stall past the client timeout to simulate a hung backend.
			time.Sleep(400 * time.Millisecond)
			return
		}
		fmt.Fprint(w, `{"content": [{"text": "Order data successfully saved"}]}`)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, server.Client())

	var waits []time.Duration
	client.sleep = func(d time.Duration) { waits = append(waits, d) }

	got := client.CallTool(context.Background(), "create_order", map[string]any{})
	if !IsSuccess(got) {
		t.Fatalf("CallTool() = %q, want success payload", got)
	}
	if calls.Load() != 3 {
		t.Fatalf("attempts = %d, want 3", calls.Load())
	}
	if len(waits) != 2 || waits[0] != time.Second || waits[1] != 2*time.Second {
		t.Fatalf("backoff waits = %v, want [1s 2s]", waits)
	}
}

func TestCallToolExhaustionReturnsErrorText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, server.Client())

	var waits int
	client.sleep = func(time.Duration) { waits++ }

	got := client.CallTool(context.Background(), "create_order", nil)
	if !strings.HasPrefix(got, "Error:") {
		t.Fatalf("CallTool() = %q, want textual error result", got)
	}
	if !strings.Contains(got, "3 attempts") || !strings.Contains(got, "status=500") {
		t.Fatalf("error text should embed the last failure: %q", got)
	}
	if waits != 2 {
		t.Fatalf("backoff applied %d times, want 2 (never after the final attempt)", waits)
	}
}

func TestCallToolEmptyContentRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"content": []}`)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, server.Client())
	client.sleep = func(time.Duration) {}

	got := client.CallTool(context.Background(), "get_product_info", nil)
	if !strings.Contains(got, "empty response from server") {
		t.Fatalf("CallTool() = %q", got)
	}
	if calls.Load() != 3 {
		t.Fatalf("attempts = %d, want 3", calls.Load())
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "   "}); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := NewClient(Config{URL: "::bad::"}); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestIsSuccess(t *testing.T) {
	t.Parallel()

	if !IsSuccess("Order data Successfully saved to file: orders/x.json") {
		t.Fatal("expected success detection to be case-insensitive")
	}
	if IsSuccess("Error: backend unavailable") {
		t.Fatal("unexpected success")
	}
}
