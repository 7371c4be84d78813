package tool

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/vanhoang/sales-agent-pipeline/agent/contract"
)

// Remote operation names exposed by the store tool server.
const (
	RemoteGetProductInfo = "get_product_info"
	RemoteCreateOrder    = "create_order"
)

// NewPipelineCatalog binds the catalog to the remote tool transport. The
// local ReAct names map onto the store server's operations.
func NewPipelineCatalog(caller contractx.ToolCaller) *Catalog {
	return NewCatalog(checkInventoryDetail(caller), createCustomerOrder(caller))
}

func checkInventoryDetail(caller contractx.ToolCaller) Func {
	return func(ctx context.Context, args map[string]any) (string, error) {
		product, _ := args["product"].(string)
		if strings.TrimSpace(product) == "" {
			return "", fmt.Errorf("%w: product is required", contractx.ErrValidation)
		}

		remote := map[string]any{"product": product}
		if storage, _ := args["storage"].(string); strings.TrimSpace(storage) != "" {
			remote["storage"] = storage
		}
		if color, _ := args["color"].(string); strings.TrimSpace(color) != "" {
			remote["color"] = color
		}

		return caller.CallTool(ctx, RemoteGetProductInfo, remote), nil
	}
}

func createCustomerOrder(caller contractx.ToolCaller) Func {
	return func(ctx context.Context, args map[string]any) (string, error) {
		details, ok := args["order_details"].(map[string]any)
		if !ok || len(details) == 0 {
			return "", fmt.Errorf("%w: order_details object is required", contractx.ErrValidation)
		}

		return caller.CallTool(ctx, RemoteCreateOrder, map[string]any{"order_details": details}), nil
	}
}
