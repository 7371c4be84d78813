// Package tool holds the fixed catalog of side-effecting operations the
// pipeline's agents may invoke, plus the ReAct text-protocol executor.
package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
)

const (
	ToolCheckInventoryDetail = "check_inventory_detail"
	ToolCreateCustomerOrder  = "create_customer_order"
)

// Func executes one tool call. Implementations return their result as text;
// failures inside the tool surface as an error and are converted to a
// structured error string at the executor boundary.
type Func func(ctx context.Context, args map[string]any) (string, error)

// Catalog is the closed set of named tools available to the pipeline.
// There is no open registration: the two operations below are the whole
// tool surface.
type Catalog struct {
	funcs map[string]Func
	names []string
}

func NewCatalog(checkInventory Func, createOrder Func) *Catalog {
	return &Catalog{
		funcs: map[string]Func{
			ToolCheckInventoryDetail: checkInventory,
			ToolCreateCustomerOrder:  createOrder,
		},
		names: []string{ToolCheckInventoryDetail, ToolCreateCustomerOrder},
	}
}

func (c *Catalog) Lookup(name string) (Func, bool) {
	fn, ok := c.funcs[name]
	return fn, ok
}

// Names returns the tool names in catalog order, for error messages and
// introspection.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Infos describes the catalog for model binding and agent-card listings.
func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolCheckInventoryDetail,
			Desc: "Check product inventory and pricing details from the store database.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product": {Type: schema.String, Desc: "Product name, e.g. 'iPhone 15 Pro Max'", Required: true},
				"storage": {Type: schema.String, Desc: "Storage capacity, e.g. '256GB', may be empty"},
				"color":   {Type: schema.String, Desc: "Color variant, e.g. 'Titan tự nhiên', may be empty"},
			}),
		},
		{
			Name: ToolCreateCustomerOrder,
			Desc: "Create a customer order and persist it to the order store.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"order_details": {Type: schema.Object, Desc: "Order payload: product, color, storage, quantity, total_price, customer_info", Required: true},
			}),
		},
	}
}

// InfosFor filters the catalog descriptions down to the named tools, in
// the given order. Unknown names are dropped.
func InfosFor(names ...string) []*schema.ToolInfo {
	byName := make(map[string]*schema.ToolInfo, len(names))
	for _, info := range Infos() {
		byName[info.Name] = info
	}

	out := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		if info, ok := byName[name]; ok {
			out = append(out, info)
		}
	}
	return out
}

func unknownToolError(name string, available []string) string {
	return fmt.Sprintf("Tool '%s' not found. Available tools: %v", name, available)
}
