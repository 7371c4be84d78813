package agents

import (
	"context"
	"fmt"

	contractx "github.com/vanhoang/sales-agent-pipeline/agent/contract"
	registryx "github.com/vanhoang/sales-agent-pipeline/agent/registry"
	toolx "github.com/vanhoang/sales-agent-pipeline/agent/tool"
)

// DirectHandler exposes a bare invoker as a registry handler. Analysis and
// Consultant need no tool plumbing; the coordinator hands them the full
// rendered prompt in Query.
func DirectHandler(llm contractx.Invoker) contractx.Handler {
	return func(ctx context.Context, in contractx.HandlerInput) (string, error) {
		return llm.Invoke(ctx, in.Query)
	}
}

// StageInvokers bundles one configured model invoker per pipeline stage.
type StageInvokers struct {
	Analysis   contractx.Invoker
	Inventory  contractx.Invoker
	Order      contractx.Invoker
	Consultant contractx.Invoker
}

// RegisterAll wires the four stages into the registry under their cards.
func RegisterAll(reg *registryx.Registry, invokers StageInvokers, tools contractx.ToolCaller) error {
	return registerStages(reg, []stageEntry{
		{AnalysisCard(), DirectHandler(invokers.Analysis)},
		{InventoryCard(), NewInventoryHandler(invokers.Inventory, tools).Handle},
		{OrderCard(), NewOrderHandler(invokers.Order, tools).Handle},
		{ConsultantCard(), DirectHandler(invokers.Consultant)},
	})
}

// RegisterAllReAct wires the inventory and order stages through the textual
// tool-calling loop instead of the fixed handlers, letting the models drive
// tool use themselves. Analysis and Consultant are unchanged.
func RegisterAllReAct(reg *registryx.Registry, invokers StageInvokers, executor *toolx.Executor) error {
	return registerStages(reg, []stageEntry{
		{AnalysisCard(), DirectHandler(invokers.Analysis)},
		{InventoryCard(), ReActHandler(AgentInventory, invokers.Inventory, executor)},
		{OrderCard(), ReActHandler(AgentOrder, invokers.Order, executor)},
		{ConsultantCard(), DirectHandler(invokers.Consultant)},
	})
}

type stageEntry struct {
	card    registryx.Card
	handler contractx.Handler
}

func registerStages(reg *registryx.Registry, entries []stageEntry) error {
	for _, e := range entries {
		if err := reg.Register(e.card, e.handler); err != nil {
			return fmt.Errorf("register %s: %w", e.card.Name, err)
		}
	}
	return nil
}
