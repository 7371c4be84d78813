package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	agentsx "github.com/vanhoang/sales-agent-pipeline/agent/agents"
	contractx "github.com/vanhoang/sales-agent-pipeline/agent/contract"
	"github.com/vanhoang/sales-agent-pipeline/agent/extract"
)

// runState threads one request's accumulated outputs through the graph.
type runState struct {
	qc contractx.QueryContext

	analysisRaw string
	analysis    contractx.AnalysisResult

	inventoryRaw string
	orderRaw     string

	finalResponse string
	outputs       []contractx.AgentOutput
}

func (p *Pipeline) compileRunGraph(
	ctx context.Context,
) (compose.Runnable[Request, contractx.PipelineResult], error) {
	graph := compose.NewGraph[Request, contractx.PipelineResult]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in Request) (*runState, error) {
			return validateRequest(in, p.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("run_analysis",
		compose.InvokableLambda(func(ctx context.Context, in *runState) (*runState, error) {
			return p.runAnalysis(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node run_analysis: %w", err)
	}

	if err := graph.AddLambdaNode("check_inventory",
		compose.InvokableLambda(func(ctx context.Context, in *runState) (*runState, error) {
			return p.checkInventory(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node check_inventory: %w", err)
	}

	if err := graph.AddLambdaNode("place_order",
		compose.InvokableLambda(func(ctx context.Context, in *runState) (*runState, error) {
			return p.placeOrder(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node place_order: %w", err)
	}

	if err := graph.AddLambdaNode("consult",
		compose.InvokableLambda(func(ctx context.Context, in *runState) (*runState, error) {
			return p.consult(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node consult: %w", err)
	}

	if err := graph.AddLambdaNode("finalize",
		compose.InvokableLambda(func(ctx context.Context, in *runState) (contractx.PipelineResult, error) {
			return p.finalize(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "run_analysis"},
		{"run_analysis", "check_inventory"},
		{"check_inventory", "place_order"},
		{"place_order", "consult"},
		{"consult", "finalize"},
		{"finalize", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("pipeline.run"))
	if err != nil {
		return nil, fmt.Errorf("compile pipeline graph: %w", err)
	}
	return runner, nil
}

func (p *Pipeline) runAnalysis(ctx context.Context, in *runState) (*runState, error) {
	handler, err := p.registry.Handler(agentsx.AgentAnalysis)
	if err != nil {
		return nil, err
	}

	raw, err := handler(ctx, contractx.HandlerInput{Query: analysisPrompt(in.qc)})
	if err != nil {
		return nil, fmt.Errorf("analysis stage: %w", err)
	}

	in.analysisRaw = raw
	in.outputs = append(in.outputs, contractx.AgentOutput{Agent: "analysis", Output: raw})

	analysis, parsed := extract.ParseOrDefault(raw, func() contractx.AnalysisResult {
		return contractx.DefaultAnalysisResult(in.qc.Query)
	})
	if !parsed {
		log.Warn().Str("session", in.qc.SessionID).Msg("analysis output not parseable, degrading to general query")
	}
	if strings.TrimSpace(analysis.OriginalQuery) == "" {
		analysis.OriginalQuery = in.qc.Query
	}
	in.analysis = analysis

	log.Debug().
		Str("session", in.qc.SessionID).
		Str("intent", string(analysis.CustomerIntent)).
		Bool("inventory", analysis.RequiresInventoryCheck).
		Bool("order", analysis.RequiresOrderPlacement).
		Msg("analysis completed")
	return in, nil
}

func (p *Pipeline) checkInventory(ctx context.Context, in *runState) (*runState, error) {
	if !in.analysis.RequiresInventoryCheck {
		log.Debug().Str("session", in.qc.SessionID).Msg("inventory check skipped")
		return in, nil
	}

	handler, err := p.registry.Handler(agentsx.AgentInventory)
	if err != nil {
		return nil, err
	}

	analysisJSON, err := json.Marshal(in.analysis)
	if err != nil {
		return nil, fmt.Errorf("inventory stage: marshal analysis context: %w", err)
	}

	raw, err := handler(ctx, contractx.HandlerInput{
		Query:   productQuery(in.analysis, in.qc),
		Context: string(analysisJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("inventory stage: %w", err)
	}

	in.outputs = append(in.outputs, contractx.AgentOutput{Agent: "inventory", Output: raw})

	// Downstream stages read inventoryRaw as JSON: when the stage produced
	// something else entirely, degrade to the not-checked placeholder so
	// Order and Consultant never ingest free text as inventory data.
	inventory, parsed := extract.ParseOrDefault(raw, func() contractx.InventoryResult {
		return contractx.DefaultInventoryResult(productQuery(in.analysis, in.qc))
	})
	if !parsed {
		log.Warn().Str("session", in.qc.SessionID).Msg("inventory output not parseable, marking stock as not checked")
		if encoded, err := json.Marshal(inventory); err == nil {
			raw = string(encoded)
		}
	}
	in.inventoryRaw = raw
	return in, nil
}

func (p *Pipeline) placeOrder(ctx context.Context, in *runState) (*runState, error) {
	if !in.analysis.RequiresOrderPlacement {
		log.Debug().Str("session", in.qc.SessionID).Msg("order placement skipped")
		return in, nil
	}

	handler, err := p.registry.Handler(agentsx.AgentOrder)
	if err != nil {
		return nil, err
	}

	inventoryInfo := in.inventoryRaw
	if inventoryInfo == "" {
		inventoryInfo = "{}"
	}

	raw, err := handler(ctx, contractx.HandlerInput{
		Query:         productQuery(in.analysis, in.qc),
		InventoryInfo: inventoryInfo,
		CustomerInfo:  customerInfoJSON(in.qc),
	})
	if err != nil {
		return nil, fmt.Errorf("order stage: %w", err)
	}

	in.orderRaw = raw
	in.outputs = append(in.outputs, contractx.AgentOutput{Agent: "order", Output: raw})
	return in, nil
}

func (p *Pipeline) consult(ctx context.Context, in *runState) (*runState, error) {
	handler, err := p.registry.Handler(agentsx.AgentConsultant)
	if err != nil {
		return nil, err
	}

	raw, err := handler(ctx, contractx.HandlerInput{Query: consultantPrompt(in)})
	if err != nil {
		return nil, fmt.Errorf("consultant stage: %w", err)
	}

	in.outputs = append(in.outputs, contractx.AgentOutput{Agent: "consultant", Output: raw})
	in.finalResponse = unwrapResponse(raw)
	return in, nil
}

func (p *Pipeline) finalize(ctx context.Context, in *runState) (contractx.PipelineResult, error) {
	response := strings.TrimSpace(in.finalResponse)
	if response == "" {
		response = fallbackResponse
	}

	result := contractx.PipelineResult{
		CustomerResponse: response,
		AgentOutputs:     in.outputs,
		SessionID:        in.qc.SessionID,
		Status:           contractx.StatusSuccess,
	}

	elapsed := p.now().Sub(in.qc.StartedAt)
	p.metrics.RecordRequest(true, elapsed, string(in.analysis.CustomerIntent), "")

	p.persist(ctx, Request{
		Query:       in.qc.Query,
		InitialData: in.qc.InitialData,
		UserID:      in.qc.UserID,
		SessionID:   in.qc.SessionID,
	}, result)

	return result, nil
}

func analysisPrompt(qc contractx.QueryContext) string {
	if len(qc.InitialData) == 0 {
		return qc.Query
	}

	contextJSON, err := json.Marshal(qc.InitialData)
	if err != nil {
		return qc.Query
	}
	return fmt.Sprintf("Thông tin khách hàng:\n%s\n\nCâu hỏi khách hàng: %s", contextJSON, qc.Query)
}

func productQuery(analysis contractx.AnalysisResult, qc contractx.QueryContext) string {
	if product := strings.TrimSpace(analysis.ProductDetails); product != "" {
		return product
	}
	return qc.Query
}

func customerInfoJSON(qc contractx.QueryContext) string {
	info := qc.InitialData
	if len(info) == 0 {
		info = map[string]any{
			"customer_name":   "Khách hàng",
			"conversation_id": qc.SessionID,
		}
	}

	encoded, err := json.Marshal(info)
	if err != nil {
		return fmt.Sprintf(`{"customer_name": "Khách hàng", "conversation_id": %q}`, qc.SessionID)
	}
	return string(encoded)
}

func consultantPrompt(in *runState) string {
	inventory := in.inventoryRaw
	if inventory == "" {
		inventory = inventorySkipped
	}
	order := in.orderRaw
	if order == "" {
		order = orderSkipped
	}

	return fmt.Sprintf(`Tạo câu trả lời cuối cho khách hàng dựa trên:

Customer Query: %s

Analysis:
%s

Inventory Result:
%s

Order Result:
%s

Customer Info:
%s

Hãy trả lời thân thiện bằng tiếng Việt, chỉ trả lời bằng đoạn văn hoàn chỉnh.`,
		in.qc.Query, in.analysisRaw, inventory, order, customerInfoJSON(in.qc))
}

// unwrapResponse flattens a consultant reply of the form {"response": "..."}
// to plain text; anything else passes through untouched.
func unwrapResponse(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed
	}

	obj, err := extract.Object(trimmed)
	if err != nil {
		return trimmed
	}
	if response, ok := obj["response"].(string); ok && strings.TrimSpace(response) != "" {
		return strings.TrimSpace(response)
	}
	return trimmed
}
