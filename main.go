package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	agentsx "github.com/vanhoang/sales-agent-pipeline/agent/agents"
	contractx "github.com/vanhoang/sales-agent-pipeline/agent/contract"
	llmx "github.com/vanhoang/sales-agent-pipeline/agent/llm"
	pipelinex "github.com/vanhoang/sales-agent-pipeline/agent/pipeline"
	promptx "github.com/vanhoang/sales-agent-pipeline/agent/prompt"
	registryx "github.com/vanhoang/sales-agent-pipeline/agent/registry"
	statex "github.com/vanhoang/sales-agent-pipeline/agent/state"
	toolx "github.com/vanhoang/sales-agent-pipeline/agent/tool"
	configx "github.com/vanhoang/sales-agent-pipeline/pkg/config"
	_ "github.com/vanhoang/sales-agent-pipeline/pkg/logger/autoload"
	openrouterx "github.com/vanhoang/sales-agent-pipeline/pkg/openrouter"
	"github.com/vanhoang/sales-agent-pipeline/pkg/toolrpc"
	"github.com/vanhoang/sales-agent-pipeline/toolserver"
)

type AppConfig struct {
	RunToolServer  bool   `envconfig:"RUN_TOOL_SERVER" split_words:"true" default:"true"`
	Interactive    bool   `envconfig:"INTERACTIVE" split_words:"true" default:"false"`
	SessionBackend string `envconfig:"SESSION_BACKEND" split_words:"true" default:"memory"`
	AgentMode      string `envconfig:"AGENT_MODE" split_words:"true" default:"a2a"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("APP")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid model configuration")
	}

	openRouterClient := openrouterx.NewClient(llmCfg.OpenRouter())
	if openRouterClient == nil {
		log.Fatal().Msg("openrouter client not configured")
	}
	if err := openrouterx.VerifyModelAccess(ctx, openRouterClient, llmCfg.StageModels()); err != nil {
		log.Warn().Err(err).Msg("model access check failed, continuing anyway")
	}

	serverCfg := configx.MustNew[toolserver.Config]("TOOL_SERVER")
	if appCfg.RunToolServer {
		srv := toolserver.New(*serverCfg, nil)
		go func() {
			log.Info().Str("addr", serverCfg.Addr).Msg("tool server listening")
			if err := http.ListenAndServe(serverCfg.Addr, srv); err != nil {
				log.Fatal().Err(err).Msg("tool server stopped")
			}
		}()
	}

	toolCfg := configx.MustNew[toolrpc.Config]("TOOL_SERVICE")
	tools := toolrpc.MustNew(*toolCfg)

	reg := registryx.New()
	if err := registerAgents(reg, appCfg.AgentMode, buildInvokers(ctx, llmCfg), tools); err != nil {
		log.Fatal().Err(err).Msg("register agents")
	}

	p, err := pipelinex.New(reg, pipelinex.WithStore(sessionStore(appCfg.SessionBackend)))
	if err != nil {
		log.Fatal().Err(err).Msg("build pipeline")
	}

	for _, card := range p.ListAgents() {
		log.Info().Str("agent", card.Name).Str("role", card.Role).Int("tools", len(card.Tools)).Msg("agent available")
	}

	if appCfg.Interactive {
		runConversation(ctx, p)
		return
	}
	runDemo(ctx, p)
}

// registerAgents picks the stage wiring: "a2a" uses the fixed inventory and
// order handlers, "react" lets the models call tools through the textual
// protocol.
func registerAgents(reg *registryx.Registry, mode string, invokers agentsx.StageInvokers, tools contractx.ToolCaller) error {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "react":
		executor := toolx.NewExecutor(toolx.NewPipelineCatalog(tools))
		return agentsx.RegisterAllReAct(reg, invokers, executor)
	default:
		return agentsx.RegisterAll(reg, invokers, tools)
	}
}

func buildInvokers(ctx context.Context, cfg *llmx.Config) agentsx.StageInvokers {
	prompts := promptx.LoadPromptSet()

	build := func(agentType contractx.AgentType, systemPrompt, graphName string) contractx.Invoker {
		modelCfg := cfg.OpenRouterFor(agentType)
		chatModel, err := modelCfg.New(ctx)
		if err != nil {
			log.Fatal().Err(err).Str("agent", string(agentType)).Msg("create chat model")
		}

		invoker, err := agentsx.NewLLMInvoker(ctx, chatModel, systemPrompt, graphName)
		if err != nil {
			log.Fatal().Err(err).Str("agent", string(agentType)).Msg("compile invoker graph")
		}
		return invoker
	}

	return agentsx.StageInvokers{
		Analysis:   build(contractx.AgentTypeAnalysis, prompts.Analysis, "analysis.model_graph"),
		Inventory:  build(contractx.AgentTypeInventory, prompts.Inventory, "inventory.model_graph"),
		Order:      build(contractx.AgentTypeOrder, prompts.Order, "order.model_graph"),
		Consultant: build(contractx.AgentTypeConsultant, prompts.Consultant, "consultant.model_graph"),
	}
}

func sessionStore(backend string) statex.Store {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "redis":
		cfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := statex.NewUpstashRedisStore(*cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build redis session store")
		}
		return store
	default:
		return statex.NewMemoryStore()
	}
}

func runDemo(ctx context.Context, p *pipelinex.Pipeline) {
	query := "Tôi muốn mua iPhone 15 Pro Max 256GB màu Titan tự nhiên còn hàng không? Giá bao nhiêu? Nếu có thì tôi muốn đặt hàng ngay."
	initialContext := map[string]any{
		"conversation_id":       "conv_001",
		"customer_name":         "Nguyễn Văn A",
		"previous_interactions": "Đã từng hỏi về iPad Air.",
	}

	result := p.Run(ctx, pipelinex.Request{
		Query:       query,
		InitialData: initialContext,
		UserID:      "user_1",
	})
	printResult(result)

	snap := p.Metrics().Snapshot()
	log.Info().
		Int64("total_requests", snap.TotalRequests).
		Float64("success_rate_percent", snap.SuccessRatePercent).
		Dur("avg_response_time", snap.AverageResponseTime).
		Msg("run metrics")
}

func runConversation(ctx context.Context, p *pipelinex.Pipeline) {
	fmt.Println("Nhập câu hỏi của bạn (gõ 'quit', 'exit' hoặc 'thoát' để dừng):")

	scanner := bufio.NewScanner(os.Stdin)
	sessionID := ""

	for {
		fmt.Print("Bạn: ")
		if !scanner.Scan() {
			return
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "quit", "exit", "thoát":
			fmt.Println("Tạm biệt!")
			return
		}

		result := p.Run(ctx, pipelinex.Request{
			Query:     input,
			UserID:    "user_1",
			SessionID: sessionID,
		})
		sessionID = result.SessionID

		fmt.Printf("Trợ lý: %s\n\n", result.CustomerResponse)
	}
}

func printResult(result contractx.PipelineResult) {
	divider := strings.Repeat("=", 70)

	fmt.Println("\n" + divider)
	fmt.Println(" KẾT QUẢ XỬ LÝ")
	fmt.Println(divider)

	if result.Status != contractx.StatusSuccess {
		fmt.Printf("\nError: %s\n", result.Error)
		return
	}

	fmt.Println("\nTrả lời khách hàng:")
	fmt.Printf("   %s\n", result.CustomerResponse)

	fmt.Println("\n" + divider)
	fmt.Println("CHI TIẾT CÁC BƯỚC:")
	fmt.Println(divider)
	for i, out := range result.AgentOutputs {
		fmt.Printf("\nBước %d (%s):\n", i+1, out.Agent)
		fmt.Printf("   %s\n", out.Output)
	}

	fmt.Printf("\nSession ID: %s\n", result.SessionID)
}
