package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/vanhoang/sales-agent-pipeline/agent/contract"
	openrouterx "github.com/vanhoang/sales-agent-pipeline/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	AnalysisModel         string  `envconfig:"ANALYSIS_MODEL" split_words:"true"`
	InventoryModel        string  `envconfig:"INVENTORY_MODEL" split_words:"true"`
	OrderModel            string  `envconfig:"ORDER_MODEL" split_words:"true"`
	ConsultantModel       string  `envconfig:"CONSULTANT_MODEL" split_words:"true"`
	AnalysisTemperature   float32 `envconfig:"ANALYSIS_TEMPERATURE" split_words:"true" default:"-1"`
	InventoryTemperature  float32 `envconfig:"INVENTORY_TEMPERATURE" split_words:"true" default:"-1"`
	OrderTemperature      float32 `envconfig:"ORDER_TEMPERATURE" split_words:"true" default:"-1"`
	ConsultantTemperature float32 `envconfig:"CONSULTANT_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouter returns the shared provider configuration with no per-stage
// override applied. Used for cross-stage concerns like the startup
// credential check.
func (c Config) OpenRouter() openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              strings.TrimSpace(c.Model),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

// OpenRouterFor resolves the model configuration for one pipeline stage,
// falling back to the shared defaults when no per-stage override is set.
func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	cfg := c.OpenRouter()

	switch agentType {
	case contractx.AgentTypeAnalysis:
		if v := strings.TrimSpace(c.AnalysisModel); v != "" {
			cfg.Model = v
		}
		if c.AnalysisTemperature >= 0 {
			cfg.Temperature = c.AnalysisTemperature
		}
	case contractx.AgentTypeInventory:
		if v := strings.TrimSpace(c.InventoryModel); v != "" {
			cfg.Model = v
		}
		if c.InventoryTemperature >= 0 {
			cfg.Temperature = c.InventoryTemperature
		}
	case contractx.AgentTypeOrder:
		if v := strings.TrimSpace(c.OrderModel); v != "" {
			cfg.Model = v
		}
		if c.OrderTemperature >= 0 {
			cfg.Temperature = c.OrderTemperature
		}
	case contractx.AgentTypeConsultant:
		if v := strings.TrimSpace(c.ConsultantModel); v != "" {
			cfg.Model = v
		}
		if c.ConsultantTemperature >= 0 {
			cfg.Temperature = c.ConsultantTemperature
		}
	}

	return cfg
}

// StageModels returns the distinct model names the four stages resolve to,
// in stage order.
func (c Config) StageModels() []string {
	stages := []contractx.AgentType{
		contractx.AgentTypeAnalysis,
		contractx.AgentTypeInventory,
		contractx.AgentTypeOrder,
		contractx.AgentTypeConsultant,
	}

	seen := make(map[string]bool, len(stages))
	models := make([]string, 0, len(stages))
	for _, agentType := range stages {
		name := c.OpenRouterFor(agentType).Model
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		models = append(models, name)
	}
	return models
}
