package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/analysis.txt
	analysisRaw string

	//go:embed template/inventory.txt
	inventoryRaw string

	//go:embed template/order.txt
	orderRaw string

	//go:embed template/consultant.txt
	consultantRaw string
)

// PromptSet holds loaded prompt content for the four pipeline agents.
type PromptSet struct {
	Analysis   string
	Inventory  string
	Order      string
	Consultant string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Analysis:   strings.TrimSpace(analysisRaw),
		Inventory:  strings.TrimSpace(inventoryRaw),
		Order:      strings.TrimSpace(orderRaw),
		Consultant: strings.TrimSpace(consultantRaw),
	}
}
