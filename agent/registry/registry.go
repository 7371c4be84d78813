// Package registry is the phone book for agent-to-agent calls: it maps an
// agent's logical name to its invocation handler and descriptive card, so
// the coordinator never links against concrete agent implementations.
package registry

import (
	"fmt"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/vanhoang/sales-agent-pipeline/agent/contract"
)

// Card describes one agent for discovery and listing. It carries no
// control-flow weight: the pipeline only ever dispatches through handlers.
type Card struct {
	Name         string             `json:"name"`
	DisplayName  string             `json:"display_name"`
	Role         string             `json:"role"`
	Capabilities []string           `json:"capabilities"`
	InputSchema  map[string]any     `json:"input_schema,omitempty"`
	OutputSchema map[string]any     `json:"output_schema,omitempty"`
	Tools        []*schema.ToolInfo `json:"tools,omitempty"`
	Version      string             `json:"version"`
	Endpoint     string             `json:"endpoint,omitempty"`
}

type Registry struct {
	mu       sync.RWMutex
	cards    map[string]Card
	handlers map[string]contractx.Handler
	order    []string
}

func New() *Registry {
	return &Registry{
		cards:    make(map[string]Card, 4),
		handlers: make(map[string]contractx.Handler, 4),
	}
}

// Register adds an agent under card.Name. Last write wins: re-registering
// replaces the card and handler but keeps the original listing position.
func (r *Registry) Register(card Card, handler contractx.Handler) error {
	if card.Name == "" {
		return fmt.Errorf("%w: agent card name is required", contractx.ErrValidation)
	}
	if handler == nil {
		return fmt.Errorf("%w: handler is required for agent=%s", contractx.ErrValidation, card.Name)
	}
	if card.Version == "" {
		card.Version = "1.0.0"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cards[card.Name]; !exists {
		r.order = append(r.order, card.Name)
	}
	r.cards[card.Name] = card
	r.handlers[card.Name] = handler

	log.Info().Str("agent", card.Name).Str("role", card.Role).Msg("registered agent")
	return nil
}

// Handler returns the invocation handler for an agent name.
func (r *Registry) Handler(name string) (contractx.Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contractx.ErrAgentNotFound, name)
	}
	return handler, nil
}

// Card returns the descriptive card for an agent name.
func (r *Registry) Card(name string) (Card, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	card, ok := r.cards[name]
	return card, ok
}

// ListAgents returns all registered cards in registration order.
func (r *Registry) ListAgents() []Card {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Card, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.cards[name])
	}
	return out
}
