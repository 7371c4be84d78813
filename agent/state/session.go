// Package state persists the outcome of pipeline runs keyed by session id,
// so follow-up turns in the same conversation can see what already happened.
package state

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/vanhoang/sales-agent-pipeline/agent/contract"
)

// SessionRecord is the stored outcome of one pipeline run.
type SessionRecord struct {
	SessionID    string                   `json:"session_id"`
	UserID       string                   `json:"user_id"`
	Query        string                   `json:"query"`
	ContextData  map[string]any           `json:"context_data,omitempty"`
	AgentOutputs []contractx.AgentOutput  `json:"agent_outputs"`
	Response     string                   `json:"response"`
	Status       contractx.PipelineStatus `json:"status"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

func NewSessionRecord(sessionID, userID string) *SessionRecord {
	return &SessionRecord{
		SessionID: strings.TrimSpace(sessionID),
		UserID:    strings.TrimSpace(userID),
		UpdatedAt: time.Now().UTC(),
	}
}

func (r *SessionRecord) Validate() error {
	if r == nil {
		return ErrNilSessionRecord
	}
	if strings.TrimSpace(r.SessionID) == "" {
		return ErrInvalidSession
	}
	switch r.Status {
	case "", contractx.StatusSuccess, contractx.StatusError:
	default:
		return fmt.Errorf("%w: unknown status %q", contractx.ErrValidation, r.Status)
	}
	return nil
}

// Clone returns a deep copy so stored records cannot be mutated through
// aliased slices or maps.
func (r *SessionRecord) Clone() *SessionRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.ContextData != nil {
		out.ContextData = make(map[string]any, len(r.ContextData))
		for k, v := range r.ContextData {
			out.ContextData[k] = v
		}
	}
	if r.AgentOutputs != nil {
		out.AgentOutputs = append([]contractx.AgentOutput(nil), r.AgentOutputs...)
	}
	return &out
}
