package contract

import "errors"

var (
	ErrModelInvoke   = errors.New("model invoke failed")
	ErrNoJSONObject  = errors.New("no JSON object found in text")
	ErrAgentNotFound = errors.New("agent not registered")
	ErrPromptMissing = errors.New("required prompt is missing")
	ErrValidation    = errors.New("validation failed")
)
