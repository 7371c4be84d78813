// Package pipeline is the coordinator for one customer request: Analysis,
// then the conditional Inventory and Order stages, then the Consultant's
// final customer-facing answer. Stages run strictly in sequence because
// each stage's prompt embeds the outputs of everything before it.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/vanhoang/sales-agent-pipeline/agent/contract"
	metricsx "github.com/vanhoang/sales-agent-pipeline/agent/metrics"
	registryx "github.com/vanhoang/sales-agent-pipeline/agent/registry"
	statex "github.com/vanhoang/sales-agent-pipeline/agent/state"
)

const (
	queryMaxChars = 2000

	fallbackResponse = "Xin lỗi, tôi không thể xử lý yêu cầu lúc này."
	errorResponse    = "Xin lỗi, đã xảy ra lỗi khi xử lý yêu cầu của bạn."

	inventorySkipped = "Không kiểm tra"
	orderSkipped     = "Không tạo đơn"
)

// Request is the pipeline entry point's input.
type Request struct {
	Query       string
	InitialData map[string]any
	UserID      string
	SessionID   string
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithStore enables session persistence for completed runs.
func WithStore(store statex.Store) Option {
	return func(p *Pipeline) {
		p.store = store
	}
}

func WithMetrics(collector *metricsx.Collector) Option {
	return func(p *Pipeline) {
		if collector != nil {
			p.metrics = collector
		}
	}
}

// WithClock replaces the wall clock, for deterministic timing in tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithSessionIDFunc replaces the session id generator.
func WithSessionIDFunc(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newSessionID = fn
		}
	}
}

type Pipeline struct {
	registry *registryx.Registry
	store    statex.Store
	metrics  *metricsx.Collector

	graphRunner compose.Runnable[Request, contractx.PipelineResult]

	now          func() time.Time
	newSessionID func() string
}

func New(reg *registryx.Registry, opts ...Option) (*Pipeline, error) {
	if reg == nil {
		return nil, errors.New("agent registry is required")
	}

	p := &Pipeline{
		registry:     reg,
		metrics:      metricsx.NewCollector(),
		now:          time.Now,
		newSessionID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	graphRunner, err := p.compileRunGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.graphRunner = graphRunner

	return p, nil
}

// Run executes the whole pipeline for one request. A stage invocation
// error short-circuits the remaining stages and yields a status=error
// result; the customer still receives natural-language text.
func (p *Pipeline) Run(ctx context.Context, req Request) contractx.PipelineResult {
	started := p.now()

	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = p.newSessionID()
	}
	log.Info().Str("session", req.SessionID).Str("query", req.Query).Msg("pipeline run started")

	result, err := p.graphRunner.Invoke(ctx, req)
	if err != nil {
		elapsed := p.now().Sub(started)
		p.metrics.RecordRequest(false, elapsed, "", "stage_failure")
		log.Error().Str("session", req.SessionID).Err(err).Msg("pipeline run failed")

		failed := contractx.PipelineResult{
			CustomerResponse: errorResponse,
			SessionID:        req.SessionID,
			Status:           contractx.StatusError,
			Error:            err.Error(),
		}
		p.persist(ctx, req, failed)
		return failed
	}

	log.Info().Str("session", result.SessionID).Msg("pipeline run completed")
	return result
}

// Metrics returns the shared request accumulator.
func (p *Pipeline) Metrics() *metricsx.Collector {
	return p.metrics
}

// ListAgents exposes the registered agent cards for introspection.
func (p *Pipeline) ListAgents() []registryx.Card {
	return p.registry.ListAgents()
}

func (p *Pipeline) persist(ctx context.Context, req Request, result contractx.PipelineResult) {
	if p.store == nil {
		return
	}

	record := statex.NewSessionRecord(result.SessionID, req.UserID)
	record.Query = req.Query
	record.ContextData = req.InitialData
	record.AgentOutputs = result.AgentOutputs
	record.Response = result.CustomerResponse
	record.Status = result.Status

	if err := p.store.Save(ctx, record); err != nil {
		log.Warn().Str("session", result.SessionID).Err(err).Msg("could not persist session record")
	}
}

func validateRequest(req Request, now func() time.Time) (*runState, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, errors.New("query is required: empty input")
	}
	if utf8.RuneCountInString(query) > queryMaxChars {
		return nil, errors.New("query exceeds maximum length")
	}

	return &runState{
		qc: contractx.QueryContext{
			Query:       query,
			InitialData: req.InitialData,
			UserID:      req.UserID,
			SessionID:   req.SessionID,
			StartedAt:   now(),
		},
	}, nil
}
