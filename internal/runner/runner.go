// Package runner performs one HTTP call for one agent and persists the outcome.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/agentwatch/internal/clock"
	"github.com/raphaelgruber/agentwatch/internal/correlate"
	"github.com/raphaelgruber/agentwatch/internal/extract"
	"github.com/raphaelgruber/agentwatch/internal/metrics"
	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/raphaelgruber/agentwatch/internal/payload"
	"github.com/raphaelgruber/agentwatch/internal/store"
	"github.com/raphaelgruber/agentwatch/internal/tagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTimeout bounds every outbound call.
	DefaultTimeout = 30 * time.Second

	// MaxBodyBytes is the largest accepted response body. Larger bodies are
	// recorded as errors.
	MaxBodyBytes = 10 << 20
)

// Options configures a Runner. Zero values select defaults.
type Options struct {
	Version    string        // reported in User-Agent
	Timeout    time.Duration // DefaultTimeout when zero
	SampleSize int           // correlate.DefaultSampleSize when zero
	Clock      clock.Clock
	Metrics    *metrics.Collector
	HTTPClient *http.Client // built from Timeout when nil
}

// Result is everything one execution produced.
type Result struct {
	Agent        models.Agent         `json:"agent"` // with stats applied
	Execution    models.Execution     `json:"execution"`
	Entities     []models.Entity      `json:"entities"`
	Correlations []models.Correlation `json:"correlations"`
}

// Runner executes agents against their endpoints.
type Runner struct {
	store      store.Store
	client     *http.Client
	clock      clock.Clock
	logger     *slog.Logger
	metrics    *metrics.Collector
	tracer     trace.Tracer
	userAgent  string
	sampleSize int
}

// New creates a Runner backed by st.
func New(st store.Store, logger *slog.Logger, opts Options) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = correlate.DefaultSampleSize
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Runner{
		store:      st,
		client:     client,
		clock:      opts.Clock,
		logger:     logger,
		metrics:    opts.Metrics,
		tracer:     otel.Tracer("github.com/raphaelgruber/agentwatch/internal/runner"),
		userAgent:  "agentwatch/" + opts.Version,
		sampleSize: opts.SampleSize,
	}
}

// Execute performs one call for agent and persists exactly one execution
// record, plus entities and correlations on success, then writes back stats.
// HTTP failures are recorded outcomes; only storage failures return an error.
func (r *Runner) Execute(ctx context.Context, agent *models.Agent) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "agent.execute", trace.WithAttributes(
		attribute.String("agent.id", agent.ID),
		attribute.String("agent.name", agent.Name),
	))
	defer span.End()

	startedAt := r.clock.Now()
	began := time.Now()

	exec := models.Execution{
		ID:        uuid.New().String(),
		AgentID:   agent.ID,
		StartedAt: startedAt,
	}

	value, size, code, callErr := r.call(ctx, agent)
	exec.LatencyMs = time.Since(began).Milliseconds()
	exec.ResponseSize = size
	exec.StatusCode = code

	res := &Result{}
	if callErr != nil {
		exec.Status = models.ExecutionError
		exec.Error = callErr.Error()
		r.metrics.RecordTiming(metrics.OpExecutionError, time.Since(began))
		span.SetStatus(codes.Error, exec.Error)
		r.logger.Warn("execution failed", "agent_id", agent.ID, "name", agent.Name, "error", exec.Error, "latency_ms", exec.LatencyMs)
	} else {
		extracted := extract.Path(value, agent.ExtractPath)
		fields := extract.Classify(extracted)
		raw, err := extracted.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		exec.Status = models.ExecutionSuccess
		exec.Payload = string(raw)
		exec.NumericFields = fields.Numeric
		exec.TextFields = fields.Text

		res.Entities = tagger.Tag(extracted)
		for i := range res.Entities {
			res.Entities[i].ID = uuid.New().String()
			res.Entities[i].AgentID = agent.ID
			res.Entities[i].ExecutionID = exec.ID
			res.Entities[i].CreatedAt = startedAt
		}
		r.metrics.RecordTiming(metrics.OpExecutionSuccess, time.Since(began))
		r.logger.Info("execution succeeded", "agent_id", agent.ID, "name", agent.Name,
			"status_code", code, "latency_ms", exec.LatencyMs, "entities", len(res.Entities))
	}
	span.SetAttributes(attribute.String("execution.status", string(exec.Status)))

	if err := r.store.CreateExecution(ctx, &exec); err != nil {
		return nil, fmt.Errorf("persist execution: %w", err)
	}
	res.Execution = exec

	// Stats are written back whenever the execution record exists, even if
	// a later write fails.
	var persistErr error
	if exec.Status == models.ExecutionSuccess && len(res.Entities) > 0 {
		if err := r.store.CreateEntities(ctx, res.Entities); err != nil {
			persistErr = fmt.Errorf("persist entities: %w", err)
			r.logger.Error("persist entities failed", "agent_id", agent.ID, "execution_id", exec.ID, "error", err)
		} else {
			r.metrics.Add(metrics.CountEntities, len(res.Entities))
			res.Correlations = r.correlate(ctx, agent, exec, res.Entities)
		}
	}

	update := Reschedule(agent, exec.Status == models.ExecutionSuccess, r.clock.Now())
	if err := r.store.UpdateAgentStats(ctx, agent.ID, update); err != nil {
		return nil, errors.Join(persistErr, fmt.Errorf("update agent stats: %w", err))
	}
	if persistErr != nil {
		return nil, persistErr
	}
	res.Agent = *agent
	applyStats(&res.Agent, update)

	return res, nil
}

// call issues the request and decodes the body. It returns the body size and
// status code even when the outcome is an error.
func (r *Runner) call(ctx context.Context, agent *models.Agent) (payload.Value, int64, int, error) {
	req, err := buildRequest(ctx, agent, r.userAgent)
	if err != nil {
		return payload.Value{}, 0, 0, &TransportError{Err: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return payload.Value{}, 0, 0, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	size := int64(len(body))
	if err != nil {
		return payload.Value{}, size, resp.StatusCode, &TransportError{Err: err}
	}
	if size > MaxBodyBytes {
		if resp.ContentLength > size {
			size = resp.ContentLength
		}
		return payload.Value{}, size, resp.StatusCode, &BodyTooLargeError{Limit: MaxBodyBytes}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		status := http.StatusText(resp.StatusCode)
		if status == "" {
			status = resp.Status
		}
		return payload.Value{}, size, resp.StatusCode, &StatusError{Code: resp.StatusCode, Status: status}
	}

	if !isJSON(resp.Header.Get("Content-Type")) {
		return payload.String(string(body)), size, resp.StatusCode, nil
	}
	v, err := payload.Parse(body)
	if err != nil {
		return payload.Value{}, size, resp.StatusCode, &DecodeError{Err: err}
	}
	return v, size, resp.StatusCode, nil
}

// correlate scores this execution's entities against other agents' latest
// sets. The scan is best effort: storage failures are logged and yield no
// correlations.
func (r *Runner) correlate(ctx context.Context, agent *models.Agent, exec models.Execution, entities []models.Entity) []models.Correlation {
	targets, err := r.store.RecentEntitySets(ctx, agent.ID, r.sampleSize)
	if err != nil {
		r.logger.Warn("load entity sets failed, skipping correlation", "agent_id", agent.ID, "error", err)
		return nil
	}

	source := models.EntitySet{AgentID: agent.ID, ExecutionID: exec.ID, Entities: entities}
	correlations := correlate.Score(source, targets)
	if len(correlations) == 0 {
		return nil
	}

	now := r.clock.Now()
	for i := range correlations {
		correlations[i].ID = uuid.New().String()
		correlations[i].ExecutionID = exec.ID
		correlations[i].CreatedAt = now
	}
	if err := r.store.CreateCorrelations(ctx, correlations); err != nil {
		r.logger.Warn("persist correlations failed", "agent_id", agent.ID, "execution_id", exec.ID, "error", err)
		return nil
	}
	r.metrics.Add(metrics.CountCorrelations, len(correlations))

	for _, c := range correlations {
		r.logger.Info("correlation found", "source", c.SourceAgentID, "target", c.TargetAgentID,
			"type", c.Type, "strength", c.Strength)
	}
	return correlations
}
