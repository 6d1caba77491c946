package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/agentwatch/internal/metrics"
	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// Projections return the bare record key as id so results decode into the
// plain string IDs of the models package.
const (
	agentFields = `record::id(id) AS id, user_id, name, url, method, headers, query_params,
		body_template, extract_path, auth_method, auth_secret, interval_minutes, enabled,
		execution_count, success_count, failure_count, last_run, next_run, created_at, updated_at`

	executionFields = `record::id(id) AS id, agent_id, started_at, status, latency_ms, response_size,
		status_code, payload, numeric_fields, text_fields, error`

	entityFields = `record::id(id) AS id, agent_id, execution_id, type, value, confidence,
		field_path, seq, created_at`

	correlationFields = `record::id(id) AS id, source_agent_id, target_agent_id, execution_id,
		type, strength, shared_entities, created_at`
)

// limitClause renders LIMIT for positive limits; zero or negative means all.
func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf("LIMIT %d", limit)
}

// first returns the first statement's result or the zero value.
func first[T any](results *[]surrealdb.QueryResult[T]) T {
	var zero T
	if results == nil || len(*results) == 0 {
		return zero
	}
	return (*results)[0].Result
}

// =============================================================================
// AGENTS
// =============================================================================

// CreateAgent inserts an agent, assigning an ID and timestamps when unset.
func (c *Client) CreateAgent(ctx context.Context, agent *models.Agent) error {
	defer c.metrics.Since(metrics.OpStoreWrite, time.Now())

	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = now
	}
	agent.UpdatedAt = now
	if agent.AuthMethod == "" {
		agent.AuthMethod = models.AuthNone
	}

	content := map[string]any{
		"user_id":          agent.UserID,
		"name":             agent.Name,
		"url":              agent.URL,
		"method":           agent.Method,
		"headers":          nonNilMap(agent.Headers),
		"query_params":     nonNilMap(agent.QueryParams),
		"body_template":    agent.BodyTemplate,
		"extract_path":     agent.ExtractPath,
		"auth_method":      string(agent.AuthMethod),
		"auth_secret":      agent.AuthSecret,
		"interval_minutes": agent.IntervalMinutes,
		"enabled":          agent.Enabled,
		"execution_count":  agent.ExecutionCount,
		"success_count":    agent.SuccessCount,
		"failure_count":    agent.FailureCount,
		"created_at":       agent.CreatedAt,
		"updated_at":       agent.UpdatedAt,
	}
	// option<datetime> rejects NULL; omit to store NONE.
	if agent.LastRun != nil {
		content["last_run"] = agent.LastRun.UTC()
	}
	if agent.NextRun != nil {
		content["next_run"] = agent.NextRun.UTC()
	}

	_, err := surrealdb.Query[any](ctx, c.db, `CREATE type::record("agent", $id) CONTENT $content`,
		map[string]any{"id": agent.ID, "content": content})
	if err != nil {
		return fmt.Errorf("create agent %q: %w", agent.Name, wrapQueryError(err))
	}
	return nil
}

// GetAgent returns the agent with the given ID or ErrNotFound.
func (c *Client) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	defer c.metrics.Since(metrics.OpStoreQuery, time.Now())

	results, err := surrealdb.Query[[]models.Agent](ctx, c.db,
		`SELECT `+agentFields+` FROM type::record("agent", $id)`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	agents := first(results)
	if len(agents) == 0 {
		return nil, fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	return &agents[0], nil
}

// ListAgents returns all agents in creation order.
func (c *Client) ListAgents(ctx context.Context) ([]models.Agent, error) {
	defer c.metrics.Since(metrics.OpStoreQuery, time.Now())

	results, err := surrealdb.Query[[]models.Agent](ctx, c.db,
		`SELECT `+agentFields+` FROM agent ORDER BY created_at ASC`, nil)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	if agents := first(results); agents != nil {
		return agents, nil
	}
	return []models.Agent{}, nil
}

// ListDueAgents returns enabled agents with next_run unset or at/before now.
func (c *Client) ListDueAgents(ctx context.Context, now time.Time) ([]models.Agent, error) {
	defer c.metrics.Since(metrics.OpStoreQuery, time.Now())

	results, err := surrealdb.Query[[]models.Agent](ctx, c.db, `
		SELECT `+agentFields+` FROM agent
		WHERE enabled = true AND (next_run IS NONE OR next_run <= $now)
		ORDER BY created_at ASC
	`, map[string]any{"now": now.UTC()})
	if err != nil {
		return nil, fmt.Errorf("list due agents: %w", err)
	}
	if agents := first(results); agents != nil {
		return agents, nil
	}
	return []models.Agent{}, nil
}

// SetAgentEnabled toggles scheduling for an agent.
func (c *Client) SetAgentEnabled(ctx context.Context, id string, enabled bool) error {
	defer c.metrics.Since(metrics.OpStoreWrite, time.Now())

	results, err := surrealdb.Query[[]any](ctx, c.db, `
		UPDATE type::record("agent", $id) SET enabled = $enabled, updated_at = time::now()
	`, map[string]any{"id": id, "enabled": enabled})
	if err != nil {
		return fmt.Errorf("set agent enabled: %w", err)
	}
	if len(first(results)) == 0 {
		return fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateAgentStats writes counters, last_run, and next_run in one statement.
func (c *Client) UpdateAgentStats(ctx context.Context, id string, update models.StatsUpdate) error {
	defer c.metrics.Since(metrics.OpStoreWrite, time.Now())

	success, failure := 0, 1
	if update.Success {
		success, failure = 1, 0
	}

	results, err := surrealdb.Query[[]any](ctx, c.db, `
		UPDATE type::record("agent", $id) SET
			execution_count += 1,
			success_count += $success,
			failure_count += $failure,
			last_run = $ran_at,
			next_run = $next_run,
			updated_at = $ran_at
	`, map[string]any{
		"id":       id,
		"success":  success,
		"failure":  failure,
		"ran_at":   update.RanAt.UTC(),
		"next_run": update.NextRun.UTC(),
	})
	if err != nil {
		return fmt.Errorf("update agent stats: %w", wrapQueryError(err))
	}
	if len(first(results)) == 0 {
		return fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	return nil
}

// =============================================================================
// EXECUTIONS
// =============================================================================

// CreateExecution inserts one execution record.
func (c *Client) CreateExecution(ctx context.Context, exec *models.Execution) error {
	defer c.metrics.Since(metrics.OpStoreWrite, time.Now())

	if exec.ID == "" {
		exec.ID = uuid.New().String()
	}
	numeric := exec.NumericFields
	if numeric == nil {
		numeric = map[string]float64{}
	}

	_, err := surrealdb.Query[any](ctx, c.db, `CREATE type::record("execution", $id) CONTENT $content`,
		map[string]any{"id": exec.ID, "content": map[string]any{
			"agent_id":       exec.AgentID,
			"started_at":     exec.StartedAt.UTC(),
			"status":         string(exec.Status),
			"latency_ms":     exec.LatencyMs,
			"response_size":  exec.ResponseSize,
			"status_code":    exec.StatusCode,
			"payload":        exec.Payload,
			"numeric_fields": numeric,
			"text_fields":    nonNilMap(exec.TextFields),
			"error":          exec.Error,
		}})
	if err != nil {
		return fmt.Errorf("create execution: %w", wrapQueryError(err))
	}
	return nil
}

// ListExecutions returns an agent's executions, newest first.
func (c *Client) ListExecutions(ctx context.Context, agentID string, limit int) ([]models.Execution, error) {
	defer c.metrics.Since(metrics.OpStoreQuery, time.Now())

	sql := fmt.Sprintf(`SELECT %s FROM execution WHERE agent_id = $agent_id ORDER BY started_at DESC %s`,
		executionFields, limitClause(limit))
	results, err := surrealdb.Query[[]models.Execution](ctx, c.db, sql, map[string]any{"agent_id": agentID})
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	if execs := first(results); execs != nil {
		return execs, nil
	}
	return []models.Execution{}, nil
}

// =============================================================================
// ENTITIES
// =============================================================================

// entityRow carries the batch position used for ordering.
type entityRow struct {
	models.Entity
	Seq int `json:"seq"`
}

// CreateEntities inserts a batch of entities in one transaction.
func (c *Client) CreateEntities(ctx context.Context, entities []models.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	defer c.metrics.Since(metrics.OpStoreWrite, time.Now())

	rows := make([]map[string]any, 0, len(entities))
	for i := range entities {
		e := &entities[i]
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		rows = append(rows, map[string]any{
			"id":           e.ID,
			"agent_id":     e.AgentID,
			"execution_id": e.ExecutionID,
			"type":         string(e.Type),
			"value":        e.Value,
			"confidence":   e.Confidence,
			"field_path":   e.FieldPath,
			"seq":          i,
			"created_at":   e.CreatedAt.UTC(),
		})
	}

	_, err := surrealdb.Query[any](ctx, c.db, `
		BEGIN TRANSACTION;
		FOR $row IN $rows {
			CREATE type::record("entity", $row.id) CONTENT {
				agent_id: $row.agent_id,
				execution_id: $row.execution_id,
				type: $row.type,
				value: $row.value,
				confidence: $row.confidence,
				field_path: $row.field_path,
				seq: $row.seq,
				created_at: $row.created_at
			};
		};
		COMMIT TRANSACTION;
	`, map[string]any{"rows": rows})
	if err != nil {
		return fmt.Errorf("create entities: %w", wrapQueryError(err))
	}
	return nil
}

// ListEntities returns the entities tagged in one execution, in insertion order.
func (c *Client) ListEntities(ctx context.Context, executionID string) ([]models.Entity, error) {
	defer c.metrics.Since(metrics.OpStoreQuery, time.Now())

	results, err := surrealdb.Query[[]entityRow](ctx, c.db,
		`SELECT `+entityFields+` FROM entity WHERE execution_id = $execution_id ORDER BY seq ASC`,
		map[string]any{"execution_id": executionID})
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	rows := first(results)
	entities := make([]models.Entity, 0, len(rows))
	for _, r := range rows {
		entities = append(entities, r.Entity)
	}
	return entities, nil
}

// RecentEntitySets returns, for up to limit agents other than excludeAgentID,
// the entities of each agent's latest successful execution.
func (c *Client) RecentEntitySets(ctx context.Context, excludeAgentID string, limit int) ([]models.EntitySet, error) {
	if limit <= 0 {
		return []models.EntitySet{}, nil
	}
	defer c.metrics.Since(metrics.OpStoreQuery, time.Now())

	type latest struct {
		ID      string `json:"id"`
		AgentID string `json:"agent_id"`
	}
	results, err := surrealdb.Query[[]latest](ctx, c.db, `
		SELECT record::id(id) AS id, agent_id, started_at FROM execution
		WHERE status = "success" AND agent_id != $exclude
		ORDER BY started_at DESC
	`, map[string]any{"exclude": excludeAgentID})
	if err != nil {
		return nil, fmt.Errorf("recent executions: %w", err)
	}

	seen := make(map[string]bool)
	sets := []models.EntitySet{}
	for _, row := range first(results) {
		if seen[row.AgentID] {
			continue
		}
		seen[row.AgentID] = true

		entities, err := c.ListEntities(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		sets = append(sets, models.EntitySet{AgentID: row.AgentID, ExecutionID: row.ID, Entities: entities})
		if len(sets) == limit {
			break
		}
	}
	return sets, nil
}

// =============================================================================
// CORRELATIONS
// =============================================================================

// CreateCorrelations inserts a batch of correlations in one transaction.
func (c *Client) CreateCorrelations(ctx context.Context, correlations []models.Correlation) error {
	if len(correlations) == 0 {
		return nil
	}
	defer c.metrics.Since(metrics.OpStoreWrite, time.Now())

	rows := make([]map[string]any, 0, len(correlations))
	for i := range correlations {
		cr := &correlations[i]
		if cr.ID == "" {
			cr.ID = uuid.New().String()
		}
		shared := cr.SharedEntities
		if shared == nil {
			shared = []string{}
		}
		rows = append(rows, map[string]any{
			"id":              cr.ID,
			"source_agent_id": cr.SourceAgentID,
			"target_agent_id": cr.TargetAgentID,
			"execution_id":    cr.ExecutionID,
			"type":            string(cr.Type),
			"strength":        cr.Strength,
			"shared_entities": shared,
			"created_at":      cr.CreatedAt.UTC(),
		})
	}

	_, err := surrealdb.Query[any](ctx, c.db, `
		BEGIN TRANSACTION;
		FOR $row IN $rows {
			CREATE type::record("correlation", $row.id) CONTENT {
				source_agent_id: $row.source_agent_id,
				target_agent_id: $row.target_agent_id,
				execution_id: $row.execution_id,
				type: $row.type,
				strength: $row.strength,
				shared_entities: $row.shared_entities,
				created_at: $row.created_at
			};
		};
		COMMIT TRANSACTION;
	`, map[string]any{"rows": rows})
	if err != nil {
		return fmt.Errorf("create correlations: %w", wrapQueryError(err))
	}
	return nil
}

// ListCorrelations returns correlations where agentID is source or target,
// newest first. An empty agentID lists all correlations.
func (c *Client) ListCorrelations(ctx context.Context, agentID string, limit int) ([]models.Correlation, error) {
	defer c.metrics.Since(metrics.OpStoreQuery, time.Now())

	where := ""
	if agentID != "" {
		where = "WHERE source_agent_id = $agent_id OR target_agent_id = $agent_id"
	}
	sql := fmt.Sprintf(`SELECT %s FROM correlation %s ORDER BY created_at DESC %s`,
		correlationFields, where, limitClause(limit))

	results, err := surrealdb.Query[[]models.Correlation](ctx, c.db, sql, map[string]any{"agent_id": agentID})
	if err != nil {
		return nil, fmt.Errorf("list correlations: %w", err)
	}
	if correlations := first(results); correlations != nil {
		return correlations, nil
	}
	return []models.Correlation{}, nil
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
