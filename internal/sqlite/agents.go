package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/agentwatch/internal/metrics"
	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/raphaelgruber/agentwatch/internal/store"
)

const agentColumns = `id, user_id, name, url, method, headers, query_params, body_template,
	extract_path, auth_method, auth_secret, interval_minutes, enabled,
	execution_count, success_count, failure_count, last_run, next_run, created_at, updated_at`

// CreateAgent inserts an agent, assigning an ID and timestamps when unset.
func (s *Store) CreateAgent(ctx context.Context, agent *models.Agent) error {
	defer s.metrics.Since(metrics.OpStoreWrite, time.Now())
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

	headers, err := encodeJSON(nonNilMap(agent.Headers))
	if err != nil {
		return fmt.Errorf("encode headers: %w", err)
	}
	query, err := encodeJSON(nonNilMap(agent.QueryParams))
	if err != nil {
		return fmt.Errorf("encode query params: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO agents (`+agentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.ID, agent.UserID, agent.Name, agent.URL, agent.Method, headers, query, agent.BodyTemplate,
		agent.ExtractPath, string(agent.AuthMethod), agent.AuthSecret, agent.IntervalMinutes, agent.Enabled,
		agent.ExecutionCount, agent.SuccessCount, agent.FailureCount,
		formatNullTime(agent.LastRun), formatNullTime(agent.NextRun),
		formatTime(agent.CreatedAt), formatTime(agent.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert agent %q: %w", agent.Name, err)
	}
	return nil
}

// GetAgent returns the agent with the given ID or store.ErrNotFound.
func (s *Store) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	defer s.metrics.Since(metrics.OpStoreQuery, time.Now())
	row := s.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = ?`, id)
	agent, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("agent %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return agent, nil
}

// ListAgents returns all agents in creation order.
func (s *Store) ListAgents(ctx context.Context) ([]models.Agent, error) {
	defer s.metrics.Since(metrics.OpStoreQuery, time.Now())
	return s.queryAgents(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY rowid`)
}

// ListDueAgents returns enabled agents with next_run unset or at/before now.
func (s *Store) ListDueAgents(ctx context.Context, now time.Time) ([]models.Agent, error) {
	defer s.metrics.Since(metrics.OpStoreQuery, time.Now())
	return s.queryAgents(ctx, `SELECT `+agentColumns+` FROM agents
		WHERE enabled = 1 AND (next_run IS NULL OR next_run <= ?)
		ORDER BY rowid`, formatTime(now))
}

// SetAgentEnabled toggles scheduling for an agent.
func (s *Store) SetAgentEnabled(ctx context.Context, id string, enabled bool) error {
	defer s.metrics.Since(metrics.OpStoreWrite, time.Now())
	res, err := s.db.ExecContext(ctx, `UPDATE agents SET enabled = ?, updated_at = ? WHERE id = ?`,
		enabled, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set agent enabled: %w", err)
	}
	return requireAffected(res, "agent "+id)
}

// UpdateAgentStats writes counters, last_run, and next_run in one statement.
func (s *Store) UpdateAgentStats(ctx context.Context, id string, update models.StatsUpdate) error {
	defer s.metrics.Since(metrics.OpStoreWrite, time.Now())
	success, failure := 0, 1
	if update.Success {
		success, failure = 1, 0
	}

	res, err := s.db.ExecContext(ctx, `UPDATE agents SET
			execution_count = execution_count + 1,
			success_count = success_count + ?,
			failure_count = failure_count + ?,
			last_run = ?,
			next_run = ?,
			updated_at = ?
		WHERE id = ?`,
		success, failure, formatTime(update.RanAt), formatTime(update.NextRun), formatTime(update.RanAt), id)
	if err != nil {
		return fmt.Errorf("update agent stats: %w", err)
	}
	return requireAffected(res, "agent "+id)
}

func (s *Store) queryAgents(ctx context.Context, query string, args ...any) ([]models.Agent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	agents := []models.Agent{}
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, *agent)
	}
	return agents, rows.Err()
}

func scanAgent(row rowScanner) (*models.Agent, error) {
	var (
		a                    models.Agent
		headers, query       string
		authMethod           string
		lastRun, nextRun     sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.URL, &a.Method, &headers, &query, &a.BodyTemplate,
		&a.ExtractPath, &authMethod, &a.AuthSecret, &a.IntervalMinutes, &a.Enabled,
		&a.ExecutionCount, &a.SuccessCount, &a.FailureCount, &lastRun, &nextRun, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.AuthMethod = models.AuthMethod(authMethod)

	if err := json.Unmarshal([]byte(headers), &a.Headers); err != nil {
		return nil, fmt.Errorf("decode headers: %w", err)
	}
	if err := json.Unmarshal([]byte(query), &a.QueryParams); err != nil {
		return nil, fmt.Errorf("decode query params: %w", err)
	}
	if a.LastRun, err = parseNullTime(lastRun); err != nil {
		return nil, fmt.Errorf("parse last_run: %w", err)
	}
	if a.NextRun, err = parseNullTime(nextRun); err != nil {
		return nil, fmt.Errorf("parse next_run: %w", err)
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &a, nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return nil
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
