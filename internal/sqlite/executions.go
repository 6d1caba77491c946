package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/agentwatch/internal/metrics"
	"github.com/raphaelgruber/agentwatch/internal/models"
)

const executionColumns = `id, agent_id, started_at, status, latency_ms, response_size, status_code,
	payload, numeric_fields, text_fields, error`

// CreateExecution inserts one execution record.
func (s *Store) CreateExecution(ctx context.Context, exec *models.Execution) error {
	defer s.metrics.Since(metrics.OpStoreWrite, time.Now())
	if exec.ID == "" {
		exec.ID = uuid.New().String()
	}

	numeric := exec.NumericFields
	if numeric == nil {
		numeric = map[string]float64{}
	}
	numericJSON, err := encodeJSON(numeric)
	if err != nil {
		return fmt.Errorf("encode numeric fields: %w", err)
	}
	textJSON, err := encodeJSON(nonNilMap(exec.TextFields))
	if err != nil {
		return fmt.Errorf("encode text fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO executions (`+executionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exec.ID, exec.AgentID, formatTime(exec.StartedAt), string(exec.Status), exec.LatencyMs,
		exec.ResponseSize, exec.StatusCode, exec.Payload, numericJSON, textJSON, exec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// ListExecutions returns an agent's executions, newest first.
// A limit <= 0 returns all of them.
func (s *Store) ListExecutions(ctx context.Context, agentID string, limit int) ([]models.Execution, error) {
	defer s.metrics.Since(metrics.OpStoreQuery, time.Now())
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+executionColumns+` FROM executions
		WHERE agent_id = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	execs := []models.Execution{}
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		execs = append(execs, *exec)
	}
	return execs, rows.Err()
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		e                 models.Execution
		startedAt, status string
		numeric, text     string
	)
	err := row.Scan(&e.ID, &e.AgentID, &startedAt, &status, &e.LatencyMs, &e.ResponseSize, &e.StatusCode,
		&e.Payload, &numeric, &text, &e.Error)
	if err != nil {
		return nil, err
	}
	e.Status = models.ExecutionStatus(status)
	if e.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if err := json.Unmarshal([]byte(numeric), &e.NumericFields); err != nil {
		return nil, fmt.Errorf("decode numeric fields: %w", err)
	}
	if err := json.Unmarshal([]byte(text), &e.TextFields); err != nil {
		return nil, fmt.Errorf("decode text fields: %w", err)
	}
	return &e, nil
}
