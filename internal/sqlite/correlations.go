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

// CreateCorrelations inserts a batch of correlations in one transaction.
func (s *Store) CreateCorrelations(ctx context.Context, correlations []models.Correlation) error {
	defer s.metrics.Since(metrics.OpStoreWrite, time.Now())
	if len(correlations) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO correlations
		(id, source_agent_id, target_agent_id, execution_id, type, strength, shared_entities, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert correlation: %w", err)
	}
	defer stmt.Close()

	for i := range correlations {
		c := &correlations[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		shared := c.SharedEntities
		if shared == nil {
			shared = []string{}
		}
		sharedJSON, err := encodeJSON(shared)
		if err != nil {
			return fmt.Errorf("encode shared entities: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.SourceAgentID, c.TargetAgentID, c.ExecutionID,
			string(c.Type), c.Strength, sharedJSON, formatTime(c.CreatedAt)); err != nil {
			return fmt.Errorf("insert correlation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit correlations: %w", err)
	}
	return nil
}

// ListCorrelations returns correlations where agentID is source or target,
// newest first. An empty agentID lists all correlations.
func (s *Store) ListCorrelations(ctx context.Context, agentID string, limit int) ([]models.Correlation, error) {
	defer s.metrics.Since(metrics.OpStoreQuery, time.Now())
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, source_agent_id, target_agent_id, execution_id, type,
			strength, shared_entities, created_at
		FROM correlations
		WHERE ? = '' OR source_agent_id = ? OR target_agent_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, agentID, agentID, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("query correlations: %w", err)
	}
	defer rows.Close()

	correlations := []models.Correlation{}
	for rows.Next() {
		var (
			c               models.Correlation
			typ, shared, at string
		)
		if err := rows.Scan(&c.ID, &c.SourceAgentID, &c.TargetAgentID, &c.ExecutionID, &typ,
			&c.Strength, &shared, &at); err != nil {
			return nil, fmt.Errorf("scan correlation: %w", err)
		}
		c.Type = models.CorrelationType(typ)
		if err := json.Unmarshal([]byte(shared), &c.SharedEntities); err != nil {
			return nil, fmt.Errorf("decode shared entities: %w", err)
		}
		if c.CreatedAt, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		correlations = append(correlations, c)
	}
	return correlations, rows.Err()
}
