package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/agentwatch/internal/metrics"
	"github.com/raphaelgruber/agentwatch/internal/models"
)

// CreateEntities inserts a batch of entities in one transaction.
func (s *Store) CreateEntities(ctx context.Context, entities []models.Entity) error {
	defer s.metrics.Since(metrics.OpStoreWrite, time.Now())
	if len(entities) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entities
		(id, agent_id, execution_id, type, value, confidence, field_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert entity: %w", err)
	}
	defer stmt.Close()

	for i := range entities {
		e := &entities[i]
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.AgentID, e.ExecutionID, string(e.Type), e.Value,
			e.Confidence, e.FieldPath, formatTime(e.CreatedAt)); err != nil {
			return fmt.Errorf("insert entity %s: %w", e.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entities: %w", err)
	}
	return nil
}

// ListEntities returns the entities tagged in one execution, in insertion order.
func (s *Store) ListEntities(ctx context.Context, executionID string) ([]models.Entity, error) {
	defer s.metrics.Since(metrics.OpStoreQuery, time.Now())
	rows, err := s.db.QueryContext(ctx, `SELECT id, agent_id, execution_id, type, value, confidence, field_path, created_at
		FROM entities WHERE execution_id = ? ORDER BY rowid`, executionID)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	entities := []models.Entity{}
	for rows.Next() {
		var (
			e         models.Entity
			typ       string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.AgentID, &e.ExecutionID, &typ, &e.Value, &e.Confidence,
			&e.FieldPath, &createdAt); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		e.Type = models.EntityType(typ)
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// RecentEntitySets returns, for up to limit agents other than excludeAgentID,
// the entities of each agent's latest successful execution. Agents with more
// recent successes come first.
func (s *Store) RecentEntitySets(ctx context.Context, excludeAgentID string, limit int) ([]models.EntitySet, error) {
	defer s.metrics.Since(metrics.OpStoreQuery, time.Now())
	if limit <= 0 {
		return []models.EntitySet{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT e.id, e.agent_id FROM executions e
		WHERE e.status = 'success' AND e.agent_id <> ?
		  AND e.rowid = (
			SELECT x.rowid FROM executions x
			WHERE x.agent_id = e.agent_id AND x.status = 'success'
			ORDER BY x.started_at DESC, x.rowid DESC
			LIMIT 1
		  )
		ORDER BY e.started_at DESC, e.rowid DESC
		LIMIT ?`, excludeAgentID, limit)
	if err != nil {
		return nil, fmt.Errorf("query latest executions: %w", err)
	}

	var sets []models.EntitySet
	for rows.Next() {
		var set models.EntitySet
		if err := rows.Scan(&set.ExecutionID, &set.AgentID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan latest execution: %w", err)
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range sets {
		entities, err := s.ListEntities(ctx, sets[i].ExecutionID)
		if err != nil {
			return nil, err
		}
		sets[i].Entities = entities
	}
	if sets == nil {
		sets = []models.EntitySet{}
	}
	return sets, nil
}
