// Package store defines the persistence interfaces used by the execution engine.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/raphaelgruber/agentwatch/internal/models"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("not found")

// AgentStore reads agent definitions and writes runner-owned stats.
type AgentStore interface {
	CreateAgent(ctx context.Context, agent *models.Agent) error
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
	ListAgents(ctx context.Context) ([]models.Agent, error)
	// ListDueAgents returns enabled agents whose next run is unset or not after now,
	// in storage order.
	ListDueAgents(ctx context.Context, now time.Time) ([]models.Agent, error)
	SetAgentEnabled(ctx context.Context, id string, enabled bool) error
	// UpdateAgentStats applies counters, last run, and next run as one update.
	UpdateAgentStats(ctx context.Context, id string, update models.StatsUpdate) error
}

// ExecutionStore is append-only.
type ExecutionStore interface {
	CreateExecution(ctx context.Context, exec *models.Execution) error
	ListExecutions(ctx context.Context, agentID string, limit int) ([]models.Execution, error)
}

// EntityStore is append-only.
type EntityStore interface {
	CreateEntities(ctx context.Context, entities []models.Entity) error
	ListEntities(ctx context.Context, executionID string) ([]models.Entity, error)
	// RecentEntitySets returns the entities of the latest successful execution of
	// up to limit agents other than excludeAgentID, most recent first.
	RecentEntitySets(ctx context.Context, excludeAgentID string, limit int) ([]models.EntitySet, error)
}

// CorrelationStore is append-only.
type CorrelationStore interface {
	CreateCorrelations(ctx context.Context, correlations []models.Correlation) error
	// ListCorrelations returns correlations touching agentID, or all when empty.
	ListCorrelations(ctx context.Context, agentID string, limit int) ([]models.Correlation, error)
}

// Store is the full persistence surface of a backend.
type Store interface {
	AgentStore
	ExecutionStore
	EntityStore
	CorrelationStore
	Close(ctx context.Context) error
}
