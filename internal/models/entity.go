package models

import (
	"time"
)

// EntityType is one of the fixed semantic tags.
type EntityType string

const (
	EntityEmail      EntityType = "email"
	EntityURL        EntityType = "url"
	EntityDate       EntityType = "date"
	EntityPersonName EntityType = "person_name"
	EntityLocation   EntityType = "location"
	EntityPrice      EntityType = "price"
	EntityIdentifier EntityType = "identifier"
)

// Entity is a typed, confidence-scored fact tagged in a response payload.
type Entity struct {
	ID          string     `json:"id"`
	AgentID     string     `json:"agent_id"`
	ExecutionID string     `json:"execution_id"`
	Type        EntityType `json:"type"`
	Value       string     `json:"value"`
	Confidence  float64    `json:"confidence"`
	FieldPath   string     `json:"field_path"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Key identifies an entity by type and value, the unit of correlation.
func (e Entity) Key() string {
	return string(e.Type) + ":" + e.Value
}

// EntitySet groups the entities of one agent's latest tagged execution.
type EntitySet struct {
	AgentID     string   `json:"agent_id"`
	ExecutionID string   `json:"execution_id"`
	Entities    []Entity `json:"entities"`
}
