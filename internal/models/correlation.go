package models

import (
	"time"
)

// CorrelationType classifies what a set of shared entities says about two agents.
type CorrelationType string

const (
	CorrelationUserIdentity CorrelationType = "user_identity"
	CorrelationTemporal     CorrelationType = "temporal"
	CorrelationGeographic   CorrelationType = "geographic"
	CorrelationReference    CorrelationType = "reference"
	CorrelationDataOverlap  CorrelationType = "data_overlap"
)

// Correlation records identical entities observed by two different agents.
type Correlation struct {
	ID             string          `json:"id"`
	SourceAgentID  string          `json:"source_agent_id"`
	TargetAgentID  string          `json:"target_agent_id"`
	ExecutionID    string          `json:"execution_id"` // Source execution that triggered the scan
	Type           CorrelationType `json:"type"`
	Strength       float64         `json:"strength"`        // Mean matched-pair confidence (0-1)
	SharedEntities []string        `json:"shared_entities"` // "type:value" keys
	CreatedAt      time.Time       `json:"created_at"`
}
