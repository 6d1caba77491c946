package models

import (
	"time"
)

// ExecutionStatus is the terminal outcome of one execution.
type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionError   ExecutionStatus = "error"
)

// Execution records one HTTP call attempt for one agent.
// Written once by the runner and never updated.
type Execution struct {
	ID           string          `json:"id"`
	AgentID      string          `json:"agent_id"`
	StartedAt    time.Time       `json:"started_at"`
	Status       ExecutionStatus `json:"status"`
	LatencyMs    int64           `json:"latency_ms"`
	ResponseSize int64           `json:"response_size"`
	StatusCode   int             `json:"status_code,omitempty"`

	// Success only
	Payload       string             `json:"payload,omitempty"` // JSON text of the extracted value
	NumericFields map[string]float64 `json:"numeric_fields,omitempty"`
	TextFields    map[string]string  `json:"text_fields,omitempty"`

	// Error only
	Error string `json:"error,omitempty"`
}
