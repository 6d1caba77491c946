// Package models defines data structures for agents, executions, entities, and correlations.
package models

import (
	"time"
)

// AuthMethod selects how an agent authenticates against its endpoint.
type AuthMethod string

const (
	AuthNone   AuthMethod = "none"
	AuthBearer AuthMethod = "bearer"  // Authorization: Bearer <secret>
	AuthAPIKey AuthMethod = "api_key" // X-API-Key: <secret>
	AuthBasic  AuthMethod = "basic"   // secret is "user:password"
)

// Valid reports whether m is a known auth method. Empty means none.
func (m AuthMethod) Valid() bool {
	switch m {
	case "", AuthNone, AuthBearer, AuthAPIKey, AuthBasic:
		return true
	}
	return false
}

// Agent is a user-registered HTTP endpoint that is polled on an interval.
type Agent struct {
	ID     string `json:"id" yaml:"id,omitempty"`
	UserID string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Name   string `json:"name" yaml:"name"`

	// Request
	URL          string            `json:"url" yaml:"url"`
	Method       string            `json:"method" yaml:"method"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	QueryParams  map[string]string `json:"query_params,omitempty" yaml:"query_params,omitempty"`
	BodyTemplate string            `json:"body_template,omitempty" yaml:"body_template,omitempty"`
	ExtractPath  string            `json:"extract_path,omitempty" yaml:"extract_path,omitempty"`
	AuthMethod   AuthMethod        `json:"auth_method,omitempty" yaml:"auth_method,omitempty"`
	AuthSecret   string            `json:"auth_secret,omitempty" yaml:"auth_secret,omitempty"`

	// Scheduling
	IntervalMinutes int        `json:"interval_minutes" yaml:"interval_minutes"`
	Enabled         bool       `json:"enabled" yaml:"enabled"`
	LastRun         *time.Time `json:"last_run,omitempty" yaml:"-"`
	NextRun         *time.Time `json:"next_run,omitempty" yaml:"-"`

	// Lifecycle counters, written only by the runner
	ExecutionCount int `json:"execution_count" yaml:"-"`
	SuccessCount   int `json:"success_count" yaml:"-"`
	FailureCount   int `json:"failure_count" yaml:"-"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Interval returns the polling interval as a duration.
func (a *Agent) Interval() time.Duration {
	return time.Duration(a.IntervalMinutes) * time.Minute
}

// StatsUpdate is the post-execution write-back for one agent.
// Stores apply all fields in a single update.
type StatsUpdate struct {
	Success bool
	RanAt   time.Time
	NextRun time.Time
}
