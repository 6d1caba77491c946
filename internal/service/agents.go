// Package service provides business logic for agent management and manual runs.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/raphaelgruber/agentwatch/internal/runner"
	"github.com/raphaelgruber/agentwatch/internal/store"
	"gopkg.in/yaml.v3"
)

// ErrInvalidAgent wraps every registration validation failure.
var ErrInvalidAgent = errors.New("invalid agent")

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// Executor runs one agent. *runner.Runner satisfies it.
type Executor interface {
	Execute(ctx context.Context, agent *models.Agent) (*runner.Result, error)
}

// AgentInput is a registration request. Enabled defaults to true.
type AgentInput struct {
	UserID          string            `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Name            string            `json:"name" yaml:"name"`
	URL             string            `json:"url" yaml:"url"`
	Method          string            `json:"method,omitempty" yaml:"method,omitempty"`
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	QueryParams     map[string]string `json:"query_params,omitempty" yaml:"query_params,omitempty"`
	BodyTemplate    string            `json:"body_template,omitempty" yaml:"body_template,omitempty"`
	ExtractPath     string            `json:"extract_path,omitempty" yaml:"extract_path,omitempty"`
	AuthMethod      models.AuthMethod `json:"auth_method,omitempty" yaml:"auth_method,omitempty"`
	AuthSecret      string            `json:"auth_secret,omitempty" yaml:"auth_secret,omitempty"`
	IntervalMinutes int               `json:"interval_minutes" yaml:"interval_minutes"`
	Enabled         *bool             `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// importFile is the YAML layout accepted by Import.
type importFile struct {
	Agents []AgentInput `yaml:"agents"`
}

// AgentService registers agents and exposes their history.
type AgentService struct {
	store    store.Store
	executor Executor
	logger   *slog.Logger
}

// NewAgentService creates a new agent service.
func NewAgentService(st store.Store, executor Executor, logger *slog.Logger) *AgentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AgentService{store: st, executor: executor, logger: logger}
}

// Validate normalizes input in place and reports the first problem.
func Validate(in *AgentInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidAgent)
	}

	u, err := url.Parse(strings.TrimSpace(in.URL))
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: url %q must be an absolute http(s) URL", ErrInvalidAgent, in.URL)
	}
	in.URL = u.String()

	in.Method = strings.ToUpper(strings.TrimSpace(in.Method))
	if in.Method == "" {
		in.Method = http.MethodGet
	}
	if !allowedMethods[in.Method] {
		return fmt.Errorf("%w: unsupported method %q", ErrInvalidAgent, in.Method)
	}

	if in.IntervalMinutes < 1 {
		return fmt.Errorf("%w: interval_minutes must be at least 1", ErrInvalidAgent)
	}

	if in.AuthMethod == "" {
		in.AuthMethod = models.AuthNone
	}
	if !in.AuthMethod.Valid() {
		return fmt.Errorf("%w: unknown auth method %q", ErrInvalidAgent, in.AuthMethod)
	}
	if in.AuthMethod != models.AuthNone && in.AuthSecret == "" {
		return fmt.Errorf("%w: auth method %s needs a secret", ErrInvalidAgent, in.AuthMethod)
	}
	return nil
}

// Register validates and stores a new agent. It is due immediately.
func (s *AgentService) Register(ctx context.Context, in AgentInput) (*models.Agent, error) {
	if err := Validate(&in); err != nil {
		return nil, err
	}

	agent := toAgent(in)
	if err := s.store.CreateAgent(ctx, agent); err != nil {
		return nil, fmt.Errorf("register agent: %w", err)
	}
	s.logger.Info("agent registered", "agent_id", agent.ID, "name", agent.Name, "interval_minutes", agent.IntervalMinutes)
	return agent, nil
}

// Import registers every agent in a YAML document. All entries are validated
// before any is stored.
func (s *AgentService) Import(ctx context.Context, r io.Reader) ([]models.Agent, error) {
	var file importFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("parse agents file: %w", err)
	}
	if len(file.Agents) == 0 {
		return nil, fmt.Errorf("%w: no agents in file", ErrInvalidAgent)
	}

	for i := range file.Agents {
		if err := Validate(&file.Agents[i]); err != nil {
			return nil, fmt.Errorf("agent %d: %w", i+1, err)
		}
	}

	created := make([]models.Agent, 0, len(file.Agents))
	for _, in := range file.Agents {
		agent := toAgent(in)
		if err := s.store.CreateAgent(ctx, agent); err != nil {
			return created, fmt.Errorf("import agent %q: %w", in.Name, err)
		}
		created = append(created, *agent)
	}
	s.logger.Info("agents imported", "count", len(created))
	return created, nil
}

// Get returns one agent.
func (s *AgentService) Get(ctx context.Context, id string) (*models.Agent, error) {
	return s.store.GetAgent(ctx, id)
}

// List returns all agents.
func (s *AgentService) List(ctx context.Context) ([]models.Agent, error) {
	return s.store.ListAgents(ctx)
}

// SetEnabled pauses or resumes scheduling.
func (s *AgentService) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if err := s.store.SetAgentEnabled(ctx, id, enabled); err != nil {
		return err
	}
	s.logger.Info("agent updated", "agent_id", id, "enabled", enabled)
	return nil
}

// RunNow executes an agent immediately, outside the scheduler. Disabled
// agents can still be run manually.
func (s *AgentService) RunNow(ctx context.Context, id string) (*runner.Result, error) {
	agent, err := s.store.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.executor.Execute(ctx, agent)
}

// Executions returns an agent's history, newest first.
func (s *AgentService) Executions(ctx context.Context, agentID string, limit int) ([]models.Execution, error) {
	if _, err := s.store.GetAgent(ctx, agentID); err != nil {
		return nil, err
	}
	return s.store.ListExecutions(ctx, agentID, limit)
}

// Entities returns the entities tagged in one execution.
func (s *AgentService) Entities(ctx context.Context, executionID string) ([]models.Entity, error) {
	return s.store.ListEntities(ctx, executionID)
}

// Correlations returns correlations touching agentID, or all when empty.
func (s *AgentService) Correlations(ctx context.Context, agentID string, limit int) ([]models.Correlation, error) {
	return s.store.ListCorrelations(ctx, agentID, limit)
}

func toAgent(in AgentInput) *models.Agent {
	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	return &models.Agent{
		ID:              uuid.New().String(),
		UserID:          in.UserID,
		Name:            in.Name,
		URL:             in.URL,
		Method:          in.Method,
		Headers:         in.Headers,
		QueryParams:     in.QueryParams,
		BodyTemplate:    in.BodyTemplate,
		ExtractPath:     in.ExtractPath,
		AuthMethod:      in.AuthMethod,
		AuthSecret:      in.AuthSecret,
		IntervalMinutes: in.IntervalMinutes,
		Enabled:         enabled,
	}
}
