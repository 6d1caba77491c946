package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/raphaelgruber/agentwatch/internal/runner"
)

// JobStatus represents the state of a background run.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is one manual "run now" executing in the background.
// Completed means an execution record was written, whatever its status.
// Failed means the runner returned a storage error.
type Job struct {
	ID          string         `json:"id"`
	AgentID     string         `json:"agent_id"`
	AgentName   string         `json:"agent_name"`
	Status      JobStatus      `json:"status"`
	Result      *runner.Result `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`

	mu   sync.RWMutex
	done chan struct{}
}

// Done is closed when the job finishes.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// JobManager tracks manual runs started outside the scheduler loop.
type JobManager struct {
	jobs   map[string]*Job
	mu     sync.RWMutex
	agents *AgentService
	logger *slog.Logger
}

// NewJobManager creates a new job manager.
func NewJobManager(agents *AgentService, logger *slog.Logger) *JobManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobManager{
		jobs:   make(map[string]*Job),
		agents: agents,
		logger: logger,
	}
}

// Start looks up the agent and runs it in the background. The run outlives
// ctx cancellation but keeps its values.
func (m *JobManager) Start(ctx context.Context, agentID string) (*Job, error) {
	agent, err := m.agents.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:        uuid.New().String()[:8], // Short ID for convenience
		AgentID:   agent.ID,
		AgentName: agent.Name,
		Status:    JobStatusPending,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.logger.Info("job created", "job_id", job.ID, "agent_id", agent.ID, "name", agent.Name)
	go m.run(context.WithoutCancel(ctx), job, agent)
	return job, nil
}

func (m *JobManager) run(ctx context.Context, job *Job, agent *models.Agent) {
	defer close(job.done)
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("job goroutine panicked", "job_id", job.ID, "panic", r)
			m.fail(job, fmt.Errorf("internal panic: %v", r))
		}
	}()

	job.mu.Lock()
	job.Status = JobStatusRunning
	job.mu.Unlock()

	res, err := m.agents.executor.Execute(ctx, agent)
	if err != nil {
		m.fail(job, err)
		return
	}

	job.mu.Lock()
	job.Status = JobStatusCompleted
	job.Result = res
	now := time.Now()
	job.CompletedAt = &now
	job.mu.Unlock()

	m.logger.Info("job completed", "job_id", job.ID, "execution_status", res.Execution.Status)
}

func (m *JobManager) fail(job *Job, err error) {
	job.mu.Lock()
	job.Status = JobStatusFailed
	job.Error = err.Error()
	now := time.Now()
	job.CompletedAt = &now
	job.mu.Unlock()

	m.logger.Error("job failed", "job_id", job.ID, "error", err)
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// ListJobs returns all jobs, most recent first.
func (m *JobManager) ListJobs() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}

	slices.SortFunc(jobs, func(a, b *Job) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	return jobs
}

// Snapshot returns a thread-safe copy of job state.
func (j *Job) Snapshot() Job {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Job{
		ID:          j.ID,
		AgentID:     j.AgentID,
		AgentName:   j.AgentName,
		Status:      j.Status,
		Result:      j.Result,
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
