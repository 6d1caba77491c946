// Package scheduler drives periodic execution of due agents.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/raphaelgruber/agentwatch/internal/clock"
	"github.com/raphaelgruber/agentwatch/internal/metrics"
	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/raphaelgruber/agentwatch/internal/runner"
	"github.com/robfig/cron/v3"
)

// DefaultTick is how often due agents are checked.
const DefaultTick = 60 * time.Second

// ErrAlreadyRunning is returned by Start on a running scheduler.
var ErrAlreadyRunning = errors.New("scheduler already running")

// AgentLister returns agents due at now.
type AgentLister interface {
	ListDueAgents(ctx context.Context, now time.Time) ([]models.Agent, error)
}

// Executor runs one agent. *runner.Runner satisfies it.
type Executor interface {
	Execute(ctx context.Context, agent *models.Agent) (*runner.Result, error)
}

// Observer receives progress during a pass. Any method may be a no-op.
type Observer interface {
	PassStarted(total int)
	AgentDone(agent models.Agent, res *runner.Result, err error)
}

// PassSummary reports the outcome of one pass.
type PassSummary struct {
	Due       int
	Succeeded int
	Failed    int // error records written
	Errored   int // storage errors returned by the executor
}

// Scheduler polls for due agents on a fixed tick and executes them one at a time.
type Scheduler struct {
	agents   AgentLister
	executor Executor
	clock    clock.Clock
	logger   *slog.Logger
	metrics  *metrics.Collector
	tick     time.Duration

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// Options configures a Scheduler. Zero values select defaults.
type Options struct {
	Tick    time.Duration
	Clock   clock.Clock
	Metrics *metrics.Collector
}

// New creates a stopped scheduler.
func New(agents AgentLister, executor Executor, logger *slog.Logger, opts Options) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	return &Scheduler{
		agents:   agents,
		executor: executor,
		clock:    opts.Clock,
		logger:   logger,
		metrics:  opts.Metrics,
		tick:     opts.Tick,
	}
}

// Start registers the tick and begins scheduling in the background.
// Passes run with a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return ErrAlreadyRunning
	}

	cronLogger := slogLogger{s.logger}
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	passCtx, cancel := context.WithCancel(ctx)
	spec := fmt.Sprintf("@every %s", s.tick)
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.RunDue(passCtx, nil); err != nil {
			s.logger.Error("scheduler pass failed", "error", err)
		}
	}); err != nil {
		cancel()
		return fmt.Errorf("add tick %q: %w", spec, err)
	}

	c.Start()
	s.cron = c
	s.cancel = cancel
	s.logger.Info("scheduler started", "tick", s.tick.String())
	return nil
}

// Stop halts the tick and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	cancel()
	s.logger.Info("scheduler stopped")
}

// Running reports whether the tick is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// RunDue executes every due agent sequentially, in storage order. A failing
// agent is logged and the pass continues. Only listing errors are returned.
func (s *Scheduler) RunDue(ctx context.Context, obs Observer) (PassSummary, error) {
	defer s.metrics.Since(metrics.OpSchedulerPass, time.Now())

	var summary PassSummary
	due, err := s.agents.ListDueAgents(ctx, s.clock.Now())
	if err != nil {
		return summary, fmt.Errorf("list due agents: %w", err)
	}
	summary.Due = len(due)
	if obs != nil {
		obs.PassStarted(len(due))
	}
	if len(due) == 0 {
		return summary, nil
	}
	s.logger.Debug("scheduler pass", "due", len(due))

	for i := range due {
		agent := &due[i]
		if ctx.Err() != nil {
			break
		}

		res, err := s.executor.Execute(ctx, agent)
		switch {
		case err != nil:
			summary.Errored++
			s.logger.Error("agent execution error", "agent_id", agent.ID, "name", agent.Name, "error", err)
		case res.Execution.Status == models.ExecutionSuccess:
			summary.Succeeded++
		default:
			summary.Failed++
		}
		if obs != nil {
			obs.AgentDone(*agent, res, err)
		}
	}

	s.logger.Info("scheduler pass complete", "due", summary.Due, "succeeded", summary.Succeeded,
		"failed", summary.Failed, "errored", summary.Errored)
	return summary, nil
}

// slogLogger adapts slog to cron.Logger.
type slogLogger struct {
	l *slog.Logger
}

func (l slogLogger) Info(msg string, keysAndValues ...interface{}) {
	l.l.Debug("cron: "+msg, keysAndValues...)
}

func (l slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.l.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
