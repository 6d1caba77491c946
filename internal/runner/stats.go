package runner

import (
	"time"

	"github.com/raphaelgruber/agentwatch/internal/models"
)

// Reschedule computes the post-execution write-back: next run is one
// interval after now, regardless of outcome.
func Reschedule(agent *models.Agent, success bool, now time.Time) models.StatsUpdate {
	return models.StatsUpdate{
		Success: success,
		RanAt:   now,
		NextRun: now.Add(agent.Interval()),
	}
}

// applyStats mirrors a StatsUpdate onto an in-memory agent.
func applyStats(agent *models.Agent, u models.StatsUpdate) {
	agent.ExecutionCount++
	if u.Success {
		agent.SuccessCount++
	} else {
		agent.FailureCount++
	}
	ranAt, next := u.RanAt, u.NextRun
	agent.LastRun = &ranAt
	agent.NextRun = &next
	agent.UpdatedAt = ranAt
}
