// Package correlate scores overlaps between entity sets of different agents.
package correlate

import (
	"github.com/raphaelgruber/agentwatch/internal/models"
)

const (
	// SignificanceThreshold is the strength a correlation must exceed to be kept.
	SignificanceThreshold = 0.5

	// DefaultSampleSize is how many other agents' latest entity sets are scanned.
	DefaultSampleSize = 10
)

// Score compares a freshly tagged source set against target sets from other agents.
// Entities match when type and value are identical; strength is the mean of
// min(source confidence, target confidence) over all matched pairs. Targets owned
// by the source agent are skipped. Only correlations stronger than
// SignificanceThreshold are returned, without ID or timestamps.
func Score(source models.EntitySet, targets []models.EntitySet) []models.Correlation {
	var out []models.Correlation
	for _, target := range targets {
		if target.AgentID == source.AgentID {
			continue
		}
		c, ok := scorePair(source, target)
		if !ok || c.Strength <= SignificanceThreshold {
			continue
		}
		out = append(out, c)
	}
	return out
}

func scorePair(source, target models.EntitySet) (models.Correlation, bool) {
	var (
		sum     float64
		matches int
		shared  []string
		seen    = map[string]bool{}
		types   = map[models.EntityType]bool{}
	)

	for _, s := range source.Entities {
		for _, t := range target.Entities {
			if s.Type != t.Type || s.Value != t.Value {
				continue
			}
			sum += min(s.Confidence, t.Confidence)
			matches++
			types[s.Type] = true
			if key := s.Key(); !seen[key] {
				seen[key] = true
				shared = append(shared, key)
			}
		}
	}

	if matches == 0 {
		return models.Correlation{}, false
	}

	return models.Correlation{
		SourceAgentID:  source.AgentID,
		TargetAgentID:  target.AgentID,
		ExecutionID:    source.ExecutionID,
		Type:           classify(types),
		Strength:       sum / float64(matches),
		SharedEntities: shared,
	}, true
}

// classify picks the correlation type from the matched entity types by priority.
func classify(types map[models.EntityType]bool) models.CorrelationType {
	switch {
	case types[models.EntityEmail] || types[models.EntityPersonName]:
		return models.CorrelationUserIdentity
	case types[models.EntityDate]:
		return models.CorrelationTemporal
	case types[models.EntityLocation]:
		return models.CorrelationGeographic
	case types[models.EntityIdentifier]:
		return models.CorrelationReference
	default:
		return models.CorrelationDataOverlap
	}
}
