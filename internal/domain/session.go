package domain

import (
	"time"
)

// SessionMetrics carries the counters the feedback view reports.
type SessionMetrics struct {
	ResponseCount int        `json:"responseCount"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       *time.Time `json:"endTime"`
}

// Session is one complete practice conversation as handed to the
// feedback pipeline.
type Session struct {
	ID      string         `json:"id"`
	Turns   []ChatTurn     `json:"messages"`
	Metrics SessionMetrics `json:"sessionMetrics"`
}

// Finalized reports whether the session has an end time.
func (s *Session) Finalized() bool {
	return s.Metrics.EndTime != nil
}

// Transcript returns the turns with system turns removed, in order.
func (s *Session) Transcript() []ChatTurn {
	out := make([]ChatTurn, 0, len(s.Turns))
	for _, t := range s.Turns {
		if t.Role == RoleSystem {
			continue
		}
		out = append(out, t)
	}
	return out
}

// CountRole returns how many turns carry the given role.
func (s *Session) CountRole(role Role) int {
	n := 0
	for _, t := range s.Turns {
		if t.Role == role {
			n++
		}
	}
	return n
}

// Duration returns the elapsed time between start and end, or zero when the
// session has not ended.
func (s *Session) Duration() time.Duration {
	if s.Metrics.EndTime == nil {
		return 0
	}
	return s.Metrics.EndTime.Sub(s.Metrics.StartTime)
}
