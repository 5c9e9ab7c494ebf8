package worker

import (
	"time"

	"go.uber.org/zap"
)

// SessionExpirer drops review sessions past their ttl
type SessionExpirer interface {
	Expire(now time.Time) int
}

// SessionJanitor removes expired review sessions
type SessionJanitor struct {
	sessions SessionExpirer
	interval time.Duration
	logger   *zap.Logger
}

// NewSessionJanitor creates a janitor sweeping every interval
func NewSessionJanitor(sessions SessionExpirer, interval time.Duration, logger *zap.Logger) *SessionJanitor {
	return &SessionJanitor{
		sessions: sessions,
		interval: interval,
		logger:   logger,
	}
}

// Name returns the job name
func (j *SessionJanitor) Name() string {
	return "SessionJanitor"
}

// Interval returns the sweep period
func (j *SessionJanitor) Interval() time.Duration {
	return j.interval
}

// Run expires the sessions idle at now
func (j *SessionJanitor) Run(now time.Time) {
	if n := j.sessions.Expire(now); n > 0 {
		j.logger.Info("Expired review sessions removed", zap.Int("count", n))
	}
}
