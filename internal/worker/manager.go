// Package worker runs periodic maintenance jobs alongside the HTTP server.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of periodic maintenance
type Job interface {
	Name() string
	Interval() time.Duration
	Run(now time.Time)
}

// Manager runs every registered job on its own ticker until stopped
type Manager struct {
	jobs   []Job
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager creates a new job manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger: logger,
		now:    time.Now,
	}
}

// Register adds a job. Jobs registered after Start wait for the next Start.
func (m *Manager) Register(job Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

// Start launches one loop per job. Nothing is started when a job has a
// non-positive interval.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("worker manager is already running")
	}
	for _, job := range m.jobs {
		if job.Interval() <= 0 {
			return fmt.Errorf("job %s interval must be positive, got %s", job.Name(), job.Interval())
		}
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.running = true
	for _, job := range m.jobs {
		m.wg.Add(1)
		go m.loop(ctx, job)
		m.logger.Info("Job scheduled",
			zap.String("name", job.Name()),
			zap.Duration("interval", job.Interval()))
	}
	return nil
}

// Stop cancels every loop and waits for running jobs to return
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.cancel()
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info("Jobs stopped")
}

// Running reports whether the loops are active
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Count returns the number of registered jobs
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func (m *Manager) loop(ctx context.Context, job Job) {
	defer m.wg.Done()

	ticker := time.NewTicker(job.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.run(job)
		}
	}
}

func (m *Manager) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Job panicked", zap.String("name", job.Name()), zap.Any("panic", r))
		}
	}()
	job.Run(m.now())
}
