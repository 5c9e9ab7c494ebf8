package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/basket-allowance/internal/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingExpirer struct {
	calls atomic.Int32
}

func (c *countingExpirer) Expire(now time.Time) int {
	c.calls.Add(1)
	return 0
}

type panickingJob struct {
	runs atomic.Int32
}

func (p *panickingJob) Name() string            { return "panicking" }
func (p *panickingJob) Interval() time.Duration { return 5 * time.Millisecond }
func (p *panickingJob) Run(now time.Time) {
	p.runs.Add(1)
	panic("boom")
}

func TestManager_RunsJobsUntilStopped(t *testing.T) {
	expirer := &countingExpirer{}
	m := NewManager(zap.NewNop())
	m.Register(NewSessionJanitor(expirer, 5*time.Millisecond, zap.NewNop()))
	assert.Equal(t, 1, m.Count())

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, m.Running())
	assert.Error(t, m.Start(context.Background()))

	assert.Eventually(t, func() bool { return expirer.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	m.Stop()
	assert.False(t, m.Running())
	calls := expirer.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, expirer.calls.Load())

	// stopping twice is harmless
	m.Stop()
}

func TestManager_StopsWithParentContext(t *testing.T) {
	expirer := &countingExpirer{}
	m := NewManager(zap.NewNop())
	m.Register(NewSessionJanitor(expirer, 5*time.Millisecond, zap.NewNop()))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))
	cancel()
	m.Stop()

	calls := expirer.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, expirer.calls.Load())
}

func TestManager_RejectsNonPositiveInterval(t *testing.T) {
	good := &countingExpirer{}
	m := NewManager(zap.NewNop())
	m.Register(NewSessionJanitor(good, time.Millisecond, zap.NewNop()))
	m.Register(NewSessionJanitor(&countingExpirer{}, 0, zap.NewNop()))

	assert.Error(t, m.Start(context.Background()))
	assert.False(t, m.Running())
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, good.calls.Load())
}

func TestManager_SurvivesPanickingJob(t *testing.T) {
	job := &panickingJob{}
	m := NewManager(zap.NewNop())
	m.Register(job)

	require.NoError(t, m.Start(context.Background()))
	assert.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	m.Stop()
}

func TestSessionJanitor_RemovesExpiredSessions(t *testing.T) {
	sessions := review.NewManager(time.Hour, zap.NewNop())
	sess := sessions.Open(&review.Session{Store: review.NewStore(nil)})

	j := NewSessionJanitor(sessions, time.Minute, zap.NewNop())
	assert.Equal(t, "SessionJanitor", j.Name())
	assert.Equal(t, time.Minute, j.Interval())

	j.Run(time.Now().Add(30 * time.Minute))
	_, err := sessions.Get(sess.ID)
	require.NoError(t, err)

	j.Run(time.Now().Add(2 * time.Hour))
	_, err = sessions.Get(sess.ID)
	assert.ErrorIs(t, err, review.ErrSessionNotFound)
}
