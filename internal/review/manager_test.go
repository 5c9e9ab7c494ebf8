package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(0, zap.NewNop())

	s := m.Open(&Session{Store: newTestStore()})
	require.NotEmpty(t, s.ID)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Close(s.ID))
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Close(s.ID), ErrSessionNotFound)
}

func TestManager_ExpiresOldSessions(t *testing.T) {
	m := NewManager(time.Hour, zap.NewNop())
	now := time.Now()

	old := m.Open(&Session{Store: newTestStore(), CreatedAt: now.Add(-2 * time.Hour)})
	fresh := m.Open(&Session{Store: newTestStore(), CreatedAt: now})

	_, err := m.Get(old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)

	list := m.List()
	require.Len(t, list, 1)
	assert.Equal(t, fresh.ID, list[0].ID)
}

func TestManager_Expire(t *testing.T) {
	m := NewManager(time.Hour, zap.NewNop())
	now := time.Now()

	s := m.Open(&Session{Store: newTestStore(), CreatedAt: now})
	assert.Equal(t, 0, m.Expire(now.Add(30*time.Minute)))
	assert.Equal(t, 1, m.Expire(now.Add(2*time.Hour)))

	_, err := m.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	keepAll := NewManager(0, zap.NewNop())
	keepAll.Open(&Session{Store: newTestStore(), CreatedAt: now.Add(-48 * time.Hour)})
	assert.Equal(t, 0, keepAll.Expire(now))
	assert.Len(t, keepAll.List(), 1)
}
