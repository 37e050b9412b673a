package planner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]Event
}

func (p *recordingPublisher) Publish(sessionID string, ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[string][]Event)
	}
	p.events[sessionID] = append(p.events[sessionID], ev)
}

func (p *recordingPublisher) count(sessionID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events[sessionID])
}

func newTestManager(t *testing.T, pub Publisher) *Manager {
	t.Helper()
	m := NewManager(testConfig, Deps{Router: newFakeRouter(), Geocoder: &fakeGeocoder{}, Publisher: pub},
		zap.NewNop())
	t.Cleanup(m.CloseAll)
	return m
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	m := newTestManager(t, pub)

	s, err := m.Create(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, s.ID(), 36)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = got.AddPlace(ctx, centro)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return pub.count(s.ID()) > 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Delete(s.ID()))
	assert.Equal(t, 0, m.Len())

	_, err = m.Get(s.ID())
	assert.True(t, errors.Is(err, util.ErrNotFound))
	assert.True(t, errors.Is(m.Delete(s.ID()), util.ErrNotFound))
}

func TestManagerOverrides(t *testing.T) {
	m := newTestManager(t, nil)
	disabled := false
	bike := da.BIKE

	s, err := m.Create(context.Background(), &Overrides{
		EnableDragReorder: &disabled,
		Vehicle:           &bike,
		AnimationSpeedMs:  120,
	})
	require.NoError(t, err)

	cfg := s.Config()
	assert.False(t, cfg.EnableDragReorder)
	assert.True(t, cfg.EnableAnimation)
	assert.Equal(t, da.BIKE, cfg.Vehicle)
	assert.Equal(t, 120, cfg.AnimationSpeedMs)
}

func TestManagerReapIdle(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)

	idle, err := m.Create(ctx, nil)
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)
	active, err := m.Create(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, m.ReapIdle(20*time.Millisecond))
	_, err = m.Get(idle.ID())
	assert.True(t, errors.Is(err, util.ErrNotFound))
	_, err = m.Get(active.ID())
	assert.NoError(t, err)
}
