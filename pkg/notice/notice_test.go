package notice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lintang-b-s/ecoflow/pkg/eventloop"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBoardExpiresNotices(t *testing.T) {
	loop := eventloop.New(16, zap.NewNop()).Start()
	defer loop.Close()

	var board *Board
	require.NoError(t, loop.Do(context.Background(), func() {
		board = NewBoard(loop, 20*time.Millisecond, zap.NewNop())
		board.Report(util.WrapErrorf(errors.New("dial tcp"), util.ErrRouteUnavailable, "osrm request failed"))
		assert.Len(t, board.Active(), 1)
	}))

	assert.Eventually(t, func() bool {
		var n int
		_ = loop.Do(context.Background(), func() { n = len(board.Active()) })
		return n == 0
	}, time.Second, 5*time.Millisecond)
}

func TestBoardDismissAndClear(t *testing.T) {
	loop := eventloop.New(16, zap.NewNop()).Start()
	defer loop.Close()

	var changes int
	require.NoError(t, loop.Do(context.Background(), func() {
		board := NewBoard(loop, time.Minute, zap.NewNop())
		board.OnChange(func([]Notice) { changes++ })

		first := board.Post(KindInfo, "", "hello")
		board.Post(KindError, "route_unavailable", "boom")
		assert.True(t, board.Dismiss(first.ID))
		assert.False(t, board.Dismiss(first.ID))
		assert.Len(t, board.Active(), 1)

		board.Clear()
		assert.Empty(t, board.Active())
	}))
	assert.Equal(t, 4, changes)
}

func TestMessageFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"geocode", util.NewErrorf(util.ErrGeocodeUnavailable, "no results"), "geocode_unavailable"},
		{"route", util.NewErrorf(util.ErrRouteUnavailable, "code NoRoute"), "route_unavailable"},
		{"denied", util.NewErrorf(util.ErrGeolocationDenied, "denied"), "geolocation_denied"},
		{"timeout", util.NewErrorf(util.ErrGeolocationTimeout, "timeout"), "geolocation_timeout"},
		{"bad param", util.NewErrorf(util.ErrBadParamInput, "at least 3 waypoints are required"), "bad_param_input"},
		{"plain", errors.New("unexpected"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, CodeName(util.ErrorCode(tt.err)))
			assert.NotEmpty(t, MessageFor(tt.err))
		})
	}
	assert.Equal(t, "at least 3 waypoints are required",
		MessageFor(util.NewErrorf(util.ErrBadParamInput, "at least 3 waypoints are required")))
}
