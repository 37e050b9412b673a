package planner

import (
	"context"

	"github.com/lintang-b-s/ecoflow/pkg/util"
)

// Animate starts the vehicle animation along the route, or toggles it when already running.
func (s *Session) Animate(ctx context.Context) (Snapshot, error) {
	if !s.cfg.EnableAnimation {
		return Snapshot{}, util.NewErrorf(util.ErrBadParamInput, "animation is disabled")
	}
	return s.mutate(ctx, func() error {
		if s.route == nil {
			return util.NewErrorf(util.ErrBadParamInput, "calculate a route before animating it")
		}
		return s.player.Animate()
	})
}

func (s *Session) ToggleAnimation(ctx context.Context) (Snapshot, error) {
	return s.mutate(ctx, func() error {
		s.player.Toggle()
		return nil
	})
}

func (s *Session) StopAnimation(ctx context.Context) (Snapshot, error) {
	return s.mutate(ctx, func() error {
		s.player.Stop()
		return nil
	})
}

func (s *Session) SetAnimationSpeed(ctx context.Context, speedMs int) (Snapshot, error) {
	return s.mutate(ctx, func() error {
		s.player.SetSpeed(speedMs)
		return nil
	})
}

func (s *Session) FasterAnimation(ctx context.Context) (Snapshot, error) {
	return s.mutate(ctx, func() error {
		s.player.Faster()
		return nil
	})
}

func (s *Session) SlowerAnimation(ctx context.Context) (Snapshot, error) {
	return s.mutate(ctx, func() error {
		s.player.Slower()
		return nil
	})
}

// DismissNotice removes a notice before it expires.
func (s *Session) DismissNotice(ctx context.Context, id uint64) (Snapshot, bool, error) {
	var ok bool
	snap, err := s.mutate(ctx, func() error {
		ok = s.notices.Dismiss(id)
		return nil
	})
	return snap, ok, err
}
