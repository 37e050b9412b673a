package planner

import (
	"context"
	"errors"

	"github.com/lintang-b-s/ecoflow/pkg/chart"
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

// SetVehicle changes the vehicle class and recomputes the route when one can be computed.
func (s *Session) SetVehicle(ctx context.Context, vc da.VehicleClass) (Snapshot, error) {
	return s.mutate(ctx, func() error {
		s.vehicle = vc
		if len(s.waypoints) >= 2 {
			s.requestRoute()
		}
		return nil
	})
}

// Optimize recomputes the route through every waypoint in the current order.
func (s *Session) Optimize(ctx context.Context) (Snapshot, error) {
	return s.mutate(ctx, func() error {
		if len(s.waypoints) < 3 {
			return util.NewErrorf(util.ErrBadParamInput, "at least 3 waypoints are required to optimize, got %d",
				len(s.waypoints))
		}
		s.requestRoute()
		return nil
	})
}

// requestRoute issues a route computation tagged with a new sequence number. Only the completion
// carrying the latest number is applied.
func (s *Session) requestRoute() {
	s.routeSeq++
	seq := s.routeSeq
	if s.cancelRoute != nil {
		s.cancelRoute()
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RouteTimeout)
	s.cancelRoute = cancel
	s.computing = true
	s.routeRequests++

	points := s.coordinates()
	vc := s.vehicle
	s.log.Debug("requesting route", zap.Uint64("seq", seq), zap.Int("waypoints", len(points)),
		zap.String("vehicle", vc.String()))

	go func() {
		defer cancel()
		route, err := s.router.ComputeRoute(ctx, points, vc)
		s.loop.Post(func() {
			s.applyRoute(seq, route, err)
		})
	}()
}

func (s *Session) applyRoute(seq uint64, route *da.Route, err error) {
	if seq != s.routeSeq {
		s.log.Debug("discarding stale route", zap.Uint64("seq", seq), zap.Uint64("latest", s.routeSeq))
		return
	}
	s.computing = false
	s.cancelRoute = nil

	if err != nil {
		if errors.Is(err, context.Canceled) && s.ctx.Err() != nil {
			return
		}
		// keep the last good route on screen
		s.log.Warn("route computation failed", zap.Uint64("seq", seq), zap.Error(err))
		s.notices.Report(err)
		s.changed()
		return
	}
	s.showRoute(route)
	s.changed()
}

func (s *Session) showRoute(route *da.Route) {
	s.route = route
	path := route.Path()
	s.scene.DrawPolyline(path)
	s.scene.FitBounds(path)
	s.player.Load(path, route.Vehicle().String())
	s.charts.Create(chart.EmissionsComparison(route.DistanceKm(), route.Vehicle()))
	s.log.Info("route updated",
		zap.Float64("distance_km", route.DistanceKm()),
		zap.Float64("duration_min", route.DurationMin()),
		zap.Float64("emissions_kg", route.EmissionsKg()))
}

// teardownRoute clears the route and everything derived from it. It also invalidates any request
// still in flight.
func (s *Session) teardownRoute() {
	s.routeSeq++
	if s.cancelRoute != nil {
		s.cancelRoute()
		s.cancelRoute = nil
	}
	s.computing = false
	s.route = nil
	s.scene.RemovePolyline()
	s.player.Clear()
	s.charts.Destroy(chart.EmissionsChartID)
}
