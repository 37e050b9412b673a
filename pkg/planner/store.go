package planner

import (
	"context"
	"strconv"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

// AddPlace appends place to the waypoint list.
func (s *Session) AddPlace(ctx context.Context, place da.Place) (Snapshot, error) {
	if !place.Coordinate().Valid() {
		return Snapshot{}, util.NewErrorf(util.ErrBadParamInput, "invalid coordinate for %q", place.Name())
	}
	return s.mutate(ctx, func() error {
		s.addWaypoint(place, s.cfg.DefaultZoom)
		return nil
	})
}

// RemoveWaypoint removes the waypoint at index. An out of range index changes nothing.
func (s *Session) RemoveWaypoint(ctx context.Context, index int) (Snapshot, bool, error) {
	var removed bool
	snap, err := s.mutate(ctx, func() error {
		removed = s.removeWaypoint(index)
		return nil
	})
	return snap, removed, err
}

// ReorderWaypoints moves the waypoint at from to position to.
func (s *Session) ReorderWaypoints(ctx context.Context, from, to int) (Snapshot, bool, error) {
	var moved bool
	snap, err := s.mutate(ctx, func() error {
		var err error
		moved, err = s.reorderWaypoints(from, to)
		return err
	})
	return snap, moved, err
}

// MoveWaypoint updates the position of the waypoint at index, as after a marker drag.
func (s *Session) MoveWaypoint(ctx context.Context, index int, lat, lon float64) (Snapshot, bool, error) {
	if !geo.NewCoordinate(lat, lon).Valid() {
		return Snapshot{}, false, util.NewErrorf(util.ErrBadParamInput, "invalid coordinate (%f, %f)", lat, lon)
	}
	var moved bool
	snap, err := s.mutate(ctx, func() error {
		moved = s.moveWaypoint(index, lat, lon)
		return nil
	})
	return snap, moved, err
}

func (s *Session) addWaypoint(place da.Place, zoom int) {
	marker := s.scene.AddMarker(place.Coordinate(), strconv.Itoa(len(s.waypoints)+1), place.Name(), true, "")
	s.waypoints = append(s.waypoints, da.NewWaypoint(place, marker))
	s.scene.SetView(place.Coordinate(), zoom)
	s.log.Debug("waypoint added", zap.String("name", place.Name()), zap.Int("count", len(s.waypoints)))
	s.waypointsChanged()
}

func (s *Session) removeWaypoint(index int) bool {
	if index < 0 || index >= len(s.waypoints) {
		return false
	}
	s.scene.RemoveMarker(s.waypoints[index].Marker())
	s.waypoints = append(s.waypoints[:index], s.waypoints[index+1:]...)
	s.relabelMarkers()
	s.waypointsChanged()
	return true
}

func (s *Session) reorderWaypoints(from, to int) (bool, error) {
	if !s.cfg.EnableDragReorder {
		return false, util.NewErrorf(util.ErrBadParamInput, "reordering waypoints is disabled")
	}
	n := len(s.waypoints)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false, nil
	}
	if from == to {
		return true, nil
	}

	wp := s.waypoints[from]
	s.waypoints = append(s.waypoints[:from], s.waypoints[from+1:]...)
	s.waypoints = append(s.waypoints[:to], append([]*da.Waypoint{wp}, s.waypoints[to:]...)...)
	s.relabelMarkers()
	s.waypointsChanged()
	return true, nil
}

func (s *Session) moveWaypoint(index int, lat, lon float64) bool {
	if index < 0 || index >= len(s.waypoints) {
		return false
	}
	wp := s.waypoints[index]
	wp.SetCoordinate(lat, lon)
	s.scene.MoveMarker(wp.Marker(), wp.Coordinate())
	s.waypointsChanged()
	return true
}

// replaceWaypoints swaps the whole list and requests a single recomputation.
func (s *Session) replaceWaypoints(places []da.Place) {
	for _, wp := range s.waypoints {
		s.scene.RemoveMarker(wp.Marker())
	}
	s.waypoints = s.waypoints[:0]
	for i, p := range places {
		marker := s.scene.AddMarker(p.Coordinate(), strconv.Itoa(i+1), p.Name(), true, "")
		s.waypoints = append(s.waypoints, da.NewWaypoint(p, marker))
	}
	s.waypointsChanged()
}

func (s *Session) relabelMarkers() {
	for i, wp := range s.waypoints {
		s.scene.SetMarkerLabel(wp.Marker(), strconv.Itoa(i+1))
	}
}

func (s *Session) coordinates() []geo.Coordinate {
	coords := make([]geo.Coordinate, len(s.waypoints))
	for i, wp := range s.waypoints {
		coords[i] = wp.Coordinate()
	}
	return coords
}

// waypointsChanged keeps the route in sync with the list: two or more waypoints get a new route,
// fewer tear the current one down.
func (s *Session) waypointsChanged() {
	if len(s.waypoints) >= 2 {
		s.requestRoute()
		return
	}
	s.teardownRoute()
}
