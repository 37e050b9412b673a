package planner

import (
	"github.com/lintang-b-s/ecoflow/pkg/animation"
	"github.com/lintang-b-s/ecoflow/pkg/autocomplete"
	"github.com/lintang-b-s/ecoflow/pkg/chart"
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/mapview"
	"github.com/lintang-b-s/ecoflow/pkg/notice"
	"go.uber.org/zap"
)

type WaypointView struct {
	Index    int            `json:"index"`
	Name     string         `json:"name"`
	Position geo.Coordinate `json:"position"`
	Kind     da.PlaceKind   `json:"kind"`
	Type     string         `json:"type,omitempty"`
	OSMID    string         `json:"osm_id,omitempty"`
	MarkerID da.MarkerID    `json:"marker_id"`
}

type Settings struct {
	EnableDragReorder bool `json:"enable_drag_reorder"`
	EnableAnimation   bool `json:"enable_animation"`
}

// Snapshot is a copy of the session state that is safe to read off the loop.
type Snapshot struct {
	ID        string                        `json:"id"`
	Vehicle   da.VehicleClass               `json:"vehicle_type"`
	Waypoints []WaypointView                `json:"waypoints"`
	Route     *da.Route                     `json:"route,omitempty"`
	Computing bool                          `json:"computing"`
	Animation animation.Snapshot            `json:"animation"`
	Fields    map[string]autocomplete.State `json:"fields"`
	Notices   []notice.Notice               `json:"notices"`
	Charts    []chart.Chart                 `json:"charts"`
	Scene     mapview.Snapshot              `json:"scene"`
	Settings  Settings                      `json:"settings"`
}

func (s *Session) snapshot() Snapshot {
	waypoints := make([]WaypointView, 0, len(s.waypoints))
	for i, wp := range s.waypoints {
		p := wp.Place()
		waypoints = append(waypoints, WaypointView{
			Index:    i,
			Name:     wp.Name(),
			Position: wp.Coordinate(),
			Kind:     p.Kind(),
			Type:     p.Type(),
			OSMID:    p.OSMID(),
			MarkerID: wp.Marker(),
		})
	}

	scene, err := s.scene.Snapshot()
	if err != nil {
		s.log.Error("failed to render scene", zap.Error(err))
	}

	return Snapshot{
		ID:        s.id,
		Vehicle:   s.vehicle,
		Waypoints: waypoints,
		Route:     s.route,
		Computing: s.computing,
		Animation: s.player.Snapshot(),
		Fields: map[string]autocomplete.State{
			FieldOrigin:      s.origin.State(),
			FieldDestination: s.destination.State(),
		},
		Notices: s.notices.Active(),
		Charts:  s.charts.All(),
		Scene:   scene,
		Settings: Settings{
			EnableDragReorder: s.cfg.EnableDragReorder,
			EnableAnimation:   s.cfg.EnableAnimation,
		},
	}
}
