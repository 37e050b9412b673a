// Package mapview keeps the state of the map widget for one session: markers, the route polyline and
// the viewport. The browser renders it from the GeoJSON snapshot.
package mapview

import (
	"encoding/json"
	"math"
	"sort"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	MinZoom = 1
	MaxZoom = 18

	fitPaddingRatio = 0.1
)

type Marker struct {
	ID        da.MarkerID    `json:"id"`
	Position  geo.Coordinate `json:"position"`
	Label     string         `json:"label"`
	Popup     string         `json:"popup,omitempty"`
	Draggable bool           `json:"draggable"`
	Icon      string         `json:"icon,omitempty"`
}

// Scene is not safe for concurrent use; a session only touches it from its event loop.
type Scene struct {
	markers  map[da.MarkerID]*Marker
	nextID   da.MarkerID
	polyline []geo.Coordinate
	zoom     int
	viewport geo.Bounds
	version  uint64
}

func NewScene(center geo.Coordinate, zoom int) *Scene {
	s := &Scene{
		markers: make(map[da.MarkerID]*Marker),
	}
	s.SetView(center, zoom)
	return s
}

func (s *Scene) AddMarker(pos geo.Coordinate, label, popup string, draggable bool, icon string) da.MarkerID {
	s.nextID++
	s.markers[s.nextID] = &Marker{
		ID:        s.nextID,
		Position:  pos,
		Label:     label,
		Popup:     popup,
		Draggable: draggable,
		Icon:      icon,
	}
	s.version++
	return s.nextID
}

func (s *Scene) MoveMarker(id da.MarkerID, pos geo.Coordinate) bool {
	m, ok := s.markers[id]
	if !ok {
		return false
	}
	m.Position = pos
	s.version++
	return true
}

func (s *Scene) SetMarkerLabel(id da.MarkerID, label string) bool {
	m, ok := s.markers[id]
	if !ok {
		return false
	}
	m.Label = label
	s.version++
	return true
}

func (s *Scene) RemoveMarker(id da.MarkerID) bool {
	if _, ok := s.markers[id]; !ok {
		return false
	}
	delete(s.markers, id)
	s.version++
	return true
}

func (s *Scene) Marker(id da.MarkerID) (Marker, bool) {
	m, ok := s.markers[id]
	if !ok {
		return Marker{}, false
	}
	return *m, true
}

// Markers returns the markers ordered by id.
func (s *Scene) Markers() []Marker {
	out := make([]Marker, 0, len(s.markers))
	for _, m := range s.markers {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DrawPolyline replaces the route polyline.
func (s *Scene) DrawPolyline(path []geo.Coordinate) {
	s.polyline = append(s.polyline[:0:0], path...)
	s.version++
}

func (s *Scene) RemovePolyline() {
	if s.polyline == nil {
		return
	}
	s.polyline = nil
	s.version++
}

func (s *Scene) HasPolyline() bool {
	return len(s.polyline) > 0
}

func (s *Scene) Polyline() []geo.Coordinate {
	return append([]geo.Coordinate(nil), s.polyline...)
}

// FitBounds sets the viewport to the padded bounding box of coords.
func (s *Scene) FitBounds(coords []geo.Coordinate) {
	b, ok := geo.BoundsOf(coords)
	if !ok {
		return
	}
	padLat := (b.NorthEast.Lat - b.SouthWest.Lat) * fitPaddingRatio
	padLon := (b.NorthEast.Lon - b.SouthWest.Lon) * fitPaddingRatio
	b.SouthWest = geo.NewCoordinate(b.SouthWest.Lat-padLat, b.SouthWest.Lon-padLon)
	b.NorthEast = geo.NewCoordinate(b.NorthEast.Lat+padLat, b.NorthEast.Lon+padLon)

	s.viewport = b
	s.zoom = zoomForSpan(math.Max(b.NorthEast.Lat-b.SouthWest.Lat, b.NorthEast.Lon-b.SouthWest.Lon))
	s.version++
}

func (s *Scene) SetView(center geo.Coordinate, zoom int) {
	s.zoom = util.Clamp(zoom, MinZoom, MaxZoom)
	s.viewport = geo.BoundsAround(center, radiusForZoom(s.zoom))
	s.version++
}

// PanTo recenters the viewport on c keeping the zoom.
func (s *Scene) PanTo(c geo.Coordinate) {
	s.viewport = s.viewport.Recenter(c)
	s.version++
}

func (s *Scene) Contains(c geo.Coordinate) bool {
	return s.viewport.Contains(c)
}

func (s *Scene) Zoom() int {
	return s.zoom
}

func (s *Scene) Center() geo.Coordinate {
	return s.viewport.Center()
}

func (s *Scene) Viewport() geo.Bounds {
	return s.viewport
}

// Version increases on every change, so pushers can skip unchanged scenes.
func (s *Scene) Version() uint64 {
	return s.version
}

// zoomForSpan approximates the web mercator zoom level that shows spanDeg degrees.
func zoomForSpan(spanDeg float64) int {
	if spanDeg <= 0 {
		return MaxZoom
	}
	return util.Clamp(int(math.Floor(math.Log2(360/spanDeg))), MinZoom, MaxZoom)
}

// radiusForZoom is the half width in km of the viewport at zoom.
func radiusForZoom(zoom int) float64 {
	halfSpanDeg := 180 / math.Pow(2, float64(zoom))
	return halfSpanDeg * 111.32
}

type Snapshot struct {
	Version  uint64           `json:"version"`
	Zoom     int              `json:"zoom"`
	Center   geo.Coordinate   `json:"center"`
	Viewport geo.Bounds       `json:"viewport"`
	Markers  []Marker         `json:"markers"`
	Polyline []geo.Coordinate `json:"polyline,omitempty"`
	GeoJSON  json.RawMessage  `json:"geojson"`
}

func (s *Scene) Snapshot() (Snapshot, error) {
	fc, err := s.GeoJSON()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Version:  s.version,
		Zoom:     s.zoom,
		Center:   s.Center(),
		Viewport: s.viewport,
		Markers:  s.Markers(),
		Polyline: s.Polyline(),
		GeoJSON:  fc,
	}, nil
}

// GeoJSON renders markers as Point features and the route as a LineString feature.
// The collection bbox is the viewport.
func (s *Scene) GeoJSON() ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, m := range s.Markers() {
		f := geojson.NewFeature(orb.Point{m.Position.Lon, m.Position.Lat})
		f.ID = uint64(m.ID)
		f.Properties["kind"] = "marker"
		f.Properties["label"] = m.Label
		f.Properties["draggable"] = m.Draggable
		if m.Popup != "" {
			f.Properties["popup"] = m.Popup
		}
		if m.Icon != "" {
			f.Properties["icon"] = m.Icon
		}
		fc.Append(f)
	}

	if len(s.polyline) >= 2 {
		ls := make(orb.LineString, 0, len(s.polyline))
		for _, c := range s.polyline {
			ls = append(ls, orb.Point{c.Lon, c.Lat})
		}
		f := geojson.NewFeature(ls)
		f.Properties["kind"] = "route"
		fc.Append(f)
	}

	fc.BBox = geojson.NewBBox(orb.Bound{
		Min: orb.Point{s.viewport.SouthWest.Lon, s.viewport.SouthWest.Lat},
		Max: orb.Point{s.viewport.NorthEast.Lon, s.viewport.NorthEast.Lat},
	})
	return fc.MarshalJSON()
}
