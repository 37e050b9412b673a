package datastructure

import (
	"encoding/json"

	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/paulmach/osm"
)

type PlaceKind uint8

const (
	SEARCH_RESULT PlaceKind = iota
	CURRENT_LOCATION
)

func (k PlaceKind) String() string {
	if k == CURRENT_LOCATION {
		return "current_location"
	}
	return "search_result"
}

func (k PlaceKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Place is immutable once created.
type Place struct {
	name      string
	coord     geo.Coordinate
	kind      PlaceKind
	placeType string
	osmID     string
}

func NewPlace(name string, lat, lon float64, kind PlaceKind) Place {
	return Place{
		name:  name,
		coord: geo.NewCoordinate(lat, lon),
		kind:  kind,
	}
}

// WithType returns a copy of p carrying the OSM class (e.g. "park").
func (p Place) WithType(placeType string) Place {
	p.placeType = placeType
	return p
}

// WithOSMElement returns a copy of p referencing the OSM element it was geocoded from.
// osmType is "node", "way" or "relation"; anything else leaves the place unchanged.
func (p Place) WithOSMElement(osmType string, id int64) Place {
	switch osm.Type(osmType) {
	case osm.TypeNode:
		p.osmID = osm.NodeID(id).FeatureID().String()
	case osm.TypeWay:
		p.osmID = osm.WayID(id).FeatureID().String()
	case osm.TypeRelation:
		p.osmID = osm.RelationID(id).FeatureID().String()
	}
	return p
}

func (p Place) Name() string {
	return p.name
}

func (p Place) Coordinate() geo.Coordinate {
	return p.coord
}

func (p Place) Lat() float64 {
	return p.coord.Lat
}

func (p Place) Lon() float64 {
	return p.coord.Lon
}

func (p Place) Kind() PlaceKind {
	return p.kind
}

func (p Place) Type() string {
	return p.placeType
}

func (p Place) OSMID() string {
	return p.osmID
}

type placeJSON struct {
	Name  string    `json:"name"`
	Lat   float64   `json:"lat"`
	Lon   float64   `json:"lon"`
	Kind  PlaceKind `json:"kind"`
	Type  string    `json:"type,omitempty"`
	OSMID string    `json:"osm_id,omitempty"`
}

func (p Place) MarshalJSON() ([]byte, error) {
	return json.Marshal(placeJSON{
		Name:  p.name,
		Lat:   p.coord.Lat,
		Lon:   p.coord.Lon,
		Kind:  p.kind,
		Type:  p.placeType,
		OSMID: p.osmID,
	})
}

// MarkerID identifies a marker owned by the map view.
type MarkerID uint64

// Waypoint is a Place attached to the route. Only its coordinate changes (marker drag).
type Waypoint struct {
	place  Place
	coord  geo.Coordinate
	marker MarkerID
}

func NewWaypoint(place Place, marker MarkerID) *Waypoint {
	return &Waypoint{
		place:  place,
		coord:  place.Coordinate(),
		marker: marker,
	}
}

func (w *Waypoint) Place() Place {
	return w.place
}

func (w *Waypoint) Name() string {
	return w.place.Name()
}

func (w *Waypoint) Coordinate() geo.Coordinate {
	return w.coord
}

func (w *Waypoint) SetCoordinate(lat, lon float64) {
	w.coord = geo.NewCoordinate(lat, lon)
}

func (w *Waypoint) Marker() MarkerID {
	return w.marker
}

func (w *Waypoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name   string         `json:"name"`
		Coord  geo.Coordinate `json:"position"`
		Kind   PlaceKind      `json:"kind"`
		Marker MarkerID       `json:"marker_id"`
		Place  Place          `json:"place"`
	}{
		Name:   w.place.Name(),
		Coord:  w.coord,
		Kind:   w.place.Kind(),
		Marker: w.marker,
		Place:  w.place,
	})
}
