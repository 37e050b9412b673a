package datastructure

import (
	"encoding/json"

	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/util"
)

// Route is recomputed wholesale; path always has at least two points.
type Route struct {
	path        []geo.Coordinate
	distanceKm  float64
	durationMin float64
	emissionsKg float64
	vehicle     VehicleClass
}

func NewRoute(path []geo.Coordinate, distanceKm, durationMin, emissionsKg float64, vehicle VehicleClass) *Route {
	return &Route{
		path:        path,
		distanceKm:  distanceKm,
		durationMin: durationMin,
		emissionsKg: emissionsKg,
		vehicle:     vehicle,
	}
}

// Path returns a copy of the route geometry.
func (r *Route) Path() []geo.Coordinate {
	path := make([]geo.Coordinate, len(r.path))
	copy(path, r.path)
	return path
}

func (r *Route) NumPoints() int {
	return len(r.path)
}

func (r *Route) DistanceKm() float64 {
	return r.distanceKm
}

func (r *Route) DurationMin() float64 {
	return r.durationMin
}

func (r *Route) EmissionsKg() float64 {
	return r.emissionsKg
}

func (r *Route) Vehicle() VehicleClass {
	return r.vehicle
}

func (r *Route) Polyline() string {
	return geo.PoylineFromCoords(r.path)
}

type routeJSON struct {
	Distance  float64          `json:"distance"`
	Duration  float64          `json:"duration"`
	Emissions float64          `json:"emissions"`
	Vehicle   VehicleClass     `json:"vehicle_type"`
	Polyline  string           `json:"polyline"`
	Path      []geo.Coordinate `json:"path"`
}

func (r *Route) MarshalJSON() ([]byte, error) {
	return json.Marshal(routeJSON{
		Distance:  util.RoundFloat(r.distanceKm, 3),
		Duration:  util.RoundFloat(r.durationMin, 2),
		Emissions: util.RoundFloat(r.emissionsKg, 3),
		Vehicle:   r.vehicle,
		Polyline:  r.Polyline(),
		Path:      r.path,
	})
}
