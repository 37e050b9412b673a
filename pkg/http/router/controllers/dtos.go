package controllers

import (
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/emissions"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/sensor"
)

type coordinateRequest struct {
	Lat *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon *float64 `json:"lon" validate:"required,min=-180,max=180"`
}

func (c coordinateRequest) toCoordinate() geo.Coordinate {
	return geo.NewCoordinate(*c.Lat, *c.Lon)
}

type calculateRouteRequest struct {
	Origin      *coordinateRequest `json:"origin" validate:"required"`
	Destination *coordinateRequest `json:"destination" validate:"required"`
	VehicleType string             `json:"vehicle_type" validate:"omitempty,oneof=car bike bicycle foot walk bus motorcycle"`
}

type optimizeRouteRequest struct {
	Waypoints            []coordinateRequest `json:"waypoints" validate:"required,min=3,dive"`
	VehicleType          string              `json:"vehicle_type" validate:"omitempty,oneof=car bike bicycle foot walk bus motorcycle"`
	OptimizationCriteria string              `json:"optimization_criteria" validate:"omitempty,oneof=distance time emissions"`
}

type optimizeRouteResponse struct {
	Route     *da.Route        `json:"route"`
	Waypoints []geo.Coordinate `json:"waypoints"`
	Criteria  string           `json:"optimization_criteria"`
}

type sensorDataRequest struct {
	SensorID string                `json:"sensor_id" validate:"required"`
	Readings []sensor.ReadingInput `json:"readings" validate:"required"`
}

type emissionsResponse struct {
	DistanceKm     float64                `json:"distance_km"`
	VehicleType    string                 `json:"vehicle_type"`
	EmissionsKg    float64                `json:"emissions_kg"`
	SavingsVsCarKg float64                `json:"savings_vs_car_kg"`
	Comparison     []emissions.Comparison `json:"comparison"`
}

type createSessionRequest struct {
	EnableDragReorder *bool  `json:"enable_drag_reorder"`
	EnableAnimation   *bool  `json:"enable_animation"`
	VehicleType       string `json:"vehicle_type" validate:"omitempty,oneof=car bike bicycle foot walk bus motorcycle"`
	AnimationSpeedMs  int    `json:"animation_speed_ms" validate:"omitempty,min=10,max=500"`
}

type addWaypointRequest struct {
	Name    string   `json:"name" validate:"required"`
	Lat     *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon     *float64 `json:"lon" validate:"required,min=-180,max=180"`
	Type    string   `json:"type"`
	OSMType string   `json:"osm_type" validate:"omitempty,oneof=node way relation"`
	OSMID   int64    `json:"osm_id"`
}

type reorderWaypointsRequest struct {
	From *int `json:"from" validate:"required,min=0"`
	To   *int `json:"to" validate:"required,min=0"`
}

type vehicleRequest struct {
	VehicleType string `json:"vehicle_type" validate:"required,oneof=car bike bicycle foot walk bus motorcycle"`
}

type speedRequest struct {
	SpeedMs int `json:"speed_ms" validate:"required,min=1"`
}

type inputRequest struct {
	Text string `json:"text" validate:"max=200"`
}

type selectRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

type locationErrorRequest struct {
	Code    int    `json:"code" validate:"required,min=1"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
