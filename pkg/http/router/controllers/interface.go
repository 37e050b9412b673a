package controllers

import (
	"context"
	"time"

	"github.com/lintang-b-s/ecoflow/pkg/chart"
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/planner"
	"github.com/lintang-b-s/ecoflow/pkg/sensor"
	"github.com/lintang-b-s/ecoflow/pkg/spatialindex"
)

type RoutingService interface {
	Search(ctx context.Context, query string) ([]da.Place, error)
	Nearby(lat, lon, radiusKm float64) []spatialindex.Nearby
	Calculate(ctx context.Context, origin, destination geo.Coordinate, vc da.VehicleClass) (*da.Route, error)
	Optimize(ctx context.Context, waypoints []geo.Coordinate, vc da.VehicleClass,
		criteria string) (*da.Route, []geo.Coordinate, error)
}

type SensorService interface {
	Ingest(ctx context.Context, sensorID string, inputs []sensor.ReadingInput) (sensor.IngestResult, error)
	History(ctx context.Context, sensorID string, from, to *time.Time) ([]sensor.Reading, error)
	Health(ctx context.Context) error
}

type DashboardService interface {
	Charts(ctx context.Context) ([]chart.Chart, error)
}

type SessionManager interface {
	Create(ctx context.Context, overrides *planner.Overrides) (*planner.Session, error)
	Get(id string) (*planner.Session, error)
	Delete(id string) error
	Len() int
}
