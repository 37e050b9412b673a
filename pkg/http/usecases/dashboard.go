package usecases

import (
	"context"

	"github.com/lintang-b-s/ecoflow/pkg/chart"
	"github.com/lintang-b-s/ecoflow/pkg/concurrent"
	"go.uber.org/zap"
)

const dashboardWorkers = 4

type DashboardService struct {
	log            *zap.Logger
	traffic        TrafficSource
	trafficSensors []string
}

// NewDashboardService. The traffic chart averages the hourly values of trafficSensors.
func NewDashboardService(log *zap.Logger, traffic TrafficSource, trafficSensors []string) *DashboardService {
	return &DashboardService{
		log:            log,
		traffic:        traffic,
		trafficSensors: trafficSensors,
	}
}

type hourlyResult struct {
	sensorID string
	byHour   []float64
	err      error
}

func (ds *DashboardService) Charts(ctx context.Context) ([]chart.Chart, error) {
	return chart.Dashboard(ds.trafficByHour(ctx)), nil
}

// trafficByHour fetches every traffic sensor concurrently. Failed sensors are left out; nil means the
// chart falls back to its default profile.
func (ds *DashboardService) trafficByHour(ctx context.Context) []float64 {
	if len(ds.trafficSensors) == 0 {
		return nil
	}
	results := concurrent.Map(dashboardWorkers, ds.trafficSensors, func(id string) hourlyResult {
		byHour, err := ds.traffic.HourlyAverages(ctx, id)
		return hourlyResult{sensorID: id, byHour: byHour, err: err}
	})

	sum := make([]float64, 24)
	n := 0
	for _, res := range results {
		if res.err != nil || len(res.byHour) != 24 {
			ds.log.Warn("skipping traffic sensor", zap.String("sensor_id", res.sensorID), zap.Error(res.err))
			continue
		}
		for h, v := range res.byHour {
			sum[h] += v
		}
		n++
	}
	if n == 0 {
		return nil
	}
	for h := range sum {
		sum[h] /= float64(n)
	}
	return sum
}
