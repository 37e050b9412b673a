// Package sensor ingests IoT readings (traffic, pollution, noise) and serves their history.
package sensor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

const (
	MaxReadingsPerSensor = 1000
	defaultHistorySpan   = 7 * 24 * time.Hour
	// MaxMockHistorySpan bounds the range served for sensors that never reported.
	MaxMockHistorySpan = 31 * 24 * time.Hour
	mockJitterDeg      = 0.01
)

type Reading struct {
	SensorID  string          `json:"sensor_id"`
	Value     float64         `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
	Location  *geo.Coordinate `json:"location,omitempty"`
	Type      string          `json:"type"`
}

// ReadingInput is a reading as posted by a device. Readings without a value are skipped.
type ReadingInput struct {
	Value     *float64        `json:"value"`
	Timestamp string          `json:"timestamp"`
	Location  *geo.Coordinate `json:"location"`
	Type      string          `json:"type"`
}

type IngestResult struct {
	ProcessedCount int       `json:"processed_count"`
	Readings       []Reading `json:"readings"`
}

type Repository interface {
	// Save appends readings, keeping only the newest MaxReadingsPerSensor of the sensor.
	Save(ctx context.Context, sensorID string, readings []Reading) error
	// History returns the readings of sensorID within [from, to]; nil bounds are open. known is false
	// when the sensor never reported.
	History(ctx context.Context, sensorID string, from, to *time.Time) (readings []Reading, known bool, err error)
	Health(ctx context.Context) error
}

type Service struct {
	repo       Repository
	mockCenter geo.Coordinate
	log        *zap.Logger

	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewService creates the sensor service. Mock readings for unknown sensors are placed around mockCenter.
func NewService(repo Repository, mockCenter geo.Coordinate, seed uint64, log *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		mockCenter: mockCenter,
		log:        log,
		rnd:        rand.New(rand.NewSource(seed)),
		now:        time.Now,
	}
}

func (s *Service) Ingest(ctx context.Context, sensorID string, inputs []ReadingInput) (IngestResult, error) {
	sensorID = strings.TrimSpace(sensorID)
	if sensorID == "" {
		return IngestResult{}, util.NewErrorf(util.ErrBadParamInput, "sensor_id is required")
	}

	readings := make([]Reading, 0, len(inputs))
	for _, in := range inputs {
		if in.Value == nil {
			continue
		}
		ts := s.now()
		if in.Timestamp != "" {
			parsed, err := ParseTimestamp(in.Timestamp)
			if err != nil {
				return IngestResult{}, util.WrapErrorf(err, util.ErrBadParamInput, "invalid timestamp %q", in.Timestamp)
			}
			ts = parsed
		}
		typ := in.Type
		if typ == "" {
			typ = "generic"
		}
		readings = append(readings, Reading{
			SensorID:  sensorID,
			Value:     *in.Value,
			Timestamp: ts,
			Location:  in.Location,
			Type:      typ,
		})
	}

	if len(readings) > 0 {
		if err := s.repo.Save(ctx, sensorID, readings); err != nil {
			return IngestResult{}, util.WrapErrorf(err, util.ErrInternalServerError, "failed to store readings")
		}
	}
	s.log.Debug("ingested sensor readings", zap.String("sensor_id", sensorID),
		zap.Int("received", len(inputs)), zap.Int("processed", len(readings)))

	return IngestResult{ProcessedCount: len(readings), Readings: readings}, nil
}

// History returns the readings of sensorID. Sensors that never reported get hourly mock readings over
// the range, which defaults to the last 7 days and may span at most MaxMockHistorySpan.
func (s *Service) History(ctx context.Context, sensorID string, from, to *time.Time) ([]Reading, error) {
	if strings.TrimSpace(sensorID) == "" {
		return nil, util.NewErrorf(util.ErrBadParamInput, "sensor id is required")
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, util.NewErrorf(util.ErrBadParamInput, "start_date is after end_date")
	}

	readings, known, err := s.repo.History(ctx, sensorID, from, to)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "failed to load sensor history")
	}
	if known {
		return readings, nil
	}
	return s.mockHistory(sensorID, from, to)
}

// HourlyAverages averages the readings over the last 24 hours by hour of day.
// Hours without readings are zero.
func (s *Service) HourlyAverages(ctx context.Context, sensorID string) ([]float64, error) {
	to := s.now()
	from := to.Add(-24 * time.Hour)
	readings, err := s.History(ctx, sensorID, &from, &to)
	if err != nil {
		return nil, err
	}

	sums := make([]float64, 24)
	counts := make([]int, 24)
	for _, r := range readings {
		h := r.Timestamp.Hour()
		sums[h] += r.Value
		counts[h]++
	}
	for h := range sums {
		if counts[h] > 0 {
			sums[h] = util.RoundFloat(sums[h]/float64(counts[h]), 2)
		}
	}
	return sums, nil
}

func (s *Service) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}

func (s *Service) mockHistory(sensorID string, from, to *time.Time) ([]Reading, error) {
	end := s.now()
	if to != nil {
		end = *to
	}
	start := end.Add(-defaultHistorySpan)
	if from != nil {
		start = *from
	}
	if end.Sub(start) > MaxMockHistorySpan {
		return nil, util.NewErrorf(util.ErrBadParamInput, "history range of sensor %s exceeds %d days",
			sensorID, int(MaxMockHistorySpan.Hours()/24))
	}

	typ := "generic"
	if i := strings.Index(sensorID, "_"); i > 0 {
		typ = sensorID[:i]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	readings := make([]Reading, 0, int(end.Sub(start).Hours())+1)
	for ts := start; !ts.After(end); ts = ts.Add(time.Hour) {
		loc := geo.NewCoordinate(
			s.mockCenter.Lat+s.uniform(-mockJitterDeg, mockJitterDeg),
			s.mockCenter.Lon+s.uniform(-mockJitterDeg, mockJitterDeg),
		)
		readings = append(readings, Reading{
			SensorID:  sensorID,
			Value:     s.mockValue(sensorID),
			Timestamp: ts,
			Location:  &loc,
			Type:      typ,
		})
	}
	return readings, nil
}

func (s *Service) mockValue(sensorID string) float64 {
	switch {
	case strings.Contains(sensorID, "traffic"):
		return float64(s.rnd.Intn(101))
	case strings.Contains(sensorID, "pollution"):
		return s.uniform(0, 50)
	case strings.Contains(sensorID, "noise"):
		return s.uniform(40, 90)
	default:
		return s.uniform(0, 100)
	}
}

func (s *Service) uniform(lo, hi float64) float64 {
	return lo + s.rnd.Float64()*(hi-lo)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 and the common ISO 8601 forms without a zone, read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		t, err = time.Parse(layout, strings.TrimSpace(s))
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
