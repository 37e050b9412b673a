package sensor

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps readings in process. It is the default when no database is configured.
type MemoryRepository struct {
	mu       sync.RWMutex
	readings map[string][]Reading
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{readings: make(map[string][]Reading)}
}

func (r *MemoryRepository) Save(ctx context.Context, sensorID string, readings []Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := append(r.readings[sensorID], readings...)
	if len(all) > MaxReadingsPerSensor {
		all = append([]Reading(nil), all[len(all)-MaxReadingsPerSensor:]...)
	}
	r.readings[sensorID] = all
	return nil
}

func (r *MemoryRepository) History(ctx context.Context, sensorID string, from, to *time.Time) ([]Reading, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all, ok := r.readings[sensorID]
	if !ok {
		return nil, false, nil
	}
	out := make([]Reading, 0, len(all))
	for _, rd := range all {
		if from != nil && rd.Timestamp.Before(*from) {
			continue
		}
		if to != nil && rd.Timestamp.After(*to) {
			continue
		}
		out = append(out, rd)
	}
	return out, true, nil
}

func (r *MemoryRepository) Health(ctx context.Context) error {
	return nil
}
