package planner

import (
	"time"

	"github.com/lintang-b-s/ecoflow/pkg/animation"
	"github.com/lintang-b-s/ecoflow/pkg/autocomplete"
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/notice"
)

type Config struct {
	DefaultCenter geo.Coordinate
	DefaultZoom   int
	LocationZoom  int

	EnableDragReorder bool
	EnableAnimation   bool

	Vehicle          da.VehicleClass
	AnimationSpeedMs int

	NoticeTTL      time.Duration
	Debounce       time.Duration
	RouteTimeout   time.Duration
	GeocodeTimeout time.Duration

	// QueueSize is the capacity of the session event loop queue.
	QueueSize int
}

// DefaultConfig centers the map on Cali, Colombia.
func DefaultConfig() Config {
	return Config{
		DefaultCenter:     geo.NewCoordinate(3.4516, -76.5320),
		DefaultZoom:       13,
		LocationZoom:      15,
		EnableDragReorder: true,
		EnableAnimation:   true,
		Vehicle:           da.CAR,
		AnimationSpeedMs:  animation.DefaultSpeedMs,
		NoticeTTL:         notice.DefaultTTL,
		Debounce:          autocomplete.DefaultDebounce,
		RouteTimeout:      15 * time.Second,
		GeocodeTimeout:    autocomplete.DefaultTimeout,
		QueueSize:         256,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if !c.DefaultCenter.Valid() || (c.DefaultCenter == geo.Coordinate{}) {
		c.DefaultCenter = d.DefaultCenter
	}
	if c.DefaultZoom <= 0 {
		c.DefaultZoom = d.DefaultZoom
	}
	if c.LocationZoom <= 0 {
		c.LocationZoom = d.LocationZoom
	}
	if c.AnimationSpeedMs <= 0 {
		c.AnimationSpeedMs = d.AnimationSpeedMs
	}
	if c.NoticeTTL <= 0 {
		c.NoticeTTL = d.NoticeTTL
	}
	if c.Debounce <= 0 {
		c.Debounce = d.Debounce
	}
	if c.RouteTimeout <= 0 {
		c.RouteTimeout = d.RouteTimeout
	}
	if c.GeocodeTimeout <= 0 {
		c.GeocodeTimeout = d.GeocodeTimeout
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	return c
}
