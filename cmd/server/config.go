package main

import (
	"strings"
	"sync/atomic"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/planner"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func setDefaults() {
	d := planner.DefaultConfig()
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("MAP_CENTER_LAT", d.DefaultCenter.Lat)
	viper.SetDefault("MAP_CENTER_LON", d.DefaultCenter.Lon)
	viper.SetDefault("MAP_ZOOM", d.DefaultZoom)
	viper.SetDefault("LOCATION_ZOOM", d.LocationZoom)
	viper.SetDefault("ENABLE_DRAG_REORDER", d.EnableDragReorder)
	viper.SetDefault("ENABLE_ANIMATION", d.EnableAnimation)
	viper.SetDefault("DEFAULT_VEHICLE", d.Vehicle.String())
	viper.SetDefault("ANIMATION_SPEED_MS", d.AnimationSpeedMs)
	viper.SetDefault("NOTICE_TTL", d.NoticeTTL.String())
	viper.SetDefault("AUTOCOMPLETE_DEBOUNCE", d.Debounce.String())
	viper.SetDefault("ROUTE_TIMEOUT", d.RouteTimeout.String())
	viper.SetDefault("GEOCODE_TIMEOUT", d.GeocodeTimeout.String())
	viper.SetDefault("SESSION_QUEUE_SIZE", d.QueueSize)

	viper.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	viper.SetDefault("SESSION_REAP_INTERVAL", "1m")

	viper.SetDefault("OSRM_BASE_URL", "https://router.project-osrm.org")
	viper.SetDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org")
	viper.SetDefault("NOMINATIM_USER_AGENT", "EcoFlow-App/1.0")
	viper.SetDefault("NOMINATIM_CONTEXT_SUFFIX", "")
	viper.SetDefault("NOMINATIM_LIMIT", 5)
	viper.SetDefault("NOMINATIM_RPS", 1.0)
	viper.SetDefault("GEOCODE_CACHE_SIZE", 1024)

	viper.SetDefault("POI_FILE", "./data/places.json.bz2")
	viper.SetDefault("POSTGRES_URI", "")
	viper.SetDefault("TRAFFIC_SENSORS", "traffic_001,traffic_002,traffic_003")
	viper.SetDefault("USE_RATE_LIMIT", true)

	viper.SetDefault("WS_POOL_SIZE", 64)
	viper.SetDefault("WS_POOL_QUEUE", 128)
	viper.SetDefault("WS_POOL_SPAWN", 8)
}

// plannerConfig builds the session configuration from the current settings.
func plannerConfig(log *zap.Logger) planner.Config {
	vc, err := da.ParseVehicleClass(viper.GetString("DEFAULT_VEHICLE"))
	if err != nil {
		log.Warn("invalid DEFAULT_VEHICLE, using car", zap.Error(err))
		vc = da.CAR
	}
	return planner.Config{
		DefaultCenter:     geo.NewCoordinate(viper.GetFloat64("MAP_CENTER_LAT"), viper.GetFloat64("MAP_CENTER_LON")),
		DefaultZoom:       viper.GetInt("MAP_ZOOM"),
		LocationZoom:      viper.GetInt("LOCATION_ZOOM"),
		EnableDragReorder: viper.GetBool("ENABLE_DRAG_REORDER"),
		EnableAnimation:   viper.GetBool("ENABLE_ANIMATION"),
		Vehicle:           vc,
		AnimationSpeedMs:  viper.GetInt("ANIMATION_SPEED_MS"),
		NoticeTTL:         viper.GetDuration("NOTICE_TTL"),
		Debounce:          viper.GetDuration("AUTOCOMPLETE_DEBOUNCE"),
		RouteTimeout:      viper.GetDuration("ROUTE_TIMEOUT"),
		GeocodeTimeout:    viper.GetDuration("GEOCODE_TIMEOUT"),
		QueueSize:         viper.GetInt("SESSION_QUEUE_SIZE"),
	}
}

// liveConfig is swapped on config file changes; running sessions keep the config they started with.
type liveConfig struct {
	v atomic.Pointer[planner.Config]
}

func newLiveConfig(cfg planner.Config) *liveConfig {
	lc := &liveConfig{}
	lc.v.Store(&cfg)
	return lc
}

func (lc *liveConfig) Get() planner.Config {
	return *lc.v.Load()
}

func (lc *liveConfig) Set(cfg planner.Config) {
	lc.v.Store(&cfg)
}

func trafficSensors() []string {
	var ids []string
	for _, id := range strings.Split(viper.GetString("TRAFFIC_SENSORS"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
