package main

import (
	"context"
	"flag"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lintang-b-s/ecoflow/pkg/concurrent"
	"github.com/lintang-b-s/ecoflow/pkg/geocoder"
	"github.com/lintang-b-s/ecoflow/pkg/http"
	http_router "github.com/lintang-b-s/ecoflow/pkg/http/router"
	"github.com/lintang-b-s/ecoflow/pkg/http/router/controllers"
	"github.com/lintang-b-s/ecoflow/pkg/http/usecases"
	"github.com/lintang-b-s/ecoflow/pkg/logger"
	"github.com/lintang-b-s/ecoflow/pkg/osrm"
	"github.com/lintang-b-s/ecoflow/pkg/planner"
	"github.com/lintang-b-s/ecoflow/pkg/sensor"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	mockSeed = flag.Uint64("mock_seed", uint64(time.Now().UnixNano()), "seed of the mock sensor readings")
)

func main() {
	flag.Parse()
	if err := util.ReadConfig(); err != nil {
		panic(err)
	}
	setDefaults()

	logger, err := logger.NewWithLevel(viper.GetString("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck // ignore

	ctx, cleanup, err := NewContext()
	if err != nil {
		panic(err)
	}

	live := newLiveConfig(plannerConfig(logger))
	util.WatchConfig(func(name string) {
		live.Set(plannerConfig(logger))
		logger.Info("config reloaded", zap.String("file", name))
	})

	router := osrm.NewClient(viper.GetString("OSRM_BASE_URL"), viper.GetDuration("ROUTE_TIMEOUT"), logger)

	catalog, err := geocoder.LoadCatalog(viper.GetString("POI_FILE"), logger)
	if err != nil {
		panic(err)
	}
	nominatim, err := geocoder.NewNominatim(geocoder.NominatimConfig{
		BaseURL:           viper.GetString("NOMINATIM_BASE_URL"),
		UserAgent:         viper.GetString("NOMINATIM_USER_AGENT"),
		ContextSuffix:     viper.GetString("NOMINATIM_CONTEXT_SUFFIX"),
		Limit:             viper.GetInt("NOMINATIM_LIMIT"),
		RequestsPerSecond: viper.GetFloat64("NOMINATIM_RPS"),
		CacheSize:         viper.GetInt("GEOCODE_CACHE_SIZE"),
		Timeout:           viper.GetDuration("GEOCODE_TIMEOUT"),
	}, logger)
	if err != nil {
		panic(err)
	}
	places := geocoder.NewChain(nominatim, catalog, logger)

	repo, closeRepo := sensorRepository(ctx, logger)
	defer closeRepo()
	sensors := sensor.NewService(repo, live.Get().DefaultCenter, *mockSeed, logger)

	pool := concurrent.NewPool(viper.GetInt("WS_POOL_SIZE"), viper.GetInt("WS_POOL_QUEUE"),
		viper.GetInt("WS_POOL_SPAWN"))
	hub := controllers.NewHub(pool, nil, logger)

	sessions := planner.NewManager(live.Get, planner.Deps{
		Router:    router,
		Geocoder:  places,
		Publisher: hub,
	}, logger)
	hub.SetSessions(sessions)
	go sessions.RunReaper(ctx, viper.GetDuration("SESSION_REAP_INTERVAL"), viper.GetDuration("SESSION_IDLE_TIMEOUT"))

	routingService := usecases.NewRoutingService(logger, router, places, catalog)
	dashboardService := usecases.NewDashboardService(logger, sensors, trafficSensors())

	api := http.NewServer(logger).Use(ctx, viper.GetBool("USE_RATE_LIMIT"), hub, pool, http_router.Services{
		Routing:   routingService,
		Sensors:   sensors,
		Dashboard: dashboardService,
		Sessions:  sessions,
	})
	go func() {
		if err := api.Wait(); err != nil {
			logger.Error("server stopped", zap.Error(err))
		}
	}()

	signal := http.GracefulShutdown()

	logger.Info("EcoFlow Server Stopping", zap.String("signal", signal.String()))
	cleanup()
	_ = api.Wait()
	sessions.CloseAll()
	hub.RemoveAllUser()
	pool.Close()
	logger.Info("EcoFlow Server Stopped")
}

func NewContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb, nil
}

// sensorRepository uses Postgres when POSTGRES_URI is set and reachable, memory otherwise.
func sensorRepository(ctx context.Context, log *zap.Logger) (sensor.Repository, func()) {
	uri := viper.GetString("POSTGRES_URI")
	if uri == "" {
		log.Info("POSTGRES_URI not set, keeping sensor readings in memory")
		return sensor.NewMemoryRepository(), func() {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, uri)
	if err != nil {
		log.Warn("invalid POSTGRES_URI, keeping sensor readings in memory", zap.Error(err))
		return sensor.NewMemoryRepository(), func() {}
	}
	if err := pool.Ping(connectCtx); err != nil {
		log.Warn("failed to connect to postgres, keeping sensor readings in memory", zap.Error(err))
		pool.Close()
		return sensor.NewMemoryRepository(), func() {}
	}

	repo := sensor.NewPostgresRepository(pool)
	if err := repo.Migrate(connectCtx); err != nil {
		log.Warn("failed to migrate sensor tables, keeping sensor readings in memory", zap.Error(err))
		pool.Close()
		return sensor.NewMemoryRepository(), func() {}
	}
	log.Info("sensor readings stored in postgres")
	return repo, pool.Close
}
