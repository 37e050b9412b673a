package router

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/lintang-b-s/ecoflow/pkg/concurrent"
	"github.com/lintang-b-s/ecoflow/pkg/http/router/controllers"
	router_helper "github.com/lintang-b-s/ecoflow/pkg/http/router/routerhelper"
	http_server "github.com/lintang-b-s/ecoflow/pkg/http/server"
	"github.com/mailru/easygo/netpoll"
	"github.com/rs/cors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	_ "net/http/pprof"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Services struct {
	Routing   controllers.RoutingService
	Sensors   controllers.SensorService
	Dashboard controllers.DashboardService
	Sessions  controllers.SessionManager
}

type API struct {
	log    *zap.Logger
	hub    *controllers.Hub
	poller netpoll.Poller
	pool   *concurrent.Pool
}

// NewAPI. hub publishes session events to websocket users; pool runs the websocket work.
func NewAPI(log *zap.Logger, hub *controllers.Hub, pool *concurrent.Pool) *API {
	return &API{log: log, hub: hub, pool: pool}
}

// Handler builds the REST handler with its middleware chain.
func (api *API) Handler(services Services, useRateLimit bool) http.Handler {
	router := httprouter.New()

	corsHandler := cors.New(cors.Options{ //nolint:gocritic // ignore
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Location"},
		AllowCredentials: true,
		MaxAge:           300, //nolint:mnd // ignore
	})

	router.GET("/doc/*any", swaggerHandler)

	router.Handler(http.MethodGet, "/debug/pprof/*item", http.DefaultServeMux)

	group := router_helper.NewRouteGroup(router, "/api")

	controllers.New(services.Routing, api.log).Routes(group)
	controllers.NewEmissionsAPI(api.log).Routes(group)
	controllers.NewSensorAPI(services.Sensors, services.Dashboard, services.Sessions, api.log).Routes(group)
	controllers.NewSessionAPI(services.Sessions, api.log).Routes(group)

	mwChain := []alice.Constructor{corsHandler.Handler, EnforceJSONHandler, api.recoverPanic,
		RealIP, Heartbeat("healthz"), Logger(api.log)}
	if useRateLimit {
		mwChain = append(mwChain, Limit)
	}
	return alice.New(mwChain...).Then(router)
}

//	@title			EcoFlow API
//	@version		1.0
//	@description	Eco-friendly route planner: routes, CO2 estimates, sensor data and planner sessions.

//	@license.name	BSD License
//	@license.url	https://opensource.org/license/bsd-2-clause

// @host		localhost
// @BasePath	/api
func (api *API) Run(
	ctx context.Context,
	config http_server.Config,
	services Services,
	useRateLimit bool,
) error {
	api.log.Info("Run httprouter API")

	var (
		errChan      = make(chan error, 1)
		errProxyChan = make(chan error, 1)
	)

	go func() {
		api.handleWebsocket(ctx, config, errChan)
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", api.upstream("session events", "tcp", "localhost"+":"+strconv.Itoa(config.WebsocketPort)))
	wsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.ProxyPort),
		Handler: mux,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: viper.GetDuration("HTTP_SERVER_READ_HEADER_TIMEOUT"),
	}
	go func() {
		api.log.Info(fmt.Sprintf("WebSocket proxy running on port %d", config.ProxyPort))
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errProxyChan <- err
		}
	}()

	srv := http_server.New(ctx, api.Handler(services, useRateLimit), config, false)
	api.log.Info(fmt.Sprintf("API run on port %d", config.Port))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	shutdown := func() {
		_ = http_server.GracefulShutdown(srv, config.Timeout)
		_ = http_server.GracefulShutdown(wsServer, config.Timeout)
	}

	select {
	case err := <-errChan:
		api.log.Error("Websocket error, shutting down server", zap.Error(err))
		shutdown()
		return err
	case err := <-errProxyChan:
		api.log.Error("Websocket proxy error, shutting down server", zap.Error(err))
		shutdown()
		return err
	case err := <-serverErr:
		api.log.Info("HTTP server stopped", zap.Error(err))
		shutdown()
		return err
	case <-ctx.Done():
		api.log.Info("Context canceled, shutting down server")
		shutdown()
		return nil
	}
}

func swaggerHandler(res http.ResponseWriter, req *http.Request, p httprouter.Params) {
	httpSwagger.WrapHandler(res, req)
}
