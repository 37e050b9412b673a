package http

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lintang-b-s/ecoflow/pkg/concurrent"
	http_router "github.com/lintang-b-s/ecoflow/pkg/http/router"
	"github.com/lintang-b-s/ecoflow/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/ecoflow/pkg/http/server"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log   *zap.Logger
	group *errgroup.Group
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Config reads the listener settings.
func Config() http_server.Config {
	viper.SetDefault("API_PORT", 6060)
	viper.SetDefault("WEBSOCKET_PORT", 6666)
	viper.SetDefault("PROXY_PORT", 6767)
	viper.SetDefault("API_TIMEOUT", "30s")

	return http_server.Config{
		Port:          viper.GetInt("API_PORT"),
		WebsocketPort: viper.GetInt("WEBSOCKET_PORT"),
		ProxyPort:     viper.GetInt("PROXY_PORT"),
		Timeout:       viper.GetDuration("API_TIMEOUT"),
	}
}

// Use starts serving the API in the background until ctx is done or a listener fails.
func (s *Server) Use(
	ctx context.Context,
	useRateLimit bool,
	hub *controllers.Hub,
	pool *concurrent.Pool,
	services http_router.Services,
) *Server {
	config := Config()
	api := http_router.NewAPI(s.Log, hub, pool)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Run(gctx, config, services, useRateLimit)
	})
	s.group = g
	return s
}

// Wait blocks until the servers started by Use have stopped.
func (s *Server) Wait() error {
	if s.group == nil {
		return nil
	}
	return s.group.Wait()
}

// GracefulShutdown blocks until the process receives SIGINT or SIGTERM.
func GracefulShutdown() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}
