package http

import (
	"context"

	http_router "github.com/lintang-b-s/Gridpathx/pkg/http/router"
	"github.com/lintang-b-s/Gridpathx/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/Gridpathx/pkg/http/server"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log *zap.Logger
	g   *errgroup.Group
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Use starts the api, websocket & proxy servers in the background. they stop when ctx is done.
func (s *Server) Use(
	ctx context.Context,
	log *zap.Logger,

	useRateLimit bool,
	gridService controllers.GridService,
) (*Server, error) {
	config := http_server.Config{
		Port:          viper.GetInt("API_PORT"),
		WebsocketPort: viper.GetInt("WEBSOCKET_PORT"),
		ProxyPort:     viper.GetInt("PROXY_PORT"),
		Timeout:       viper.GetDuration("API_TIMEOUT"),
	}

	server := http_router.NewAPI(log)

	s.g = &errgroup.Group{}

	s.g.Go(func() error {
		return server.Run(
			ctx, config, log,
			useRateLimit, gridService,
		)
	})

	return s, nil
}

// Wait blocks until the servers started by Use have returned.
func (s *Server) Wait() error {
	if s.g == nil {
		return nil
	}
	return s.g.Wait()
}
