package main

import (
	"context"
	"flag"

	"github.com/lintang-b-s/Gridpathx/pkg/engine/routing"
	"github.com/lintang-b-s/Gridpathx/pkg/http"
	"github.com/lintang-b-s/Gridpathx/pkg/http/usecases"
	"github.com/lintang-b-s/Gridpathx/pkg/logger"
	"github.com/lintang-b-s/Gridpathx/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	useRateLimit = flag.Bool("rate_limit", false, "enable the per-ip rate limiter on the rest api")
)

func main() {
	flag.Parse()
	if err := util.ReadConfig(); err != nil {
		panic(err)
	}
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	sessionFactory := usecases.NewEngineSessionFactory(logger, routing.WithSpeed(viper.GetString("DEFAULT_SPEED")))
	gridService := usecases.NewGridService(logger, sessionFactory,
		viper.GetInt("GRID_ROWS"), viper.GetInt("GRID_COLS"), viper.GetInt("MAX_SESSIONS"))

	api := http.NewServer(logger)

	ctx, cleanup, err := NewContext()
	if err != nil {
		panic(err)
	}
	if _, err := api.Use(ctx, logger, *useRateLimit, gridService); err != nil {
		panic(err)
	}

	signal := http.GracefulShutdown()

	logger.Info("Gridpathx Server Stopped", zap.String("signal", signal.String()))
	cleanup()
	if err := api.Wait(); err != nil && err != context.Canceled {
		logger.Error("server exited", zap.Error(err))
	}
}

func NewContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb, nil
}
