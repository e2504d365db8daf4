package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func SetConfigDefaults() {
	viper.SetDefault("API_PORT", 6060)
	viper.SetDefault("WEBSOCKET_PORT", 6666)
	viper.SetDefault("PROXY_PORT", 6767)
	viper.SetDefault("WS_POOL_WORKERS", 64)
	viper.SetDefault("WS_POOL_QUEUE", 16)
	viper.SetDefault("API_TIMEOUT", "1000s")

	viper.SetDefault("HTTP_SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("HTTP_SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("HTTP_SERVER_IDLE_TIMEOUT", "60s")
	viper.SetDefault("HTTP_SERVER_READ_HEADER_TIMEOUT", "5s")

	viper.SetDefault("GRID_ROWS", 10)
	viper.SetDefault("GRID_COLS", 10)
	viper.SetDefault("DEFAULT_SPEED", "medium")
	viper.SetDefault("MAX_SESSIONS", 1024)

	viper.SetDefault("RATE_LIMIT_RPS", 20.0)
	viper.SetDefault("RATE_LIMIT_BURST", 40)
	viper.SetDefault("RATE_LIMIT_MAX_CLIENTS", 10000)
	viper.SetDefault("TRUSTED_PROXIES", "")

	viper.SetDefault("LOG_LEVEL", "info")
}

// ReadConfig loads ./data/config.yaml when present, env vars override it. a missing file is not an error.
func ReadConfig() error {
	SetConfigDefaults()

	viper.SetConfigName("config")
	viper.AddConfigPath("./data/")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}
