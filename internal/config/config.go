// Package config loads server settings from botduel.cfg.json, falling
// back to defaults when the file is absent. All values are optional;
// a server started in an empty directory runs with the defaults.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved server configuration.
type Config struct {
	LogLevel   string
	ListenAddr string

	TurnTimeout time.Duration

	AutoscrimEnabled  bool
	AutoscrimInterval time.Duration
	AutoscrimRetry    time.Duration
}

// Load reads botduel.cfg.json from dir. A missing file is not an
// error; a malformed one is.
func Load(dir string) (Config, error) {
	v := viper.New()
	v.SetConfigName("botduel.cfg")
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetDefault("logLevel", "info")
	v.SetDefault("listenAddr", ":8001")
	v.SetDefault("turnTimeoutSeconds", 3)
	v.SetDefault("autoscrim.enabled", true)
	v.SetDefault("autoscrim.intervalSeconds", 10)
	v.SetDefault("autoscrim.retryDelaySeconds", 2)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	return Config{
		LogLevel:          v.GetString("logLevel"),
		ListenAddr:        v.GetString("listenAddr"),
		TurnTimeout:       time.Duration(v.GetInt("turnTimeoutSeconds")) * time.Second,
		AutoscrimEnabled:  v.GetBool("autoscrim.enabled"),
		AutoscrimInterval: time.Duration(v.GetInt("autoscrim.intervalSeconds")) * time.Second,
		AutoscrimRetry:    time.Duration(v.GetInt("autoscrim.retryDelaySeconds")) * time.Second,
	}, nil
}
