package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ReadConfig loads .env (if any) into the process environment, then ./data/config.yaml (if any).
// Environment variables override both, e.g. OSRM_BASE_URL overrides osrm_base_url.
func ReadConfig() error {
	_ = godotenv.Load()

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

// WatchConfig calls onChange every time the config file is rewritten.
func WatchConfig(onChange func(name string)) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		onChange(e.Name)
	})
	viper.WatchConfig()
}
