package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode string `mapstructure:"mode"`

	// Collaborator endpoints consumed by the clients.
	BaseURL   string `mapstructure:"base_url"`
	RelayPath string `mapstructure:"relay_path"`

	// Display presentation settings.
	ScreenWidth       int           `mapstructure:"screen_width"`
	ScreenHeight      int           `mapstructure:"screen_height"`
	SlideshowInterval time.Duration `mapstructure:"slideshow_interval"`

	// Stand-in collaborator server settings.
	Port       int    `mapstructure:"port"`
	StaticPath string `mapstructure:"static_path"`
	Secret     string `mapstructure:"secret"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("base_url", "http://localhost:1286")
	v.SetDefault("relay_path", "/ws")
	v.SetDefault("screen_width", 1920)
	v.SetDefault("screen_height", 1080)
	v.SetDefault("slideshow_interval", "5s")
	v.SetDefault("port", 1286)
	v.SetDefault("static_path", "./uploads")
	v.SetDefault("secret", "tvcast-dev-secret")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
