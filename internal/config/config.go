package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Storage StorageConfig `mapstructure:"storage"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type EngineConfig struct {
	MaxZoom     float64 `mapstructure:"max_zoom"`
	BaseRadius  float64 `mapstructure:"base_radius"`
	MaxResident int     `mapstructure:"max_resident"`
}

type StorageConfig struct {
	SnapshotDir string `mapstructure:"snapshot_dir"`
}

// Load reads configuration from an optional config.yaml and from
// GROUPMAP_* environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("engine.max_zoom", 16)
	v.SetDefault("engine.base_radius", 40)
	v.SetDefault("engine.max_resident", 4)
	v.SetDefault("storage.snapshot_dir", "data/groups")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	v.SetEnvPrefix("GROUPMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
