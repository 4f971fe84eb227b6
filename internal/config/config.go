package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ConfigFileEnvVar names the optional YAML file layered under the environment.
const ConfigFileEnvVar = "RAGADMIN_CONFIG"

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	StoreConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetDataFolder() string
	GetPort() string
}

type mainConfig struct {
	file map[string]string // upper-cased key to value, from the YAML overlay
}

var _ Config = mainConfig{}

// New reads configuration from the environment, falling back to the YAML file at path.
// An empty path uses $RAGADMIN_CONFIG; when that is unset only the environment and the
// defaults apply.
func New(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(ConfigFileEnvVar)
	}
	if path == "" {
		return mainConfig{}, nil
	}
	values, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return mainConfig{file: values}, nil
}

// get resolves key from the environment, then the file, then defaultValue.
func (c mainConfig) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := c.file[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (c mainConfig) getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(c.get(key, ""))
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("Invalid duration in configuration, using default")
		return defaultValue
	}
	return d
}
