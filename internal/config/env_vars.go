package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	folderEnvVar   = "FOLDER"
	logLevelEnvVar = "LOG_LEVEL"
	envEnvVar      = "ENV"
)

func (c mainConfig) GetAppName() string {
	return c.get(appNameVar, "RAG Admin")
}

func (c mainConfig) GetEnv() string {
	return c.get(envEnvVar, "DEV")
}

func (c mainConfig) GetLogLevel() string {
	return strings.ToLower(c.get(logLevelEnvVar, "info"))
}

// GetDataFolder is where local state such as the credential store lives.
func (c mainConfig) GetDataFolder() string {
	return c.get(folderEnvVar, defaultDataFolder())
}

// GetPort is the listen address of the development backend.
func (c mainConfig) GetPort() string {
	port := c.get(portEnvVar, "8000")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func defaultDataFolder() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(dir, "ragadmin")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
