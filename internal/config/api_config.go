package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIBase() string
	GetHTTPTimeout() time.Duration
}

var _ APIConfig = mainConfig{}

// GetAPIBase is the backend base URL, without a trailing slash.
func (c mainConfig) GetAPIBase() string {
	return strings.TrimRight(c.get("API_BASE", "http://127.0.0.1:8000"), "/")
}

func (c mainConfig) GetHTTPTimeout() time.Duration {
	return c.getDuration("HTTP_TIMEOUT", 30*time.Second)
}
