package config

import "time"

type SessionConfig interface {
	GetRefreshLeadTime() time.Duration
	GetInactivityLimit() time.Duration
}

var _ SessionConfig = mainConfig{}

// GetRefreshLeadTime is how long before access token expiry the proactive refresh runs.
func (c mainConfig) GetRefreshLeadTime() time.Duration {
	return c.getDuration("REFRESH_LEAD_TIME", 60*time.Second)
}

// GetInactivityLimit is the idle period after which the session expires. Zero disables it.
func (c mainConfig) GetInactivityLimit() time.Duration {
	return c.getDuration("INACTIVITY_LIMIT", 15*time.Minute)
}
