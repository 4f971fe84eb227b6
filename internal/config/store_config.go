package config

import (
	"path/filepath"
	"strings"
)

const (
	StoreDriverFile   = "file"
	StoreDriverSQLite = "sqlite"
)

type StoreConfig interface {
	GetStoreDriver() string
	GetStorePath() string
	GetStorePassphrase() string
}

var _ StoreConfig = mainConfig{}

// GetStoreDriver returns "file" or "sqlite". Unknown values fall back to "file".
func (c mainConfig) GetStoreDriver() string {
	switch driver := strings.ToLower(c.get("STORE_DRIVER", StoreDriverFile)); driver {
	case StoreDriverSQLite:
		return driver
	default:
		return StoreDriverFile
	}
}

func (c mainConfig) GetStorePath() string {
	name := "auth.json"
	if c.GetStoreDriver() == StoreDriverSQLite {
		name = "auth.db"
	}
	return c.get("STORE_PATH", filepath.Join(c.GetDataFolder(), name))
}

// GetStorePassphrase seals the file store when set.
func (c mainConfig) GetStorePassphrase() string {
	return c.get("STORE_PASSPHRASE", "")
}
