package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var envRefPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// loadFile reads a flat YAML mapping such as
//
//	api_base: https://rag.example.com
//	refresh_lead_time: 45s
//	store_passphrase: ${RAGADMIN_PASSPHRASE}
//
// Keys are matched case-insensitively against the environment variable names.
func loadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &raw); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("config key %q must be a scalar", k)
		case nil:
			continue
		}
		values[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return values, nil
}

// expandEnvVars replaces ${VAR} with the variable's value, or nothing when it is unset.
func expandEnvVars(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envRefPattern.FindStringSubmatch(match)[1])
	})
}
