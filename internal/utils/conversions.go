package utils

import "strings"

// ToStringSlice keeps the non-blank strings of a decoded JSON array, dropping other types.
func ToStringSlice(slice []any) []string {
	var out []string
	for _, v := range slice {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
