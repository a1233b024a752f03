// Package util provides small helpers shared across components.
package util

import (
	"log/slog"
	"os"
	"strings"
)

// ParseBoolEnv reads a boolean environment variable, falling back to
// defaultValue when it is unset, blank, or unparseable.
// Truthy: true, t, 1, yes, y, on. Falsy: false, f, 0, no, n, off.
func ParseBoolEnv(key string, defaultValue bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return defaultValue
	case "true", "t", "1", "yes", "y", "on":
		return true
	case "false", "f", "0", "no", "n", "off":
		return false
	}
	slog.Warn("ignoring unparseable boolean environment value", "key", key, "value", raw, "default", defaultValue)
	return defaultValue
}
