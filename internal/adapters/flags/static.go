// Package flags provides a configuration-backed feature flag adapter.
// Flags are loaded once at startup from the service configuration; a
// hosted provider can replace this adapter without touching callers
// because everything goes through the ports.FeatureFlags interface.
package flags

import (
	"context"
	"strconv"
)

// Static evaluates feature flags from a fixed map of string values.
// Implements ports.FeatureFlags.
type Static struct {
	values map[string]string
}

// NewStatic creates a static flag provider from the given values.
// A nil map is valid and yields defaults for every lookup.
func NewStatic(values map[string]string) *Static {
	return &Static{values: values}
}

// IsEnabled checks if a boolean feature flag is enabled.
// Returns defaultValue if the flag is absent or not parseable as a bool.
func (s *Static) IsEnabled(_ context.Context, flag string, defaultValue bool) bool {
	raw, ok := s.values[flag]
	if !ok {
		return defaultValue
	}

	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}

	return enabled
}

// GetString retrieves a string feature flag value.
func (s *Static) GetString(_ context.Context, flag string, defaultValue string) string {
	raw, ok := s.values[flag]
	if !ok {
		return defaultValue
	}

	return raw
}

// GetInt retrieves an integer feature flag value.
// Returns defaultValue if the flag is absent or not parseable as an int.
func (s *Static) GetInt(_ context.Context, flag string, defaultValue int) int {
	raw, ok := s.values[flag]
	if !ok {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}

	return value
}
