package ports

import (
	"context"
)

// FeatureFlags defines the contract for feature flag evaluation.
// This port allows the application to check feature enablement without
// knowing the underlying provider.
//
// Design principles:
//   - Always provide default values for graceful degradation
//   - Context parameter for request-scoped targeting
//   - Synchronous evaluation (async flag updates happen in adapter)
type FeatureFlags interface {
	// IsEnabled checks if a boolean feature flag is enabled.
	// Returns defaultValue if the flag doesn't exist or evaluation fails.
	IsEnabled(ctx context.Context, flag string, defaultValue bool) bool

	// GetString retrieves a string feature flag value.
	// Returns defaultValue if the flag doesn't exist or evaluation fails.
	GetString(ctx context.Context, flag string, defaultValue string) string

	// GetInt retrieves an integer feature flag value.
	// Returns defaultValue if the flag doesn't exist or evaluation fails.
	GetInt(ctx context.Context, flag string, defaultValue int) int
}
