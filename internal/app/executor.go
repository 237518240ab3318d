package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quote-vault/internal/platform/logging"
)

// Transactional Service Pattern: Validate → Perform → Verify → Archive
//
// Operations that touch an external dependency before persisting state run
// through this pattern so a downstream failure can never leave half-written
// state behind: nothing is archived until the performed result is verified.

// ExecutionStep identifies the step where an operation failed.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
)

// ExecutionError wraps errors with the step where they occurred.
type ExecutionError struct {
	Step  ExecutionStep
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Operation defines the functions for each step. Nil steps are skipped.
type Operation[I, P, O any] struct {
	// Name identifies this operation for logging.
	Name string

	// Validate checks inputs and preconditions before any state changes.
	Validate func(ctx context.Context, input I) error

	// Perform executes the main operation, e.g. an external call.
	Perform func(ctx context.Context, input I) (P, error)

	// Verify confirms the performed result and shapes the final output.
	// Never trust Perform's return value - always verify independently.
	Verify func(ctx context.Context, input I, performed P) (O, error)

	// Archive persists the verified output. Only called after Verify.
	Archive func(ctx context.Context, output O) error
}

// Execute runs an operation through the full transactional pattern.
// Step failures are wrapped in ExecutionError; the cause stays reachable
// through errors.Is/As so domain errors map correctly at the boundary.
func Execute[I, P, O any](ctx context.Context, op Operation[I, P, O], input I) (O, error) {
	var zero O

	logger := logging.FromContext(ctx).With(slog.String("operation", op.Name))
	start := time.Now()

	if op.Validate != nil {
		if err := op.Validate(ctx, input); err != nil {
			logger.WarnContext(ctx, "validation failed", slog.Any("error", err))

			return zero, &ExecutionError{Step: StepValidate, Cause: err}
		}
	}

	var (
		performed P
		err       error
	)

	if op.Perform != nil {
		performed, err = op.Perform(ctx, input)
		if err != nil {
			logger.ErrorContext(ctx, "perform failed", slog.Any("error", err))

			return zero, &ExecutionError{Step: StepPerform, Cause: err}
		}
	}

	var output O

	if op.Verify != nil {
		output, err = op.Verify(ctx, input, performed)
		if err != nil {
			logger.ErrorContext(ctx, "verification failed", slog.Any("error", err))

			return zero, &ExecutionError{Step: StepVerify, Cause: err}
		}
	}

	if op.Archive != nil {
		if err := op.Archive(ctx, output); err != nil {
			logger.ErrorContext(ctx, "archive failed", slog.Any("error", err))

			return zero, &ExecutionError{Step: StepArchive, Cause: err}
		}
	}

	logger.InfoContext(ctx, "operation completed",
		slog.Duration("duration", time.Since(start)),
	)

	return output, nil
}

// GetExecutionStep extracts the step from an execution error.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
