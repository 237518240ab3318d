// Package quotable is an anti-corruption layer for the quotable.io API.
// It translates the external API's responses and failures into domain
// types so nothing upstream ever sees a quotable DTO or raw HTTP status.
package quotable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jsamuelsen/quote-vault/internal/adapters/clients"
	"github.com/jsamuelsen/quote-vault/internal/domain"
	"github.com/jsamuelsen/quote-vault/internal/platform/logging"
)

// serviceName identifies quotable.io in errors, logs, and health reports.
const serviceName = "quotable"

// SourceConfig contains dependencies for the quotable source.
type SourceConfig struct {
	// Client is the HTTP client to use. Its BaseURL must point at the
	// quotable API root (e.g. "https://api.quotable.io").
	Client *clients.Client

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// Source fetches quotations from quotable.io.
// Implements ports.QuoteSource and ports.HealthChecker.
type Source struct {
	client *clients.Client
	logger *slog.Logger
}

// NewSource creates a quotable source adapter. Panics if Client is nil.
func NewSource(cfg SourceConfig) *Source {
	if cfg.Client == nil {
		panic("quotable.Source: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Source{
		client: cfg.Client,
		logger: logger,
	}
}

// randomResponse is the external DTO returned by GET /random.
// Never exposed outside this package.
type randomResponse struct {
	ID      string   `json:"_id"`
	Content string   `json:"content"`
	Author  string   `json:"author"`
	Tags    []string `json:"tags"`
}

// FetchRandom retrieves one random quotation and translates it to a draft.
// Implements ports.QuoteSource.
func (s *Source) FetchRandom(ctx context.Context) (domain.Draft, error) {
	const path = "/random"

	s.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", path))

	resp, err := s.client.Get(ctx, path)
	if err != nil {
		return domain.Draft{}, mapClientError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	s.logger.Log(ctx, logging.LevelTrace, "request complete",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		s.logger.WarnContext(ctx, "quotable API error", slog.Int("status_code", resp.StatusCode))

		return domain.Draft{}, mapStatusCode(resp.StatusCode)
	}

	var external randomResponse
	if err := json.NewDecoder(resp.Body).Decode(&external); err != nil {
		return domain.Draft{}, domain.NewUnavailableError(serviceName,
			fmt.Sprintf("decoding response: %v", err))
	}

	draft := domain.Draft{
		Author: external.Author,
		Text:   external.Content,
	}

	s.logger.DebugContext(ctx, "fetched external quote",
		slog.String("external_id", external.ID),
		slog.String("author", draft.Author))

	return draft, nil
}

// Name returns the health check name for this source.
// Implements ports.HealthChecker.
func (s *Source) Name() string {
	return serviceName
}

// Check verifies connectivity by requesting a random quote.
// Implements ports.HealthChecker.
func (s *Source) Check(ctx context.Context) error {
	resp, err := s.client.Get(ctx, "/random")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("quotable API returned status %d", resp.StatusCode)
	}

	return nil
}

// mapClientError translates transport-level failures to domain errors.
func mapClientError(err error) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(serviceName, "circuit breaker open")
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(serviceName, "max retries exceeded")
	default:
		return domain.NewUnavailableError(serviceName, err.Error())
	}
}

// mapStatusCode translates non-200 responses to domain errors.
func mapStatusCode(status int) error {
	switch status {
	case http.StatusNotFound:
		return domain.NewNotFoundError(serviceName, "random")
	case http.StatusTooManyRequests:
		return domain.NewUnavailableError(serviceName, "rate limit exceeded")
	default:
		return domain.NewUnavailableError(serviceName, fmt.Sprintf("unexpected HTTP %d", status))
	}
}
