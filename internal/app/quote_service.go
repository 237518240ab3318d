// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture - it coordinates
// domain logic and infrastructure through ports.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-vault/internal/domain"
	"github.com/jsamuelsen/quote-vault/internal/ports"
)

// DefaultPageSize is the number of quotes per list page unless configured.
const DefaultPageSize = 3

// flagQuoteImport gates the import use case. Enabled by default.
const flagQuoteImport = "quote-import"

// flagListPageSize overrides the configured page size at runtime.
const flagListPageSize = "list-page-size"

// QuoteService orchestrates quote use cases. It depends on port interfaces,
// not concrete implementations.
type QuoteService struct {
	repo     ports.QuoteRepository
	tokens   ports.PageTokenStore
	source   ports.QuoteSource
	flags    ports.FeatureFlags
	pageSize int
	logger   *slog.Logger
}

// QuoteServiceConfig contains dependencies for the quote service.
// Repo and Tokens are required; Source and Flags are optional.
type QuoteServiceConfig struct {
	Repo     ports.QuoteRepository
	Tokens   ports.PageTokenStore
	Source   ports.QuoteSource
	Flags    ports.FeatureFlags
	PageSize int
	Logger   *slog.Logger
}

// NewQuoteService creates a new quote service with the provided dependencies.
// Panics if Repo or Tokens is nil.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Repo == nil {
		panic("QuoteService: Repo is required")
	}

	if cfg.Tokens == nil {
		panic("QuoteService: Tokens is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &QuoteService{
		repo:     cfg.Repo,
		tokens:   cfg.Tokens,
		source:   cfg.Source,
		flags:    cfg.Flags,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Draft validates and stores a new quote.
func (s *QuoteService) Draft(ctx context.Context, draft domain.Draft) (*domain.Quote, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	quote := &domain.Quote{
		ID:     uuid.New().String(),
		Author: draft.Author,
		Text:   draft.Text,
	}

	if err := s.repo.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("creating quote: %w", err)
	}

	s.logger.InfoContext(ctx, "quote drafted",
		slog.String("quote_id", quote.ID),
		slog.String("author", quote.Author),
	)

	return quote, nil
}

// Cite retrieves a quote by its identifier.
func (s *QuoteService) Cite(ctx context.Context, id string) (*domain.Quote, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting quote: %w", err)
	}

	return quote, nil
}

// Revise replaces a quote's author and text and bumps its version.
func (s *QuoteService) Revise(ctx context.Context, id string, draft domain.Draft) (*domain.Quote, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	quote, err := s.repo.Update(ctx, id, draft)
	if err != nil {
		return nil, fmt.Errorf("updating quote: %w", err)
	}

	s.logger.InfoContext(ctx, "quote revised",
		slog.String("quote_id", quote.ID),
		slog.Int("version", quote.Version),
	)

	return quote, nil
}

// Remove deletes a quote and returns the removed record.
func (s *QuoteService) Remove(ctx context.Context, id string) (*domain.Quote, error) {
	quote, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("deleting quote: %w", err)
	}

	s.logger.InfoContext(ctx, "quote removed", slog.String("quote_id", quote.ID))

	return quote, nil
}

// List returns one page of quotes plus the total count, oldest first.
// An empty token means the first page; otherwise the token is redeemed
// (single use) to resolve the page number. Unknown or reused tokens fail
// validation.
func (s *QuoteService) List(ctx context.Context, token string) (*domain.QuotePage, int, error) {
	page := 1

	if token != "" {
		resolved, err := s.tokens.Redeem(ctx, token)
		if err != nil {
			if domain.IsNotFound(err) {
				return nil, 0, domain.NewValidationError("token", "invalid or already used")
			}

			return nil, 0, fmt.Errorf("redeeming page token: %w", err)
		}

		page = resolved
	}

	pageSize := s.pageSize
	if s.flags != nil {
		pageSize = s.flags.GetInt(ctx, flagListPageSize, pageSize)
	}

	offset := (page - 1) * pageSize

	// Fetch one row beyond the page to detect whether more pages exist,
	// and the total count alongside it.
	quotes, total, err := Parallel2(ctx,
		func(ctx context.Context) ([]*domain.Quote, error) {
			return s.repo.List(ctx, pageSize+1, offset)
		},
		func(ctx context.Context) (int, error) {
			return s.repo.Count(ctx)
		},
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing quotes: %w", err)
	}

	result := &domain.QuotePage{
		Quotes: quotes,
		Page:   page,
	}

	if len(quotes) > pageSize {
		result.Quotes = quotes[:pageSize]

		next, err := s.tokens.Issue(ctx, page+1)
		if err != nil {
			return nil, 0, fmt.Errorf("issuing page token: %w", err)
		}

		result.NextToken = next
	}

	return result, total, nil
}

// Import fetches one quotation from the external source and stores it.
// The operation runs through the transactional pattern: the fetched draft is
// verified against domain rules before anything is persisted.
func (s *QuoteService) Import(ctx context.Context) (*domain.Quote, error) {
	if s.source == nil {
		return nil, domain.NewUnavailableError("quote source", "not configured")
	}

	op := Operation[struct{}, domain.Draft, *domain.Quote]{
		Name: "import-quote",
		Validate: func(ctx context.Context, _ struct{}) error {
			if s.flags != nil && !s.flags.IsEnabled(ctx, flagQuoteImport, true) {
				return domain.NewForbiddenError("import", "disabled by feature flag")
			}

			return nil
		},
		Perform: func(ctx context.Context, _ struct{}) (domain.Draft, error) {
			return s.source.FetchRandom(ctx)
		},
		Verify: func(_ context.Context, _ struct{}, draft domain.Draft) (*domain.Quote, error) {
			if err := draft.Validate(); err != nil {
				return nil, fmt.Errorf("source returned invalid draft: %w", err)
			}

			return &domain.Quote{
				ID:     uuid.New().String(),
				Author: draft.Author,
				Text:   draft.Text,
			}, nil
		},
		Archive: func(ctx context.Context, quote *domain.Quote) error {
			return s.repo.Create(ctx, quote)
		},
	}

	quote, err := Execute(ctx, op, struct{}{})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "quote imported",
		slog.String("quote_id", quote.ID),
		slog.String("author", quote.Author),
	)

	return quote, nil
}

// Reset deletes all quotes and invalidates all outstanding page tokens.
func (s *QuoteService) Reset(ctx context.Context) error {
	if err := s.repo.Reset(ctx); err != nil {
		return fmt.Errorf("resetting quotes: %w", err)
	}

	if err := s.tokens.Reset(ctx); err != nil {
		return fmt.Errorf("resetting page tokens: %w", err)
	}

	s.logger.WarnContext(ctx, "quote store reset")

	return nil
}
