// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrConflict, etc.)
//   - Keep interfaces small and focused (Interface Segregation Principle)
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-vault/internal/domain"
)

// QuoteRepository is the persistence port for quote records.
type QuoteRepository interface {
	// Create persists a new quote.
	// Returns domain.ErrConflict if the id already exists.
	Create(ctx context.Context, quote *domain.Quote) error

	// Get retrieves a quote by id.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Quote, error)

	// Update replaces author and text of an existing quote and increments
	// its version in the same statement. Returns the updated record, or
	// domain.ErrNotFound if the id does not exist.
	Update(ctx context.Context, id string, draft domain.Draft) (*domain.Quote, error)

	// Delete removes a quote and returns the removed record.
	// Returns domain.ErrNotFound if the id does not exist.
	Delete(ctx context.Context, id string) (*domain.Quote, error)

	// List returns up to limit quotes ordered by creation time (oldest
	// first, id as tie-breaker), skipping offset rows.
	List(ctx context.Context, limit, offset int) ([]*domain.Quote, error)

	// Count returns the total number of stored quotes.
	Count(ctx context.Context) (int, error)

	// Reset deletes all quotes.
	Reset(ctx context.Context) error
}

// PageTokenStore issues and redeems the single-use tokens that drive
// list pagination. Tokens are opaque to callers.
type PageTokenStore interface {
	// Issue creates a token pointing at the given 1-based page number.
	Issue(ctx context.Context, page int) (string, error)

	// Redeem resolves a token to its page number and invalidates it.
	// Returns domain.ErrNotFound for unknown, expired, or already
	// redeemed tokens.
	Redeem(ctx context.Context, token string) (int, error)

	// Reset deletes all outstanding tokens.
	Reset(ctx context.Context) error
}

// QuoteSource fetches quotations from an external provider.
// Used by the import use case; implementations live behind an ACL adapter.
type QuoteSource interface {
	// FetchRandom retrieves one quotation from the provider.
	// Returns domain.ErrUnavailable if the provider is unreachable.
	FetchRandom(ctx context.Context) (domain.Draft, error)
}
