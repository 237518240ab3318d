package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jsamuelsen/quote-vault/internal/domain"
	"github.com/jsamuelsen/quote-vault/internal/ports"
)

// timestampLayout is a fixed-width RFC 3339 form. RFC3339Nano trims trailing
// fractional zeros, which breaks lexicographic ordering of the stored text:
// "...:05Z" would sort after "...:05.5Z".
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// QuoteStore implements ports.QuoteRepository.
type QuoteStore struct {
	store *Store
}

var _ ports.QuoteRepository = (*QuoteStore)(nil)

// Create persists a new quote. The caller supplies the id; CreatedAt and
// Version are filled in if zero.
func (q *QuoteStore) Create(ctx context.Context, quote *domain.Quote) error {
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = time.Now().UTC()
	}

	if quote.Version == 0 {
		quote.Version = 1
	}

	_, err := q.store.db.ExecContext(ctx, `
		INSERT INTO quotes (id, author, quote, created_at, version)
		VALUES (?, ?, ?, ?, ?)
	`, quote.ID, quote.Author, quote.Text, quote.CreatedAt.Format(timestampLayout), quote.Version)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("quote", "id already exists")
		}

		return fmt.Errorf("inserting quote: %w", err)
	}

	return nil
}

// Get retrieves a quote by id.
func (q *QuoteStore) Get(ctx context.Context, id string) (*domain.Quote, error) {
	row := q.store.db.QueryRowContext(ctx, `
		SELECT id, author, quote, created_at, version
		FROM quotes WHERE id = ?
	`, id)

	quote, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("quote", id)
		}

		return nil, fmt.Errorf("scanning quote: %w", err)
	}

	return quote, nil
}

// Update replaces author and text and bumps the version in one statement.
func (q *QuoteStore) Update(ctx context.Context, id string, draft domain.Draft) (*domain.Quote, error) {
	row := q.store.db.QueryRowContext(ctx, `
		UPDATE quotes
		SET author = ?, quote = ?, version = version + 1
		WHERE id = ?
		RETURNING id, author, quote, created_at, version
	`, draft.Author, draft.Text, id)

	quote, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("quote", id)
		}

		return nil, fmt.Errorf("updating quote: %w", err)
	}

	return quote, nil
}

// Delete removes a quote and returns the removed record.
func (q *QuoteStore) Delete(ctx context.Context, id string) (*domain.Quote, error) {
	row := q.store.db.QueryRowContext(ctx, `
		DELETE FROM quotes
		WHERE id = ?
		RETURNING id, author, quote, created_at, version
	`, id)

	quote, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("quote", id)
		}

		return nil, fmt.Errorf("deleting quote: %w", err)
	}

	return quote, nil
}

// List returns up to limit quotes ordered by creation time, oldest first.
func (q *QuoteStore) List(ctx context.Context, limit, offset int) ([]*domain.Quote, error) {
	rows, err := q.store.db.QueryContext(ctx, `
		SELECT id, author, quote, created_at, version
		FROM quotes
		ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	quotes := make([]*domain.Quote, 0, limit)

	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning quote row: %w", err)
		}

		quotes = append(quotes, quote)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating quote rows: %w", err)
	}

	return quotes, nil
}

// Count returns the total number of stored quotes.
func (q *QuoteStore) Count(ctx context.Context) (int, error) {
	var count int

	row := q.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM quotes")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting quotes: %w", err)
	}

	return count, nil
}

// Reset deletes all quotes.
func (q *QuoteStore) Reset(ctx context.Context) error {
	if _, err := q.store.db.ExecContext(ctx, "DELETE FROM quotes"); err != nil {
		return fmt.Errorf("resetting quotes: %w", err)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(row scanner) (*domain.Quote, error) {
	var (
		quote     domain.Quote
		createdAt string
	)

	if err := row.Scan(&quote.ID, &quote.Author, &quote.Text, &createdAt, &quote.Version); err != nil {
		return nil, err
	}

	ts, err := parseTimestamp(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	quote.CreatedAt = ts

	return &quote, nil
}

// parseTimestamp accepts RFC 3339 values, with or without fractional digits,
// and the "YYYY-MM-DD HH:MM:SS" form SQLite produces for CURRENT_TIMESTAMP
// defaults. Rows written before the fixed-width layout still parse.
func parseTimestamp(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), nil
	}

	ts, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		return time.Time{}, err
	}

	return ts.UTC(), nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
