package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jsamuelsen/quote-vault/internal/domain"
	"github.com/jsamuelsen/quote-vault/internal/ports"
)

// tokenLength is the length of issued page tokens.
const tokenLength = 16

// tokenAlphabet is the character set for page tokens.
const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// PageTokenStore implements ports.PageTokenStore on the shared database.
// Tokens are single use: redeeming one deletes it in the same statement.
type PageTokenStore struct {
	store *Store
}

var _ ports.PageTokenStore = (*PageTokenStore)(nil)

// Issue creates a token pointing at the given page number.
// Expired tokens are pruned opportunistically on each issue.
func (p *PageTokenStore) Issue(ctx context.Context, page int) (string, error) {
	if err := p.pruneExpired(ctx); err != nil {
		return "", err
	}

	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	_, err = p.store.db.ExecContext(ctx, `
		INSERT INTO page_tokens (token, page, created_at)
		VALUES (?, ?, ?)
	`, token, page, time.Now().UTC().Format(timestampLayout))
	if err != nil {
		return "", fmt.Errorf("inserting page token: %w", err)
	}

	return token, nil
}

// Redeem resolves a token to its page number and invalidates it.
func (p *PageTokenStore) Redeem(ctx context.Context, token string) (int, error) {
	if err := p.pruneExpired(ctx); err != nil {
		return 0, err
	}

	var page int

	row := p.store.db.QueryRowContext(ctx, `
		DELETE FROM page_tokens WHERE token = ? RETURNING page
	`, token)

	if err := row.Scan(&page); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.NewNotFoundError("page token", token)
		}

		return 0, fmt.Errorf("redeeming page token: %w", err)
	}

	return page, nil
}

// Reset deletes all outstanding tokens.
func (p *PageTokenStore) Reset(ctx context.Context) error {
	if _, err := p.store.db.ExecContext(ctx, "DELETE FROM page_tokens"); err != nil {
		return fmt.Errorf("resetting page tokens: %w", err)
	}

	return nil
}

// pruneExpired drops tokens older than the configured TTL.
func (p *PageTokenStore) pruneExpired(ctx context.Context) error {
	if p.store.tokenTTL <= 0 {
		return nil
	}

	cutoff := time.Now().UTC().Add(-p.store.tokenTTL).Format(timestampLayout)

	if _, err := p.store.db.ExecContext(ctx, "DELETE FROM page_tokens WHERE created_at < ?", cutoff); err != nil {
		return fmt.Errorf("pruning expired tokens: %w", err)
	}

	return nil
}

// newToken returns a random alphanumeric token. Bytes at or above the largest
// multiple of the alphabet size are rejected so every character is equally
// likely.
func newToken() (string, error) {
	const limit = byte(len(tokenAlphabet) * (256 / len(tokenAlphabet)))

	token := make([]byte, 0, tokenLength)
	buf := make([]byte, tokenLength)

	for len(token) < tokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}

		for _, b := range buf {
			if b >= limit {
				continue
			}

			token = append(token, tokenAlphabet[int(b)%len(tokenAlphabet)])

			if len(token) == tokenLength {
				break
			}
		}
	}

	return string(token), nil
}
