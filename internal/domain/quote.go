// Package domain contains core business entities and rules.
package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Limits for quote fields, in runes, enforced before anything reaches
// storage. The HTTP layer's validator counts runes for strings, so both
// layers agree on multibyte input.
const (
	MaxAuthorLength = 256
	MaxTextLength   = 4096
)

// Quote is a stored quotation. It is the single entity this service owns.
type Quote struct {
	// ID is the unique identifier (UUID v4), assigned on creation.
	ID string

	// Author is who said or wrote the quote.
	Author string

	// Text is the quote itself.
	Text string

	// CreatedAt is when the quote was first stored, in UTC.
	CreatedAt time.Time

	// Version starts at 1 and increments on every update.
	Version int
}

// Draft is the author/text pair used to create or revise a quote.
type Draft struct {
	Author string
	Text   string
}

// Validate checks the draft against business rules.
// Returns a ValidationError describing the first failing field.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Author) == "" {
		return NewValidationError("author", "must not be empty")
	}

	if utf8.RuneCountInString(d.Author) > MaxAuthorLength {
		return NewValidationError("author", "exceeds maximum length")
	}

	if strings.TrimSpace(d.Text) == "" {
		return NewValidationError("quote", "must not be empty")
	}

	if utf8.RuneCountInString(d.Text) > MaxTextLength {
		return NewValidationError("quote", "exceeds maximum length")
	}

	return nil
}

// QuotePage is one page of a listing, ordered by creation time.
type QuotePage struct {
	// Quotes holds the page contents, oldest first.
	Quotes []*Quote

	// Page is the 1-based page number.
	Page int

	// NextToken is the single-use token for the following page.
	// Empty when this is the last page.
	NextToken string
}
