package dto

// Token pagination: list responses carry an opaque single-use token that
// the server issued for the next page. Clients pass it back verbatim via
// the "token" query parameter; a consumed or unknown token is rejected.

// ListQuotesRequest represents the query parameters for listing quotes.
type ListQuotesRequest struct {
	// Token is an opaque page token from a previous response.
	// Empty requests the first page.
	Token string `form:"token"`
}

// PaginatedResponse is a generic token-paginated response structure.
type PaginatedResponse[T any] struct {
	// Quotes is the array of items for this page.
	Quotes []T `json:"quotes"`

	// Page is the 1-based page number this response covers.
	Page int `json:"page"`

	// Total is the total number of items across all pages.
	Total int `json:"total"`

	// NextToken is the single-use token for the next page.
	// Absent on the last page.
	NextToken string `json:"next_token,omitempty"`
}

// NewPaginatedResponse creates a paginated response. An empty nextToken
// marks the final page.
func NewPaginatedResponse[T any](items []T, page, total int, nextToken string) *PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}

	return &PaginatedResponse[T]{
		Quotes:    items,
		Page:      page,
		Total:     total,
		NextToken: nextToken,
	}
}
