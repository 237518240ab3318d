package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-vault/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-vault/internal/app"
	"github.com/jsamuelsen/quote-vault/internal/domain"
)

// QuoteHandler handles quote-related HTTP endpoints.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		service: service,
	}
}

// QuoteRequest is the HTTP request body for creating or updating a quote.
type QuoteRequest struct {
	Author string `json:"author" validate:"required,notempty,max=256"`
	Quote  string `json:"quote"  validate:"required,notempty,max=4096"`
}

// toDraft converts the request body to a domain draft.
func (r *QuoteRequest) toDraft() domain.Draft {
	return domain.Draft{
		Author: r.Author,
		Text:   r.Quote,
	}
}

// QuoteResponse is the HTTP response structure for a quote.
type QuoteResponse struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Quote     string    `json:"quote"`
	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`
}

// toQuoteResponse converts a domain Quote to an HTTP response.
func toQuoteResponse(q *domain.Quote) *QuoteResponse {
	return &QuoteResponse{
		ID:        q.ID,
		Author:    q.Author,
		Quote:     q.Text,
		CreatedAt: q.CreatedAt,
		Version:   q.Version,
	}
}

// DraftQuote handles POST /api/v1/quotes
// Stores a new quote and returns it with its assigned ID.
//
// @Summary Create a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param request body QuoteRequest true "Quote to store"
// @Success 201 {object} QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) DraftQuote(c *gin.Context) {
	var req QuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		respondBindingError(c, err)
		return
	}

	quote, err := h.service.Draft(c.Request.Context(), req.toDraft())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toQuoteResponse(quote))
}

// CiteQuote handles GET /api/v1/quotes/:id
// Returns a specific quote by its identifier.
//
// @Summary Get a quote by ID
// @Tags quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/{id} [get]
func (h *QuoteHandler) CiteQuote(c *gin.Context) {
	quote, err := h.service.Cite(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// ReviseQuote handles PUT /api/v1/quotes/:id
// Replaces the quote's author and text and bumps its version.
//
// @Summary Update a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body QuoteRequest true "Replacement content"
// @Success 200 {object} QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/{id} [put]
func (h *QuoteHandler) ReviseQuote(c *gin.Context) {
	var req QuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		respondBindingError(c, err)
		return
	}

	quote, err := h.service.Revise(c.Request.Context(), c.Param("id"), req.toDraft())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// RemoveQuote handles DELETE /api/v1/quotes/:id
// Deletes a quote and returns the removed record.
//
// @Summary Delete a quote
// @Tags quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/{id} [delete]
func (h *QuoteHandler) RemoveQuote(c *gin.Context) {
	quote, err := h.service.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// ListQuotes handles GET /api/v1/quotes
// Returns one page of quotes, oldest first, with a single-use token for
// the next page. Passing a consumed or unknown token yields 400.
//
// @Summary List quotes
// @Tags quotes
// @Produce json
// @Param token query string false "Page token from a previous response"
// @Success 200 {object} dto.PaginatedResponse[QuoteResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		respondBindingError(c, err)
		return
	}

	page, total, err := h.service.List(c.Request.Context(), req.Token)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	quotes := make([]*QuoteResponse, 0, len(page.Quotes))
	for _, q := range page.Quotes {
		quotes = append(quotes, toQuoteResponse(q))
	}

	c.JSON(http.StatusOK, dto.NewPaginatedResponse(quotes, page.Page, total, page.NextToken))
}

// ImportQuote handles POST /api/v1/quotes/import
// Fetches one quotation from the external source and stores it.
//
// @Summary Import a quote from the external source
// @Tags quotes
// @Produce json
// @Success 201 {object} QuoteResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/quotes/import [post]
func (h *QuoteHandler) ImportQuote(c *gin.Context) {
	quote, err := h.service.Import(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toQuoteResponse(quote))
}

// ResetStore handles POST /api/v1/admin/reset
// Deletes all quotes and invalidates outstanding page tokens.
// Restricted to admin callers by route middleware.
//
// @Summary Reset the quote store
// @Tags admin
// @Success 204
// @Router /api/v1/admin/reset [post]
func (h *QuoteHandler) ResetStore(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context()); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.POST("", h.DraftQuote)
	quotes.GET("", h.ListQuotes)
	quotes.POST("/import", h.ImportQuote)
	quotes.GET("/:id", h.CiteQuote)
	quotes.PUT("/:id", h.ReviseQuote)
	quotes.DELETE("/:id", h.RemoveQuote)
}

// respondBindingError writes a 400 for binding failures and a field-level
// detail map for validation failures.
func respondBindingError(c *gin.Context, err error) {
	if dto.IsValidationError(err) {
		dto.HandleValidationErrors(c, dto.ValidationErrors(err))
		return
	}

	dto.HandleErrorCode(c, dto.ErrorCodeBadRequest, "invalid request body")
}
