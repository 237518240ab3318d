package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-vault/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-vault/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-vault/internal/app"
	"github.com/jsamuelsen/quote-vault/internal/domain"
	"github.com/jsamuelsen/quote-vault/internal/platform/config"
	"github.com/jsamuelsen/quote-vault/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memRepo is an in-memory QuoteRepository for router-level tests.
type memRepo struct {
	quotes map[string]*domain.Quote
	order  []string
}

func newMemRepo() *memRepo {
	return &memRepo{quotes: make(map[string]*domain.Quote)}
}

func (r *memRepo) Create(_ context.Context, quote *domain.Quote) error {
	if _, ok := r.quotes[quote.ID]; ok {
		return domain.NewConflictError("quote", quote.ID)
	}

	stored := *quote
	stored.CreatedAt = time.Now().UTC()
	stored.Version = 1
	r.quotes[quote.ID] = &stored
	r.order = append(r.order, quote.ID)
	*quote = stored

	return nil
}

func (r *memRepo) Get(_ context.Context, id string) (*domain.Quote, error) {
	quote, ok := r.quotes[id]
	if !ok {
		return nil, domain.NewNotFoundError("quote", id)
	}

	copied := *quote

	return &copied, nil
}

func (r *memRepo) Update(_ context.Context, id string, draft domain.Draft) (*domain.Quote, error) {
	quote, ok := r.quotes[id]
	if !ok {
		return nil, domain.NewNotFoundError("quote", id)
	}

	quote.Author = draft.Author
	quote.Text = draft.Text
	quote.Version++
	copied := *quote

	return &copied, nil
}

func (r *memRepo) Delete(_ context.Context, id string) (*domain.Quote, error) {
	quote, ok := r.quotes[id]
	if !ok {
		return nil, domain.NewNotFoundError("quote", id)
	}

	delete(r.quotes, id)

	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return quote, nil
}

func (r *memRepo) List(_ context.Context, limit, offset int) ([]*domain.Quote, error) {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	sort.SliceStable(ids, func(i, j int) bool {
		return r.quotes[ids[i]].CreatedAt.Before(r.quotes[ids[j]].CreatedAt)
	})

	var out []*domain.Quote

	for i := offset; i < len(ids) && len(out) < limit; i++ {
		copied := *r.quotes[ids[i]]
		out = append(out, &copied)
	}

	return out, nil
}

func (r *memRepo) Count(_ context.Context) (int, error) {
	return len(r.quotes), nil
}

func (r *memRepo) Reset(_ context.Context) error {
	r.quotes = make(map[string]*domain.Quote)
	r.order = nil

	return nil
}

// memTokens is an in-memory single-use PageTokenStore.
type memTokens struct {
	pages map[string]int
	next  int
}

func newMemTokens() *memTokens {
	return &memTokens{pages: make(map[string]int)}
}

func (s *memTokens) Issue(_ context.Context, page int) (string, error) {
	s.next++
	token := strings.Repeat("t", 15) + string(rune('a'+s.next%26))
	s.pages[token] = page

	return token, nil
}

func (s *memTokens) Redeem(_ context.Context, token string) (int, error) {
	page, ok := s.pages[token]
	if !ok {
		return 0, domain.NewNotFoundError("token", token)
	}

	delete(s.pages, token)

	return page, nil
}

func (s *memTokens) Reset(_ context.Context) error {
	s.pages = make(map[string]int)

	return nil
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		IdleTimeout:     30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MaxRequestSize:  1 << 20,
	}
}

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		SubjectHeader: "X-User-ID",
		RolesHeader:   "X-User-Roles",
		ScopesHeader:  "X-User-Scopes",
	}
}

// newTestRouterConfig wires a full router config backed by in-memory stores.
func newTestRouterConfig(t *testing.T) (RouterConfig, *memRepo) {
	t.Helper()

	repo := newMemRepo()
	service := app.NewQuoteService(app.QuoteServiceConfig{
		Repo:   repo,
		Tokens: newMemTokens(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	cfg := NewDefaultRouterConfig(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		&config.AppConfig{Name: "quote-vault", Version: "test", Environment: "local"},
		testAuthConfig(),
		handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.BuildInfo{Version: "test"}),
		handlers.NewQuoteHandler(service),
	)

	return cfg, repo
}

func TestNew(t *testing.T) {
	cfg := testServerConfig()
	cfg.Port = 8080

	srv := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NotNil(t, srv)
	assert.NotNil(t, srv.Engine())
	assert.Equal(t, cfg, srv.Config())
	assert.Equal(t, "127.0.0.1:8080", srv.Addr())
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv := New(testServerConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	errCh := srv.Start()

	// Give the listener a moment to come up, then stop it.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))

	// The error channel closes without an error on clean shutdown.
	err, ok := <-errCh
	if ok {
		require.NoError(t, err)
	}
}

func TestServer_MaxBodySize(t *testing.T) {
	cfg := testServerConfig()
	cfg.MaxRequestSize = 64

	srv := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv.Engine().POST("/test", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": len(body)})
	})

	t.Run("body under limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("small"))
		srv.Engine().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("body over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("x", 256)))
		srv.Engine().ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestSetupRouter_RegistersRoutes(t *testing.T) {
	cfg, _ := newTestRouterConfig(t)

	engine := gin.New()
	SetupRouter(engine, cfg)

	routeMap := make(map[string]bool)
	for _, r := range engine.Routes() {
		routeMap[r.Method+" "+r.Path] = true
	}

	expected := []string{
		"GET /-/live",
		"GET /-/ready",
		"GET /-/build",
		"GET /-/metrics",
		"POST /api/v1/quotes",
		"GET /api/v1/quotes",
		"GET /api/v1/quotes/:id",
		"PUT /api/v1/quotes/:id",
		"DELETE /api/v1/quotes/:id",
		"POST /api/v1/quotes/import",
		"POST /api/v1/admin/reset",
	}

	for _, route := range expected {
		assert.True(t, routeMap[route], "missing route: %s", route)
	}
}

func TestSetupRouter_QuoteFlow(t *testing.T) {
	cfg, repo := newTestRouterConfig(t)

	engine := gin.New()
	SetupRouter(engine, cfg)

	body := `{"author":"Marcus Aurelius","quote":"You have power over your mind."}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Len(t, repo.quotes, 1)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/quotes/"+created.ID, nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Marcus Aurelius")
}

func TestSetupRouter_AdminRequiresRole(t *testing.T) {
	cfg, repo := newTestRouterConfig(t)

	engine := gin.New()
	SetupRouter(engine, cfg)

	seed := &domain.Quote{ID: "seed", Author: "Seneca", Text: "Luck is preparation meeting opportunity."}
	require.NoError(t, repo.Create(context.Background(), seed))

	t.Run("anonymous request is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reset", nil)
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrorCodeForbidden)
		assert.Len(t, repo.quotes, 1)
	})

	t.Run("authenticated without admin role is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reset", nil)
		req.Header.Set("X-User-ID", "user-1")
		req.Header.Set("X-User-Roles", "reader")
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Len(t, repo.quotes, 1)
	})

	t.Run("admin role resets the store", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reset", nil)
		req.Header.Set("X-User-ID", "admin-1")
		req.Header.Set("X-User-Roles", "admin")
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, repo.quotes)
	})
}

func TestSetupRouter_NilHandlers(t *testing.T) {
	cfg, _ := newTestRouterConfig(t)
	cfg.HealthHandler = nil
	cfg.QuoteHandler = nil

	engine := gin.New()

	assert.NotPanics(t, func() {
		SetupRouter(engine, cfg)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/-/live", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetupMinimalRouter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	healthHandler := handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.BuildInfo{})

	engine := gin.New()
	SetupMinimalRouter(engine, logger, healthHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/-/live", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// No API routes in the minimal router.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewDefaultRouterConfig(t *testing.T) {
	cfg, _ := newTestRouterConfig(t)

	assert.Equal(t, DefaultRequestTimeout, cfg.Timeout)
	assert.NotNil(t, cfg.Logger)
	assert.NotNil(t, cfg.AuthConfig)
	assert.NotNil(t, cfg.AppConfig)
	assert.NotNil(t, cfg.HealthHandler)
	assert.NotNil(t, cfg.QuoteHandler)
}
