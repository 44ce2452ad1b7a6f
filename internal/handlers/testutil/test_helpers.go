package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/api"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/app"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/cache"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/cacheaside"
	sharedtestutil "github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/database/testutil"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/middleware"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/monitoring"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/monitoring/checks"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/services"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/store"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T      *testing.T
	Config *app.Config
	Store  store.Store
	Cache  cache.Store
	Router *gin.Engine
}

// Option customises the environment before the router is built.
type Option func(*envOptions)

type envOptions struct {
	cache     cache.Store
	noCache   bool
	mutate    func(*app.Config)
	wrapStore func(store.Store) store.Store
}

// WithCache replaces the default memory cache.
func WithCache(c cache.Store) Option {
	return func(o *envOptions) { o.cache = c }
}

// WithoutCache runs the core in pass-through mode.
func WithoutCache() Option {
	return func(o *envOptions) { o.noCache = true }
}

// WithStore wraps the primary store seen by the services, for example to inject failures.
func WithStore(wrap func(store.Store) store.Store) Option {
	return func(o *envOptions) { o.wrapStore = wrap }
}

// WithConfig adjusts the configuration used to build the router.
func WithConfig(fn func(*app.Config)) Option {
	return func(o *envOptions) { o.mutate = fn }
}

// DefaultConfig mirrors the loader defaults relevant to the HTTP surface.
func DefaultConfig() *app.Config {
	return &app.Config{
		Server: app.ServerConfig{Port: 8080, Mode: app.ModeAll},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var o envOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := DefaultConfig()
	if o.mutate != nil {
		o.mutate(cfg)
	}

	gormStore, err := store.NewGormStore(sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate()))
	require.NoError(t, err)

	var st store.Store = gormStore
	if o.wrapStore != nil {
		st = o.wrapStore(st)
	}

	var c cache.Store
	switch {
	case o.noCache:
	case o.cache != nil:
		c = o.cache
	default:
		c = cache.NewMemoryStore()
	}

	core := cacheaside.Config{Store: st, Cache: c, Logger: zap.NewNop()}
	reader, err := cacheaside.NewReader(core)
	require.NoError(t, err)
	mutator, err := cacheaside.NewMutator(core)
	require.NoError(t, err)

	posts, err := services.NewPostService(st, reader, mutator)
	require.NoError(t, err)
	users, err := services.NewUserService(st, reader)
	require.NoError(t, err)

	health := monitoring.NewHealthManager()
	health.RegisterReadiness(checks.Store(st))
	health.RegisterReadiness(checks.Cache(c))

	router, err := api.NewRouter(api.Dependencies{
		Config:    cfg,
		Posts:     posts,
		Users:     users,
		Health:    health,
		RateStore: middleware.NewRateStore(c),
	})
	require.NoError(t, err)

	return &Env{T: t, Config: cfg, Store: st, Cache: c, Router: router}
}

// Request performs an HTTP request against the router. A non-nil body is sent as JSON.
func (e *Env) Request(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.T, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

// PostForm submits url-encoded form values the way HTML and servlet clients do.
func (e *Env) PostForm(path string, values url.Values) *httptest.ResponseRecorder {
	e.T.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

// CreateUser creates a user through the API and returns its id.
func (e *Env) CreateUser(username string) string {
	e.T.Helper()

	rec := e.Request(http.MethodPost, "/users", map[string]string{"username": username})
	require.Equal(e.T, http.StatusCreated, rec.Code, rec.Body.String())

	var payload struct {
		UserID string `json:"userId"`
	}
	require.NoError(e.T, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotEmpty(e.T, payload.UserID)
	return payload.UserID
}

// CreatePost creates a post through the API and returns its id.
func (e *Env) CreatePost(userID, title, content string) string {
	e.T.Helper()

	rec := e.Request(http.MethodPost, "/posts", map[string]string{
		"user_id": userID,
		"title":   title,
		"content": content,
	})
	require.Equal(e.T, http.StatusCreated, rec.Code, rec.Body.String())

	var payload struct {
		PostID string `json:"postId"`
	}
	require.NoError(e.T, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotEmpty(e.T, payload.PostID)
	return payload.PostID
}

// DecodeJSON unmarshals a response body into a generic map.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
