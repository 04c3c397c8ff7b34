package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econstats/internal/catalog"
	"econstats/internal/config"
	"econstats/internal/handlers/api"
	"econstats/internal/metrics"
	"econstats/internal/plancatalog"
	"econstats/internal/registry"
	"econstats/internal/router"
	"econstats/internal/search"
)

func newServer(t *testing.T, rateLimit int) *Server {
	t.Helper()
	reg, err := registry.NewDefault()
	require.NoError(t, err)
	r := router.New(reg)

	s := New(&config.Config{Env: "test", RateLimit: rateLimit, CORSOrigins: "http://localhost:5173"})
	s.RegisterRoutes(Handlers{
		Route:   api.NewRouteHandler(r),
		Search:  api.NewSearchHandler(search.New(r, nil), nil),
		Catalog: api.NewCatalogHandler(reg, plancatalog.Build(reg), catalog.Default()),
		Health:  api.NewHealthHandler("test", nil, nil, r.Cache()),
	})
	return s
}

func TestRoutesRegistered(t *testing.T) {
	metrics.Init()
	s := newServer(t, 100)

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/route?q=inflation", http.StatusOK},
		{http.MethodGet, "/api/catalog", http.StatusOK},
		{http.MethodGet, "/api/plan?q=inflation", http.StatusOK},
		{http.MethodGet, "/api/series/UNRATE", http.StatusOK},
		{http.MethodGet, "/api/nowhere", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			resp, err := s.App.Test(httptest.NewRequest(tt.method, tt.target, nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestErrorHandlerUsesEnvelope(t *testing.T) {
	s := newServer(t, 100)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "error", body["status"])
	assert.NotEmpty(t, body["error"])
}

func TestRateLimit(t *testing.T) {
	s := newServer(t, 2)

	var codes []int
	for i := 0; i < 3; i++ {
		resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/api/route?q=gdp", nil))
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Health probes bypass the limiter.
	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	s := newServer(t, 100)

	req := httptest.NewRequest(http.MethodOptions, "/api/search", strings.NewReader(""))
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := s.App.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}
