package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econstats/internal/catalog"
	"econstats/internal/llmrouter"
	"econstats/internal/plancatalog"
	"econstats/internal/registry"
	"econstats/internal/router"
	"econstats/internal/search"
	"econstats/internal/sources"
	"econstats/internal/testutil"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func newApp(t *testing.T, fetcher sources.Fetcher) *fiber.App {
	t.Helper()
	reg, err := registry.NewDefault()
	require.NoError(t, err)
	r := router.New(reg)

	app := fiber.New()
	routes := NewRouteHandler(r)
	app.Get("/api/route", routes.Route)
	app.Post("/api/route", routes.Route)

	app.Post("/api/search", NewSearchHandler(search.New(r, fetcher), nil).Search)

	cat := NewCatalogHandler(reg, plancatalog.Build(reg), catalog.Default())
	app.Get("/api/catalog", cat.List)
	app.Get("/api/plan", cat.Plan)
	app.Get("/api/series/:id", cat.Series)

	health := NewHealthHandler("test", map[string]bool{"primary_llm": false}, nil, r.Cache())
	app.Get("/healthz", health.Liveness)
	app.Get("/readyz", health.Readiness)
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func TestRouteGet(t *testing.T) {
	app := newApp(t, nil)

	status, env := do(t, app, http.MethodGet, "/api/route?q=fed+funds+rate", "")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", env.Status)
	var res struct {
		Series    []string `json:"series"`
		RouteType string   `json:"route_type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, []string{"FEDFUNDS"}, res.Series)
	assert.Equal(t, "exact", res.RouteType)
}

func TestRouteValidation(t *testing.T) {
	app := newApp(t, nil)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{name: "missing query", method: http.MethodGet, target: "/api/route", want: http.StatusBadRequest},
		{name: "blank query", method: http.MethodGet, target: "/api/route?q=%20%20", want: http.StatusBadRequest},
		{name: "bad json", method: http.MethodPost, target: "/api/route", body: "{", want: http.StatusBadRequest},
		{name: "too long", method: http.MethodPost, target: "/api/route", body: `{"query":"` + strings.Repeat("a", 600) + `"}`, want: http.StatusBadRequest},
		{name: "post ok", method: http.MethodPost, target: "/api/route", body: `{"query":"inflation"}`, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := do(t, app, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, status)
			if tt.want != http.StatusOK {
				assert.Equal(t, "error", env.Status)
				assert.NotEmpty(t, env.Error)
			}
		})
	}
}

func TestRecentTurns(t *testing.T) {
	var history []llmrouter.Turn
	for i := 0; i < llmrouter.MaxHistoryTurns+3; i++ {
		history = append(history, llmrouter.Turn{Query: string(rune('a' + i))})
	}

	got := recentTurns(history)

	require.Len(t, got, llmrouter.MaxHistoryTurns)
	assert.Equal(t, history[len(history)-1], got[len(got)-1])
	assert.Len(t, recentTurns(history[:2]), 2)
}

func TestSearchNoDataSource(t *testing.T) {
	app := newApp(t, nil)

	status, env := do(t, app, http.MethodPost, "/api/search", `{"query":"fed funds rate"}`)

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "error", env.Status)
}

func TestSearchNoMatchIsOK(t *testing.T) {
	app := newApp(t, nil)

	status, env := do(t, app, http.MethodPost, "/api/search", `{"query":"zzqx flibber"}`)

	assert.Equal(t, http.StatusOK, status)
	var resp search.Response
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, router.NoMatchExplanation, resp.Summary)
	assert.Empty(t, resp.Charts)
}

func TestSearchWithData(t *testing.T) {
	fetcher := testutil.NewFakeFetcher(testutil.Constant("FEDFUNDS", "Federal Funds Effective Rate", "Percent", 24, 4.33))
	app := newApp(t, fetcher)

	status, env := do(t, app, http.MethodPost, "/api/search", `{"query":"fed funds rate","years":5}`)

	require.Equal(t, http.StatusOK, status)
	var resp search.Response
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Charts, 1)
	assert.Equal(t, "FEDFUNDS", resp.Charts[0].Series[0].ID)
	assert.NotEmpty(t, resp.RequestID)
}

func TestSearchYearsBounds(t *testing.T) {
	app := newApp(t, nil)

	for _, body := range []string{`{"query":"gdp","years":-1}`, `{"query":"gdp","years":51}`} {
		status, _ := do(t, app, http.MethodPost, "/api/search", body)
		assert.Equal(t, http.StatusBadRequest, status, body)
	}
}

func TestCatalogList(t *testing.T) {
	app := newApp(t, nil)

	status, env := do(t, app, http.MethodGet, "/api/catalog", "")

	require.Equal(t, http.StatusOK, status)
	var body struct {
		Plans   int `json:"plans"`
		Series  int `json:"series"`
		Buckets []struct {
			Name string   `json:"name"`
			Keys []string `json:"keys"`
		} `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Positive(t, body.Plans)
	assert.Positive(t, body.Series)
	assert.NotEmpty(t, body.Buckets)
}

func TestCatalogPlanAndSeries(t *testing.T) {
	app := newApp(t, nil)

	status, env := do(t, app, http.MethodGet, "/api/plan?q=Fed+Funds+Rate", "")
	require.Equal(t, http.StatusOK, status)
	var plan struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &plan))
	assert.Equal(t, "fed funds rate", plan.Key)

	status, _ = do(t, app, http.MethodGet, "/api/plan?q=zzqx", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, env = do(t, app, http.MethodGet, "/api/series/fedfunds", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "FEDFUNDS")

	status, _ = do(t, app, http.MethodGet, "/api/series/NOPE123", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealth(t *testing.T) {
	app := newApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
		Caches []struct {
			Name string `json:"name"`
		} `json:"caches"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body.Status)
	require.Len(t, body.Caches, 1)
	assert.Equal(t, "routing", body.Caches[0].Name)
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name  string
		ready func() error
		want  int
	}{
		{name: "no check", want: http.StatusOK},
		{name: "ready", ready: func() error { return nil }, want: http.StatusOK},
		{name: "not ready", ready: func() error { return errors.New("no plans loaded") }, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/readyz", NewHealthHandler("test", nil, tt.ready).Readiness)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/readyz", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
