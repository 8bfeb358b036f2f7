//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"adminka/internal/api"
	"adminka/internal/auth"
	"adminka/internal/console"
	"adminka/internal/gateway"
	"adminka/internal/guard"
	adminhttp "adminka/internal/http"
	"adminka/internal/models"
	"adminka/internal/storage"
	"adminka/internal/ws"
	"adminka/static"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
)

// backend is an in-memory stand-in for the REST API.
type backend struct {
	mu         sync.Mutex
	nextID     int64
	categories []models.Category
	groups     map[string]string
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		group := b.groups[r.PathValue("id")]
		b.mu.Unlock()
		writeEnvelope(w, models.User{ID: r.PathValue("id"), Name: r.PathValue("id"), Group: &group})
	})
	mux.HandleFunc("GET /api/v1/categories", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeEnvelope(w, b.categories)
	})
	mux.HandleFunc("POST /api/v1/categories/{name}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.nextID++
		b.categories = append(b.categories, models.Category{ID: b.nextID, Name: r.PathValue("name"), Position: len(b.categories)})
		writeEnvelope(w, b.categories)
	})
	mux.HandleFunc("DELETE /api/v1/categories/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.categories = slices.DeleteFunc(b.categories, func(c models.Category) bool {
			return strconv.FormatInt(c.ID, 10) == r.PathValue("id")
		})
		writeEnvelope(w, b.categories)
	})
	mux.HandleFunc("GET /api/v1/channels/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, []models.Channel{})
	})
	return mux
}

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "success": true, "error": nil})
}

// identity sends the browser straight back to the console callback, signed
// in as whoever User names.
type identity struct {
	mu       sync.Mutex
	callback string
	user     string
}

func (i *identity) AuthCodeURL(state string) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.callback + "?code=" + url.QueryEscape(i.user) + "&state=" + url.QueryEscape(state)
}

func (i *identity) Identify(ctx context.Context, code string) (auth.Identity, error) {
	return auth.Identity{ProviderID: "p-" + code, Username: code}, nil
}

func (i *identity) As(user string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.user = user
}

type TestServer struct {
	BaseURL  string
	OpsURL   string
	Identity *identity
}

func startServer(t *testing.T) *TestServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := &backend{
		nextID:     1,
		categories: []models.Category{{ID: 1, Name: "math"}},
		groups:     map[string]string{"p-ann": models.StaffGroup, "p-bob": "student"},
	}
	backendSrv := httptest.NewServer(store.handler())
	t.Cleanup(backendSrv.Close)

	sessionsDB, err := storage.NewBboltStorage(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sessionsDB.Close() })

	idp := &identity{user: "ann"}
	provider, err := auth.NewProvider(ctx, auth.Config{Secret: "e2e-secret", TokenExpiry: time.Hour}, idp, sessionsDB)
	require.NoError(t, err)
	require.NoError(t, provider.Restore(ctx))

	client, err := gateway.New(gateway.Config{BaseURL: backendSrv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	renderer, err := api.NewRenderer(static.Content)
	require.NoError(t, err)

	hub := ws.NewHub()
	workspaces := console.NewWorkspaces(console.Config{Timeout: 5 * time.Second}, client, hub)
	handlers := api.New(provider, workspaces, renderer, false)
	pageGuard := guard.New(ctx, guard.Config{}, provider, client, guard.Pages{
		Loading:  handlers.LoadingPage,
		NoAccess: handlers.NoAccessPage,
	})
	unsubscribe := provider.Subscribe(func(e auth.Event) {
		pageGuard.Forget(e.Session.Identity.ProviderID)
		if e.Kind == auth.EventSignedOut {
			workspaces.Drop(e.Session.ID, e.Session.ExpiresAt)
		}
	})
	t.Cleanup(unsubscribe)

	consoleSrv := httptest.NewServer(adminhttp.NewConsoleServer(handlers, pageGuard, ws.NewServer(provider, hub), "").Handler())
	t.Cleanup(consoleSrv.Close)
	t.Cleanup(workspaces.Wait)
	idp.mu.Lock()
	idp.callback = consoleSrv.URL + "/auth/callback"
	idp.mu.Unlock()

	opsSrv := httptest.NewServer(adminhttp.NewOpsServer(api.NewAdminHandler(provider, sessionsDB), "").Handler())
	t.Cleanup(opsSrv.Close)

	return &TestServer{BaseURL: consoleSrv.URL, OpsURL: opsSrv.URL, Identity: idp}
}

func setupPlaywright(t *testing.T) (*playwright.Playwright, playwright.Browser) {
	pw, err := playwright.Run()
	require.NoError(t, err)

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	require.NoError(t, err)

	return pw, browser
}

func createBrowserContext(t *testing.T, browser playwright.Browser) playwright.BrowserContext {
	context, err := browser.NewContext()
	require.NoError(t, err)
	t.Cleanup(func() { _ = context.Close() })
	return context
}

// signIn opens path, follows the login page through the identity provider
// and waits until the console shows path again.
func signIn(t *testing.T, page playwright.Page, s *TestServer, user, path string) {
	t.Helper()
	s.Identity.As(user)

	_, err := page.Goto(s.BaseURL + path)
	require.NoError(t, err)
	require.NoError(t, page.Locator("a:has-text(\"Sign in\")").Click())
	require.NoError(t, page.WaitForURL(s.BaseURL+path))
}

func getSessions(t *testing.T, s *TestServer) []api.SessionInfo {
	t.Helper()
	resp, err := http.Get(s.OpsURL + "/sessions")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sessions []api.SessionInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sessions))
	return sessions
}
