package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"adminka/internal/auth"
	"adminka/internal/console"
	"adminka/internal/models"
	"adminka/internal/pagination"
	"adminka/internal/sidebar"
	"adminka/static"

	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	state    auth.State
	sessions map[string]auth.Session

	nonce       string
	callbackErr error
	signedOut   []string
}

func (f *fakeSessions) Lookup(token string) (auth.State, auth.Session) {
	if f.state == auth.StateInitializing {
		return auth.StateInitializing, auth.Session{}
	}
	s, ok := f.sessions[token]
	if !ok {
		return auth.StateUnauthenticated, auth.Session{}
	}
	return auth.StateAuthenticated, s
}

func (f *fakeSessions) SignIn(from string) (string, string, error) {
	return "https://id.example/authorize?state=" + url.QueryEscape(from), f.nonce, nil
}

func (f *fakeSessions) Callback(ctx context.Context, code, state, nonce string) (string, string, error) {
	if f.callbackErr != nil {
		return "", "", f.callbackErr
	}
	if nonce != f.nonce {
		return "", "", auth.ErrInvalidState
	}
	return "new-token", state, nil
}

func (f *fakeSessions) SignOut(token string) error {
	f.signedOut = append(f.signedOut, token)
	return nil
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(static.Content)
	require.NoError(t, err)
	return r
}

func newAPI(t *testing.T, sessions *fakeSessions) *API {
	t.Helper()
	return New(sessions, console.NewWorkspaces(console.Config{}, nil, nil), newRenderer(t), false)
}

func TestRender_CategoriesPage(t *testing.T) {
	r := newRenderer(t)
	rec := httptest.NewRecorder()

	r.Render(rec, http.StatusOK, "categories", pageData{
		Title: "Categories",
		Path:  console.PageCategories,
		Back:  console.PageCategories,
		Nav:   nav(console.PageCategories),
		Data: console.CategoriesPage{
			Loaded: true,
			Rows: []console.CategoryRow{{
				Category: models.Category{ID: 1, Name: "math"},
				Open:     true,
				Text:     []models.Channel{{ID: 10, Name: "general", Type: models.ChannelTypeText}},
			}},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Math")

	text := body[strings.Index(body, `data-type="text"`):strings.Index(body, `data-type="voice"`)]
	require.Contains(t, text, "General")
	voice := body[strings.Index(body, `data-type="voice"`):]
	require.Contains(t, voice, "No voice channels")
	require.NotContains(t, voice, "General")
}

func TestRender_BarePagesHaveNoChrome(t *testing.T) {
	r := newRenderer(t)
	for _, name := range []string{"noaccess", "loading"} {
		rec := httptest.NewRecorder()
		r.Render(rec, http.StatusOK, name, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotContains(t, rec.Body.String(), `class="menu"`, name)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	rec := httptest.NewRecorder()
	newRenderer(t).Render(rec, http.StatusOK, "missing", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFormFor(t *testing.T) {
	tests := []struct {
		name  string
		panel sidebar.Panel
		want  panelForm
	}{
		{
			name:  "closed",
			panel: sidebar.Panel{},
			want:  panelForm{},
		},
		{
			name:  "create category",
			panel: sidebar.Panel{Action: sidebar.ActionCreate, Target: sidebar.TargetCategory, Item: &sidebar.Item{}},
			want:  panelForm{Action: "/categories", Name: true, Submit: "Create"},
		},
		{
			name:  "create channel",
			panel: sidebar.Panel{Action: sidebar.ActionCreate, Target: sidebar.TargetChannel, Item: &sidebar.Item{Parent: "1"}},
			want:  panelForm{Action: "/categories/1/channels", Name: true, Type: true, Submit: "Create"},
		},
		{
			name:  "rename channel",
			panel: sidebar.Panel{Action: sidebar.ActionRename, Target: sidebar.TargetChannel, Item: &sidebar.Item{ID: "10", Name: "general", Parent: "1"}},
			want: panelForm{
				Action: "/channels/10/rename",
				Hidden: map[string]string{"category": "1"},
				Name:   true,
				Value:  "general",
				Submit: "Rename",
			},
		},
		{
			name:  "kick user",
			panel: sidebar.Panel{Action: sidebar.ActionDelete, Target: sidebar.TargetUser, Item: &sidebar.Item{ID: "u1", Name: "ann"}},
			want:  panelForm{Action: "/users/u1/kick", Confirm: "Kick Ann from the server?", Submit: "Kick"},
		},
		{
			name:  "permissions load in progress",
			panel: sidebar.Panel{Action: sidebar.ActionEdit, Target: sidebar.TargetCategory, Item: &sidebar.Item{ID: "1"}},
			want:  panelForm{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, formFor(tt.panel))
		})
	}
}

func TestNewPager(t *testing.T) {
	u, err := url.Parse("/roles?q=te&page=2")
	require.NoError(t, err)

	p := newPager(pagination.NewControl(1, 3), u)
	require.True(t, p.Visible)
	require.Empty(t, p.Prev)
	require.Equal(t, "/roles?page=2&q=te", p.Next)
	require.Len(t, p.Pages, 3)
	require.True(t, p.Pages[0].Current)

	p = newPager(pagination.NewControl(3, 3), u)
	require.Equal(t, "/roles?page=2&q=te", p.Prev)
	require.Empty(t, p.Next)

	require.False(t, newPager(pagination.NewControl(1, 1), u).Visible)
}

func TestRequireSameOrigin(t *testing.T) {
	handler := RequireSameOrigin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"same origin", "Origin", "http://console.example", http.StatusNoContent},
		{"referer fallback", "Referer", "http://console.example/categories", http.StatusNoContent},
		{"other site", "Origin", "http://evil.example", http.StatusForbidden},
		{"no source", "", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "http://console.example/categories", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestBack(t *testing.T) {
	for loc, want := range map[string]string{
		"/roles?page=2":        "/roles?page=2",
		"//evil.example":       console.PageRoles,
		"https://evil.example": console.PageRoles,
		"":                     console.PageRoles,
	} {
		req := httptest.NewRequest(http.MethodPost, "/roles", strings.NewReader(url.Values{"back": {loc}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		back(rec, req, console.PageRoles)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, want, rec.Header().Get("Location"), loc)
	}
}

func TestSignInFlow(t *testing.T) {
	sessions := &fakeSessions{
		state:    auth.StateAuthenticated,
		nonce:    "nonce-1",
		sessions: map[string]auth.Session{"new-token": {ID: "s1", ExpiresAt: time.Now().Add(time.Hour)}},
	}
	a := newAPI(t, sessions)

	t.Run("login page links to sign-in with the bounce target", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.LoginHandler(rec, httptest.NewRequest(http.MethodGet, "/login?from=%2Froles", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "/auth/signin?from=%2Froles")
	})

	t.Run("signed-in visitor is bounced back", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/login?from=%2Froles", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: "new-token"})
		rec := httptest.NewRecorder()
		a.LoginHandler(rec, req)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/roles", rec.Header().Get("Location"))
	})

	t.Run("sign-in keeps the nonce in a cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.SignInHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/signin?from=%2Froles", nil))
		require.Equal(t, http.StatusFound, rec.Code)
		require.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://id.example/authorize"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, nonceCookie, cookies[0].Name)
		require.Equal(t, "nonce-1", cookies[0].Value)
		require.True(t, cookies[0].HttpOnly)
	})

	t.Run("callback sets the session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=%2Froles", nil)
		req.AddCookie(&http.Cookie{Name: nonceCookie, Value: "nonce-1"})
		rec := httptest.NewRecorder()
		a.CallbackHandler(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/roles", rec.Header().Get("Location"))

		var token *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == "token" {
				token = c
			}
		}
		require.NotNil(t, token)
		require.Equal(t, "new-token", token.Value)
		require.True(t, token.HttpOnly)
	})

	t.Run("callback without the nonce fails", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.CallbackHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=%2Froles", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "Sign-in failed")
	})

	t.Run("provider failure", func(t *testing.T) {
		sessions.callbackErr = errors.New("exchange failed")
		defer func() { sessions.callbackErr = nil }()

		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=%2F", nil)
		req.AddCookie(&http.Cookie{Name: nonceCookie, Value: "nonce-1"})
		rec := httptest.NewRecorder()
		a.CallbackHandler(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("sign-out clears the cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: "new-token"})
		rec := httptest.NewRecorder()
		a.SignOutHandler(rec, req)

		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/login", rec.Header().Get("Location"))
		require.Equal(t, []string{"new-token"}, sessions.signedOut)
		require.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
	})
}
