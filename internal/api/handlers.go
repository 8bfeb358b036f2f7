package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"adminka/internal/auth"
	"adminka/internal/console"
	"adminka/internal/guard"
	"adminka/internal/logger"
)

const nonceCookie = "oauth_nonce"

// Sessions is the sign-in flow the handlers drive.
type Sessions interface {
	Lookup(token string) (auth.State, auth.Session)
	SignIn(from string) (redirectURL, nonce string, err error)
	Callback(ctx context.Context, code, state, nonce string) (token, from string, err error)
	SignOut(token string) error
}

type API struct {
	sessions   Sessions
	workspaces *console.Workspaces
	render     *Renderer
	secure     bool
	now        func() time.Time
}

// New wires the console handlers. secureCookies marks cookies Secure and
// should be set whenever the console is served over https.
func New(sessions Sessions, workspaces *console.Workspaces, render *Renderer, secureCookies bool) *API {
	return &API{
		sessions:   sessions,
		workspaces: workspaces,
		render:     render,
		secure:     secureCookies,
		now:        time.Now,
	}
}

type loginData struct {
	SignIn string
	Error  string
}

func (a *API) login(w http.ResponseWriter, status int, from, message string) {
	a.render.Render(w, status, "login", loginData{
		SignIn: "/auth/signin?from=" + url.QueryEscape(from),
		Error:  message,
	})
}

// LoginHandler shows the sign-in page, or bounces a signed-in visitor back
// to where they were going.
func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	from := auth.SafeLocation(r.URL.Query().Get("from"))
	if state, _ := a.sessions.Lookup(guard.Token(r)); state == auth.StateAuthenticated {
		http.Redirect(w, r, from, http.StatusFound)
		return
	}
	a.login(w, http.StatusOK, from, "")
}

// SignInHandler redirects to the identity provider.
func (a *API) SignInHandler(w http.ResponseWriter, r *http.Request) {
	redirectURL, nonce, err := a.sessions.SignIn(r.URL.Query().Get("from"))
	if err != nil {
		logger.Get().Error().Err(err).Msg("failed to start sign-in")
		a.login(w, http.StatusInternalServerError, "/", "Sign-in is unavailable right now. Try again later.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     nonceCookie,
		Value:    nonce,
		Path:     "/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// CallbackHandler completes the provider redirect and sets the session
// cookie.
func (a *API) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     nonceCookie,
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
	})

	q := r.URL.Query()
	if q.Get("error") != "" {
		a.login(w, http.StatusUnauthorized, "/", "Sign-in was cancelled.")
		return
	}

	var nonce string
	if c, err := r.Cookie(nonceCookie); err == nil {
		nonce = c.Value
	}

	token, from, err := a.sessions.Callback(r.Context(), q.Get("code"), q.Get("state"), nonce)
	if err != nil {
		logger.Get().Warn().Err(err).Msg("sign-in callback failed")
		a.login(w, http.StatusUnauthorized, "/", "Sign-in failed. Try again.")
		return
	}

	cookie := &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if state, session := a.sessions.Lookup(token); state == auth.StateAuthenticated {
		cookie.Expires = session.ExpiresAt
	}
	http.SetCookie(w, cookie)
	http.Redirect(w, r, from, http.StatusFound)
}

// SignOutHandler ends the session. The session's workspace and open tabs are
// dropped by the sign-out event.
func (a *API) SignOutHandler(w http.ResponseWriter, r *http.Request) {
	if token := guard.Token(r); token != "" {
		if err := a.sessions.SignOut(token); err != nil && !errors.Is(err, auth.ErrNoSession) {
			logger.Get().Warn().Err(err).Msg("failed to sign out")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *API) LoadingPage(w http.ResponseWriter, r *http.Request) {
	a.render.Render(w, http.StatusOK, "loading", nil)
}

func (a *API) NoAccessPage(w http.ResponseWriter, r *http.Request) {
	a.render.Render(w, http.StatusForbidden, "noaccess", nil)
}

func (a *API) workspace(r *http.Request) (*console.Workspace, guard.Viewer) {
	v, _ := guard.ViewerFrom(r.Context())
	return a.workspaces.Get(v.Session.ID, v.Session.ExpiresAt), v
}

// back answers a form post by redirecting to the page it came from.
func back(w http.ResponseWriter, r *http.Request, fallback string) {
	loc := r.FormValue("back")
	if loc == "" || auth.SafeLocation(loc) != loc {
		loc = fallback
	}
	http.Redirect(w, r, loc, http.StatusSeeOther)
}

// reject shows a form error to the session.
func reject(ws *console.Workspace, err error) {
	ws.Toasts.Error(console.Message(err), console.MutationToastTTL)
}
