// Package guard admits only signed-in staff to console pages.
package guard

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"adminka/internal/auth"
	"adminka/internal/logger"
	"adminka/internal/models"

	"github.com/c-pro/geche"
)

type Outcome int

const (
	OutcomeLoading Outcome = iota
	OutcomeRedirect
	OutcomeNoAccess
	OutcomePage
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoading:
		return "loading"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeNoAccess:
		return "no_access"
	default:
		return "page"
	}
}

// Decide picks what to render for a request.
func Decide(state auth.State, groupResolved bool, group string) Outcome {
	switch {
	case state == auth.StateInitializing:
		return OutcomeLoading
	case state != auth.StateAuthenticated:
		return OutcomeRedirect
	case !groupResolved:
		return OutcomeLoading
	case group != models.StaffGroup:
		return OutcomeNoAccess
	default:
		return OutcomePage
	}
}

type Sessions interface {
	Lookup(token string) (auth.State, auth.Session)
}

type Users interface {
	User(ctx context.Context, providerID string) (models.User, error)
}

// Pages renders the non-page outcomes.
type Pages struct {
	Loading  http.HandlerFunc
	NoAccess http.HandlerFunc
}

type Config struct {
	// GroupTTL is how long a resolved group is trusted.
	GroupTTL time.Duration
	// Wait bounds how long a request waits for a group lookup before the
	// loading page is shown instead.
	Wait time.Duration
}

type Guard struct {
	sessions Sessions
	users    Users
	pages    Pages
	config   Config
	ctx      context.Context

	groups geche.Geche[string, string]

	mu      sync.Mutex
	pending map[string]chan struct{}
}

func New(ctx context.Context, config Config, sessions Sessions, users Users, pages Pages) *Guard {
	if config.GroupTTL == 0 {
		config.GroupTTL = time.Minute
	}
	if config.Wait == 0 {
		config.Wait = 3 * time.Second
	}
	return &Guard{
		sessions: sessions,
		users:    users,
		pages:    pages,
		config:   config,
		ctx:      ctx,
		groups:   geche.NewMapTTLCache[string, string](ctx, config.GroupTTL, time.Minute),
		pending:  make(map[string]chan struct{}),
	}
}

type viewerKey struct{}

// Viewer is the staff member behind a guarded request.
type Viewer struct {
	Session auth.Session
	Token   string
}

func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

func ViewerFrom(ctx context.Context) (Viewer, bool) {
	v, ok := ctx.Value(viewerKey{}).(Viewer)
	return v, ok
}

// Token reads the session cookie.
func Token(r *http.Request) string {
	if c, err := r.Cookie("token"); err == nil {
		return c.Value
	}
	return ""
}

// LoginURL is the login page that bounces back to the requested location.
func LoginURL(r *http.Request) string {
	from := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		from = r.URL.Path
	}
	return "/login?from=" + url.QueryEscape(from)
}

// Wrap guards a page handler.
func (g *Guard) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := Token(r)
		state, session := g.sessions.Lookup(token)

		var group string
		resolved := false
		if state == auth.StateAuthenticated {
			group, resolved = g.resolve(r.Context(), session.Identity.ProviderID)
		}

		switch Decide(state, resolved, group) {
		case OutcomeLoading:
			g.pages.Loading(w, r)
		case OutcomeRedirect:
			http.Redirect(w, r, LoginURL(r), http.StatusFound)
		case OutcomeNoAccess:
			g.pages.NoAccess(w, r)
		case OutcomePage:
			next(w, r.WithContext(WithViewer(r.Context(), Viewer{Session: session, Token: token})))
		}
	}
}

// Forget drops the cached group of a provider account.
func (g *Guard) Forget(providerID string) {
	_ = g.groups.Del(providerID)
}

// resolve returns the application group of a provider account. A lookup
// that outlives the wait keeps running and fills the cache for the next
// request.
func (g *Guard) resolve(ctx context.Context, providerID string) (string, bool) {
	if group, err := g.groups.Get(providerID); err == nil {
		return group, true
	}

	g.mu.Lock()
	done, ok := g.pending[providerID]
	if !ok {
		done = make(chan struct{})
		g.pending[providerID] = done
		go g.lookup(providerID, done)
	}
	g.mu.Unlock()

	timer := time.NewTimer(g.config.Wait)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		return "", false
	case <-ctx.Done():
		return "", false
	}

	if group, err := g.groups.Get(providerID); err == nil {
		return group, true
	}
	// The lookup failed: no group.
	return "", true
}

func (g *Guard) lookup(providerID string, done chan struct{}) {
	defer func() {
		g.mu.Lock()
		delete(g.pending, providerID)
		g.mu.Unlock()
		close(done)
	}()

	user, err := g.users.User(g.ctx, providerID)
	if err != nil {
		logger.Get().Warn().Err(err).Str("provider_id", providerID).Msg("failed to resolve user group")
		return
	}

	group := ""
	if user.Group != nil {
		group = *user.Group
	}
	g.groups.Set(providerID, group)
}
