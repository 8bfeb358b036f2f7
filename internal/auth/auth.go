package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"adminka/internal/logger"
	"adminka/internal/metrics"

	"github.com/c-pro/geche"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/blake2b"
)

const (
	DefaultTokenExpiry = 24 * time.Hour
	stateExpiry        = 10 * time.Minute
)

var (
	ErrNoSession    = errors.New("no session")
	ErrInvalidState = errors.New("invalid sign-in state")
)

// State is where the provider stands for one request.
type State int

const (
	StateInitializing State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Identity is the account as seen by the OAuth identity provider.
type Identity struct {
	ProviderID string
	Username   string
	AvatarURL  string
}

// Session is a signed-in console session. ID is the keyed hash of the
// cookie token and is safe to log and persist.
type Session struct {
	ID        string
	Identity  Identity
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Storage interface {
	UpsertSession(session Session) error
	DeleteSession(id string) error
	ListSessions() ([]Session, error)
}

// IdentityProvider is the external OAuth collaborator.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (Identity, error)
}

type EventKind int

const (
	EventSignedIn EventKind = iota + 1
	EventSignedOut
)

// Event is pushed to subscribers on every session change.
type Event struct {
	Kind    EventKind
	Session Session
}

type Config struct {
	Secret      string
	TokenExpiry time.Duration
	secretBytes []byte
}

func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New("secret is required")
	}
	c.secretBytes = []byte(c.Secret)
	if c.TokenExpiry == 0 {
		c.TokenExpiry = DefaultTokenExpiry
	}
	return nil
}

// Provider owns the console's sessions. It starts initializing and becomes
// ready once persisted sessions are restored.
type Provider struct {
	Config
	idp      IdentityProvider
	storage  Storage
	sessions geche.Geche[string, Session]
	ready    atomic.Bool
	hashKey  [64]byte

	mu        sync.RWMutex
	listeners map[int]func(Event)
	nextID    int

	now func() time.Time
}

func NewProvider(ctx context.Context, config Config, idp IdentityProvider, storage Storage) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Provider{
		Config:    config,
		idp:       idp,
		storage:   storage,
		sessions:  geche.NewMapTTLCache[string, Session](ctx, config.TokenExpiry, time.Minute),
		hashKey:   blake2b.Sum512(config.secretBytes),
		listeners: make(map[int]func(Event)),
		now:       time.Now,
	}, nil
}

// Restore loads persisted sessions and marks the provider ready.
func (p *Provider) Restore(ctx context.Context) error {
	defer p.ready.Store(true)

	sessions, err := p.storage.ListSessions()
	if err != nil {
		return fmt.Errorf("failed to restore sessions: %w", err)
	}

	now := p.now()
	restored := 0
	for _, s := range sessions {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !s.ExpiresAt.After(now) {
			if err := p.storage.DeleteSession(s.ID); err != nil {
				logger.Get().Warn().Err(err).Str("session", s.ID).Msg("failed to drop expired session")
			}
			continue
		}
		p.sessions.Set(s.ID, s)
		restored++
	}
	metrics.ActiveSessions.Add(float64(restored))
	logger.Get().Info().Int("sessions", restored).Msg("sessions restored")
	return nil
}

func (p *Provider) Ready() bool {
	return p.ready.Load()
}

func (p *Provider) hashToken(token string) string {
	h, _ := blake2b.New256(p.hashKey[:])
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

func (p *Provider) generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Lookup resolves a cookie token.
func (p *Provider) Lookup(token string) (State, Session) {
	if !p.Ready() {
		return StateInitializing, Session{}
	}
	if token == "" {
		return StateUnauthenticated, Session{}
	}
	s, err := p.sessions.Get(p.hashToken(token))
	if err != nil || !s.ExpiresAt.After(p.now()) {
		return StateUnauthenticated, Session{}
	}
	return StateAuthenticated, s
}

type stateClaims struct {
	From  string `json:"from,omitempty"`
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// SafeLocation keeps bounce-back targets on this site.
func SafeLocation(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return "/"
	}
	return from
}

// SignIn starts the OAuth redirect flow. The returned nonce must come back
// with the callback (the HTTP layer keeps it in a cookie).
func (p *Provider) SignIn(from string) (redirectURL, nonce string, err error) {
	nonce, err = p.generateToken()
	if err != nil {
		return "", "", err
	}
	now := p.now()
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, stateClaims{
		From:  SafeLocation(from),
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateExpiry)),
		},
	}).SignedString(p.secretBytes)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign state: %w", err)
	}
	return p.idp.AuthCodeURL(state), nonce, nil
}

func (p *Provider) parseState(state, nonce string) (stateClaims, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(state, &claims, func(t *jwt.Token) (any, error) {
		return p.secretBytes, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return stateClaims{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if nonce == "" || claims.Nonce != nonce {
		return stateClaims{}, ErrInvalidState
	}
	return claims, nil
}

// Callback completes the OAuth flow, creates a session and returns its
// cookie token together with the location the visitor originally asked for.
func (p *Provider) Callback(ctx context.Context, code, state, nonce string) (token, from string, err error) {
	claims, err := p.parseState(state, nonce)
	if err != nil {
		return "", "", err
	}

	identity, err := p.idp.Identify(ctx, code)
	if err != nil {
		return "", "", fmt.Errorf("failed to identify user: %w", err)
	}

	token, err = p.generateToken()
	if err != nil {
		return "", "", err
	}

	now := p.now()
	session := Session{
		ID:        p.hashToken(token),
		Identity:  identity,
		CreatedAt: now,
		ExpiresAt: now.Add(p.TokenExpiry),
	}
	if err := p.storage.UpsertSession(session); err != nil {
		return "", "", fmt.Errorf("failed to persist session: %w", err)
	}
	p.sessions.Set(session.ID, session)
	metrics.ActiveSessions.Inc()

	logger.Get().Info().
		Str("session", session.ID).
		Str("provider_id", identity.ProviderID).
		Msg("signed in")
	p.publish(Event{Kind: EventSignedIn, Session: session})

	return token, SafeLocation(claims.From), nil
}

// SignOut ends the session behind token.
func (p *Provider) SignOut(token string) error {
	id := p.hashToken(token)
	session, err := p.sessions.Get(id)
	if err != nil {
		return ErrNoSession
	}
	_ = p.sessions.Del(id)
	metrics.ActiveSessions.Dec()
	if err := p.storage.DeleteSession(id); err != nil {
		logger.Get().Warn().Err(err).Str("session", id).Msg("failed to delete persisted session")
	}

	logger.Get().Info().Str("session", id).Msg("signed out")
	p.publish(Event{Kind: EventSignedOut, Session: session})
	return nil
}

// Subscribe registers fn for session change events and returns a function
// that removes it.
func (p *Provider) Subscribe(fn func(Event)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

func (p *Provider) publish(e Event) {
	p.mu.RLock()
	fns := make([]func(Event), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}
