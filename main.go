package main

import (
	"context"
	"errors"
	oshttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"adminka/internal/api"
	"adminka/internal/auth"
	"adminka/internal/config"
	"adminka/internal/console"
	"adminka/internal/gateway"
	"adminka/internal/guard"
	"adminka/internal/http"
	"adminka/internal/logger"
	"adminka/internal/storage"
	"adminka/internal/ws"
	"adminka/static"

	"golang.org/x/sync/errgroup"
)

// run starts the console. idp replaces the Discord identity provider when
// not nil.
func run(ctx context.Context, idp auth.IdentityProvider) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	bbStorage, err := storage.NewBboltStorage(cfg.SessionsDB)
	if err != nil {
		return err
	}
	defer func() { _ = bbStorage.Close() }()

	if n, err := bbStorage.PurgeExpired(time.Now()); err != nil {
		log.Warn().Err(err).Msg("failed to purge expired sessions")
	} else if n > 0 {
		log.Info().Int("count", n).Msg("purged expired sessions")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if idp == nil {
		idp = auth.NewOAuthIdentity(auth.OAuthConfig{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			AuthURL:      cfg.OAuth.AuthURL,
			TokenURL:     cfg.OAuth.TokenURL,
			RedirectURL:  baseURL + "/auth/callback",
		})
	}

	provider, err := auth.NewProvider(ctx, auth.Config{
		Secret:      cfg.SessionKey,
		TokenExpiry: cfg.SessionTTL,
	}, idp, bbStorage)
	if err != nil {
		return err
	}

	backend, err := gateway.New(gateway.Config{BaseURL: cfg.APIURL, Timeout: cfg.APITimeout})
	if err != nil {
		return err
	}

	renderer, err := api.NewRenderer(static.Content)
	if err != nil {
		return err
	}

	hub := ws.NewHub()
	workspaces := console.NewWorkspaces(console.Config{Timeout: cfg.APITimeout}, backend, hub)
	handlers := api.New(provider, workspaces, renderer, strings.HasPrefix(baseURL, "https://"))
	pageGuard := guard.New(ctx, guard.Config{}, provider, backend, guard.Pages{
		Loading:  handlers.LoadingPage,
		NoAccess: handlers.NoAccessPage,
	})

	unsubscribe := provider.Subscribe(func(e auth.Event) {
		// A fresh sign-in re-reads the group; a sign-out drops everything the
		// session held.
		pageGuard.Forget(e.Session.Identity.ProviderID)
		if e.Kind == auth.EventSignedOut {
			workspaces.Drop(e.Session.ID, e.Session.ExpiresAt)
		}
	})
	defer unsubscribe()

	go func() {
		if err := provider.Restore(ctx); err != nil {
			log.Error().Err(err).Msg("failed to restore sessions")
		}
	}()

	consoleServer := http.NewConsoleServer(handlers, pageGuard, ws.NewServer(provider, hub), cfg.ConsoleAddr)
	opsServer := http.NewOpsServer(api.NewAdminHandler(provider, bbStorage), cfg.OpsAddr)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := opsServer.Start()
		if err != nil && err != oshttp.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := consoleServer.Start()
		if err != nil && err != oshttp.ErrServerClosed {
			return err
		}
		return nil
	})

	// Wait for context cancellation (signal)
	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("ops server shutdown error")
		}
		if err := consoleServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("console server shutdown error")
		}

		// Background mutations finish before the session store closes.
		workspaces.Wait()
		return nil
	})

	return g.Wait()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
		logger.Get().Fatal().Err(err).Msg("application error")
	}
}
