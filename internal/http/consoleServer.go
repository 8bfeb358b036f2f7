package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"adminka/internal/api"
	"adminka/internal/console"
	"adminka/internal/guard"
	"adminka/internal/logger"
	"adminka/internal/ws"
	"adminka/static"
)

type ConsoleServer struct {
	server *http.Server
	wg     sync.WaitGroup
}

func queues(w *console.Workspace) *console.ScheduleView { return w.Queues }
func events(w *console.Workspace) *console.ScheduleView { return w.Events }

func NewConsoleServer(h *api.API, g *guard.Guard, live *ws.Server, addr string) *ConsoleServer {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /static/", NewFileServerHandler(static.Content))

	// Sign-in flow
	mux.HandleFunc("GET /login", h.LoginHandler)
	mux.HandleFunc("GET /auth/signin", h.SignInHandler)
	mux.HandleFunc("GET /auth/callback", h.CallbackHandler)
	mux.HandleFunc("POST /auth/signout", api.RequireSameOrigin(h.SignOutHandler))

	// Live refresh
	mux.HandleFunc("GET /ws", live.HandleConnections)

	page := func(pattern string, handler http.HandlerFunc) {
		mux.HandleFunc(pattern, g.Wrap(handler))
	}
	action := func(pattern string, handler http.HandlerFunc) {
		mux.HandleFunc(pattern, api.RequireSameOrigin(g.Wrap(handler)))
	}

	page("GET /", h.HomePage)
	page("GET /categories", h.CategoriesPage)
	page("GET /roles", h.RolesPage)
	page("GET /users", h.UsersPage)
	page("GET /logs", h.LogsPage)
	page("GET /queues", h.SchedulePage("Queues", queues))
	page("GET /events", h.SchedulePage("Events", events))
	page("GET /settings", h.SettingsPage)

	action("POST /panel", h.OpenPanelHandler)
	action("POST /panel/close", h.ClosePanelHandler)
	action("POST /toasts/{id}/dismiss", h.DismissToastHandler)

	action("POST /categories", h.CreateCategoryHandler)
	action("POST /categories/move", h.MoveCategoryHandler)
	action("POST /categories/{id}/rename", h.RenameCategoryHandler)
	action("POST /categories/{id}/delete", h.DeleteCategoryHandler)
	action("POST /categories/{id}/toggle", h.ToggleCategoryHandler)
	action("POST /categories/{id}/permissions", h.CategoryPermissionsHandler)
	action("POST /categories/{id}/channels", h.CreateChannelHandler)

	action("POST /channels/move", h.MoveChannelHandler)
	action("POST /channels/{id}/rename", h.RenameChannelHandler)
	action("POST /channels/{id}/delete", h.DeleteChannelHandler)

	action("POST /permissions/grant", h.GrantRoleHandler)
	action("POST /permissions/revoke", h.RevokeRoleHandler)
	action("POST /permissions/save", h.SavePermissionsHandler)

	action("POST /roles", h.CreateRoleHandler)
	action("POST /roles/{id}/rename", h.RenameRoleHandler)
	action("POST /roles/{id}/delete", h.DeleteRoleHandler)

	action("POST /users/{id}/rename", h.RenameUserHandler)
	action("POST /users/{id}/kick", h.KickUserHandler)
	action("POST /users/{id}/roles", h.UserRolesHandler)

	action("POST /queues", h.ScheduleHandler(queues))
	action("POST /queues/category", h.ScheduleCategoryHandler(queues))
	action("POST /events", h.ScheduleHandler(events))
	action("POST /events/category", h.ScheduleCategoryHandler(events))

	action("POST /settings/language", h.LanguageHandler)
	action("POST /settings/registration", h.RegistrationHandler)
	action("POST /settings/staff/category", h.StaffCategoryHandler)
	action("POST /settings/staff/info", h.StaffInfoHandler)

	if addr == "" {
		addr = ":8080"
	}

	return &ConsoleServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the routes, for tests that serve them in-process.
func (s *ConsoleServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *ConsoleServer) Start() error {
	logger.Get().Info().Str("addr", s.server.Addr).Msg("console server started")
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *ConsoleServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
