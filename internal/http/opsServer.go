package http

import (
	"context"
	"net/http"
	"sync"

	"adminka/internal/api"
	"adminka/internal/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OpsServer serves metrics and operator endpoints. It should only listen on
// a private address.
type OpsServer struct {
	server *http.Server
	wg     sync.WaitGroup
}

func NewOpsServer(h *api.AdminHandler, addr string) *OpsServer {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", h.HealthHandler)
	mux.HandleFunc("GET /sessions", h.SessionsHandler)

	if addr == "" {
		addr = "localhost:9090"
	}

	return &OpsServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

func (s *OpsServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *OpsServer) Start() error {
	logger.Get().Info().Str("addr", s.server.Addr).Msg("ops server started")
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *OpsServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
