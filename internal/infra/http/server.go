package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Spok95/apu-builder/internal/workbench"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	srv *http.Server
}

func New(addr string, exposeMetrics bool, wb *workbench.Service, log *slog.Logger) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           NewHandler(exposeMetrics, wb, log),
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// NewHandler - все маршруты сервиса
func NewHandler(exposeMetrics bool, wb *workbench.Service, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if exposeMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}

	if wb != nil {
		api := &api{wb: wb, log: log}
		api.routes(mux)
	}
	return mux
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
