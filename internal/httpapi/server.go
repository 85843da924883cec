package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/astowny/monteur-ia/internal/service"
)

const maxBodyBytes = 1 << 20

type Server struct {
	app *service.App

	readHeaderTimeout time.Duration

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithReadHeaderTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.readHeaderTimeout = d
		}
	}
}

func NewServer(app *service.App, opts ...Option) *Server {
	s := &Server{
		app:               app,
		readHeaderTimeout: 5 * time.Second,
		mux:               http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: s.readHeaderTimeout,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/health/runtime", s.handleRuntime)

	s.mux.HandleFunc("/project/create", s.guarded(s.handleCreateProject))
	s.mux.HandleFunc("/pipeline/export/prepare", s.guarded(s.handlePrepareExport))
	s.mux.HandleFunc("/transcribe", s.guarded(s.handleTranscribe))
	s.mux.HandleFunc("/detect-silences", s.guarded(s.handleDetectSilences))
	s.mux.HandleFunc("/score-moments", s.guarded(s.handleScoreMoments))
	s.mux.HandleFunc("/generate-hooks", s.guarded(s.handleGenerateHooks))
	s.mux.HandleFunc("/cloud/jobs", s.guarded(s.handleEnqueueJob))
	s.mux.HandleFunc("/cloud/jobs/", s.guarded(s.handleJobByID))
	s.mux.HandleFunc("/platform/export", s.guarded(s.handlePlatformExport))
	s.mux.HandleFunc("/analytics/events", s.guarded(s.handleAnalytics))

	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
}
