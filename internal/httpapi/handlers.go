package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/astowny/monteur-ia/internal/service"
	"github.com/astowny/monteur-ia/pkg/log"
)

// guarded runs the API-key and rate-limit gate before h. The client is
// identified by the remote host.
func (s *Server) guarded(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.app.Authorize(clientHost(r), r.Header.Get("X-API-Key")); err != nil {
			writeAppError(w, err)
			return
		}
		h(w, r)
	}
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return "unknown"
		}
		return r.RemoteAddr
	}
	return host
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRuntime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.app.RuntimeChecks())
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProjectRequest
	if !decodePost(w, r, &req) {
		return
	}
	resp, err := s.app.CreateProject(r.Context(), req)
	respond(w, resp, err)
}

func (s *Server) handlePrepareExport(w http.ResponseWriter, r *http.Request) {
	var req service.PrepareExportRequest
	if !decodePost(w, r, &req) {
		return
	}
	resp, err := s.app.PrepareExport(r.Context(), req)
	respond(w, resp, err)
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req service.TranscribeRequest
	if !decodePost(w, r, &req) {
		return
	}
	resp, err := s.app.Transcribe(r.Context(), req)
	respond(w, resp, err)
}

func (s *Server) handleDetectSilences(w http.ResponseWriter, r *http.Request) {
	var req service.DetectSilencesRequest
	if !decodePost(w, r, &req) {
		return
	}
	resp, err := s.app.DetectSilences(r.Context(), req)
	respond(w, resp, err)
}

func (s *Server) handleScoreMoments(w http.ResponseWriter, r *http.Request) {
	var req service.ScoreMomentsRequest
	if !decodePost(w, r, &req) {
		return
	}
	resp, err := s.app.ScoreMoments(r.Context(), req)
	respond(w, resp, err)
}

func (s *Server) handleGenerateHooks(w http.ResponseWriter, r *http.Request) {
	var req service.GenerateHooksRequest
	if !decodePost(w, r, &req) {
		return
	}
	resp, err := s.app.GenerateHooks(r.Context(), req)
	respond(w, resp, err)
}

func (s *Server) handleEnqueueJob(w http.ResponseWriter, r *http.Request) {
	var req service.EnqueueJobRequest
	if !decodePost(w, r, &req) {
		return
	}
	resp, err := s.app.EnqueueJob(r.Context(), req)
	respond(w, resp, err)
}

// handleJobByID serves GET /cloud/jobs/{id} and POST /cloud/jobs/{id}/process.
func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/cloud/jobs/")
	id, action, _ := strings.Cut(rest, "/")
	if decoded, err := url.PathUnescape(id); err == nil {
		id = decoded
	}
	if id == "" {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
			return
		}
		job, err := s.app.GetJob(r.Context(), id)
		respond(w, job, err)
	case "process":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
			return
		}
		resp, err := s.app.ProcessJob(r.Context(), id)
		respond(w, resp, err)
	default:
		writeError(w, http.StatusNotFound, "not_found")
	}
}

func (s *Server) handlePlatformExport(w http.ResponseWriter, r *http.Request) {
	var req service.ExportPlatformRequest
	if !decodePost(w, r, &req) {
		return
	}
	resp, err := s.app.ExportToPlatform(r.Context(), req)
	respond(w, resp, err)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	resp, err := s.app.Analytics(r.Context())
	respond(w, resp, err)
}

// decodePost enforces POST and decodes the body strictly into into. It
// writes the error response itself and reports whether to continue.
func decodePost(w http.ResponseWriter, r *http.Request, into any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil && !errors.Is(err, io.EOF) {
		writeAppError(w, service.WrapError(err, service.ErrValidation, "invalid json body"))
		return false
	}
	return true
}

func respond(w http.ResponseWriter, data any, err error) {
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func writeAppError(w http.ResponseWriter, err error) {
	appErr := service.Classify(err)
	if appErr.Type == service.ErrUnknown {
		log.Error("Unhandled error: %v", err)
	} else {
		log.Debug("Request failed: %v", appErr)
	}
	writeError(w, appErr.Type.HTTPStatus(), appErr.Code())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
