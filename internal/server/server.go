// Package server serves a saved run report over HTTP.
//
// Routes:
//
//	GET /healthz                 liveness
//	GET /api/version             build information of the server
//	GET /api/run                 run metadata and summary
//	GET /api/summary             per-state counts
//	GET /api/results[?state=S]   results, optionally filtered by state
//	GET /api/results/{name}      every result of one style
//	GET /files/output/*          rendered images that differed
//	GET /files/reference/*       reference images
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/visualtest/pkg/buildinfo"
	"github.com/matzehuels/visualtest/pkg/report"
)

// Options configures a Server.
type Options struct {
	// OutputDir and ReferenceDir are exposed under /files. Empty disables
	// the route.
	OutputDir    string
	ReferenceDir string

	Logger *log.Logger
}

// Server is an http.Handler over one run.
type Server struct {
	run    *report.Run
	opts   Options
	router chi.Router
}

// New builds the routes for run.
func New(run *report.Run, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{run: run, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, buildinfo.Get())
		})
		r.Get("/run", s.handleRun)
		r.Get("/summary", s.handleSummary)
		r.Get("/results", s.handleResults)
		r.Get("/results/{name}", s.handleStyle)
	})
	if opts.OutputDir != "" {
		mountDir(r, "/files/output", opts.OutputDir)
	}
	if opts.ReferenceDir != "" {
		mountDir(r, "/files/reference", opts.ReferenceDir)
	}

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func mountDir(r chi.Router, prefix, dir string) {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.Get(prefix+"/*", fs.ServeHTTP)
}

// =============================================================================
// Handlers
// =============================================================================

type runInfo struct {
	ID         string         `json:"id"`
	Build      buildinfo.Info `json:"build"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Renderers  []string       `json:"renderers"`
	Jobs       int            `json:"jobs"`
	Summary    report.Summary `json:"summary"`
}

func (s *Server) handleRun(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, runInfo{
		ID:         s.run.ID,
		Build:      s.run.Build,
		StartedAt:  s.run.StartedAt,
		FinishedAt: s.run.FinishedAt,
		Renderers:  s.run.Renderers,
		Jobs:       s.run.Jobs,
		Summary:    s.run.Summary,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.run.Summary)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	state := report.State(strings.ToUpper(r.URL.Query().Get("state")))
	if state != "" && !validState(state) {
		writeError(w, http.StatusBadRequest, "unknown state "+string(state))
		return
	}
	results := s.run.Filter(state)
	if results == nil {
		results = []report.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var out []report.Result
	for _, res := range s.run.Results {
		if res.Name == name {
			out = append(out, res)
		}
	}
	if len(out) == 0 {
		writeError(w, http.StatusNotFound, "no results for style "+name)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func validState(s report.State) bool {
	for _, v := range report.States {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// Helpers
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.opts.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
