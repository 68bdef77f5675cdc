// Package httpapi exposes the pipeline over HTTP: spec.md §6's inbound
// contract (search, generate, enumerate, decode) behind a chi router.
// Its middleware stack — request ID, structured logging, panic recovery —
// is grounded on the teacher-adjacent SimplyLiz-CodeMCP's
// internal/api/middleware.go, generalized from a bare http.ServeMux onto
// chi and carrying the same google/uuid-backed request ID convention.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/deidaraiorek/babelsearch/internal/babel/apperr"
	"github.com/deidaraiorek/babelsearch/internal/babel/domain"
	"github.com/deidaraiorek/babelsearch/internal/babel/pipeline"
	"github.com/deidaraiorek/babelsearch/internal/babel/reqid"
)

// Server wires a Pipeline behind an HTTP handler.
type Server struct {
	pipeline *pipeline.Pipeline
	logger   *log.Logger
	router   chi.Router
}

// NewServer builds the router and registers every route. A nil logger
// defaults to log.Default().
func NewServer(p *pipeline.Pipeline, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{pipeline: p, logger: logger}
	s.router = s.newRouter()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Post("/search", s.handleSearch)
	r.Post("/generate", s.handleGenerate)
	r.Post("/enumerate", s.handleEnumerate)
	r.Post("/decode", s.handleDecode)
	return r
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := reqid.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID retrieves the correlation ID request-id middleware attached to
// ctx, or "" if none is present. The pipeline reads the same value back out
// of the context it's handed so its own log lines carry it too.
func RequestID(ctx context.Context) string {
	return reqid.FromContext(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Printf("babel: httpapi: %s %s status=%d duration=%s request_id=%s",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), RequestID(r.Context()))
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Printf("babel: httpapi: panic recovered: %v\n%s", rec, debug.Stack())
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequest struct {
	Query      string  `json:"query"`
	MaxResults int     `json:"max_results"`
	Mode       string  `json:"mode"`
	MinScore   float64 `json:"min_score"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	mode := domain.Mode(req.Mode)
	if mode == "" {
		mode = domain.ModeLocal
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 10
	}

	result, err := s.pipeline.Search(r.Context(), req.Query, req.MaxResults, mode, req.MinScore)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type generateRequest struct {
	Address string `json:"address"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	page := pipeline.Generate(req.Address)
	writeJSON(w, http.StatusOK, map[string]string{"address": req.Address, "text": page})
}

type enumerateRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
	Depth      int    `json:"depth"`
}

func (s *Server) handleEnumerate(w http.ResponseWriter, r *http.Request) {
	var req enumerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 20
	}
	if req.Depth <= 0 {
		req.Depth = 2
	}
	candidates, err := pipeline.EnumerateCandidates(req.Query, req.MaxResults, req.Depth)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": req.Query, "candidates": candidates})
}

type decodeRequest struct {
	Address string `json:"address"`
	Text    string `json:"text"`
	Query   string `json:"query"`
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	text := req.Text
	if text == "" {
		text = pipeline.Generate(req.Address)
	}
	dp := s.pipeline.Decode(req.Address, text, req.Query)
	writeJSON(w, http.StatusOK, dp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeAppError maps a sentinel apperr.Kind to the HTTP status spec.md §7
// assigns it.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidQuery), errors.Is(err, apperr.ErrInvalidMode), errors.Is(err, apperr.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrDeadline):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, apperr.ErrRemoteFetchFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
