package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	routerx "github.com/tanpawarit/insurance-media-router/agent/agents/router"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	statex "github.com/tanpawarit/insurance-media-router/agent/state"
)

const maxBodySize = 64 << 10

// Router is the routing surface the HTTP API exposes.
type Router interface {
	Route(ctx context.Context, query string) (contractx.RouteResult, error)
	Agents() []routerx.Entry
	Lookup(name string) (contractx.Agent, bool)
}

type Server struct {
	router Router
	runs   contractx.RunStore
	mux    chi.Router
}

type queryRequest struct {
	Query string `json:"query"`
}

type agentView struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func NewServer(router Router, runs contractx.RunStore) (*Server, error) {
	if router == nil {
		return nil, errors.New("router is required")
	}
	if runs == nil {
		return nil, errors.New("run store is required")
	}

	s := &Server{router: router, runs: runs}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/route", s.handleRoute)
		r.Get("/agents", s.handleListAgents)
		r.Post("/agents/{name}/run", s.handleRunAgent)
		r.Get("/runs/{runID}", s.handleGetRun)
	})
	s.mux = r

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	res, err := s.router.Route(r.Context(), req.Query)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, contractx.RouteFailure(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	entries := s.router.Agents()
	out := make([]agentView, 0, len(entries))
	for _, e := range entries {
		out = append(out, agentView{Name: e.Name, Description: e.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRunAgent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	agent, found := s.router.Lookup(name)
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Agent not found"})
		return
	}

	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	report, err := agent.Run(r.Context(), req.Query)
	if err != nil {
		log.Error().Err(err).Str("agent", name).Msg("agent run failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	report, err := s.runs.Load(r.Context(), runID)
	switch {
	case errors.Is(err, statex.ErrRunNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (queryRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return queryRequest{}, false
	}
	req.Query = strings.TrimSpace(req.Query)
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response failed")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
