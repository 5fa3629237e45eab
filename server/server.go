package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"

	"auto_content_syndicator/generator"
	"auto_content_syndicator/logger"
	"auto_content_syndicator/metrics"
	"auto_content_syndicator/publisher"
	"auto_content_syndicator/strategy"
)

// generateTimeout bounds one model call made on behalf of a request.
const generateTimeout = 60 * time.Second

// maxBody caps request bodies; drafts and upload batches are text only.
const maxBody = 8 << 20

type Server struct {
	agent     *generator.Agent
	compiler  *publisher.Compiler
	validator *strategy.Validator
	merger    *strategy.Merger
	metrics   *metrics.Collector
	store     *sessionStore
	log       *logger.Logger
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*generator.Session
}

func newStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*generator.Session)}
}

func (s *sessionStore) set(sess *generator.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *sessionStore) get(id string) (*generator.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// New wires the HTTP service. The compiler reports builder runs to m.
func New(agent *generator.Agent, compiler *publisher.Compiler, m *metrics.Collector, log *logger.Logger) (*Server, error) {
	if agent == nil {
		return nil, eris.New("generator agent required")
	}
	if compiler == nil {
		return nil, eris.New("payload compiler required")
	}
	if m == nil {
		m = metrics.New()
	}
	log = logger.OrNop(log)
	return &Server{
		agent:     agent,
		compiler:  compiler,
		validator: strategy.NewValidator(log),
		merger:    strategy.NewMerger(log),
		metrics:   m,
		store:     newStore(),
		log:       log,
	}, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logMiddleware)
	r.Use(s.metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBody))

	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/strategy/validate", s.handleValidate)
		r.Post("/context/merge", s.handleMerge)
		r.Post("/compile", s.handleCompile)
		r.Post("/sessions", s.handleSessionCreate)
		r.Get("/sessions/{id}", s.handleSessionGet)
		r.Post("/sessions/{id}", s.handleSessionRevise)
	})
	return r
}

// --- Helpers ---

type errorResp struct {
	Error  string   `json:"error"`
	Issues []string `json:"issues,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResp{Error: msg})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
