// Package api exposes the post generator over HTTP. Each request gets
// its own provider and service: credentials arrive in the request body
// (or from the server's fallback key) and are passed straight into the
// per-request constructors, never into process environment.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	apppost "github.com/postgenhq/postgen/app/post"
	"github.com/postgenhq/postgen/graph"
	"github.com/postgenhq/postgen/llm"
	"github.com/postgenhq/postgen/observe"
	"github.com/postgenhq/postgen/providers/openai"
	"github.com/postgenhq/postgen/state"

	// Register the linear and supervised workflow patterns.
	graphspost "github.com/postgenhq/postgen/graphs/post"
)

type Config struct {
	Addr           string
	DefaultPattern string
	Model          string
	Store          state.Store
	Observer       observe.Sink
	MaxIterations  int
	// FallbackAPIKey is used when a request carries no key. Optional.
	FallbackAPIKey string
	// ProviderFactory overrides provider construction; tests use it to
	// avoid real API calls.
	ProviderFactory func(apiKey, model string) (llm.Provider, error)
}

type Server struct {
	cfg  Config
	mux  *http.ServeMux
	http *http.Server
	once sync.Once
}

func NewServer(cfg Config) *Server {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:8000"
	}
	if cfg.DefaultPattern == "" {
		cfg.DefaultPattern = graphspost.SupervisedName
	}
	if cfg.ProviderFactory == nil {
		cfg.ProviderFactory = func(apiKey, model string) (llm.Provider, error) {
			opts := []openai.Option{}
			if model != "" {
				opts = append(opts, openai.WithModel(model))
			}
			return openai.New(apiKey, opts...)
		}
	}

	s := &Server{cfg: cfg, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /", s.handleRoot)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /v1/generate-post", s.handleGenerate)
	s.mux.HandleFunc("GET /v1/runs", s.handleListRuns)
}

// Handler returns the HTTP handler; exposed for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) Start() error {
	s.once.Do(func() {
		s.http = &http.Server{
			Addr:              s.cfg.Addr,
			Handler:           s.mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	})
	log.Printf("postgen: api listening on %s", s.cfg.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

type generateRequest struct {
	PaperTitle      string `json:"paper_title"`
	OpenAIAPIKey    string `json:"openai_api_key,omitempty"`
	WorkflowPattern string `json:"workflow_pattern,omitempty"`
	Model           string `json:"model,omitempty"`
	SessionID       string `json:"session_id,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "postgen: paper-to-post generator API",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	req.PaperTitle = strings.TrimSpace(req.PaperTitle)
	if req.PaperTitle == "" {
		writeError(w, http.StatusBadRequest, "paper_title is required")
		return
	}
	apiKey := strings.TrimSpace(req.OpenAIAPIKey)
	if apiKey == "" {
		apiKey = s.cfg.FallbackAPIKey
	}
	if apiKey == "" {
		writeError(w, http.StatusBadRequest, "openai_api_key is required")
		return
	}

	pattern := req.WorkflowPattern
	if pattern == "" {
		pattern = s.cfg.DefaultPattern
	}
	model := req.Model
	if model == "" {
		model = s.cfg.Model
	}

	provider, err := s.cfg.ProviderFactory(apiKey, model)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to build provider: %v", err))
		return
	}

	var advisor graph.Advisor
	if pattern == graphspost.SupervisedName {
		advisor = &apppost.LLMAdvisor{Provider: provider, Model: model}
	}

	service, err := apppost.NewService(apppost.Config{
		Pattern:       pattern,
		Provider:      provider,
		Model:         model,
		Advisor:       advisor,
		Observer:      s.cfg.Observer,
		Store:         s.cfg.Store,
		SessionID:     req.SessionID,
		MaxIterations: s.cfg.MaxIterations,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	record := service.Generate(r.Context(), req.PaperTitle)
	status := http.StatusOK
	if record.Failed() {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, record)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		writeError(w, http.StatusNotImplemented, "run auditing is not configured")
		return
	}

	query := state.ListRunsQuery{
		SessionID: r.URL.Query().Get("session_id"),
		Pattern:   r.URL.Query().Get("pattern"),
		Status:    r.URL.Query().Get("status"),
	}
	runs, err := s.cfg.Store.ListRuns(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("postgen: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
