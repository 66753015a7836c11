package post

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/postgenhq/postgen/graph"
	"github.com/postgenhq/postgen/llm"
	"github.com/postgenhq/postgen/observe"
	"github.com/postgenhq/postgen/state"
	"github.com/postgenhq/postgen/workflow"
)

// Config carries the per-request collaborators for one generation.
// Credentials live inside the provider; nothing here touches process
// environment state.
type Config struct {
	// Pattern selects the registered workflow ("linear" or
	// "supervised"). Defaults to supervised.
	Pattern       string
	Provider      llm.Provider
	Model         string
	Advisor       graph.Advisor
	Observer      observe.Sink
	Store         state.Store
	SessionID     string
	MaxIterations int
}

// Service turns a paper title into a vetted social post by driving one
// graph traversal per call. A Service is safe for concurrent use: every
// Generate builds its own executor and state.
type Service struct {
	cfg Config
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg.Pattern == "" {
		cfg.Pattern = "supervised"
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	return &Service{cfg: cfg}, nil
}

// Pattern reports the configured workflow pattern.
func (s *Service) Pattern() string { return s.cfg.Pattern }

// Generate runs the workflow for title. Any unrecovered failure is
// shaped into a failure record with diagnostics instead of a partial,
// successful-looking one; the caller always gets exactly one record.
func (s *Service) Generate(ctx context.Context, title string) RunRecord {
	startedAt := time.Now().UTC()

	if title == "" {
		return newFailureRecord(title, s.cfg.Pattern, startedAt,
			fmt.Errorf("paper title is required"))
	}

	builder, ok := workflow.Get(s.cfg.Pattern)
	if !ok {
		return newFailureRecord(title, s.cfg.Pattern, startedAt,
			fmt.Errorf("unknown workflow pattern %q", s.cfg.Pattern))
	}

	executor, err := builder.NewExecutor(workflow.Config{
		Provider:      s.cfg.Provider,
		Model:         s.cfg.Model,
		Advisor:       s.cfg.Advisor,
		Observer:      s.cfg.Observer,
		MaxIterations: s.cfg.MaxIterations,
		SessionID:     s.cfg.SessionID,
	})
	if err != nil {
		return newFailureRecord(title, s.cfg.Pattern, startedAt, err)
	}

	result, err := executor.Run(ctx, title)

	var record RunRecord
	if err != nil {
		record = newFailureRecord(title, s.cfg.Pattern, startedAt, err)
	} else {
		record = newRunRecord(result, s.cfg.Pattern)
	}

	s.persist(ctx, record)
	return record
}

func (s *Service) persist(ctx context.Context, record RunRecord) {
	if s.cfg.Store == nil {
		return
	}

	payload, err := json.Marshal(record)
	if err != nil {
		log.Printf("postgen: failed to encode run %s for audit: %v", record.RunID, err)
		return
	}

	status := state.StatusCompleted
	errText := ""
	if record.Failed() {
		status = state.StatusFailed
		if record.Diagnostics != nil {
			errText = record.Diagnostics.ErrorMessage
		}
	}
	completedAt := record.CompletedAt
	run := state.Run{
		RunID:       record.RunID,
		SessionID:   s.cfg.SessionID,
		Pattern:     record.WorkflowPattern,
		Status:      status,
		Title:       record.Title,
		Post:        record.Post,
		Error:       errText,
		Payload:     payload,
		CreatedAt:   &record.StartedAt,
		CompletedAt: &completedAt,
	}
	if err := s.cfg.Store.SaveRun(ctx, run); err != nil {
		log.Printf("postgen: failed to persist run %s: %v", record.RunID, err)
	}
}
