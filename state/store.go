// Package state persists finished run records for auditing. Storage is
// optional: a traversal never depends on it, and in-flight state is
// never written, only the final record of a completed or failed run.
package state

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("state: not found")

type ListRunsQuery struct {
	SessionID string
	Pattern   string
	Status    string
	Limit     int
	Offset    int
}

type Store interface {
	SaveRun(ctx context.Context, run Run) error
	LoadRun(ctx context.Context, runID string) (Run, error)
	ListRuns(ctx context.Context, query ListRunsQuery) ([]Run, error)

	Close() error
}
