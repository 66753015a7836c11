package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/postgenhq/postgen/state"
)

const (
	defaultTTL    = 72 * time.Hour
	defaultLimit  = 50
	defaultPrefix = "postgen"
)

type Store struct {
	client   *goredis.Client
	ttl      time.Duration
	prefix   string
	addr     string
	db       int
	password string
}

type Option func(*Store)

func WithPassword(password string) Option {
	return func(s *Store) {
		s.password = password
	}
}

func WithDB(db int) Option {
	return func(s *Store) {
		s.db = db
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if strings.TrimSpace(prefix) != "" {
			s.prefix = strings.TrimSpace(prefix)
		}
	}
}

func WithClient(client *goredis.Client) Option {
	return func(s *Store) {
		if client != nil {
			s.client = client
		}
	}
}

func New(addr string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	s := &Store{
		ttl:    defaultTTL,
		prefix: defaultPrefix,
		addr:   addr,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = goredis.NewClient(&goredis.Options{
			Addr:     s.addr,
			Password: s.password,
			DB:       s.db,
		})
	}

	if err := s.client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return s, nil
}

func (s *Store) SaveRun(ctx context.Context, run state.Run) error {
	if run.RunID == "" {
		return fmt.Errorf("run_id is required")
	}
	if run.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	now := time.Now().UTC()
	if run.CreatedAt == nil {
		run.CreatedAt = &now
	}

	runRaw, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	createdUnix := float64(run.CreatedAt.Unix())
	runKey := s.runKey(run.RunID)
	recentIdx := s.recentIndexKey()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, runKey, string(runRaw), s.ttl)
	pipe.ZAdd(ctx, recentIdx, goredis.Z{
		Score:  createdUnix,
		Member: run.RunID,
	})
	pipe.Expire(ctx, recentIdx, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save run in redis: %w", err)
	}
	return nil
}

func (s *Store) LoadRun(ctx context.Context, runID string) (state.Run, error) {
	if runID == "" {
		return state.Run{}, fmt.Errorf("run_id is required")
	}

	raw, err := s.client.Get(ctx, s.runKey(runID)).Result()
	if err != nil {
		if err == goredis.Nil {
			return state.Run{}, state.ErrNotFound
		}
		return state.Run{}, fmt.Errorf("failed to load run from redis: %w", err)
	}

	var run state.Run
	if err := json.Unmarshal([]byte(raw), &run); err != nil {
		return state.Run{}, fmt.Errorf("failed to decode run: %w", err)
	}
	return run, nil
}

func (s *Store) ListRuns(ctx context.Context, query state.ListRunsQuery) ([]state.Run, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	// Newest first; filters are applied after decode since runs are
	// stored as opaque JSON blobs.
	ids, err := s.client.ZRevRange(ctx, s.recentIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs from redis: %w", err)
	}

	runs := make([]state.Run, 0, limit)
	skipped := 0
	for _, id := range ids {
		run, err := s.LoadRun(ctx, id)
		if err != nil {
			if err == state.ErrNotFound {
				continue // expired entry still in the index
			}
			return nil, err
		}
		if query.SessionID != "" && run.SessionID != query.SessionID {
			continue
		}
		if query.Pattern != "" && run.Pattern != query.Pattern {
			continue
		}
		if query.Status != "" && run.Status != query.Status {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		runs = append(runs, run)
		if len(runs) >= limit {
			break
		}
	}
	return runs, nil
}

func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) runKey(runID string) string {
	return fmt.Sprintf("%s:run:%s", s.prefix, runID)
}

func (s *Store) recentIndexKey() string {
	return fmt.Sprintf("%s:runs:recent", s.prefix)
}
