// Package store holds the tracker's five collections in memory, mirrors them
// to the local cache after every change, and routes mutations to the backend
// selected by the session mode.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"discipline-tracker-go/models"
	"discipline-tracker-go/session"
)

const name = "discipline-tracker-go/store"

var (
	ErrNoSession            = errors.New("no user is logged in")
	ErrConfirmationRequired = errors.New("clearing the roster requires confirmation")
	ErrRemoteWrite          = errors.New("remote store write failed")
)

// Cache is the local persistent key/value storage the collections are
// mirrored to
type Cache interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Sessions gives access to the current session
type Sessions interface {
	Current() session.Session
}

type state struct {
	students     []models.Student
	records      []models.DisciplineRecord
	fitness      []models.FitnessRecord
	restrictions []models.Restriction
	duty         []models.DutyAssignment
}

type Store struct {
	mu    sync.RWMutex
	state state

	cache    Cache
	sessions Sessions
	remote   RemoteStore
	backend  Backend
	now      func() time.Time

	subMu       sync.Mutex
	unsubscribe []func()

	logger            *slog.Logger
	tracer            trace.Tracer
	mutationsCnt      metric.Int64Counter
	remoteFailuresCnt metric.Int64Counter
	snapshotsCnt      metric.Int64Counter
}

type Option func(*Store)

// WithLogger sets the logger, slog.Default() otherwise
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock replaces time.Now for stamping record dates
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New loads every collection from cache (or its default) and picks the
// backend: the remote store when the session is in cloud mode and remote is
// not nil, the in-memory collections otherwise.
func New(cache Cache, sessions Sessions, remote RemoteStore, opts ...Option) (*Store, error) {
	if cache == nil {
		return nil, errors.New("could not create store, the local cache is missing")
	}
	if sessions == nil {
		return nil, errors.New("could not create store, the session manager is missing")
	}

	s := &Store{
		cache:    cache,
		sessions: sessions,
		now:      time.Now,
		logger:   slog.Default(),
		tracer:   otel.Tracer(name),
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter(name)
	var err error
	s.mutationsCnt, err = meter.Int64Counter("tracker.mutations", metric.WithDescription("Number of mutation requests"))
	if err != nil {
		return nil, err
	}
	s.remoteFailuresCnt, err = meter.Int64Counter("tracker.remote_write_failures", metric.WithDescription("Number of failed remote store writes"))
	if err != nil {
		return nil, err
	}
	s.snapshotsCnt, err = meter.Int64Counter("tracker.snapshots_applied", metric.WithDescription("Number of remote snapshots received"))
	if err != nil {
		return nil, err
	}

	if sessions.Current().CloudActive && remote != nil {
		s.remote = remote
		s.backend = &remoteBackend{remote: remote}
	} else {
		s.backend = &localBackend{store: s}
	}

	s.load()
	return s, nil
}

// Mode is "cloud" when writes go to the remote store, "local" otherwise
func (s *Store) Mode() string {
	return s.backend.Mode()
}

func (s *Store) Students() []models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.students)
}

// DisciplineRecords returns the records newest first
func (s *Store) DisciplineRecords() []models.DisciplineRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.records)
}

func (s *Store) FitnessRecords() []models.FitnessRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.fitness)
}

func (s *Store) Restrictions() []models.Restriction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.restrictions)
}

func (s *Store) DutyRoster() []models.DutyAssignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.duty)
}

// Backup returns every collection
func (s *Store) Backup() models.Backup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Backup{
		Students:          nonNil(slices.Clone(s.state.students)),
		DisciplineRecords: nonNil(slices.Clone(s.state.records)),
		FitnessRecords:    nonNil(slices.Clone(s.state.fitness)),
		Restrictions:      nonNil(slices.Clone(s.state.restrictions)),
		DutyRoster:        nonNil(slices.Clone(s.state.duty)),
	}
}

// update applies fn to the collections and mirrors the result to the cache
func (s *Store) update(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	s.mirrorLocked()
}

// run executes a backend mutation with tracing and metrics. Remote write
// failures are logged and returned to the caller, never retried.
func (s *Store) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("mode", s.backend.Mode()),
	)
	s.mutationsCnt.Add(ctx, 1, attrs)

	err := fn(ctx)
	if err == nil {
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, ErrRemoteWrite) {
		s.remoteFailuresCnt.Add(ctx, 1, attrs)
	}
	s.logger.ErrorContext(ctx, "Mutation failed", "op", op, "mode", s.backend.Mode(), "error", err)
	return err
}

func remoteWriteError(err error) error {
	return fmt.Errorf("%w: %w", ErrRemoteWrite, err)
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
