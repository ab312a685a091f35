// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	repository "github.com/steadilab/steadi/internal/adapters/repository"
	"github.com/steadilab/steadi/internal/domain/gaze"
	"github.com/steadilab/steadi/internal/domain/model"
	"github.com/steadilab/steadi/internal/domain/scoring"
	"github.com/steadilab/steadi/internal/domain/session"
	"github.com/steadilab/steadi/internal/domain/types"
	"github.com/steadilab/steadi/pkg/logger"
	"github.com/steadilab/steadi/pkg/metrics"
)

// Default service configuration.
const (
	defaultTaskDuration   = 30 * time.Second
	defaultCountdown      = 3 * time.Second
	defaultTargetInterval = 2 * time.Second
	defaultMaxRecentLimit = 100
	defaultShardCount     = 8

	// How long a finished session stays in the registry after its
	// result has been handed to the store. Late polls are served from
	// the store once the session is reaped.
	defaultDoneRetention = time.Minute
)

// Service owns the session registry and the result store for the
// screening engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	sessions map[string]*session.Session

	// Configuration
	shardCount      int
	maxRecentLimit  int
	taskDuration    time.Duration
	countdown       time.Duration
	targetInterval  time.Duration
	onTargetRadius  float64
	scoringOverride []scoring.Option
	doneRetention   time.Duration

	// State
	started  bool
	ownStore bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects a result store. Without it the service builds its
// own sharded in-memory store on Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithShardCount sets the shard count of the service-owned store.
func WithShardCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithMaxRecentLimit caps how many results a recent query may return.
func WithMaxRecentLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRecentLimit = n
		}
	}
}

// WithTaskDuration sets the tracking-phase length of new sessions.
func WithTaskDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.taskDuration = d
		}
	}
}

// WithCountdown sets the pre-tracking countdown of new sessions.
func WithCountdown(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.countdown = d
		}
	}
}

// WithTargetInterval sets the ocular target relocation interval.
func WithTargetInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.targetInterval = d
		}
	}
}

// WithOnTargetRadius sets the on-target classification radius.
func WithOnTargetRadius(r float64) Option {
	return func(s *Service) {
		if r > 0 {
			s.onTargetRadius = r
		}
	}
}

// WithScoringOptions forwards scoring overrides to every new session.
func WithScoringOptions(opts ...scoring.Option) Option {
	return func(s *Service) {
		s.scoringOverride = append(s.scoringOverride, opts...)
	}
}

// WithDoneRetention sets how long finished sessions stay registered.
func WithDoneRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.doneRetention = d
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:       make(map[string]*session.Session),
		shardCount:     defaultShardCount,
		maxRecentLimit: defaultMaxRecentLimit,
		taskDuration:   defaultTaskDuration,
		countdown:      defaultCountdown,
		targetInterval: defaultTargetInterval,
		doneRetention:  defaultDoneRetention,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting screening service...")

	if s.store == nil {
		s.store = repository.NewShardStore(ctx,
			repository.WithShardCount(s.shardCount),
		)
		s.ownStore = true
		s.logger.Info(ctx, "using sharded in-memory result store",
			logger.Int("shards", s.shardCount))
	}

	s.started = true
	s.logger.Info(ctx, "screening service started",
		logger.Duration("taskDuration", s.taskDuration),
		logger.Duration("countdown", s.countdown),
		logger.Duration("targetInterval", s.targetInterval),
	)

	return nil
}

// Stop gracefully shuts down the service: every live session's drivers
// are stopped before the store is closed.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info(ctx, "stopping screening service...")

	for id, sess := range s.sessions {
		if err := sess.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "session shutdown timed out",
				logger.String("session_id", id), logger.Error(err))
		}
		delete(s.sessions, id)
	}
	metrics.UpdateActiveSessions(0)

	if s.ownStore {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}

	s.started = false
	s.logger.Info(ctx, "screening service stopped")
}

// CreateSession registers a new session for the given task kind and
// returns its id. The model-ready signal is applied immediately: the
// landmark source in this deployment is the caller pushing frames, so
// a created session is startable at once.
func (s *Service) CreateSession(ctx context.Context, task types.TaskKind) (string, error) {
	if !task.Valid() {
		return "", ErrUnknownTask
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return "", ErrNotStarted
	}

	id := uuid.NewString()
	sess := session.New(id, task,
		session.WithLogger(s.logger),
		session.WithDuration(s.taskDuration),
		session.WithCountdown(s.countdown),
		session.WithTargetInterval(s.targetInterval),
		session.WithScoringOptions(s.scoringOverride...),
		session.WithTrackerOptions(s.trackerOptions()...),
		session.WithOnDone(func(res model.Result) {
			s.storeResult(res)
		}),
	)
	if err := sess.ModelReady(ctx); err != nil {
		return "", err
	}

	s.sessions[id] = sess
	metrics.RecordSessionStarted(string(task))
	metrics.UpdateActiveSessions(len(s.sessions))

	s.logger.Info(ctx, "session created",
		logger.String("session_id", id),
		logger.String("task", string(task)))
	return id, nil
}

// Command applies a host command to a session.
func (s *Service) Command(ctx context.Context, id string, cmd session.Command) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	return sess.Apply(ctx, cmd)
}

// PushFrame feeds one landmark frame to a session and returns the live
// readout.
func (s *Service) PushFrame(ctx context.Context, id string, frame model.Frame) (session.Status, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return session.Status{}, err
	}
	return sess.ProcessFrame(ctx, frame)
}

// SessionStatus returns the current readout without processing a frame.
func (s *Service) SessionStatus(ctx context.Context, id string) (session.Status, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return session.Status{}, err
	}
	return sess.Status(), nil
}

// Result returns the final result of a session. Live sessions report
// session.ErrNotFinished; reaped sessions are served from the store.
func (s *Service) Result(ctx context.Context, id string) (model.Result, error) {
	sess, err := s.lookup(id)
	if err == nil {
		return sess.Result(ctx)
	}

	res, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Result{}, ErrSessionNotFound
	}
	return res, nil
}

// RecentResults returns up to n recent results, newest first. The limit
// is clamped to the configured maximum.
func (s *Service) RecentResults(ctx context.Context, n int) ([]model.Result, error) {
	if n <= 0 {
		return nil, repository.ErrInvalidLimit
	}
	if n > s.maxRecentLimit {
		n = s.maxRecentLimit
	}
	return s.store.Recent(ctx, n)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"taskDuration":   s.taskDuration.String(),
		"countdown":      s.countdown.String(),
		"activeSessions": len(s.sessions),
	}

	if s.started {
		totalResults := s.store.Count(ctx)
		stats["totalResults"] = totalResults

		// Update metrics
		metrics.UpdateStoreResultsTotal(totalResults)
		metrics.UpdateActiveSessions(len(s.sessions))
	}

	return stats
}

func (s *Service) lookup(id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) trackerOptions() []gaze.TrackerOption {
	var opts []gaze.TrackerOption
	if s.onTargetRadius > 0 {
		opts = append(opts, gaze.WithOnTargetRadius(s.onTargetRadius))
	}
	return opts
}

// storeResult persists a finished session's record and schedules the
// session's removal from the registry.
func (s *Service) storeResult(res model.Result) {
	ctx := context.Background()
	if err := s.store.Put(ctx, res); err != nil {
		metrics.RecordErrorByComponent("service", "store_put")
		s.logger.Error(ctx, "failed to store result",
			logger.String("session_id", res.SessionID), logger.Error(err))
		return
	}

	time.AfterFunc(s.doneRetention, func() {
		s.mu.Lock()
		delete(s.sessions, res.SessionID)
		count := len(s.sessions)
		s.mu.Unlock()
		metrics.UpdateActiveSessions(count)
	})
}
