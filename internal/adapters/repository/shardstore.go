package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/steadilab/steadi/internal/domain/model"
	"github.com/steadilab/steadi/pkg/metrics"
)

// Sharded, in-memory Store implementation.
//
// Results are keyed by session id and spread over a fixed set of
// map+mutex shards so concurrent session finalizations never contend
// on one lock. Recency is tracked separately in an append-only order
// list under its own mutex; Recent walks it backwards.

const (
	defaultShardCount      = 8
	defaultMetricsInterval = 5 * time.Second
)

type shard struct {
	mu   sync.RWMutex
	byID map[string]model.Result
}

// ShardStore is the in-memory Store used by the service.
type ShardStore struct {
	shards         []*shard
	shardCountHint int

	// Completion order, oldest first. Overwrites do not re-order.
	orderMu sync.RWMutex
	order   []string

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewShardStore constructs a sharded result store with configuration
// options and starts its background metrics updater.
func NewShardStore(ctx context.Context, opts ...Option) *ShardStore {
	s := &ShardStore{
		shardCountHint:        defaultShardCount,
		metricsUpdateInterval: defaultMetricsInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCountHint)
	for i := range s.shards {
		s.shards[i] = &shard{byID: make(map[string]model.Result)}
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	return s
}

// Close gracefully shuts down the background metrics goroutine.
func (s *ShardStore) Close() error {
	select {
	case <-s.stopChan:
		// Channel already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Put implements Store.Put.
func (s *ShardStore) Put(ctx context.Context, res model.Result) error {
	start := time.Now()

	sh := s.shardFor(res.SessionID)
	sh.mu.Lock()
	_, existed := sh.byID[res.SessionID]
	sh.byID[res.SessionID] = res
	sh.mu.Unlock()

	if !existed {
		s.orderMu.Lock()
		s.order = append(s.order, res.SessionID)
		s.orderMu.Unlock()
	}

	metrics.RecordStorePutLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	return nil
}

// Get implements Store.Get.
func (s *ShardStore) Get(ctx context.Context, sessionID string) (model.Result, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	sh := s.shardFor(sessionID)
	sh.mu.RLock()
	res, ok := sh.byID[sessionID]
	sh.mu.RUnlock()
	if !ok {
		return model.Result{}, ErrNotFound
	}
	return res, nil
}

// Recent implements Store.Recent, newest first.
func (s *ShardStore) Recent(ctx context.Context, n int) ([]model.Result, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}

	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	s.orderMu.RLock()
	ids := make([]string, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(ids) < n; i-- {
		ids = append(ids, s.order[i])
	}
	s.orderMu.RUnlock()

	out := make([]model.Result, 0, len(ids))
	for _, id := range ids {
		res, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

// Count implements Store.Count.
func (s *ShardStore) Count(ctx context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.byID)
		sh.mu.RUnlock()
	}
	return total
}

func (s *ShardStore) shardFor(sessionID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *ShardStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoreResultsTotal(s.Count(ctx))
			}
		}
	}()
}
