package repository

import "time"

// Option applies a configuration option to the ShardStore.
type Option func(*ShardStore)

// WithShardCount sets the number of shards in the store.
func WithShardCount(n int) Option {
	return func(s *ShardStore) {
		if n > 0 {
			s.shardCountHint = n
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *ShardStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
