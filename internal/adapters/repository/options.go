package repository

import "time"

// MemStoreOption applies a configuration option to the MemStore.
type MemStoreOption func(*MemStore)

// WithResultTTL sets how long results stay retrievable.
func WithResultTTL(ttl time.Duration) MemStoreOption {
	return func(s *MemStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often expired results are purged.
func WithSweepInterval(interval time.Duration) MemStoreOption {
	return func(s *MemStore) {
		if interval > 0 {
			s.sweep = interval
		}
	}
}
