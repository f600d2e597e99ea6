// Package replay implements the bounded, time-windowed ledger of consumed
// decision digests. Entries age out lazily: purging happens on the next
// write, never in the background.
package replay

import (
	"context"
	"sync"

	"catetrust/internal/domain"
)

const (
	// DefaultCapacity matches the ledger created at bootstrap.
	DefaultCapacity = 1000
	// DefaultRetentionSeconds is the freshness window for consumed digests.
	DefaultRetentionSeconds = 3600
)

type MemoryLedger struct {
	mu        sync.Mutex
	entries   []domain.DecisionRecord
	capacity  int
	retention int64
}

type MemoryLedgerConfig struct {
	Capacity         int
	RetentionSeconds int64
}

func NewMemoryLedger(cfg MemoryLedgerConfig) *MemoryLedger {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.RetentionSeconds <= 0 {
		cfg.RetentionSeconds = DefaultRetentionSeconds
	}
	return &MemoryLedger{
		capacity:  cfg.Capacity,
		retention: cfg.RetentionSeconds,
	}
}

// Init empties the ledger. Called once at bootstrap.
func (l *MemoryLedger) Init(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
	return nil
}

// CheckFresh reports whether no entry with this digest exists within the
// retention window as of the given timestamp. Stale entries do not count;
// they are removed by the next Consume.
func (l *MemoryLedger) CheckFresh(_ context.Context, digest domain.Digest, asOf int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.Digest == digest && asOf-e.ProducedAt < l.retention {
			return false, nil
		}
	}
	return true, nil
}

// Consume purges entries older than the retention window relative to
// producedAt, then appends. The ledger size stays strictly below capacity
// after every successful insertion.
func (l *MemoryLedger) Consume(_ context.Context, digest domain.Digest, producedAt int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	for _, e := range l.entries {
		if producedAt-e.ProducedAt < l.retention {
			kept = append(kept, e)
		}
	}
	l.entries = kept

	if len(l.entries)+1 >= l.capacity {
		return domain.ErrLedgerFull
	}
	l.entries = append(l.entries, domain.DecisionRecord{Digest: digest, ProducedAt: producedAt})
	return nil
}

// Release removes a digest consumed earlier in the same publish attempt.
// Used to roll back when a later step of the attempt fails.
func (l *MemoryLedger) Release(_ context.Context, digest domain.Digest) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.Digest == digest {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

// Len is exposed for tests.
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
