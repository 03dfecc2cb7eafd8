package maillog

import (
	"context"
	"sync"
	"time"
)

// MemoryLog is a process-local Log for development setups without redis and
// for tests. Expiry is checked lazily on access.
type MemoryLog struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{entries: make(map[string]time.Time)}
}

func (l *MemoryLog) MarkIfAbsent(ctx context.Context, entry Entry, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := entryKey(entry.Recipient, entry.EmailType)
	now := time.Now()
	if deadline, ok := l.entries[key]; ok && deadline.After(now) {
		return false, nil
	}
	l.entries[key] = now.Add(ttl)
	return true, nil
}

func (l *MemoryLog) Unmark(ctx context.Context, recipient, emailType string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, entryKey(recipient, emailType))
	return nil
}
