// Package maillog keeps a short-lived record of transactional emails so the
// same email type is not re-sent to a recipient within the retention window.
// Entries expire through key TTLs; there is no manual cleanup.
package maillog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Entry struct {
	Recipient string `json:"recipient"`
	EmailType string `json:"email_type"`
	UserID    string `json:"user_id,omitempty"`
	TeamID    string `json:"team_id,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Log is the dedup capability used by the email dispatcher. MarkIfAbsent must
// be atomic: when two concurrent sends race, exactly one observes created=true.
type Log interface {
	MarkIfAbsent(ctx context.Context, entry Entry, ttl time.Duration) (bool, error)
	Unmark(ctx context.Context, recipient, emailType string) error
}

type RedisLog struct {
	client *redis.Client
}

func NewRedisLog(client *redis.Client) *RedisLog {
	return &RedisLog{client: client}
}

// MarkIfAbsent writes the entry with SET NX EX. A false result means an
// unexpired entry already exists and the send should be skipped.
func (l *RedisLog) MarkIfAbsent(ctx context.Context, entry Entry, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return false, err
	}
	return l.client.SetNX(ctx, entryKey(entry.Recipient, entry.EmailType), data, ttl).Result()
}

// Unmark removes the entry so a failed send stays retryable.
func (l *RedisLog) Unmark(ctx context.Context, recipient, emailType string) error {
	return l.client.Del(ctx, entryKey(recipient, emailType)).Err()
}

func entryKey(recipient, emailType string) string {
	return fmt.Sprintf("email_log:%s:%s", emailType, recipient)
}
