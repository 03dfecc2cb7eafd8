package maillog

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLogMarkIfAbsent(t *testing.T) {
	log := NewMemoryLog()
	ctx := context.Background()
	entry := Entry{Recipient: "u1@example.com", EmailType: "welcome"}

	created, err := log.MarkIfAbsent(ctx, entry, time.Hour)
	if err != nil {
		t.Fatalf("mark error: %v", err)
	}
	if !created {
		t.Fatalf("expected first mark to create an entry")
	}

	created, err = log.MarkIfAbsent(ctx, entry, time.Hour)
	if err != nil {
		t.Fatalf("mark error: %v", err)
	}
	if created {
		t.Fatalf("expected second mark within the window to be suppressed")
	}

	// Another email type for the same recipient is independent.
	created, err = log.MarkIfAbsent(ctx, Entry{Recipient: "u1@example.com", EmailType: "password_reset"}, time.Hour)
	if err != nil {
		t.Fatalf("mark error: %v", err)
	}
	if !created {
		t.Fatalf("expected different email type to create an entry")
	}
}

func TestMemoryLogExpiry(t *testing.T) {
	log := NewMemoryLog()
	ctx := context.Background()
	entry := Entry{Recipient: "u1@example.com", EmailType: "welcome"}

	if created, _ := log.MarkIfAbsent(ctx, entry, time.Millisecond); !created {
		t.Fatalf("expected first mark to create an entry")
	}
	time.Sleep(5 * time.Millisecond)
	if created, _ := log.MarkIfAbsent(ctx, entry, time.Hour); !created {
		t.Fatalf("expected expired entry to allow a new mark")
	}
}

func TestMemoryLogUnmark(t *testing.T) {
	log := NewMemoryLog()
	ctx := context.Background()
	entry := Entry{Recipient: "u1@example.com", EmailType: "welcome"}

	if created, _ := log.MarkIfAbsent(ctx, entry, time.Hour); !created {
		t.Fatalf("expected mark to create an entry")
	}
	if err := log.Unmark(ctx, entry.Recipient, entry.EmailType); err != nil {
		t.Fatalf("unmark error: %v", err)
	}
	if created, _ := log.MarkIfAbsent(ctx, entry, time.Hour); !created {
		t.Fatalf("expected unmarked entry to allow a new mark")
	}
}
