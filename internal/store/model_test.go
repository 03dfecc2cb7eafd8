package store

import (
	"testing"
	"time"
)

func TestParseNotificationKind(t *testing.T) {
	valid := []string{"join_request", "join_approved", "join_declined", "report_shared", "achievement"}
	for _, kind := range valid {
		if _, err := ParseNotificationKind(kind); err != nil {
			t.Fatalf("expected kind %s to be valid", kind)
		}
	}
	if _, err := ParseNotificationKind("poke"); err == nil {
		t.Fatalf("expected unknown kind to error")
	}
	if _, err := ParseNotificationKind(""); err == nil {
		t.Fatalf("expected empty kind to error")
	}
}

func TestNewNotificationValidation(t *testing.T) {
	now := time.Now().UTC()

	if _, err := NewNotification("n1", "", NotificationJoinRequest, "body", nil, now); err == nil {
		t.Fatalf("expected missing user id to error")
	}
	if _, err := NewNotification("n1", "u1", "bogus", "body", nil, now); err == nil {
		t.Fatalf("expected unknown kind to error")
	}
	if _, err := NewNotification("n1", "u1", NotificationJoinRequest, "", nil, now); err == nil {
		t.Fatalf("expected missing body to error")
	}

	n, err := NewNotification("n1", "u1", NotificationJoinRequest, "X requested to join", nil, now)
	if err != nil {
		t.Fatalf("notification error: %v", err)
	}
	if n.Viewed {
		t.Fatalf("expected new notification to be unread")
	}
	if n.UserID != "u1" || n.Kind != NotificationJoinRequest {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestShareGrantActive(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	grant := ShareGrant{DocumentType: "report", DocumentID: "d1", SharedWithID: "u2"}
	if !grant.Active(now) {
		t.Fatalf("expected open-ended grant to be active")
	}

	grant.ExpiresAt = &future
	if !grant.Active(now) {
		t.Fatalf("expected unexpired grant to be active")
	}

	grant.ExpiresAt = &past
	if grant.Active(now) {
		t.Fatalf("expected expired grant to be inactive")
	}

	grant.ExpiresAt = &future
	grant.RevokedAt = &past
	if grant.Active(now) {
		t.Fatalf("expected revoked grant to be inactive")
	}
}
