package auth

import (
	"context"
	"errors"
	"testing"
)

type fakeShares struct {
	granted bool
	err     error
}

func (f fakeShares) ActiveGrantExists(ctx context.Context, documentType, documentID, userID string) (bool, error) {
	return f.granted, f.err
}

func TestRequireAuthenticated(t *testing.T) {
	if RequireAuthenticated(nil) {
		t.Fatalf("expected nil identity to be rejected")
	}
	if !RequireAuthenticated(&Claims{UserID: "u1"}) {
		t.Fatalf("expected identity to pass")
	}
}

func TestRequireAdmin(t *testing.T) {
	if RequireAdmin(nil) {
		t.Fatalf("expected nil identity to be rejected")
	}
	if RequireAdmin(&Claims{UserID: "u1"}) {
		t.Fatalf("expected non-admin to be rejected")
	}
	if !RequireAdmin(&Claims{UserID: "u1", Admin: true}) {
		t.Fatalf("expected admin to pass")
	}
}

func TestCanAccessOwned(t *testing.T) {
	ctx := context.Background()
	owner := &Claims{UserID: "u1"}
	other := &Claims{UserID: "u2"}

	// Owner passes regardless of grants.
	if !CanAccessOwned(ctx, owner, "u1", fakeShares{}, "report", "d1") {
		t.Fatalf("expected owner access")
	}

	// Non-owner needs an active grant.
	if CanAccessOwned(ctx, other, "u1", fakeShares{}, "report", "d1") {
		t.Fatalf("expected non-owner without grant to be denied")
	}
	if !CanAccessOwned(ctx, other, "u1", fakeShares{granted: true}, "report", "d1") {
		t.Fatalf("expected grant holder to be allowed")
	}

	// Missing identity is denied, never an error.
	if CanAccessOwned(ctx, nil, "u1", fakeShares{granted: true}, "report", "d1") {
		t.Fatalf("expected nil identity to be denied")
	}

	// Lookup failure degrades to denied.
	if CanAccessOwned(ctx, other, "u1", fakeShares{err: errors.New("db down")}, "report", "d1") {
		t.Fatalf("expected lookup error to deny access")
	}
}
