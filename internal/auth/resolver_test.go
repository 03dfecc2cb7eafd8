package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestResolveFromCookie(t *testing.T) {
	res := NewResolver("secret")
	token, err := NewSessionToken("secret", "matscout", time.Minute, Claims{UserID: "u1"})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	claims := res.FromCookie(req)
	if claims == nil || claims.UserID != "u1" {
		t.Fatalf("expected identity u1, got %+v", claims)
	}

	// No cookie resolves to anonymous.
	if claims := res.FromCookie(httptest.NewRequest(http.MethodGet, "/", nil)); claims != nil {
		t.Fatalf("expected nil identity without cookie")
	}

	// Garbage cookie resolves to anonymous, not an error.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-token"})
	if claims := res.FromCookie(req); claims != nil {
		t.Fatalf("expected nil identity for malformed cookie")
	}
}

func TestResolveFromHeader(t *testing.T) {
	res := NewResolver("secret")
	token, err := NewSessionToken("secret", "matscout", time.Minute, Claims{UserID: "u2"})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	claims := res.FromHeader(req)
	if claims == nil || claims.UserID != "u2" {
		t.Fatalf("expected identity u2, got %+v", claims)
	}

	// Wrong scheme is rejected.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic "+token)
	if claims := res.FromHeader(req); claims != nil {
		t.Fatalf("expected nil identity for non-bearer scheme")
	}

	// Header resolver ignores cookies.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	if claims := res.FromHeader(req); claims != nil {
		t.Fatalf("expected header resolver to ignore cookie credential")
	}

	if claims := res.FromHeader(httptest.NewRequest(http.MethodGet, "/", nil)); claims != nil {
		t.Fatalf("expected nil identity without header")
	}
}
