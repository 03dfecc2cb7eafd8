package auth

import (
	"net/http"
	"strings"
)

// SessionCookie is the cookie set at login/signup and read for
// browser-originated requests.
const SessionCookie = "token"

// Resolver turns a request credential into a verified identity. A missing,
// malformed or expired credential resolves to nil, never to an error, so
// callers can treat the request as anonymous.
type Resolver struct {
	secret string
}

func NewResolver(secret string) Resolver {
	return Resolver{secret: secret}
}

func (res Resolver) FromCookie(r *http.Request) *Claims {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims, err := ParseSessionToken(res.secret, cookie.Value)
	if err != nil {
		return nil
	}
	return claims
}

func (res Resolver) FromHeader(r *http.Request) *Claims {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return nil
	}
	claims, err := ParseSessionToken(res.secret, token)
	if err != nil {
		return nil
	}
	return claims
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
