package auth

import "context"

// ShareLookup reports whether a non-revoked, non-expired share grant exists
// for (documentType, documentID, userID). Satisfied by the store.
type ShareLookup interface {
	ActiveGrantExists(ctx context.Context, documentType, documentID, userID string) (bool, error)
}

func RequireAuthenticated(claims *Claims) bool {
	return claims != nil
}

func RequireAdmin(claims *Claims) bool {
	return claims != nil && claims.Admin
}

// CanAccessOwned is the single ownership-or-shared decision procedure: the
// caller owns the document, or holds an active share grant for it. Lookup
// failures degrade to denied rather than erroring.
func CanAccessOwned(ctx context.Context, claims *Claims, ownerID string, shares ShareLookup, documentType, documentID string) bool {
	if claims == nil {
		return false
	}
	if claims.UserID == ownerID {
		return true
	}
	if shares == nil {
		return false
	}
	granted, err := shares.ActiveGrantExists(ctx, documentType, documentID, claims.UserID)
	if err != nil {
		return false
	}
	return granted
}
