// Package mail composes and dispatches transactional email. Dispatch is
// deduplicated through the email log so a recipient gets at most one email of
// a given kind per retention window.
package mail

import "fmt"

const (
	KindWelcome       = "welcome"
	KindVerification  = "verification"
	KindPasswordReset = "password_reset"
	KindJoinRequest   = "join_request"
	KindJoinApproved  = "join_approved"
)

var kinds = map[string]bool{
	KindWelcome:       true,
	KindVerification:  true,
	KindPasswordReset: true,
	KindJoinRequest:   true,
	KindJoinApproved:  true,
}

func ParseKind(s string) (string, error) {
	if !kinds[s] {
		return "", fmt.Errorf("unknown email kind %q", s)
	}
	return s, nil
}

// Email is a fully composed message ready for dispatch. UserID and TeamID are
// recorded in the email log entry for debugging.
type Email struct {
	To      string
	Kind    string
	Subject string
	HTML    string
	UserID  string
	TeamID  string
}
