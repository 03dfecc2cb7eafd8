package store

import (
	"fmt"
	"time"
)

type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Admin        bool
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NotificationKind is the closed set of in-app notification types. Unknown
// strings are rejected at construction time via ParseNotificationKind.
type NotificationKind string

const (
	NotificationJoinRequest  NotificationKind = "join_request"
	NotificationJoinApproved NotificationKind = "join_approved"
	NotificationJoinDeclined NotificationKind = "join_declined"
	NotificationReportShared NotificationKind = "report_shared"
	NotificationAchievement  NotificationKind = "achievement"
)

func ParseNotificationKind(value string) (NotificationKind, error) {
	switch NotificationKind(value) {
	case NotificationJoinRequest, NotificationJoinApproved, NotificationJoinDeclined,
		NotificationReportShared, NotificationAchievement:
		return NotificationKind(value), nil
	default:
		return "", fmt.Errorf("unknown notification kind %q", value)
	}
}

type Notification struct {
	ID        string
	UserID    string
	Kind      NotificationKind
	Body      string
	Link      *string
	Viewed    bool
	CreatedAt time.Time
}

// NewNotification validates the required fields before a notification ever
// reaches the store.
func NewNotification(id, userID string, kind NotificationKind, body string, link *string, now time.Time) (Notification, error) {
	if userID == "" {
		return Notification{}, ValidationError{Field: "user_id"}
	}
	if _, err := ParseNotificationKind(string(kind)); err != nil {
		return Notification{}, ValidationError{Field: "kind"}
	}
	if body == "" {
		return Notification{}, ValidationError{Field: "body"}
	}
	return Notification{
		ID:        id,
		UserID:    userID,
		Kind:      kind,
		Body:      body,
		Link:      link,
		Viewed:    false,
		CreatedAt: now,
	}, nil
}

// DocumentTypeReport is the only shareable document type today.
const DocumentTypeReport = "report"

// ShareGrant is an explicit, revocable, optionally time-limited permission for
// one user to view another's document. Grants are revoked, never deleted.
type ShareGrant struct {
	ID           string
	DocumentType string
	DocumentID   string
	GrantorID    string
	SharedWithID string
	CreatedAt    time.Time
	RevokedAt    *time.Time
	ExpiresAt    *time.Time
}

// Active reports whether the grant confers access at the given instant.
func (g ShareGrant) Active(now time.Time) bool {
	if g.RevokedAt != nil {
		return false
	}
	if g.ExpiresAt != nil && !g.ExpiresAt.After(now) {
		return false
	}
	return true
}

type Report struct {
	ID        string
	OwnerID   string
	Title     string
	Athlete   string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Team struct {
	ID        string
	Name      string
	Slug      string
	OwnerID   string
	CreatedAt time.Time
}

type TeamMember struct {
	TeamID      string
	UserID      string
	Role        string
	Pending     bool
	RequestedAt time.Time
	JoinedAt    *time.Time
}

type AttendanceRecord struct {
	ID          string
	UserID      string
	TeamID      string
	SessionDate time.Time
	Present     bool
}

type ValidationError struct {
	Field string
}

func (e ValidationError) Error() string {
	return "missing or invalid field: " + e.Field
}
