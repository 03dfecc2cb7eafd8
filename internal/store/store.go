package store

import (
	"context"
	"time"
)

type UserUpdate struct {
	Email        *string
	Username     *string
	FirstName    *string
	LastName     *string
	PasswordHash *string
	Verified     *bool
}

type Store interface {
	// Users
	CreateUser(ctx context.Context, user User) error
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, id string, update UserUpdate) (User, error)
	ListUsers(ctx context.Context, limit int) ([]User, error)

	// Notifications
	CreateNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, userID string, onlyUnread bool, limit int) ([]Notification, error)
	MarkNotificationViewed(ctx context.Context, notificationID, userID string) (int64, error)
	DeleteNotificationOwned(ctx context.Context, notificationID, userID string) (int64, error)

	// Share grants
	CreateShareGrant(ctx context.Context, grant ShareGrant) error
	RevokeShareGrant(ctx context.Context, documentType, documentID, sharedWithID string, revokedAt time.Time) (int64, error)
	ListShareGrants(ctx context.Context, documentType, documentID string) ([]ShareGrant, error)
	ActiveGrantExists(ctx context.Context, documentType, documentID, userID string) (bool, error)

	// Reports
	CreateReport(ctx context.Context, report Report) error
	GetReport(ctx context.Context, id string) (Report, error)

	// Teams
	CreateTeam(ctx context.Context, team Team, owner TeamMember) error
	GetTeamBySlug(ctx context.Context, slug string) (Team, error)
	CreateTeamMember(ctx context.Context, member TeamMember) error
	GetTeamMember(ctx context.Context, teamID, userID string) (TeamMember, error)
	ApproveTeamMember(ctx context.Context, teamID, userID string, joinedAt time.Time) error
	DeleteTeamMember(ctx context.Context, teamID, userID string) error

	// Attendance
	ListAttendanceByUser(ctx context.Context, userID string) ([]AttendanceRecord, error)
}
