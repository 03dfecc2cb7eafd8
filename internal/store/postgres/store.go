package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"matscout/server/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, user store.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, username, password_hash, first_name, last_name, admin, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, user.ID, user.Email, user.Username, user.PasswordHash, user.FirstName, user.LastName, user.Admin, user.Verified, user.CreatedAt, user.UpdatedAt)
	return mapError(err)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (store.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `
		SELECT id, email, username, password_hash, first_name, last_name, admin, verified, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `
		SELECT id, email, username, password_hash, first_name, last_name, admin, verified, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email))
}

func (s *Store) scanUser(row pgx.Row) (store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Admin,
		&user.Verified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, mapError(err)
}

func (s *Store) UpdateUser(ctx context.Context, id string, update store.UserUpdate) (store.User, error) {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET
			email = COALESCE($2, email),
			username = COALESCE($3, username),
			first_name = COALESCE($4, first_name),
			last_name = COALESCE($5, last_name),
			password_hash = COALESCE($6, password_hash),
			verified = COALESCE($7, verified),
			updated_at = $8
		WHERE id = $1
	`, id, update.Email, update.Username, update.FirstName, update.LastName, update.PasswordHash, update.Verified, time.Now().UTC())
	if err != nil {
		return store.User{}, mapError(err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) ListUsers(ctx context.Context, limit int) ([]store.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, email, username, password_hash, first_name, last_name, admin, verified, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []store.User
	for rows.Next() {
		var user store.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Username,
			&user.PasswordHash,
			&user.FirstName,
			&user.LastName,
			&user.Admin,
			&user.Verified,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, mapError(err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Notifications

func (s *Store) CreateNotification(ctx context.Context, n store.Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, kind, body, link, viewed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.UserID, string(n.Kind), n.Body, n.Link, n.Viewed, n.CreatedAt)
	return mapError(err)
}

func (s *Store) ListNotifications(ctx context.Context, userID string, onlyUnread bool, limit int) ([]store.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, kind, body, link, viewed, created_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = false OR viewed = false)
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, onlyUnread, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var notifications []store.Notification
	for rows.Next() {
		var n store.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.Body, &n.Link, &n.Viewed, &n.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		n.Kind = store.NotificationKind(kind)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *Store) MarkNotificationViewed(ctx context.Context, notificationID, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET viewed = true
		WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteNotificationOwned deletes only when the notification belongs to
// userID. Zero rows affected is not an error.
func (s *Store) DeleteNotificationOwned(ctx context.Context, notificationID, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM notifications
		WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

// Share grants

func (s *Store) CreateShareGrant(ctx context.Context, grant store.ShareGrant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO share_grants (id, document_type, document_id, grantor_id, shared_with_id, created_at, revoked_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, grant.ID, grant.DocumentType, grant.DocumentID, grant.GrantorID, grant.SharedWithID, grant.CreatedAt, grant.RevokedAt, grant.ExpiresAt)
	return mapError(err)
}

func (s *Store) RevokeShareGrant(ctx context.Context, documentType, documentID, sharedWithID string, revokedAt time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE share_grants SET revoked_at = $4
		WHERE document_type = $1 AND document_id = $2 AND shared_with_id = $3 AND revoked_at IS NULL
	`, documentType, documentID, sharedWithID, revokedAt)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) ListShareGrants(ctx context.Context, documentType, documentID string) ([]store.ShareGrant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, document_type, document_id, grantor_id, shared_with_id, created_at, revoked_at, expires_at
		FROM share_grants
		WHERE document_type = $1 AND document_id = $2
		ORDER BY created_at DESC
	`, documentType, documentID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var grants []store.ShareGrant
	for rows.Next() {
		var grant store.ShareGrant
		if err := rows.Scan(
			&grant.ID,
			&grant.DocumentType,
			&grant.DocumentID,
			&grant.GrantorID,
			&grant.SharedWithID,
			&grant.CreatedAt,
			&grant.RevokedAt,
			&grant.ExpiresAt,
		); err != nil {
			return nil, mapError(err)
		}
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}

func (s *Store) ActiveGrantExists(ctx context.Context, documentType, documentID, userID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM share_grants
			WHERE document_type = $1 AND document_id = $2 AND shared_with_id = $3
				AND revoked_at IS NULL
				AND (expires_at IS NULL OR expires_at > now())
		)
	`, documentType, documentID, userID).Scan(&exists)
	return exists, mapError(err)
}

// Reports

func (s *Store) CreateReport(ctx context.Context, report store.Report) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reports (id, owner_id, title, athlete, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, report.ID, report.OwnerID, report.Title, report.Athlete, report.Body, report.CreatedAt, report.UpdatedAt)
	return mapError(err)
}

func (s *Store) GetReport(ctx context.Context, id string) (store.Report, error) {
	var report store.Report
	err := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, title, athlete, body, created_at, updated_at
		FROM reports
		WHERE id = $1
	`, id).Scan(
		&report.ID,
		&report.OwnerID,
		&report.Title,
		&report.Athlete,
		&report.Body,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	return report, mapError(err)
}

// Teams

func (s *Store) CreateTeam(ctx context.Context, team store.Team, owner store.TeamMember) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO teams (id, name, slug, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, team.ID, team.Name, team.Slug, team.OwnerID, team.CreatedAt); err != nil {
		return mapError(err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, role, pending, requested_at, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, owner.TeamID, owner.UserID, owner.Role, owner.Pending, owner.RequestedAt, owner.JoinedAt); err != nil {
		return mapError(err)
	}
	return tx.Commit(ctx)
}

func (s *Store) GetTeamBySlug(ctx context.Context, slug string) (store.Team, error) {
	var team store.Team
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, slug, owner_id, created_at
		FROM teams
		WHERE slug = $1
	`, slug).Scan(&team.ID, &team.Name, &team.Slug, &team.OwnerID, &team.CreatedAt)
	return team, mapError(err)
}

func (s *Store) CreateTeamMember(ctx context.Context, member store.TeamMember) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, role, pending, requested_at, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, member.TeamID, member.UserID, member.Role, member.Pending, member.RequestedAt, member.JoinedAt)
	return mapError(err)
}

func (s *Store) GetTeamMember(ctx context.Context, teamID, userID string) (store.TeamMember, error) {
	var member store.TeamMember
	err := s.pool.QueryRow(ctx, `
		SELECT team_id, user_id, role, pending, requested_at, joined_at
		FROM team_members
		WHERE team_id = $1 AND user_id = $2
	`, teamID, userID).Scan(&member.TeamID, &member.UserID, &member.Role, &member.Pending, &member.RequestedAt, &member.JoinedAt)
	return member, mapError(err)
}

func (s *Store) ApproveTeamMember(ctx context.Context, teamID, userID string, joinedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE team_members SET pending = false, joined_at = $3
		WHERE team_id = $1 AND user_id = $2 AND pending = true
	`, teamID, userID, joinedAt)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotPending
	}
	return nil
}

func (s *Store) DeleteTeamMember(ctx context.Context, teamID, userID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM team_members
		WHERE team_id = $1 AND user_id = $2
	`, teamID, userID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotMember
	}
	return nil
}

// Attendance

func (s *Store) ListAttendanceByUser(ctx context.Context, userID string) ([]store.AttendanceRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, team_id, session_date, present
		FROM attendance_records
		WHERE user_id = $1
		ORDER BY session_date ASC
	`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var records []store.AttendanceRecord
	for rows.Next() {
		var record store.AttendanceRecord
		if err := rows.Scan(&record.ID, &record.UserID, &record.TeamID, &record.SessionDate, &record.Present); err != nil {
			return nil, mapError(err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrDuplicate
	}
	return err
}
