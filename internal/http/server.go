package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"matscout/server/internal/achievements"
	"matscout/server/internal/auth"
	"matscout/server/internal/config"
	"matscout/server/internal/crypto"
	"matscout/server/internal/mail"
	"matscout/server/internal/store"
)

type Server struct {
	cfg      config.Config
	store    store.Store
	resolver auth.Resolver
	mailer   *mail.Dispatcher
	deriver  *achievements.Deriver
}

func NewServer(cfg config.Config, st store.Store, mailer *mail.Dispatcher) *Server {
	return &Server{
		cfg:      cfg,
		store:    st,
		resolver: auth.NewResolver(cfg.JWTSecret),
		mailer:   mailer,
		deriver:  achievements.NewDeriver(st),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)
	r.Post("/auth/password-reset", s.handlePasswordReset)

	r.With(s.authMiddleware).Get("/users/me", s.handleGetMe)
	r.With(s.authMiddleware).Get("/achievements", s.handleGetMyAchievements)
	r.With(s.authMiddleware, s.requireAdmin).Get("/users/{userId}/achievements", s.handleGetUserAchievements)
	r.With(s.authMiddleware, s.requireAdmin).Get("/admin/users", s.handleListUsers)

	r.With(s.authMiddleware).Get("/notifications", s.handleListNotifications)
	r.With(s.authMiddleware).Post("/notifications/{notificationId}/viewed", s.handleMarkNotificationViewed)
	r.With(s.authMiddleware).Delete("/notifications/{notificationId}", s.handleDeleteNotification)

	r.With(s.authMiddleware).Post("/teams", s.handleCreateTeam)
	r.With(s.authMiddleware).Get("/teams/{slug}", s.handleGetTeam)
	r.With(s.authMiddleware).Post("/teams/{slug}/join", s.handleJoinTeam)
	r.With(s.authMiddleware).Post("/teams/{slug}/members/{userId}/approve", s.handleApproveMember)
	r.With(s.authMiddleware).Post("/teams/{slug}/members/{userId}/decline", s.handleDeclineMember)

	r.With(s.authMiddleware).Post("/reports", s.handleCreateReport)
	r.With(s.authMiddleware).Get("/reports/{reportId}", s.handleGetReport)
	r.With(s.authMiddleware).Post("/reports/{reportId}/shares", s.handleCreateShare)
	r.With(s.authMiddleware).Get("/reports/{reportId}/shares", s.handleListShares)
	r.With(s.authMiddleware).Delete("/reports/{reportId}/shares/{userId}", s.handleRevokeShare)

	return r
}

// Auth

type claimsKey struct{}

// sessionClaims resolves the caller's identity from the Authorization header
// first, then the session cookie. API callers send the bearer header; the
// browser sends the cookie.
func (s *Server) sessionClaims(r *http.Request) *auth.Claims {
	if claims := s.resolver.FromHeader(r); claims != nil {
		return claims
	}
	return s.resolver.FromCookie(r)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := s.sessionClaims(r)
		if !auth.RequireAuthenticated(claims) {
			writeError(w, http.StatusUnauthorized, "authentication_required")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.RequireAdmin(claimsFromContext(r.Context())) {
			writeError(w, http.StatusForbidden, "admin_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func (s *Server) issueToken(user store.User) (string, error) {
	return auth.NewSessionToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.SessionTTL, auth.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Admin:    user.Admin,
		Verified: user.Verified,
	})
}

// Models

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Admin     bool   `json:"admin"`
	Verified  bool   `json:"verified"`
	CreatedAt int64  `json:"createdAt"`
}

func mapUser(user store.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Admin:     user.Admin,
		Verified:  user.Verified,
		CreatedAt: user.CreatedAt.Unix(),
	}
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type notificationResponse struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Body      string  `json:"body"`
	Link      *string `json:"link,omitempty"`
	Viewed    bool    `json:"viewed"`
	CreatedAt int64   `json:"createdAt"`
}

func mapNotification(n store.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Kind:      string(n.Kind),
		Body:      n.Body,
		Link:      n.Link,
		Viewed:    n.Viewed,
		CreatedAt: n.CreatedAt.Unix(),
	}
}

type teamResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	OwnerID   string `json:"ownerId"`
	CreatedAt int64  `json:"createdAt"`
}

func mapTeam(team store.Team) teamResponse {
	return teamResponse{
		ID:        team.ID,
		Name:      team.Name,
		Slug:      team.Slug,
		OwnerID:   team.OwnerID,
		CreatedAt: team.CreatedAt.Unix(),
	}
}

type reportResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	Title     string `json:"title"`
	Athlete   string `json:"athlete,omitempty"`
	Body      string `json:"body,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

func mapReport(report store.Report) reportResponse {
	return reportResponse{
		ID:        report.ID,
		OwnerID:   report.OwnerID,
		Title:     report.Title,
		Athlete:   report.Athlete,
		Body:      report.Body,
		CreatedAt: report.CreatedAt.Unix(),
	}
}

type shareResponse struct {
	ID           string `json:"id"`
	SharedWithID string `json:"sharedWithId"`
	CreatedAt    int64  `json:"createdAt"`
	RevokedAt    *int64 `json:"revokedAt,omitempty"`
	ExpiresAt    *int64 `json:"expiresAt,omitempty"`
	Active       bool   `json:"active"`
}

func mapShare(grant store.ShareGrant, now time.Time) shareResponse {
	resp := shareResponse{
		ID:           grant.ID,
		SharedWithID: grant.SharedWithID,
		CreatedAt:    grant.CreatedAt.Unix(),
		Active:       grant.Active(now),
	}
	if grant.RevokedAt != nil {
		revoked := grant.RevokedAt.Unix()
		resp.RevokedAt = &revoked
	}
	if grant.ExpiresAt != nil {
		expires := grant.ExpiresAt.Unix()
		resp.ExpiresAt = &expires
	}
	return resp
}

// Auth handlers

type registerRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "missing_email")
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "missing_username")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_password")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	now := time.Now().UTC()
	user := store.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "email_or_username_taken")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}
	s.setSessionCookie(w, token)

	// Account creation already happened; email failures are logged, not
	// surfaced.
	if _, err := s.mailer.Send(r.Context(), mail.ComposeWelcome(user.Email, user.ID, user.FirstName)); err != nil {
		log.Printf("register: welcome email to %s: %v", user.Email, err)
	}
	if verifyToken, err := crypto.NewOpaqueToken(); err == nil {
		verifyURL := s.cfg.BaseURL + "/verify?token=" + verifyToken
		if _, err := s.mailer.Send(r.Context(), mail.ComposeVerification(user.Email, user.ID, verifyURL)); err != nil {
			log.Printf("register: verification email to %s: %v", user.Email, err)
		}
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: mapUser(user)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}
	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: mapUser(user)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless; logout just drops the cookie.
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "missing_email")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		// Unknown accounts get the same answer as known ones.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	resetToken, err := crypto.NewOpaqueToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	resetURL := s.cfg.BaseURL + "/password-reset?token=" + resetToken
	if _, err := s.mailer.Send(r.Context(), mail.ComposePasswordReset(user.Email, user.ID, resetURL)); err != nil {
		var dispatchErr *mail.DispatchError
		if errors.As(err, &dispatchErr) {
			writeError(w, http.StatusBadGateway, "email_send_failed")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// User handlers

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "authentication_required")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapUser(user))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context(), parseLimit(r, 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	resp := make([]userResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, mapUser(user))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Notification handlers

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	onlyUnread := r.URL.Query().Get("unread") == "true"
	notifications, err := s.store.ListNotifications(r.Context(), claims.UserID, onlyUnread, parseLimit(r, 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	resp := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, mapNotification(n))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkNotificationViewed(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	notificationID := chi.URLParam(r, "notificationId")
	if _, err := uuid.Parse(notificationID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_notification_id")
		return
	}
	// Scoped update: rows affected may be zero when the notification does
	// not exist or belongs to someone else. Both answer ok, no existence
	// leak.
	if _, err := s.store.MarkNotificationViewed(r.Context(), notificationID, claims.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	notificationID := chi.URLParam(r, "notificationId")
	if _, err := uuid.Parse(notificationID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_notification_id")
		return
	}
	if _, err := s.store.DeleteNotificationOwned(r.Context(), notificationID, claims.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// notify writes an in-app notification. Validation failures are programming
// errors here (kind and body are handler-controlled), so they are logged, not
// surfaced.
func (s *Server) notify(ctx context.Context, userID string, kind store.NotificationKind, body string, link *string) {
	n, err := store.NewNotification(uuid.NewString(), userID, kind, body, link, time.Now().UTC())
	if err != nil {
		log.Printf("notify: build %s for %s: %v", kind, userID, err)
		return
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		log.Printf("notify: write %s for %s: %v", kind, userID, err)
	}
}

// Team handlers

type createTeamRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	var req createTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(strings.ToLower(req.Slug))
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing_name")
		return
	}
	if req.Slug == "" {
		writeError(w, http.StatusBadRequest, "missing_slug")
		return
	}

	now := time.Now().UTC()
	team := store.Team{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Slug:      req.Slug,
		OwnerID:   claims.UserID,
		CreatedAt: now,
	}
	owner := store.TeamMember{
		TeamID:      team.ID,
		UserID:      claims.UserID,
		Role:        "owner",
		Pending:     false,
		RequestedAt: now,
		JoinedAt:    &now,
	}
	if err := s.store.CreateTeam(r.Context(), team, owner); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "slug_taken")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, mapTeam(team))
}

func (s *Server) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := s.store.GetTeamBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapTeam(team))
}

func (s *Server) handleJoinTeam(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	team, err := s.store.GetTeamBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if team.OwnerID == claims.UserID {
		writeError(w, http.StatusBadRequest, "already_member")
		return
	}

	member := store.TeamMember{
		TeamID:      team.ID,
		UserID:      claims.UserID,
		Role:        "member",
		Pending:     true,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.store.CreateTeamMember(r.Context(), member); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "already_requested")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	link := "/teams/" + team.Slug
	s.notify(r.Context(), team.OwnerID, store.NotificationJoinRequest,
		claims.Username+" requested to join "+team.Name, &link)
	if owner, err := s.store.GetUserByID(r.Context(), team.OwnerID); err == nil {
		email := mail.ComposeJoinRequest(owner.Email, owner.ID, team.ID, claims.Username, team.Name, s.cfg.BaseURL+link)
		if _, err := s.mailer.Send(r.Context(), email); err != nil {
			log.Printf("join: email to %s: %v", owner.Email, err)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "pending"})
}

// loadOwnedTeam resolves the team for owner-only member operations.
func (s *Server) loadOwnedTeam(w http.ResponseWriter, r *http.Request) (store.Team, bool) {
	claims := claimsFromContext(r.Context())
	team, err := s.store.GetTeamBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team_not_found")
			return store.Team{}, false
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return store.Team{}, false
	}
	if team.OwnerID != claims.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return store.Team{}, false
	}
	return team, true
}

func (s *Server) handleApproveMember(w http.ResponseWriter, r *http.Request) {
	team, ok := s.loadOwnedTeam(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userId")
	if _, err := uuid.Parse(userID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}

	if err := s.store.ApproveTeamMember(r.Context(), team.ID, userID, time.Now().UTC()); err != nil {
		if errors.Is(err, store.ErrNotPending) {
			if _, memberErr := s.store.GetTeamMember(r.Context(), team.ID, userID); errors.Is(memberErr, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "request_not_found")
				return
			}
			writeError(w, http.StatusConflict, "already_member")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	link := "/teams/" + team.Slug
	s.notify(r.Context(), userID, store.NotificationJoinApproved,
		"Your request to join "+team.Name+" was approved", &link)
	if member, err := s.store.GetUserByID(r.Context(), userID); err == nil {
		email := mail.ComposeJoinApproved(member.Email, member.ID, team.ID, team.Name, s.cfg.BaseURL+link)
		if _, err := s.mailer.Send(r.Context(), email); err != nil {
			log.Printf("approve: email to %s: %v", member.Email, err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeclineMember(w http.ResponseWriter, r *http.Request) {
	team, ok := s.loadOwnedTeam(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userId")
	if _, err := uuid.Parse(userID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}

	member, err := s.store.GetTeamMember(r.Context(), team.ID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "request_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !member.Pending {
		writeError(w, http.StatusConflict, "already_member")
		return
	}
	if err := s.store.DeleteTeamMember(r.Context(), team.ID, userID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.notify(r.Context(), userID, store.NotificationJoinDeclined,
		"Your request to join "+team.Name+" was declined", nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Report handlers

type createReportRequest struct {
	Title   string `json:"title"`
	Athlete string `json:"athlete"`
	Body    string `json:"body"`
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	var req createReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "missing_title")
		return
	}

	now := time.Now().UTC()
	report := store.Report{
		ID:        uuid.NewString(),
		OwnerID:   claims.UserID,
		Title:     req.Title,
		Athlete:   strings.TrimSpace(req.Athlete),
		Body:      req.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateReport(r.Context(), report); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, mapReport(report))
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	reportID := chi.URLParam(r, "reportId")
	if _, err := uuid.Parse(reportID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_report_id")
		return
	}
	report, err := s.store.GetReport(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !auth.CanAccessOwned(r.Context(), claims, report.OwnerID, s.store, store.DocumentTypeReport, report.ID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(w, http.StatusOK, mapReport(report))
}

// loadOwnedReport resolves the report for owner-only share operations.
func (s *Server) loadOwnedReport(w http.ResponseWriter, r *http.Request) (store.Report, bool) {
	claims := claimsFromContext(r.Context())
	reportID := chi.URLParam(r, "reportId")
	if _, err := uuid.Parse(reportID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_report_id")
		return store.Report{}, false
	}
	report, err := s.store.GetReport(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report_not_found")
			return store.Report{}, false
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return store.Report{}, false
	}
	if report.OwnerID != claims.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return store.Report{}, false
	}
	return report, true
}

type createShareRequest struct {
	UserID    string `json:"userId"`
	ExpiresAt *int64 `json:"expiresAt"`
}

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	report, ok := s.loadOwnedReport(w, r)
	if !ok {
		return
	}
	var req createShareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "missing_user_id")
		return
	}
	if _, err := uuid.Parse(req.UserID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}
	if req.UserID == claims.UserID {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	grantee, err := s.store.GetUserByID(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	now := time.Now().UTC()
	grant := store.ShareGrant{
		ID:           uuid.NewString(),
		DocumentType: store.DocumentTypeReport,
		DocumentID:   report.ID,
		GrantorID:    claims.UserID,
		SharedWithID: grantee.ID,
		CreatedAt:    now,
	}
	if req.ExpiresAt != nil {
		expires := time.Unix(*req.ExpiresAt, 0).UTC()
		if !expires.After(now) {
			writeError(w, http.StatusBadRequest, "invalid_expires_at")
			return
		}
		grant.ExpiresAt = &expires
	}
	if err := s.store.CreateShareGrant(r.Context(), grant); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	link := "/reports/" + report.ID
	s.notify(r.Context(), grantee.ID, store.NotificationReportShared,
		claims.Username+" shared a report with you: "+report.Title, &link)
	writeJSON(w, http.StatusCreated, mapShare(grant, now))
}

func (s *Server) handleListShares(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadOwnedReport(w, r)
	if !ok {
		return
	}
	grants, err := s.store.ListShareGrants(r.Context(), store.DocumentTypeReport, report.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	now := time.Now().UTC()
	// Revoked and expired grants stay in the listing: the share history is
	// an audit trail.
	resp := make([]shareResponse, 0, len(grants))
	for _, grant := range grants {
		resp = append(resp, mapShare(grant, now))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevokeShare(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadOwnedReport(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userId")
	if _, err := uuid.Parse(userID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}
	// Revoke, never delete. Zero rows affected means nothing active to
	// revoke; still ok.
	if _, err := s.store.RevokeShareGrant(r.Context(), store.DocumentTypeReport, report.ID, userID, time.Now().UTC()); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Achievement handlers

func (s *Server) handleGetMyAchievements(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	s.writeAchievements(w, r, claims.UserID)
}

func (s *Server) handleGetUserAchievements(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if _, err := uuid.Parse(userID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}
	s.writeAchievements(w, r, userID)
}

func (s *Server) writeAchievements(w http.ResponseWriter, r *http.Request, userID string) {
	derived, err := s.deriver.ForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if derived == nil {
		derived = []achievements.Achievement{}
	}
	writeJSON(w, http.StatusOK, derived)
}

// Utilities

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 500 {
		return fallback
	}
	return limit
}
