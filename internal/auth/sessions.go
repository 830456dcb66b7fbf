package auth

import (
	"context"
	"errors"
	"time"

	"bugbook/internal/models"
	"bugbook/internal/observability"
	"bugbook/internal/repository"

	"github.com/gofiber/fiber/v2"
)

const (
	// CookieName is the session cookie issued to clients.
	CookieName = "auth_session"

	// SessionLifetime is the server-side session expiry horizon.
	SessionLifetime = 30 * 24 * time.Hour

	// renewWindow: a session validated with less than this much lifetime left
	// is extended to a full lifetime again and reported as fresh, so the
	// middleware re-issues the cookie.
	renewWindow = 15 * 24 * time.Hour

	// The cookie itself is effectively non-expiring; the session row is the
	// authority on expiry and invalidation.
	cookieMaxAge = int(2 * 365 * 24 * time.Hour / time.Second)
)

// Validation is the result of validating a session token: either both fields
// are set, or the token referenced no usable session.
type Validation struct {
	User    *models.User
	Session *models.Session
	// Fresh means the session expiry was just extended and the cookie should
	// be re-issued with updated attributes.
	Fresh bool
}

// Manager owns the session lifecycle: minting, validation with sliding
// expiry, server-side invalidation, and cookie construction.
type Manager struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	secure   bool
}

// NewManager returns a session manager. secure controls the cookie's Secure
// attribute and should be true in production.
func NewManager(sessions repository.SessionRepository, users repository.UserRepository, secure bool) *Manager {
	return &Manager{sessions: sessions, users: users, secure: secure}
}

// Create mints a new session for the user.
func (m *Manager) Create(ctx context.Context, userID string) (*models.Session, error) {
	token, err := NewSessionToken()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:        token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(SessionLifetime),
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Validate resolves a session token to its user and session. It returns
// (nil, nil) when the token references no valid session, deleting expired
// rows on sight. Sessions nearing expiry are extended and flagged fresh.
func (m *Manager) Validate(ctx context.Context, token string) (*Validation, error) {
	if token == "" {
		return nil, nil
	}

	session, err := m.sessions.GetByID(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	if session.Expired() {
		observability.SessionsInvalidated.WithLabelValues("expired").Inc()
		if err := m.sessions.Delete(ctx, session.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	fresh := false
	if time.Until(session.ExpiresAt) < renewWindow {
		session.ExpiresAt = time.Now().Add(SessionLifetime)
		if err := m.sessions.UpdateExpiry(ctx, session.ID, session.ExpiresAt); err != nil {
			return nil, err
		}
		fresh = true
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			// Orphaned session; the user is gone.
			_ = m.sessions.Delete(ctx, session.ID)
			return nil, nil
		}
		return nil, err
	}

	return &Validation{User: user, Session: session, Fresh: fresh}, nil
}

// Invalidate deletes the session server-side.
func (m *Manager) Invalidate(ctx context.Context, sessionID string) error {
	observability.SessionsInvalidated.WithLabelValues("logout").Inc()
	return m.sessions.Delete(ctx, sessionID)
}

// SessionCookie builds the cookie carrying the session token. The long
// max-age mirrors a non-expiring cookie; expiry is enforced server-side.
func (m *Manager) SessionCookie(sessionID string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// BlankCookie builds an expired, empty session cookie that clears stale
// client state.
func (m *Manager) BlankCookie() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
