package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bugbook/internal/auth"
	"bugbook/internal/cache"
	"bugbook/internal/chat"
	"bugbook/internal/config"
	"bugbook/internal/models"
	"bugbook/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Post{},
		&models.Like{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	// Handler tests exercise the DB path, not the cache
	cache.SetClient(nil)

	return db
}

// fakeChatClient records upserts and can be told to fail.
type fakeChatClient struct {
	upserted []chat.User
	fail     bool
}

func (f *fakeChatClient) UpsertUser(_ context.Context, user chat.User) error {
	if f.fail {
		return fiber.ErrServiceUnavailable
	}
	f.upserted = append(f.upserted, user)
	return nil
}

func (f *fakeChatClient) CreateToken(userID string, _ time.Time) (string, error) {
	return "chat-token-" + userID, nil
}

func newTestServer(t *testing.T, db *gorm.DB) *Server {
	t.Helper()
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	return &Server{
		config:      &config.Config{Env: "test"},
		db:          db,
		userRepo:    userRepo,
		postRepo:    postRepo,
		sessionRepo: sessionRepo,
		sessions:    auth.NewManager(sessionRepo, userRepo, false),
	}
}

func newTestApp(s *Server) *fiber.App {
	app := fiber.New()
	s.SetupRoutes(app)
	return app
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	id, err := auth.NewUserID()
	require.NoError(t, err)
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		ID:           id,
		Username:     username,
		DisplayName:  username,
		Email:        username + "@example.com",
		PasswordHash: hash,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestSession(t *testing.T, s *Server, userID string) *models.Session {
	t.Helper()
	session, err := s.sessions.Create(context.Background(), userID)
	require.NoError(t, err)
	return session
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withSession(req *http.Request, session *models.Session) *http.Request {
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: session.ID})
	return req
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// sessionCookie returns the auth_session cookie from the response, or nil.
func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}
