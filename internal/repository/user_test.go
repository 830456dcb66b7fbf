package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"bugbook/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name          string
		userID        string
		mockBehavior  func()
		expectedUser  *models.User
		expectedError bool
	}{
		{
			name:   "Success",
			userID: "u1abc",
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "username", "email"}).
					AddRow("u1abc", "testuser", "test@example.com")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs("u1abc", 1).
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: "u1abc", Username: "testuser", Email: "test@example.com"},
		},
		{
			name:   "Not Found",
			userID: "missing",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs("missing", 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.expectedError {
				assert.Error(t, err)
				var appErr *models.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, "NOT_FOUND", appErr.Code)
			} else if assert.NotNil(t, user) {
				assert.Equal(t, tt.expectedUser.Username, user.Username)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_FindByUsername_CaseInsensitive(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "username", "email"}).
		AddRow("u1abc", "Alice", "alice@example.com")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE LOWER(username) = LOWER($1) ORDER BY "users"."id" LIMIT $2`)).
		WithArgs("ALICE", 1).
		WillReturnRows(rows)

	user, err := repo.FindByUsername(ctx, "ALICE")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Alice", user.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByUsername_MissReturnsNil(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE LOWER(username) = LOWER($1) ORDER BY "users"."id" LIMIT $2`)).
		WithArgs("nobody", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	user, err := repo.FindByUsername(ctx, "nobody")
	require.NoError(t, err, "a miss is not an error")
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := &models.User{
		ID: "u1aaaaaaaaaaaaaa", Username: "alice", DisplayName: "alice",
		Email: "alice@example.com", PasswordHash: "hash",
	}
	require.NoError(t, repo.Create(ctx, first))

	second := &models.User{
		ID: "u2bbbbbbbbbbbbbb", Username: "ALICE", DisplayName: "ALICE",
		Email: "other@example.com", PasswordHash: "hash",
	}
	err := repo.Create(ctx, second)
	require.Error(t, err, "usernames are unique ignoring case")

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestUserRepository_UpdateAvatar(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mustCreateUser(t, db, "u1abc", "alice")
	require.NoError(t, repo.UpdateAvatar(ctx, "u1abc", "https://cdn.test/avatars/x.webp"))

	stored, err := repo.GetByID(ctx, "u1abc")
	require.NoError(t, err)
	require.NotNil(t, stored.AvatarURL)
	assert.Equal(t, "https://cdn.test/avatars/x.webp", *stored.AvatarURL)
}

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"pg other error", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite message", errors.New("UNIQUE constraint failed: users.username"), true},
		{"duplicate key message", errors.New(`duplicate key value violates unique constraint "idx_users_email_lower"`), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsUniqueConstraintError(tt.err))
		})
	}
}
