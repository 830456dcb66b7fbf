package uploads

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"bugbook/internal/chat"
	"bugbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (f *fakeStorage) Put(_ context.Context, key, contentType string, body []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.key = key
	f.contentType = contentType
	f.body = body
	return "https://cdn.test/" + key, nil
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	return m.Called(ctx, id, avatarURL).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type fakeChat struct {
	upserted []chat.User
	err      error
}

func (f *fakeChat) UpsertUser(_ context.Context, user chat.User) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, user)
	return nil
}

func (f *fakeChat) CreateToken(string, time.Time) (string, error) {
	return "token", nil
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadAvatarStoresWebp(t *testing.T) {
	storage := &fakeStorage{}
	users := new(mockUserRepo)
	mirror := &fakeChat{}
	svc := NewService(storage, users, mirror)

	user := &models.User{ID: "u1abc", Username: "alice", DisplayName: "alice"}
	users.On("UpdateAvatar", mock.Anything, "u1abc", mock.AnythingOfType("string")).Return(nil)
	users.On("GetByID", mock.Anything, "u1abc").Return(user, nil)

	got, err := svc.UploadAvatar(context.Background(), "u1abc", testPNG(t, 64, 64))
	require.NoError(t, err)
	assert.Equal(t, "u1abc", got.ID)

	assert.True(t, strings.HasPrefix(storage.key, "avatars/"))
	assert.True(t, strings.HasSuffix(storage.key, ".webp"))
	assert.Equal(t, "image/webp", storage.contentType)
	assert.NotEmpty(t, storage.body)

	require.Len(t, mirror.upserted, 1)
	assert.Equal(t, "u1abc", mirror.upserted[0].ID)
	assert.Equal(t, "https://cdn.test/"+storage.key, mirror.upserted[0].Image)

	users.AssertExpectations(t)
}

func TestUploadAvatarRejectsNonImage(t *testing.T) {
	svc := NewService(&fakeStorage{}, new(mockUserRepo), &fakeChat{})

	_, err := svc.UploadAvatar(context.Background(), "u1abc", []byte("definitely not an image"))
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestUploadAvatarRejectsEmptyAndOversized(t *testing.T) {
	svc := NewService(&fakeStorage{}, new(mockUserRepo), &fakeChat{})

	_, err := svc.UploadAvatar(context.Background(), "u1abc", nil)
	assert.Error(t, err)

	_, err = svc.UploadAvatar(context.Background(), "u1abc", make([]byte, MaxUploadBytes+1))
	assert.Error(t, err)
}

func TestUploadAvatarChatFailureIsNonFatal(t *testing.T) {
	storage := &fakeStorage{}
	users := new(mockUserRepo)
	svc := NewService(storage, users, &fakeChat{err: errors.New("chat down")})

	user := &models.User{ID: "u1abc", Username: "alice"}
	users.On("UpdateAvatar", mock.Anything, "u1abc", mock.AnythingOfType("string")).Return(nil)
	users.On("GetByID", mock.Anything, "u1abc").Return(user, nil)

	got, err := svc.UploadAvatar(context.Background(), "u1abc", testPNG(t, 32, 32))
	require.NoError(t, err)
	assert.Equal(t, "u1abc", got.ID)
}

func TestUploadAvatarStorageFailure(t *testing.T) {
	storage := &fakeStorage{err: errors.New("bucket unavailable")}
	svc := NewService(storage, new(mockUserRepo), &fakeChat{})

	_, err := svc.UploadAvatar(context.Background(), "u1abc", testPNG(t, 32, 32))
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
}

func TestNormalizeAvatarDownscales(t *testing.T) {
	normalized, err := NormalizeAvatar(testPNG(t, 1200, 600))
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(normalized))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.LessOrEqual(t, cfg.Width, AvatarMaxSize)
	assert.LessOrEqual(t, cfg.Height, AvatarMaxSize)
	// Aspect ratio preserved
	assert.Equal(t, cfg.Width, cfg.Height*2)
}

func TestNormalizeAvatarKeepsSmallImages(t *testing.T) {
	normalized, err := NormalizeAvatar(testPNG(t, 100, 80))
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(normalized))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 80, cfg.Height)
}
