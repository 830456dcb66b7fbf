package uploads

import (
	"context"
	"fmt"
	"log/slog"

	"bugbook/internal/chat"
	"bugbook/internal/middleware"
	"bugbook/internal/models"
	"bugbook/internal/observability"
	"bugbook/internal/repository"

	"github.com/google/uuid"
)

// MaxUploadBytes caps the accepted size of a raw avatar upload.
const MaxUploadBytes = 5 << 20

// Service handles avatar uploads: normalize, store, update the profile, and
// mirror the new image into the chat service.
type Service struct {
	storage Storage
	users   repository.UserRepository
	chat    chat.Client
}

// NewService wires an upload service. The chat client may be nil when chat
// integration is disabled.
func NewService(storage Storage, users repository.UserRepository, chatClient chat.Client) *Service {
	return &Service{storage: storage, users: users, chat: chatClient}
}

// UploadAvatar stores a normalized avatar for the user and returns the
// updated profile. The chat mirror is best effort; a failure there never
// fails the upload.
func (s *Service) UploadAvatar(ctx context.Context, userID string, content []byte) (*models.User, error) {
	if len(content) == 0 {
		return nil, models.NewValidationError("Avatar file is required")
	}
	if len(content) > MaxUploadBytes {
		return nil, models.NewValidationError("Avatar file is too large")
	}

	normalized, err := NormalizeAvatar(content)
	if err != nil {
		return nil, models.NewValidationError("Unsupported or corrupt image file")
	}

	key := fmt.Sprintf("avatars/%s.webp", uuid.NewString())
	avatarURL, err := s.storage.Put(ctx, key, "image/webp", normalized)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.UploadBytes.Observe(float64(len(normalized)))

	if err := s.users.UpdateAvatar(ctx, userID, avatarURL); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.chat != nil {
		if err := s.chat.UpsertUser(ctx, chat.User{
			ID:       user.ID,
			Username: user.Username,
			Name:     user.DisplayName,
			Image:    avatarURL,
		}); err != nil {
			observability.ChatMirrorFailures.Inc()
			middleware.Logger.WarnContext(ctx, "failed to mirror avatar to chat service",
				slog.String("user_id", user.ID), slog.String("error", err.Error()))
		}
	}

	return user, nil
}
