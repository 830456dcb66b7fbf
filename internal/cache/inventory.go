package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix    = "user:%s"
	SessionKeyPrefix = "session:%s"
	PostKeyPrefix    = "post:%s"
)

const (
	UserTTL = 5 * time.Minute
	// SessionTTL is deliberately short relative to session lifetime; the
	// database row stays authoritative for expiry and invalidation.
	SessionTTL = 2 * time.Minute
	PostTTL    = 30 * time.Minute
)

func UserKey(userID string) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func SessionKey(sessionID string) string {
	return fmt.Sprintf(SessionKeyPrefix, sessionID)
}

func PostKey(postID string) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID string) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateSession(ctx context.Context, sessionID string) {
	Invalidate(ctx, SessionKey(sessionID))
}

func InvalidatePost(ctx context.Context, postID string) {
	Invalidate(ctx, PostKey(postID))
}
