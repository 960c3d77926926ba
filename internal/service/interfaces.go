package service

import (
	"context"
	"time"

	"citywatch/alertmedia/internal/model"
)

// ByteStorage persists the raw media bytes. Delete is best-effort: callers
// log failures but never abort the owning operation over them.
type ByteStorage interface {
	Upload(ctx context.Context, alertID uint, mediaID, filename, contentType string, data []byte) (key string, err error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
	Bucket() string
}

// MediaNotifier pushes media lifecycle events to connected clients.
// Fire-and-forget; a nil notifier is allowed.
type MediaNotifier interface {
	NotifyMedia(alertID uint, event string, media *model.Media)
}
