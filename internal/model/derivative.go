package model

import "time"

type DerivativeType string

const (
	DerivativeThumbnail      DerivativeType = "thumbnail"
	DerivativePreview        DerivativeType = "preview"
	DerivativeWaveform       DerivativeType = "waveform"
	DerivativeEnhancedImage  DerivativeType = "enhanced_image"
	DerivativeVideoThumbnail DerivativeType = "video_thumbnail"
)

// Derivative is a generated artifact (thumbnail, waveform image, enhanced
// portrait, ...) produced by a background worker from a completed media item.
// Rows are created only through the worker callback, never by clients.
type Derivative struct {
	ID      string         `json:"id" gorm:"primaryKey;type:uuid"`
	MediaID string         `json:"media_id" gorm:"index;not null;type:uuid"`
	Type    DerivativeType `json:"type" gorm:"index;not null"`

	StorageKey    string `json:"-"`
	StorageBucket string `json:"-"`
	ContentType   string `json:"content_type"`
	SizeBytes     int64  `json:"size_bytes"`
	Width         *int   `json:"width,omitempty"`
	Height        *int   `json:"height,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
