package model

import (
	"time"

	"gorm.io/datatypes"
)

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindAudio MediaKind = "audio"
	MediaKindVideo MediaKind = "video"
)

func (k MediaKind) Valid() bool {
	switch k {
	case MediaKindImage, MediaKindAudio, MediaKindVideo:
		return true
	}
	return false
}

type MediaStatus string

const (
	MediaStatusPending    MediaStatus = "pending"    // reserved, no bytes yet
	MediaStatusProcessing MediaStatus = "processing" // bytes received and validated
	MediaStatusCompleted  MediaStatus = "completed"
	MediaStatusFailed     MediaStatus = "failed"
)

// Media is one binary asset attached to an alert. The ID is generated at
// reservation time so it can be embedded in the upload token before any
// bytes exist.
type Media struct {
	ID      string    `json:"id" gorm:"primaryKey;type:uuid"`
	AlertID uint      `json:"alert_id" gorm:"index;not null"`
	Kind    MediaKind `json:"kind" gorm:"index;not null"`

	Status      MediaStatus `json:"status" gorm:"index;not null;default:pending"`
	UploadError string      `json:"upload_error,omitempty"`

	Position    *int   `json:"position,omitempty"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	ActualMime  string `json:"actual_mime,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
	Checksum    string `json:"checksum,omitempty"` // hex sha256

	StorageKey    string `json:"-"`
	StorageBucket string `json:"-"`

	Width           *int     `json:"width,omitempty"`
	Height          *int     `json:"height,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`

	CapturedAt *time.Time        `json:"captured_at,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`

	// Upload authorization. The token is single-use and expires a short
	// fixed interval after Reserve, independent of the request lifecycle.
	UploadToken    string    `json:"-"`
	TokenExpiresAt time.Time `json:"-"`

	// Dispatch audit, written at Finalize.
	JobsQueued       datatypes.JSONSlice[string] `json:"jobs_queued,omitempty"`
	DispatchDegraded bool                        `json:"dispatch_degraded" gorm:"index;not null;default:false"`

	Derivatives    []Derivative    `json:"derivatives,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Transcriptions []Transcription `json:"transcriptions,omitempty" gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActiveTranscription returns the active transcription when preloaded, nil otherwise.
func (m *Media) ActiveTranscription() *Transcription {
	for i := range m.Transcriptions {
		if m.Transcriptions[i].IsActive {
			return &m.Transcriptions[i]
		}
	}
	return nil
}
