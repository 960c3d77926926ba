package model

import "time"

type TranscriptionSource string

const (
	SourceAuto           TranscriptionSource = "auto"
	SourceHumanCorrected TranscriptionSource = "human_corrected"
	SourceManual         TranscriptionSource = "manual"
)

// Rank orders sources for best-transcription resolution: manual beats
// human-corrected beats auto. Unknown sources rank below everything.
func (s TranscriptionSource) Rank() int {
	switch s {
	case SourceManual:
		return 3
	case SourceHumanCorrected:
		return 2
	case SourceAuto:
		return 1
	}
	return 0
}

func (s TranscriptionSource) Valid() bool {
	return s.Rank() > 0
}

// Transcription is one immutable version of the text rendition of an audio
// media item. Corrections append a new version; history is never mutated.
// At most one row per media has IsActive set.
type Transcription struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	MediaID string `json:"media_id" gorm:"index;not null;type:uuid;uniqueIndex:idx_media_version,priority:1"`

	Version  int                 `json:"version" gorm:"not null;uniqueIndex:idx_media_version,priority:2"`
	Source   TranscriptionSource `json:"source" gorm:"not null"`
	IsActive bool                `json:"is_active" gorm:"index;not null;default:false"`

	Text      string `json:"text"`
	Language  string `json:"language"`
	CreatedBy string `json:"created_by"`

	CreatedAt time.Time `json:"created_at"`
}
