package repository

import (
	"context"

	"citywatch/alertmedia/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TranscriptionRepository interface {
	// AddVersion deactivates every existing transcription for the media and
	// inserts the new row as version max+1 with IsActive set, atomically.
	// The unique (media_id, version) index backstops concurrent appenders:
	// two racing inserts cannot commit the same version.
	AddVersion(ctx context.Context, t *model.Transcription) error

	// GetBest returns the active transcription ranked by source
	// (manual > human_corrected > auto), ties broken by highest version.
	GetBest(ctx context.Context, mediaID string) (*model.Transcription, error)

	ListByMedia(ctx context.Context, mediaID string) ([]model.Transcription, error)
}

type transcriptionRepository struct {
	db *gorm.DB
}

func NewTranscriptionRepository(db *gorm.DB) TranscriptionRepository {
	return &transcriptionRepository{db: db}
}

func (r *transcriptionRepository) AddVersion(ctx context.Context, t *model.Transcription) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Сериализуем конкурентные добавления по media_id.
		var last model.Transcription
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("media_id = ?", t.MediaID).
			Order("version DESC").
			Limit(1).
			Find(&last).Error
		if err != nil {
			return err
		}

		if err := tx.Model(&model.Transcription{}).
			Where("media_id = ? AND is_active = ?", t.MediaID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		t.Version = last.Version + 1
		t.IsActive = true
		return tx.Create(t).Error
	})
}

func (r *transcriptionRepository) GetBest(ctx context.Context, mediaID string) (*model.Transcription, error) {
	var rows []model.Transcription
	err := r.db.WithContext(ctx).
		Where("media_id = ? AND is_active = ?", mediaID, true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	best := &rows[0]
	for i := 1; i < len(rows); i++ {
		candidate := &rows[i]
		if candidate.Source.Rank() > best.Source.Rank() ||
			(candidate.Source.Rank() == best.Source.Rank() && candidate.Version > best.Version) {
			best = candidate
		}
	}
	return best, nil
}

func (r *transcriptionRepository) ListByMedia(ctx context.Context, mediaID string) ([]model.Transcription, error) {
	var rows []model.Transcription
	err := r.db.WithContext(ctx).
		Where("media_id = ?", mediaID).
		Order("version").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
