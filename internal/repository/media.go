package repository

import (
	"context"
	"errors"

	"citywatch/alertmedia/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStateConflict is returned when a guarded update finds the row in a
// state that does not permit the transition (lost the compare-and-swap).
var ErrStateConflict = errors.New("media is not in the required state")

type TransferResult struct {
	ActualMime      string
	SizeBytes       int64
	Checksum        string
	Width           *int
	Height          *int
	DurationSeconds *float64
	StorageKey      string
	StorageBucket   string
}

type MediaRepository interface {
	Create(ctx context.Context, media *model.Media) error
	GetByID(ctx context.Context, id string) (*model.Media, error)

	// CommitTransfer moves a PENDING row to PROCESSING and stores the
	// extracted metadata. Only one concurrent caller can win: the update is
	// guarded on status, losers get ErrStateConflict.
	CommitTransfer(ctx context.Context, id string, result TransferResult) error

	// MarkFailed transitions a PENDING row to FAILED with a terminal error
	// message. Guarded like CommitTransfer: a row that already advanced is
	// left alone and the caller gets ErrStateConflict.
	MarkFailed(ctx context.Context, id string, reason string) error

	// Finalize moves a PROCESSING row to COMPLETED and applies the alert
	// aggregate counters in the same transaction, under a row lock on the
	// alert, so the counters can never drift from the completed-media set.
	Finalize(ctx context.Context, alertID uint, mediaID string) error

	// RecordDispatch stores the dispatch audit after finalize. Best-effort.
	RecordDispatch(ctx context.Context, id string, jobsQueued []string, degraded bool) error

	// Delete removes the media row with its derivatives and transcriptions
	// and recomputes the affected alert counter in the same transaction.
	Delete(ctx context.Context, media *model.Media) error

	ListCompleted(ctx context.Context, alertID uint) ([]model.Media, error)
	ListDegraded(ctx context.Context) ([]model.Media, error)
}

type mediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(ctx context.Context, media *model.Media) error {
	return r.db.WithContext(ctx).Create(media).Error
}

func (r *mediaRepository) GetByID(ctx context.Context, id string) (*model.Media, error) {
	var media model.Media
	err := r.db.WithContext(ctx).First(&media, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *mediaRepository) CommitTransfer(ctx context.Context, id string, result TransferResult) error {
	res := r.db.WithContext(ctx).
		Model(&model.Media{}).
		Where("id = ? AND status = ?", id, model.MediaStatusPending).
		Updates(map[string]interface{}{
			"status":           model.MediaStatusProcessing,
			"actual_mime":      result.ActualMime,
			"size_bytes":       result.SizeBytes,
			"checksum":         result.Checksum,
			"width":            result.Width,
			"height":           result.Height,
			"duration_seconds": result.DurationSeconds,
			"storage_key":      result.StorageKey,
			"storage_bucket":   result.StorageBucket,
			"upload_error":     "",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

func (r *mediaRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Media{}).
		Where("id = ? AND status = ?", id, model.MediaStatusPending).
		Updates(map[string]interface{}{
			"status":       model.MediaStatusFailed,
			"upload_error": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

func (r *mediaRepository) Finalize(ctx context.Context, alertID uint, mediaID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Блокируем строку алерта: счётчики обновляются строго под row lock.
		var alert model.Alert
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&alert, alertID).Error; err != nil {
			return err
		}

		var media model.Media
		if err := tx.First(&media, "id = ?", mediaID).Error; err != nil {
			return err
		}

		res := tx.Model(&model.Media{}).
			Where("id = ? AND alert_id = ? AND status = ?", mediaID, alertID, model.MediaStatusProcessing).
			Update("status", model.MediaStatusCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStateConflict
		}

		switch media.Kind {
		case model.MediaKindImage:
			return tx.Model(&alert).
				Update("image_count", gorm.Expr("image_count + 1")).Error
		case model.MediaKindAudio:
			return tx.Model(&alert).Update("has_audio", true).Error
		case model.MediaKindVideo:
			return tx.Model(&alert).Update("has_video", true).Error
		}
		return nil
	})
}

func (r *mediaRepository) RecordDispatch(ctx context.Context, id string, jobsQueued []string, degraded bool) error {
	if jobsQueued == nil {
		jobsQueued = []string{}
	}
	return r.db.WithContext(ctx).
		Model(&model.Media{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"jobs_queued":       datatypes.NewJSONSlice(jobsQueued),
			"dispatch_degraded": degraded,
		}).Error
}

func (r *mediaRepository) Delete(ctx context.Context, media *model.Media) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var alert model.Alert
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&alert, media.AlertID).Error; err != nil {
			return err
		}

		if err := tx.Where("media_id = ?", media.ID).Delete(&model.Transcription{}).Error; err != nil {
			return err
		}
		if err := tx.Where("media_id = ?", media.ID).Delete(&model.Derivative{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Media{}, "id = ?", media.ID).Error; err != nil {
			return err
		}

		// Счётчики отражают только завершённые media.
		if media.Status != model.MediaStatusCompleted {
			return nil
		}

		switch media.Kind {
		case model.MediaKindImage:
			return tx.Model(&alert).
				Update("image_count", gorm.Expr("GREATEST(image_count - 1, 0)")).Error
		case model.MediaKindAudio, model.MediaKindVideo:
			// Не сбрасываем флаг вслепую: могли остаться другие файлы того же типа.
			var remaining int64
			if err := tx.Model(&model.Media{}).
				Where("alert_id = ? AND kind = ? AND status = ?", media.AlertID, media.Kind, model.MediaStatusCompleted).
				Count(&remaining).Error; err != nil {
				return err
			}
			column := "has_audio"
			if media.Kind == model.MediaKindVideo {
				column = "has_video"
			}
			return tx.Model(&alert).Update(column, remaining > 0).Error
		}
		return nil
	})
}

func (r *mediaRepository) ListCompleted(ctx context.Context, alertID uint) ([]model.Media, error) {
	var media []model.Media
	err := r.db.WithContext(ctx).
		Preload("Derivatives").
		Preload("Transcriptions", "is_active = ?", true).
		Where("alert_id = ? AND status = ?", alertID, model.MediaStatusCompleted).
		Order("kind, position NULLS LAST, created_at").
		Find(&media).Error
	if err != nil {
		return nil, err
	}
	return media, nil
}

func (r *mediaRepository) ListDegraded(ctx context.Context) ([]model.Media, error) {
	var media []model.Media
	err := r.db.WithContext(ctx).
		Where("status = ? AND dispatch_degraded = ?", model.MediaStatusCompleted, true).
		Order("updated_at").
		Find(&media).Error
	if err != nil {
		return nil, err
	}
	return media, nil
}
