package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"citywatch/alertmedia/internal/model"
	"citywatch/alertmedia/internal/pkg/auth"
	"citywatch/alertmedia/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Media lifecycle events pushed over the websocket hub.
const (
	EventMediaReserved   = "media_reserved"
	EventMediaProcessing = "media_processing"
	EventMediaCompleted  = "media_completed"
	EventMediaFailed     = "media_failed"
	EventMediaDeleted    = "media_deleted"
)

const downloadURLExpiry = 15 * time.Minute

type ReserveRequest struct {
	AlertID     uint
	Kind        model.MediaKind
	Position    *int
	Filename    string
	ContentType string
	SizeBytes   int64
	Checksum    string
	CapturedAt  *time.Time
	Metadata    map[string]interface{}
}

type ReserveResult struct {
	MediaID   string    `json:"media_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type FinalizeResult struct {
	MediaID      string   `json:"media_id"`
	UploadStatus string   `json:"upload_status"`
	JobsQueued   []string `json:"jobs_queued"`
}

// MediaItem is a completed media row together with a short-lived download URL.
type MediaItem struct {
	model.Media
	URL string `json:"url,omitempty"`
}

// IntakeService orchestrates the reserve → transfer → finalize protocol.
// It is the only code path that mutates the alert aggregate counters.
type IntakeService interface {
	Reserve(ctx context.Context, req ReserveRequest) (*ReserveResult, error)
	Transfer(ctx context.Context, mediaID, presentedToken string, body []byte, checksumHeader string) (*model.Media, error)
	Finalize(ctx context.Context, alertID uint, mediaID string) (*FinalizeResult, error)
	Delete(ctx context.Context, alertID uint, mediaID string) error
	List(ctx context.Context, alertID uint) ([]MediaItem, error)
	ListDegraded(ctx context.Context) ([]model.Media, error)
}

type intakeService struct {
	alerts     repository.AlertRepository
	media      repository.MediaRepository
	storage    ByteStorage
	dispatcher JobDispatcher
	signer     *auth.TokenSigner
	notifier   MediaNotifier
	logger     *zap.Logger
	now        func() time.Time
}

func NewIntakeService(
	alerts repository.AlertRepository,
	media repository.MediaRepository,
	storage ByteStorage,
	dispatcher JobDispatcher,
	signer *auth.TokenSigner,
	notifier MediaNotifier,
	logger *zap.Logger,
) IntakeService {
	return &intakeService{
		alerts:     alerts,
		media:      media,
		storage:    storage,
		dispatcher: dispatcher,
		signer:     signer,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// Reserve validates the declared intent and creates a PENDING media row with
// a single-use upload token. No bytes are transferred yet.
func (s *intakeService) Reserve(ctx context.Context, req ReserveRequest) (*ReserveResult, error) {
	alert, err := s.alerts.GetByID(ctx, req.AlertID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if verrs := ValidateIntent(req.Kind, req.Filename, req.ContentType, req.SizeBytes, alert); verrs.Any() {
		return nil, verrs
	}

	mediaID := uuid.New().String()
	token, expiresAt, err := s.signer.Issue(mediaID, req.AlertID, req.Kind, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to issue upload token: %w", err)
	}

	media := &model.Media{
		ID:             mediaID,
		AlertID:        req.AlertID,
		Kind:           req.Kind,
		Status:         model.MediaStatusPending,
		Position:       req.Position,
		Filename:       req.Filename,
		ContentType:    req.ContentType,
		SizeBytes:      req.SizeBytes,
		Checksum:       req.Checksum,
		CapturedAt:     req.CapturedAt,
		Metadata:       req.Metadata,
		UploadToken:    token,
		TokenExpiresAt: expiresAt,
	}

	if err := s.media.Create(ctx, media); err != nil {
		return nil, fmt.Errorf("failed to create media record: %w", err)
	}

	s.logger.Info("media reserved",
		zap.String("media_id", mediaID),
		zap.Uint("alert_id", req.AlertID),
		zap.String("kind", string(req.Kind)),
	)
	s.notify(req.AlertID, EventMediaReserved, media)

	return &ReserveResult{MediaID: mediaID, Token: token, ExpiresAt: expiresAt}, nil
}

// Transfer accepts the raw bytes for a reservation. Exactly one Transfer can
// succeed per reservation: the PENDING → PROCESSING move is a guarded update,
// so a concurrent duplicate observes the new state and gets ErrConflict.
func (s *intakeService) Transfer(ctx context.Context, mediaID, presentedToken string, body []byte, checksumHeader string) (*model.Media, error) {
	media, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: media %s", ErrNotFound, mediaID)
		}
		return nil, err
	}

	// Токен сравнивается целиком; причину несоответствия не раскрываем.
	if presentedToken == "" || presentedToken != media.UploadToken {
		return nil, ErrUnauthorized
	}

	if media.Status != model.MediaStatusPending {
		return nil, fmt.Errorf("%w: already %s", ErrConflict, media.Status)
	}

	if !s.now().Before(media.TokenExpiresAt) {
		// Просроченная резервация выметается лениво, при первой попытке
		// Transfer. Истечь может только PENDING строка, статус проверен выше.
		if err := s.media.MarkFailed(ctx, mediaID, "upload token expired"); err != nil && !errors.Is(err, repository.ErrStateConflict) {
			s.logger.Error("failed to mark expired media", zap.String("media_id", mediaID), zap.Error(err))
		}
		media.Status = model.MediaStatusFailed
		media.UploadError = "upload token expired"
		s.notify(media.AlertID, EventMediaFailed, media)
		return nil, ErrTokenExpired
	}

	declaredChecksum := media.Checksum
	if checksumHeader != "" {
		declaredChecksum = checksumHeader
	}

	meta, verrs := ValidateBytes(body, media.Kind, media.ContentType, declaredChecksum)
	if verrs.Any() {
		// Ошибка валидации байтов терминальна: клиент должен резервировать
		// заново. Проигравший гонку дубль получает ErrStateConflict и не
		// трогает строку победителя.
		if err := s.media.MarkFailed(ctx, mediaID, verrs.Error()); err != nil && !errors.Is(err, repository.ErrStateConflict) {
			s.logger.Error("failed to mark media failed", zap.String("media_id", mediaID), zap.Error(err))
		}
		media.Status = model.MediaStatusFailed
		media.UploadError = verrs.Error()
		s.notify(media.AlertID, EventMediaFailed, media)
		return nil, verrs
	}

	key, err := s.storage.Upload(ctx, media.AlertID, media.ID, media.Filename, meta.ActualMime, body)
	if err != nil {
		// Транзиентная ошибка хранилища: строка остаётся PENDING, клиент может
		// повторить Transfer с тем же токеном до истечения срока.
		s.logger.Error("media byte upload failed", zap.String("media_id", mediaID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	err = s.media.CommitTransfer(ctx, mediaID, repository.TransferResult{
		ActualMime:      meta.ActualMime,
		SizeBytes:       int64(len(body)),
		Checksum:        meta.Checksum,
		Width:           meta.Width,
		Height:          meta.Height,
		DurationSeconds: meta.DurationSeconds,
		StorageKey:      key,
		StorageBucket:   s.storage.Bucket(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, fmt.Errorf("%w: transfer already committed", ErrConflict)
		}
		return nil, err
	}

	updated, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("media transferred",
		zap.String("media_id", mediaID),
		zap.Int64("size", updated.SizeBytes),
		zap.String("mime", updated.ActualMime),
	)
	s.notify(updated.AlertID, EventMediaProcessing, updated)
	return updated, nil
}

// Finalize commits a PROCESSING media as COMPLETED together with the alert
// counter change, then fans out background work. Dispatch is best-effort:
// a dead queue yields an empty job list, never a finalize failure.
func (s *intakeService) Finalize(ctx context.Context, alertID uint, mediaID string) (*FinalizeResult, error) {
	media, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: media %s", ErrNotFound, mediaID)
		}
		return nil, err
	}
	if media.AlertID != alertID {
		return nil, fmt.Errorf("%w: media belongs to a different alert", ErrConflict)
	}
	if media.Status != model.MediaStatusProcessing {
		return nil, fmt.Errorf("%w: not %s (already %s)", ErrConflict, model.MediaStatusProcessing, media.Status)
	}

	if err := s.media.Finalize(ctx, alertID, mediaID); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, fmt.Errorf("%w: not %s", ErrConflict, model.MediaStatusProcessing)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: media %s", ErrNotFound, mediaID)
		}
		return nil, err
	}
	media.Status = model.MediaStatusCompleted

	category, err := s.alerts.GetCategory(ctx, alertID)
	if err != nil {
		s.logger.Warn("failed to load alert category for dispatch", zap.Uint("alert_id", alertID), zap.Error(err))
	}

	queued, degraded := s.dispatcher.Dispatch(ctx, media, category)
	if err := s.media.RecordDispatch(ctx, mediaID, queued, degraded); err != nil {
		s.logger.Error("failed to record dispatch audit", zap.String("media_id", mediaID), zap.Error(err))
	}

	s.logger.Info("media finalized",
		zap.String("media_id", mediaID),
		zap.Uint("alert_id", alertID),
		zap.Strings("jobs_queued", queued),
		zap.Bool("dispatch_degraded", degraded),
	)
	s.notify(alertID, EventMediaCompleted, media)

	return &FinalizeResult{
		MediaID:      mediaID,
		UploadStatus: string(model.MediaStatusCompleted),
		JobsQueued:   queued,
	}, nil
}

// Delete removes the media with its derivatives and transcriptions and
// recomputes the affected alert counter. Byte removal is best-effort.
func (s *intakeService) Delete(ctx context.Context, alertID uint, mediaID string) error {
	media, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: media %s", ErrNotFound, mediaID)
		}
		return err
	}
	if media.AlertID != alertID {
		return fmt.Errorf("%w: media belongs to a different alert", ErrNotFound)
	}

	if media.StorageKey != "" {
		if err := s.storage.Delete(ctx, media.StorageKey); err != nil {
			s.logger.Warn("failed to delete stored bytes",
				zap.String("media_id", mediaID),
				zap.String("key", media.StorageKey),
				zap.Error(err),
			)
		}
	}

	if err := s.media.Delete(ctx, media); err != nil {
		return err
	}

	s.logger.Info("media deleted", zap.String("media_id", mediaID), zap.Uint("alert_id", alertID))
	s.notify(alertID, EventMediaDeleted, media)
	return nil
}

// List returns only COMPLETED media, each with its derivatives, the active
// transcription and a short-lived download URL.
func (s *intakeService) List(ctx context.Context, alertID uint) ([]MediaItem, error) {
	if _, err := s.alerts.GetByID(ctx, alertID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: alert %d", ErrNotFound, alertID)
		}
		return nil, err
	}

	media, err := s.media.ListCompleted(ctx, alertID)
	if err != nil {
		return nil, err
	}

	items := make([]MediaItem, 0, len(media))
	for i := range media {
		item := MediaItem{Media: media[i]}
		if media[i].StorageKey != "" {
			url, err := s.storage.PresignedURL(ctx, media[i].StorageKey, downloadURLExpiry)
			if err != nil {
				s.logger.Warn("failed to presign download URL",
					zap.String("media_id", media[i].ID), zap.Error(err))
			} else {
				item.URL = url
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// ListDegraded returns completed media whose dispatch ran while the queue
// substrate was down. A reconciliation hook, not a retry mechanism.
func (s *intakeService) ListDegraded(ctx context.Context) ([]model.Media, error) {
	return s.media.ListDegraded(ctx)
}

func (s *intakeService) notify(alertID uint, event string, media *model.Media) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyMedia(alertID, event, media)
}
