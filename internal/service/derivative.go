package service

import (
	"context"
	"errors"
	"fmt"

	"citywatch/alertmedia/internal/model"
	"citywatch/alertmedia/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RecordDerivativeRequest struct {
	MediaID     string
	Type        model.DerivativeType
	StorageKey  string
	Bucket      string
	ContentType string
	SizeBytes   int64
	Width       *int
	Height      *int
}

// DerivativeService records artifacts produced by the background workers.
// Only the worker callback goes through here; clients never create
// derivatives directly.
type DerivativeService interface {
	Record(ctx context.Context, req RecordDerivativeRequest) (*model.Derivative, error)
	List(ctx context.Context, mediaID string) ([]model.Derivative, error)
}

type derivativeService struct {
	media       repository.MediaRepository
	derivatives repository.DerivativeRepository
	logger      *zap.Logger
}

func NewDerivativeService(
	media repository.MediaRepository,
	derivatives repository.DerivativeRepository,
	logger *zap.Logger,
) DerivativeService {
	return &derivativeService{
		media:       media,
		derivatives: derivatives,
		logger:      logger,
	}
}

func (s *derivativeService) Record(ctx context.Context, req RecordDerivativeRequest) (*model.Derivative, error) {
	if req.Type == "" || req.StorageKey == "" {
		return nil, ValidationErrors{{
			Field:   "derivative",
			Code:    "missing_fields",
			Message: "type and storage key are required",
		}}
	}

	media, err := s.media.GetByID(ctx, req.MediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: media %s", ErrNotFound, req.MediaID)
		}
		return nil, err
	}
	if media.Status != model.MediaStatusCompleted {
		return nil, fmt.Errorf("%w: derivatives attach to completed media only, media is %s", ErrConflict, media.Status)
	}

	derivative := &model.Derivative{
		ID:            uuid.New().String(),
		MediaID:       req.MediaID,
		Type:          req.Type,
		StorageKey:    req.StorageKey,
		StorageBucket: req.Bucket,
		ContentType:   req.ContentType,
		SizeBytes:     req.SizeBytes,
		Width:         req.Width,
		Height:        req.Height,
	}
	if err := s.derivatives.Create(ctx, derivative); err != nil {
		return nil, fmt.Errorf("failed to record derivative: %w", err)
	}

	s.logger.Info("derivative recorded",
		zap.String("media_id", req.MediaID),
		zap.String("type", string(req.Type)),
	)
	return derivative, nil
}

func (s *derivativeService) List(ctx context.Context, mediaID string) ([]model.Derivative, error) {
	return s.derivatives.ListByMedia(ctx, mediaID)
}
