package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"citywatch/alertmedia/internal/model"
	"citywatch/alertmedia/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TranscriptionService is the append-only ledger of transcription versions
// for audio media. Every append goes through the same rules: deactivate the
// prior versions, insert version max+1, keep exactly one row active.
type TranscriptionService interface {
	// AddCorrection appends a human correction (source=human_corrected).
	AddCorrection(ctx context.Context, mediaID, text, language, createdBy string) (*model.Transcription, error)

	// Append records a transcription from an arbitrary source: auto for the
	// speech-to-text worker callback, manual for operator-entered text.
	Append(ctx context.Context, mediaID, text, language, createdBy string, source model.TranscriptionSource) (*model.Transcription, error)

	// GetBest resolves the active transcription by source rank
	// (manual > human_corrected > auto), ties broken by highest version.
	GetBest(ctx context.Context, mediaID string) (*model.Transcription, error)

	List(ctx context.Context, mediaID string) ([]model.Transcription, error)
}

type transcriptionService struct {
	media          repository.MediaRepository
	transcriptions repository.TranscriptionRepository
	logger         *zap.Logger
}

func NewTranscriptionService(
	media repository.MediaRepository,
	transcriptions repository.TranscriptionRepository,
	logger *zap.Logger,
) TranscriptionService {
	return &transcriptionService{
		media:          media,
		transcriptions: transcriptions,
		logger:         logger,
	}
}

func (s *transcriptionService) AddCorrection(ctx context.Context, mediaID, text, language, createdBy string) (*model.Transcription, error) {
	return s.Append(ctx, mediaID, text, language, createdBy, model.SourceHumanCorrected)
}

func (s *transcriptionService) Append(ctx context.Context, mediaID, text, language, createdBy string, source model.TranscriptionSource) (*model.Transcription, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ValidationErrors{{
			Field:   "text",
			Code:    "empty_text",
			Message: "transcription text cannot be empty",
		}}
	}
	if !source.Valid() {
		return nil, ValidationErrors{{
			Field:   "source",
			Code:    "invalid_source",
			Message: fmt.Sprintf("unknown transcription source %q", source),
		}}
	}

	media, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: media %s", ErrNotFound, mediaID)
		}
		return nil, err
	}
	if media.Kind != model.MediaKindAudio {
		return nil, fmt.Errorf("%w: transcriptions require audio media, got %s", ErrConflict, media.Kind)
	}

	t := &model.Transcription{
		MediaID:   mediaID,
		Source:    source,
		Text:      text,
		Language:  language,
		CreatedBy: createdBy,
	}
	if err := s.transcriptions.AddVersion(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to append transcription: %w", err)
	}

	s.logger.Info("transcription appended",
		zap.String("media_id", mediaID),
		zap.Int("version", t.Version),
		zap.String("source", string(source)),
	)
	return t, nil
}

func (s *transcriptionService) GetBest(ctx context.Context, mediaID string) (*model.Transcription, error) {
	best, err := s.transcriptions.GetBest(ctx, mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active transcription for media %s", ErrNotFound, mediaID)
		}
		return nil, err
	}
	return best, nil
}

func (s *transcriptionService) List(ctx context.Context, mediaID string) ([]model.Transcription, error) {
	return s.transcriptions.ListByMedia(ctx, mediaID)
}
