package service

import (
	"context"
	"time"

	"citywatch/alertmedia/internal/model"
	"citywatch/alertmedia/internal/repository"

	"go.uber.org/zap"
)

// Background job types produced at finalize. Lower priority number = more urgent.
const (
	JobGenerateThumbnails   = "generate-thumbnails"
	JobAIEnhancement        = "ai-enhancement"
	JobTranscribeAudio      = "transcribe-audio"
	JobGenerateWaveform     = "generate-waveform"
	JobGenerateVideoPreview = "generate-video-preview"
	JobGenerateVideoThumb   = "generate-video-thumbnail"
)

type jobSpec struct {
	Type     string
	Priority int
}

// enhancementCategories are the alert categories whose images get the AI
// portrait enhancement pass.
var enhancementCategories = map[model.AlertCategory]bool{
	model.CategoryMissingPerson:      true,
	model.CategoryUnidentifiedPerson: true,
}

// jobsFor is the whole dispatch policy: a pure mapping from
// {kind, alert category} to an ordered job list.
func jobsFor(kind model.MediaKind, category model.AlertCategory) []jobSpec {
	switch kind {
	case model.MediaKindImage:
		jobs := []jobSpec{{JobGenerateThumbnails, 5}}
		if enhancementCategories[category] {
			jobs = append(jobs, jobSpec{JobAIEnhancement, 10})
		}
		return jobs
	case model.MediaKindAudio:
		return []jobSpec{
			{JobTranscribeAudio, 5},
			{JobGenerateWaveform, 15},
		}
	case model.MediaKindVideo:
		return []jobSpec{
			{JobGenerateVideoPreview, 10},
			{JobGenerateVideoThumb, 10},
		}
	}
	return nil
}

type JobDispatcher interface {
	// Dispatch enqueues the background work for a finalized media item and
	// returns the job types actually accepted by the queue. When the queue
	// substrate is unreachable it returns an empty list and degraded=true;
	// dispatch failures never propagate as finalize failures.
	Dispatch(ctx context.Context, media *model.Media, category model.AlertCategory) (queued []string, degraded bool)
}

type jobDispatcher struct {
	queue          repository.JobQueue
	enqueueTimeout time.Duration
	logger         *zap.Logger
}

func NewJobDispatcher(queue repository.JobQueue, enqueueTimeout time.Duration, logger *zap.Logger) JobDispatcher {
	return &jobDispatcher{
		queue:          queue,
		enqueueTimeout: enqueueTimeout,
		logger:         logger,
	}
}

func (d *jobDispatcher) Dispatch(ctx context.Context, media *model.Media, category model.AlertCategory) ([]string, bool) {
	specs := jobsFor(media.Kind, category)
	if len(specs) == 0 {
		return []string{}, false
	}

	if d.queue == nil || !d.queue.Available(ctx) {
		d.logger.Warn("job queue unavailable, dispatch degraded",
			zap.String("media_id", media.ID),
			zap.String("kind", string(media.Kind)),
		)
		return []string{}, true
	}

	queued := make([]string, 0, len(specs))
	degraded := false
	for _, spec := range specs {
		enqueueCtx, cancel := context.WithTimeout(ctx, d.enqueueTimeout)
		err := d.queue.Enqueue(enqueueCtx, repository.Job{
			Type:     spec.Type,
			Priority: spec.Priority,
			Payload: map[string]interface{}{
				"media_id": media.ID,
				"alert_id": media.AlertID,
				"kind":     string(media.Kind),
				"category": string(category),
			},
		})
		cancel()

		if err != nil {
			// Fail open: finalize must not depend on the queue.
			degraded = true
			d.logger.Warn("failed to enqueue job",
				zap.String("media_id", media.ID),
				zap.String("job", spec.Type),
				zap.Error(err),
			)
			continue
		}
		queued = append(queued, spec.Type)
	}

	return queued, degraded
}
