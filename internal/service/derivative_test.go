package service

import (
	"context"
	"errors"
	"testing"

	"citywatch/alertmedia/internal/model"

	"go.uber.org/zap"
)

type fakeDerivativeRepo struct {
	rows []model.Derivative
}

func (f *fakeDerivativeRepo) Create(ctx context.Context, d *model.Derivative) error {
	f.rows = append(f.rows, *d)
	return nil
}

func (f *fakeDerivativeRepo) ListByMedia(ctx context.Context, mediaID string) ([]model.Derivative, error) {
	var out []model.Derivative
	for _, d := range f.rows {
		if d.MediaID == mediaID {
			out = append(out, d)
		}
	}
	return out, nil
}

func newDerivativeFixture(t *testing.T) (DerivativeService, *fakeDerivativeRepo) {
	t.Helper()

	alerts := map[uint]*model.Alert{1: activeAlert()}
	mediaRepo := newFakeMediaRepo(alerts)
	mediaRepo.store["done-1"] = &model.Media{
		ID:      "done-1",
		AlertID: 1,
		Kind:    model.MediaKindImage,
		Status:  model.MediaStatusCompleted,
	}
	mediaRepo.store["pending-1"] = &model.Media{
		ID:      "pending-1",
		AlertID: 1,
		Kind:    model.MediaKindImage,
		Status:  model.MediaStatusPending,
	}

	repo := &fakeDerivativeRepo{}
	return NewDerivativeService(mediaRepo, repo, zap.NewNop()), repo
}

func TestRecordDerivative(t *testing.T) {
	svc, repo := newDerivativeFixture(t)

	w, h := 320, 240
	d, err := svc.Record(context.Background(), RecordDerivativeRequest{
		MediaID:     "done-1",
		Type:        model.DerivativeThumbnail,
		StorageKey:  "alerts/1/done-1/thumb.jpg",
		ContentType: "image/jpeg",
		Width:       &w,
		Height:      &h,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if d.ID == "" {
		t.Error("expected a generated id")
	}
	if len(repo.rows) != 1 {
		t.Fatalf("stored %d rows, want 1", len(repo.rows))
	}
}

func TestRecordDerivativeRequiresFields(t *testing.T) {
	svc, _ := newDerivativeFixture(t)

	_, err := svc.Record(context.Background(), RecordDerivativeRequest{MediaID: "done-1"})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || !hasCode(verrs, "missing_fields") {
		t.Fatalf("expected missing_fields, got %v", err)
	}
}

func TestRecordDerivativeRequiresCompletedMedia(t *testing.T) {
	svc, _ := newDerivativeFixture(t)

	_, err := svc.Record(context.Background(), RecordDerivativeRequest{
		MediaID:    "pending-1",
		Type:       model.DerivativeThumbnail,
		StorageKey: "alerts/1/pending-1/thumb.jpg",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRecordDerivativeUnknownMedia(t *testing.T) {
	svc, _ := newDerivativeFixture(t)

	_, err := svc.Record(context.Background(), RecordDerivativeRequest{
		MediaID:    "missing",
		Type:       model.DerivativeThumbnail,
		StorageKey: "k",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
