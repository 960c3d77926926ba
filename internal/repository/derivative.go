package repository

import (
	"context"

	"citywatch/alertmedia/internal/model"

	"gorm.io/gorm"
)

type DerivativeRepository interface {
	Create(ctx context.Context, derivative *model.Derivative) error
	ListByMedia(ctx context.Context, mediaID string) ([]model.Derivative, error)
}

type derivativeRepository struct {
	db *gorm.DB
}

func NewDerivativeRepository(db *gorm.DB) DerivativeRepository {
	return &derivativeRepository{db: db}
}

func (r *derivativeRepository) Create(ctx context.Context, derivative *model.Derivative) error {
	return r.db.WithContext(ctx).Create(derivative).Error
}

func (r *derivativeRepository) ListByMedia(ctx context.Context, mediaID string) ([]model.Derivative, error) {
	var derivatives []model.Derivative
	err := r.db.WithContext(ctx).
		Where("media_id = ?", mediaID).
		Order("created_at").
		Find(&derivatives).Error
	if err != nil {
		return nil, err
	}
	return derivatives, nil
}
