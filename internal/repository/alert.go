package repository

import (
	"context"

	"citywatch/alertmedia/internal/model"

	"gorm.io/gorm"
)

type AlertRepository interface {
	GetByID(ctx context.Context, id uint) (*model.Alert, error)
	GetCategory(ctx context.Context, id uint) (model.AlertCategory, error)
}

type alertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) GetByID(ctx context.Context, id uint) (*model.Alert, error) {
	var alert model.Alert
	err := r.db.WithContext(ctx).First(&alert, id).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) GetCategory(ctx context.Context, id uint) (model.AlertCategory, error) {
	var alert model.Alert
	err := r.db.WithContext(ctx).Select("category").First(&alert, id).Error
	if err != nil {
		return "", err
	}
	return alert.Category, nil
}
