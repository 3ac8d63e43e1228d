package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/marketplace/internal/pluginmanager/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, name string) (*domain.Activation, error) {
	var activation domain.Activation
	err := db.WithContext(ctx).Where("plugin_name = ?", name).Take(&activation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &activation, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, activation *domain.Activation) error {
	return db.WithContext(ctx).Create(activation).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Activation, error) {
	var activations []domain.Activation
	if err := db.WithContext(ctx).Order("plugin_name asc").Find(&activations).Error; err != nil {
		return nil, err
	}
	return activations, nil
}
