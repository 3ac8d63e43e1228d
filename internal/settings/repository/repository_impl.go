package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	settingsdomain "github.com/smallbiznis/marketplace/internal/settings/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() settingsdomain.Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, db *gorm.DB, name string) (string, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false, settingsdomain.ErrInvalidName
	}

	var opt settingsdomain.Option
	err := db.WithContext(ctx).
		Where("option_name = ?", name).
		Take(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return opt.Value, true, nil
}

func (r *repo) Set(ctx context.Context, db *gorm.DB, name string, value string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return settingsdomain.ErrInvalidName
	}

	opt := settingsdomain.Option{
		Name:      name,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "option_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"option_value", "updated_at"}),
	}).Create(&opt).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return settingsdomain.ErrInvalidName
	}
	return db.WithContext(ctx).
		Where("option_name = ?", name).
		Delete(&settingsdomain.Option{}).Error
}
