package repository

import (
	"context"

	"github.com/smallbiznis/marketplace/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return repo{}
}

func (repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (repo) Find(ctx context.Context, db *gorm.DB, q domain.Query) ([]domain.AuditLog, error) {
	tx := db.WithContext(ctx).Order("created_at desc").Order("id desc")
	if q.Action != "" {
		tx = tx.Where("action = ?", q.Action)
	}
	if !q.Since.IsZero() {
		tx = tx.Where("created_at >= ?", q.Since.UTC())
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var out []domain.AuditLog
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
