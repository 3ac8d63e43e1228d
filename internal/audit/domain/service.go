package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Service interface {
	Record(ctx context.Context, ev Event) error
	Recent(ctx context.Context, q Query) ([]AuditLog, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	Find(ctx context.Context, db *gorm.DB, q Query) ([]AuditLog, error)
}

var ErrMissingAction = errors.New("missing_action")
