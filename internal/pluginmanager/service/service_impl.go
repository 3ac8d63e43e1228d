package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/marketplace/internal/clock"
	"github.com/smallbiznis/marketplace/internal/pluginmanager/domain"
	"github.com/smallbiznis/marketplace/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Manager {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("pluginmanager.service"),
		repo:  p.Repo,
		clock: p.Clock,
	}
}

func (s *Service) IsPluginActivated(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if !domain.ValidPluginName(name) {
		return false, domain.ErrInvalidPluginName
	}
	activation, err := s.repo.Find(ctx, s.db, name)
	if err != nil {
		return false, err
	}
	return activation != nil, nil
}

// ActivatePlugin is idempotent.
func (s *Service) ActivatePlugin(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if !domain.ValidPluginName(name) {
		return domain.ErrInvalidPluginName
	}

	err := s.repo.Insert(ctx, s.db, &domain.Activation{
		PluginName:  name,
		ActivatedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil
		}
		return err
	}
	s.log.Info("plugin activated", zap.String("plugin", name))
	return nil
}

func (s *Service) ActivatedPlugins(ctx context.Context) ([]string, error) {
	activations, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(activations))
	for _, activation := range activations {
		names = append(names, activation.PluginName)
	}
	return names, nil
}
