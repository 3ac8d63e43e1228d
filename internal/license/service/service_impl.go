package service

import (
	"context"
	"strings"

	auditdomain "github.com/smallbiznis/marketplace/internal/audit/domain"
	"github.com/smallbiznis/marketplace/internal/authorization"
	licensedomain "github.com/smallbiznis/marketplace/internal/license/domain"
	"github.com/smallbiznis/marketplace/internal/marketplace/api"
	"github.com/smallbiznis/marketplace/internal/marketplace/cache"
	"github.com/smallbiznis/marketplace/internal/marketplace/domain"
	"github.com/smallbiznis/marketplace/internal/observability/logger"
	"github.com/smallbiznis/marketplace/internal/observability/metrics"
	"github.com/smallbiznis/marketplace/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	actionSave   = "save"
	actionDelete = "delete"

	fingerprintPrefixLength = 12
)

// CacheClearer drops every cached marketplace response.
type CacheClearer interface {
	ClearAllCacheEntries(ctx context.Context) error
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Store    licensedomain.Store
	Factory  api.Factory
	Cache    CacheClearer
	Authz    authorization.Service
	AuditSvc auditdomain.Service     `optional:"true"`
	Metrics  *metrics.Metrics        `optional:"true"`
	Guard    *ratelimit.LicenseGuard `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	store    licensedomain.Store
	factory  api.Factory
	cache    CacheClearer
	authz    authorization.Service
	auditSvc auditdomain.Service
	metrics  *metrics.Metrics
	guard    *ratelimit.LicenseGuard
}

func New(p Params) licensedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("license.service"),
		store:    p.Store,
		factory:  p.Factory,
		cache:    p.Cache,
		authz:    p.Authz,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
		guard:    p.Guard,
	}
}

// SaveLicenseKey validates licenseKey against the marketplace and stores it.
// Transport failures are returned untouched; any other lookup failure means
// the key is not valid. The stored key and the cache change together or not at all.
func (s *Service) SaveLicenseKey(ctx context.Context, licenseKey string) (err error) {
	if err := s.authz.RequireSuperUser(ctx); err != nil {
		return err
	}
	defer func() { s.metrics.RecordLicenseChange(ctx, actionSave, outcome(err)) }()

	licenseKey = strings.TrimSpace(licenseKey)
	if licenseKey == "" {
		return licensedomain.ErrInvalidLicenseKey
	}

	actor := authorization.ActorFromContext(ctx)
	if err := s.guard.AllowAttempt(ctx, actor.Login); err != nil {
		return err
	}

	consumer, err := s.lookupConsumer(ctx, licenseKey)
	if err != nil {
		return err
	}
	if consumer == nil || consumer.Name == "" {
		return licensedomain.ErrInvalidLicenseKey
	}

	release, err := s.guard.Lock(ctx)
	if err != nil {
		return err
	}
	defer release()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.store.Set(ctx, tx, licenseKey); err != nil {
			return err
		}
		return s.cache.ClearAllCacheEntries(ctx)
	})
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to store license key", zap.Error(err))
		return err
	}

	fingerprint := shortFingerprint(licenseKey)
	logger.WithContext(ctx, s.log).Info("license key saved",
		zap.String("fingerprint", fingerprint),
		zap.String("consumer", consumer.Name),
	)
	s.audit(ctx, "license.save", map[string]any{
		"fingerprint": fingerprint,
		"consumer":    consumer.Name,
	})
	return nil
}

// DeleteLicenseKey removes the stored key and every cached response. It is idempotent.
func (s *Service) DeleteLicenseKey(ctx context.Context) (err error) {
	if err := s.authz.RequireSuperUser(ctx); err != nil {
		return err
	}
	defer func() { s.metrics.RecordLicenseChange(ctx, actionDelete, outcome(err)) }()

	release, err := s.guard.Lock(ctx)
	if err != nil {
		return err
	}
	defer release()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.store.Delete(ctx, tx); err != nil {
			return err
		}
		return s.cache.ClearAllCacheEntries(ctx)
	})
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to delete license key", zap.Error(err))
		return err
	}

	logger.WithContext(ctx, s.log).Info("license key deleted")
	s.audit(ctx, "license.delete", nil)
	return nil
}

func (s *Service) Status(ctx context.Context) (licensedomain.Status, error) {
	if err := s.authz.RequireSuperUser(ctx); err != nil {
		return licensedomain.Status{}, err
	}
	licenseKey, ok, err := s.store.Get(ctx, s.db)
	if err != nil {
		return licensedomain.Status{}, err
	}
	if !ok {
		return licensedomain.Status{}, nil
	}
	return licensedomain.Status{
		HasLicenseKey: true,
		Fingerprint:   shortFingerprint(licenseKey),
	}, nil
}

// lookupConsumer asks the marketplace who owns licenseKey using a fresh,
// unshared service instance. Only transport failures are returned.
func (s *Service) lookupConsumer(ctx context.Context, licenseKey string) (*domain.Consumer, error) {
	svc := s.factory.New()
	svc.Authenticate(licenseKey)

	var consumer domain.Consumer
	err := svc.FetchInto(ctx, "consumer", map[string]string{}, &consumer)
	if err == nil {
		return &consumer, nil
	}
	if api.IsTransport(err) {
		logger.WithContext(ctx, s.log).Warn("marketplace unreachable while validating license key", zap.Error(err))
		return nil, err
	}
	code, _ := api.CodeOf(err)
	logger.WithContext(ctx, s.log).Info("license key rejected by marketplace", zap.String("code", string(code)))
	return nil, nil
}

func (s *Service) audit(ctx context.Context, action string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	ev := auditdomain.Event{
		Action:     action,
		TargetType: "license",
		TargetID:   licensedomain.OptionName,
		Metadata:   metadata,
	}
	if err := s.auditSvc.Record(ctx, ev); err != nil {
		s.log.Warn("failed to audit license change", zap.String("action", action), zap.Error(err))
	}
}

func shortFingerprint(licenseKey string) string {
	fp := cache.Fingerprint(licenseKey)
	if len(fp) > fingerprintPrefixLength {
		fp = fp[:fingerprintPrefixLength]
	}
	return fp
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case api.IsTransport(err):
		return "http_error"
	default:
		return "rejected"
	}
}
