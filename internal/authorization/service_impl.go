package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/marketplace/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

// NewEnforcer builds an enforcer persisted through gorm.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	return newEnforcer(adapter)
}

// NewMemoryEnforcer builds an enforcer holding only the seeded policies.
func NewMemoryEnforcer() (*casbin.SyncedEnforcer, error) {
	return newEnforcer(nil)
}

func newEnforcer(adapter persist.Adapter) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	args := []interface{}{m}
	if adapter != nil {
		args = append(args, adapter)
	}
	enforcer, err := casbin.NewSyncedEnforcer(args...)
	if err != nil {
		return nil, err
	}

	enforcer.EnableAutoBuildRoleLinks(true)
	enforcer.EnableAutoSave(adapter != nil)
	if adapter != nil {
		if err := enforcer.LoadPolicy(); err != nil {
			return nil, err
		}
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, fmt.Errorf("seed policies: %w", err)
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) RequireSuperUser(ctx context.Context) error {
	return s.Authorize(ctx, ObjectInstance, ActionInstanceAdminister)
}

func (s *ServiceImpl) RequireAuthenticated(ctx context.Context) error {
	return s.Authorize(ctx, ObjectMarketplace, ActionMarketplaceView)
}

func (s *ServiceImpl) Authorize(ctx context.Context, object string, action string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	actor := ActorFromContext(ctx)
	if actor.IsAnonymous() {
		return ErrUnauthorized
	}

	subject := "user:" + actor.Login
	if err := s.ensureGrouping(subject, RoleName(actor.Role)); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, actor, object, action)
		return ErrForbidden
	}
	return nil
}

// ensureGrouping links subject to roleName and drops any other role it held,
// so a login whose role changed in config loses the old grants.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	links, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	linked := false
	for _, link := range links {
		if len(link) >= 2 && link[1] == roleName {
			linked = true
			continue
		}
		if _, err := s.enforcer.RemoveFilteredGroupingPolicy(0, link...); err != nil {
			return err
		}
	}
	if linked {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, actor Actor, object string, action string) {
	s.log.Info("authorization denied",
		zap.String("login", actor.Login),
		zap.String("role", actor.Role),
		zap.String("object", object),
		zap.String("action", action),
	)
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.Record(ctx, auditdomain.Event{
		Action:     "authorization.denied",
		TargetType: "authorization",
		TargetID:   object,
		ActorType:  auditdomain.ActorUser,
		ActorID:    actor.Login,
		Metadata: map[string]any{
			"action": action,
			"role":   actor.Role,
		},
	})
}

var seededPolicies = [][]string{
	{"role:user", ObjectMarketplace, ActionMarketplaceView},
	{"role:superuser", ObjectInstance, ActionInstanceAdminister},
	{"role:superuser", ObjectLicense, ActionLicenseManage},
	{"role:superuser", ObjectPlugin, ActionPluginDownload},
}

// seedPolicies adds the built-in grants and makes superusers inherit
// everything a user may do. Existing rows are left untouched.
func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	for _, rule := range seededPolicies {
		has, err := enforcer.HasPolicy(rule)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(rule); err != nil {
			return err
		}
	}

	has, err := enforcer.HasGroupingPolicy(RoleName(RoleSuperUser), RoleName(RoleUser))
	if err != nil || has {
		return err
	}
	_, err = enforcer.AddGroupingPolicy(RoleName(RoleSuperUser), RoleName(RoleUser))
	return err
}
