package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/internal/audit/domain"
	"github.com/smallbiznis/marketplace/internal/audit/masking"
	"github.com/smallbiznis/marketplace/internal/clock"
	obscontext "github.com/smallbiznis/marketplace/internal/observability/context"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultLimit = 50
	maxLimit     = 250
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	ids   *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
}

func NewService(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		ids:   p.GenID,
		repo:  p.Repo,
		clock: c,
	}
}

// Record writes ev to the audit table. Credential-looking metadata values
// are masked and the request id from ctx is attached.
func (s *Service) Record(ctx context.Context, ev domain.Event) error {
	action := strings.TrimSpace(ev.Action)
	if action == "" {
		return domain.ErrMissingAction
	}
	target := strings.TrimSpace(ev.TargetType)
	if target == "" {
		target = "unknown"
	}

	md := masking.Metadata(ev.Metadata)
	if rid := obscontext.RequestIDFromContext(ctx); rid != "" {
		md["request_id"] = rid
	}

	actorType, actorID := ev.ActorType, ev.ActorID
	if actorType == "" {
		actorType, actorID = obscontext.ActorFromContext(ctx)
	}
	if actorType == "" {
		actorType, actorID = domain.ActorSystem, ""
	}
	ip, agent := obscontext.ClientFromContext(ctx)

	entry := &domain.AuditLog{
		ID:         s.ids.Generate(),
		ActorType:  actorType,
		ActorID:    optional(actorID),
		Action:     action,
		TargetType: target,
		TargetID:   optional(ev.TargetID),
		Metadata:   datatypes.JSONMap(md),
		IPAddress:  optional(ip),
		UserAgent:  optional(agent),
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		s.log.Warn("audit insert failed", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) Recent(ctx context.Context, q domain.Query) ([]domain.AuditLog, error) {
	q.Action = strings.TrimSpace(q.Action)
	switch {
	case q.Limit <= 0:
		q.Limit = defaultLimit
	case q.Limit > maxLimit:
		q.Limit = maxLimit
	}
	return s.repo.Find(ctx, s.db, q)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
