package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/smallbiznis/marketplace/internal/clock"
	"github.com/smallbiznis/marketplace/internal/marketplace/api"
	"github.com/smallbiznis/marketplace/internal/marketplace/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const expireDateLongLayout = "January 2, 2006"

// Source fetches the consumer of the stored license key.
type Source interface {
	Consumer(ctx context.Context) (*domain.Consumer, error)
}

type Params struct {
	fx.In

	Source Source
	Clock  clock.Clock
	Log    *zap.Logger
}

// Factory builds request-scoped resolvers.
type Factory struct {
	source Source
	clock  clock.Clock
	log    *zap.Logger
}

func NewFactory(p Params) *Factory {
	return &Factory{
		source: p.Source,
		clock:  p.Clock,
		log:    p.Log.Named("consumer.resolver"),
	}
}

// New returns a resolver that fetches the consumer at most once.
func (f *Factory) New() *Resolver {
	return &Resolver{source: f.source, clock: f.clock, log: f.log}
}

// Resolver answers entitlement questions for one request.
type Resolver struct {
	source Source
	clock  clock.Clock
	log    *zap.Logger

	once     sync.Once
	consumer *domain.Consumer
}

// Consumer returns the memoized consumer. Lookup failures resolve to nil
// so that read paths keep rendering; transport failures are logged.
func (r *Resolver) Consumer(ctx context.Context) *domain.Consumer {
	r.once.Do(func() {
		consumer, err := r.source.Consumer(ctx)
		if err != nil {
			code, _ := api.CodeOf(err)
			r.log.Warn("consumer lookup failed", zap.String("code", string(code)), zap.Error(err))
			return
		}
		r.consumer = consumer
	})
	return r.consumer
}

func (r *Resolver) Entitlement(ctx context.Context) Entitlement {
	return Evaluate(r.Consumer(ctx), r.clock.Now())
}

func (r *Resolver) HasAccessToPaidPlugins(ctx context.Context) bool {
	return r.Entitlement(ctx).PaidAccess
}

func (r *Resolver) Distributor(ctx context.Context) *domain.Distributor {
	consumer := r.Consumer(ctx)
	if consumer == nil {
		return nil
	}
	return consumer.Distributor
}

// WhitelistedGithubOrgs returns nil unless the restriction is in force.
func (r *Resolver) WhitelistedGithubOrgs(ctx context.Context) []string {
	if !r.Entitlement(ctx).FreeRestricted {
		return nil
	}
	return r.Consumer(ctx).WhitelistedGithubOrgs
}

// View is the consumer as presented to users.
type View struct {
	Name                  string              `json:"name"`
	ExpireDate            *time.Time          `json:"expireDate,omitempty"`
	ExpireDateLong        string              `json:"expireDateLong,omitempty"`
	ExpireDateDiff        string              `json:"expireDateDiff,omitempty"`
	Distributor           *domain.Distributor `json:"distributor,omitempty"`
	WhitelistedGithubOrgs []string            `json:"whitelistedGithubOrgs,omitempty"`
}

// View returns nil when there is no consumer.
func (r *Resolver) View(ctx context.Context) *View {
	consumer := r.Consumer(ctx)
	if consumer == nil {
		return nil
	}
	return NewView(consumer, r.clock.Now())
}

func NewView(c *domain.Consumer, now time.Time) *View {
	if c == nil {
		return nil
	}
	view := &View{
		Name:                  c.Name,
		ExpireDate:            c.ExpireDate,
		Distributor:           c.Distributor,
		WhitelistedGithubOrgs: c.WhitelistedGithubOrgs,
	}
	if c.ExpireDate != nil {
		view.ExpireDateLong = c.ExpireDate.Format(expireDateLongLayout)
		view.ExpireDateDiff = humanize.RelTime(*c.ExpireDate, now, "ago", "from now")
	}
	return view
}
