package authorization

import (
	"context"
	"errors"
	"strings"

	obscontext "github.com/smallbiznis/marketplace/internal/observability/context"
)

const (
	RoleSuperUser = "superuser"
	RoleUser      = "user"
	RoleAnonymous = "anonymous"
)

// RoleName is the casbin subject for role.
func RoleName(role string) string { return "role:" + role }

const (
	ObjectInstance    = "instance"
	ObjectLicense     = "license"
	ObjectMarketplace = "marketplace"
	ObjectPlugin      = "plugin"
)

const (
	ActionInstanceAdminister = "instance.administer"
	ActionLicenseManage      = "license.manage"
	ActionMarketplaceView    = "marketplace.view"
	ActionPluginDownload     = "plugin.download"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrInvalidToken  = errors.New("invalid_access_token")
)

type Service interface {
	Authorize(ctx context.Context, object string, action string) error
	RequireSuperUser(ctx context.Context) error
	RequireAuthenticated(ctx context.Context) error
}

// Actor is the caller identity attached to a request.
type Actor struct {
	Login string `json:"login"`
	Role  string `json:"role"`
}

func (a Actor) IsAnonymous() bool {
	return strings.TrimSpace(a.Login) == "" || a.Role == RoleAnonymous || a.Role == ""
}

func (a Actor) IsSuperUser() bool {
	return !a.IsAnonymous() && a.Role == RoleSuperUser
}

type actorKey struct{}

// WithActor stores actor on ctx and mirrors it into the observability context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	ctx = context.WithValue(ctx, actorKey{}, actor)
	if !actor.IsAnonymous() {
		ctx = obscontext.WithActor(ctx, "user", actor.Login)
	}
	return ctx
}

func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Actor{Role: RoleAnonymous}
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok {
		return Actor{Role: RoleAnonymous}
	}
	return actor
}
