package audit

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/internal/audit/repository"
	"github.com/smallbiznis/marketplace/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(NewIDGenerator),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

// NewIDGenerator returns the snowflake node used for audit ids.
func NewIDGenerator() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
