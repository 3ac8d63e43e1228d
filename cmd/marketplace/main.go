package main

import (
	"github.com/smallbiznis/marketplace/internal/audit"
	"github.com/smallbiznis/marketplace/internal/authorization"
	"github.com/smallbiznis/marketplace/internal/clock"
	"github.com/smallbiznis/marketplace/internal/config"
	"github.com/smallbiznis/marketplace/internal/consumer"
	"github.com/smallbiznis/marketplace/internal/license"
	"github.com/smallbiznis/marketplace/internal/marketplace/api"
	"github.com/smallbiznis/marketplace/internal/marketplace/cache"
	"github.com/smallbiznis/marketplace/internal/marketplace/client"
	"github.com/smallbiznis/marketplace/internal/migration"
	"github.com/smallbiznis/marketplace/internal/observability"
	"github.com/smallbiznis/marketplace/internal/pluginmanager"
	"github.com/smallbiznis/marketplace/internal/plugins"
	"github.com/smallbiznis/marketplace/internal/ratelimit"
	"github.com/smallbiznis/marketplace/internal/redisclient"
	"github.com/smallbiznis/marketplace/internal/server"
	"github.com/smallbiznis/marketplace/internal/settings"
	"github.com/smallbiznis/marketplace/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		db.Module,
		redisclient.Module,
		clock.Module,

		// Functional Domains
		settings.Module,
		audit.Module,
		authorization.Module,
		ratelimit.Module,
		api.Module,
		cache.Module,
		client.Module,
		license.Module,
		consumer.Module,
		pluginmanager.Module,
		plugins.Module,
		migration.Module,

		server.Module,
	)
	app.Run()
}
