package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warrantyhub/internal/audit"
	"github.com/smallbiznis/warrantyhub/internal/authorization"
	"github.com/smallbiznis/warrantyhub/internal/clock"
	"github.com/smallbiznis/warrantyhub/internal/config"
	"github.com/smallbiznis/warrantyhub/internal/lock"
	"github.com/smallbiznis/warrantyhub/internal/migration"
	"github.com/smallbiznis/warrantyhub/internal/notification"
	"github.com/smallbiznis/warrantyhub/internal/observability"
	"github.com/smallbiznis/warrantyhub/internal/ratelimit"
	"github.com/smallbiznis/warrantyhub/internal/scheduler"
	"github.com/smallbiznis/warrantyhub/internal/server"
	"github.com/smallbiznis/warrantyhub/internal/warranty"
	"github.com/smallbiznis/warrantyhub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		lock.Module,
		ratelimit.Module,

		// Domains
		audit.Module,
		authorization.Module,
		notification.Module,
		warranty.Module,

		// Workers and transport
		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
