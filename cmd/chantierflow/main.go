package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/chantierflow/chantierflow/internal/config"
	"github.com/chantierflow/chantierflow/internal/migration"
	"github.com/chantierflow/chantierflow/internal/observability"
	"github.com/chantierflow/chantierflow/internal/server"
	"github.com/chantierflow/chantierflow/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
