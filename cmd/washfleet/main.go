package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/selfix/washfleet/internal/clock"
	"github.com/selfix/washfleet/internal/config"
	"github.com/selfix/washfleet/internal/migration"
	"github.com/selfix/washfleet/internal/observability/metrics"
	"github.com/selfix/washfleet/internal/scheduler"
	"github.com/selfix/washfleet/internal/server"
	"github.com/selfix/washfleet/pkg/db"
	"github.com/selfix/washfleet/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		metrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
