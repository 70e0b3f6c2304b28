package migration

import (
	"github.com/selfix/washfleet/internal/config"
	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
	ledgerdomain "github.com/selfix/washfleet/internal/ledger/domain"
	projectdomain "github.com/selfix/washfleet/internal/project/domain"
	statusdomain "github.com/selfix/washfleet/internal/status/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		return conn.AutoMigrate(
			&equipmentdomain.Equipment{},
			&equipmentdomain.ReplacementHistory{},
			&ledgerdomain.UsageRecord{},
			&ledgerdomain.UsageRecordBackup{},
			&statusdomain.Snapshot{},
			&projectdomain.Project{},
		)
	}),
)
