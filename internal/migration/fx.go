package migration

import (
	"github.com/smallbiznis/warrantyhub/internal/config"
	pkgdb "github.com/smallbiznis/warrantyhub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, dbCfg pkgdb.Config, log *zap.Logger) error {
		if !cfg.DBRunMigrations {
			log.Info("schema migrations disabled")
			return nil
		}

		if dbCfg.Type != "postgres" {
			log.Info("auto-migrating schema", zap.String("db_type", dbCfg.Type))
			return AutoMigrate(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
