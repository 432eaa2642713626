package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	authdomain "github.com/chantierflow/chantierflow/internal/auth/domain"
	companydomain "github.com/chantierflow/chantierflow/internal/company/domain"
	"github.com/chantierflow/chantierflow/internal/config"
	lexicondomain "github.com/chantierflow/chantierflow/internal/lexicon/domain"
	orderdomain "github.com/chantierflow/chantierflow/internal/order/domain"
	productdomain "github.com/chantierflow/chantierflow/internal/product/domain"
	projectdomain "github.com/chantierflow/chantierflow/internal/project/domain"
	"github.com/chantierflow/chantierflow/internal/seed"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Non-Postgres setups (local sqlite mostly) build the
			// schema from the models directly.
			if err := conn.AutoMigrate(
				&companydomain.Company{},
				&authdomain.User{},
				&authdomain.Session{},
				&projectdomain.Project{},
				&productdomain.Product{},
				&orderdomain.Order{},
				&orderdomain.OrderLine{},
				&orderdomain.OrderHistory{},
				&lexicondomain.Entry{},
				&lexicondomain.Suggestion{},
			); err != nil {
				return err
			}
		}

		if err := seed.EnsureSuperAdmin(conn); err != nil {
			return err
		}
		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
