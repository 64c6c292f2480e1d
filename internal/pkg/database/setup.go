package database

import (
	"context"
	"time"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/internal/pkg/logging"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

// Models lists every table the application owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Subscription{},
		&models.AdminUser{},
		&models.AdminAuditLog{},
		&models.BillingWebhookEvent{},
		&models.Property{},
		&models.Tenant{},
		&models.LateFeeRule{},
		&models.Payment{},
		&models.MaintenanceItem{},
	}
}

// SetupDatabase connects to MySQL, retrying while the server starts up.
// With autoMigrate set the schema is synced from the models; production
// deployments run cmd/migrate instead.
func SetupDatabase(ctx context.Context, dsn string, autoMigrate bool) (*gorm.DB, error) {
	log := logging.Component("database")

	var db *gorm.DB
	var err error
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
		if err == nil {
			break
		}

		log.Warn().Err(err).Int("attempt", i+1).Int("max", maxRetries).Msg("failed to connect to database")
		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if autoMigrate {
		if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
			return nil, err
		}
		log.Info().Msg("schema auto-migrated")
	}
	return db, nil
}
