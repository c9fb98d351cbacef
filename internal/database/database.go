// Package database opens the MySQL store and owns the schema.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dealdesk/core/internal/config"
	"github.com/dealdesk/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxOpenConns    = 20
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
	slowQuery       = 200 * time.Millisecond
	pingTimeout     = 5 * time.Second
)

// defaultStringSize keeps indexed varchar columns under the utf8mb4 key
// length limit.
const defaultStringSize = 191

// Connect opens MySQL at cfg.DSN, pings it and, when autoMigrate is set, brings
// the schema up to date. SQL logs go to log at Info in development and Warn
// otherwise.
func Connect(cfg *config.AppConfig, log *zap.Logger, autoMigrate bool) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               cfg.DSN,
		DefaultStringSize: defaultStringSize,
	}), &gorm.Config{
		Logger:         newGormLogger(log.Named("SQL"), cfg.IsDev()),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	if autoMigrate {
		if err := Migrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}

func newGormLogger(log *zap.Logger, development bool) gormlogger.Interface {
	level := gormlogger.Warn
	if development {
		level = gormlogger.Info
	}
	return gormlogger.New(zap.NewStdLog(log), gormlogger.Config{
		SlowThreshold:             slowQuery,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&models.UserModel{},
		&models.PartnerModel{},
		&models.BrandModel{},
		&models.ContactModel{},
		&models.CredentialModel{},
		&models.AssetModel{},
		&models.PageModel{},
		&models.PositionModel{},
		&models.DealModel{},
		&models.ScanResultModel{},
		&models.ScanResultItemModel{},
		&models.IntakeLinkModel{},
		&models.IntakeSubmissionModel{},
		&models.AuditLogModel{},
		&models.NotificationModel{},
	}
}

// Migrate runs auto-migration. On MySQL the JSON payload columns are widened
// past TEXT afterwards.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	if db.Dialector.Name() != "mysql" {
		return nil
	}
	for _, stmt := range []string{
		"ALTER TABLE `intake_submissions` MODIFY COLUMN `brands` LONGTEXT NULL",
		"ALTER TABLE `audit_logs` MODIFY COLUMN `details` LONGTEXT NULL",
	} {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
