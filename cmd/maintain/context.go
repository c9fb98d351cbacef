package main

import (
	"fmt"
	"strings"

	"github.com/dealdesk/core/internal/config"
	"github.com/dealdesk/core/internal/database"
	"github.com/dealdesk/core/internal/modules/system/audit"
	"github.com/dealdesk/core/internal/pkg/clock"
	"github.com/dealdesk/core/internal/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenFunc opens the database for a run and returns its release function.
type OpenFunc func(cfg *config.AppConfig, log *zap.Logger) (*gorm.DB, func(), error)

type commandContext struct {
	configPath string
	jsonOutput bool
	open       OpenFunc
}

func newCommandContext(open OpenFunc) *commandContext {
	if open == nil {
		open = openDatabase
	}
	return &commandContext{configPath: config.DefaultConfigPath, open: open}
}

func openDatabase(cfg *config.AppConfig, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.Connect(cfg, log, true)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, release, nil
}

// session is what every repair needs: a database, a logger and a recorder
// that attributes changes to the system actor.
type session struct {
	db       *gorm.DB
	log      *zap.Logger
	recorder *audit.Recorder
	release  func()
}

func (s *session) Close() {
	if s.release != nil {
		s.release()
	}
	_ = s.log.Sync()
}

func (c *commandContext) openSession() (*session, error) {
	cfg, err := config.Load(strings.TrimSpace(c.configPath))
	if err != nil {
		return nil, err
	}
	log, err := logger.New("", cfg.IsDev())
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	db, release, err := c.open(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return &session{
		db:       db,
		log:      log.Named("Maintain"),
		recorder: audit.NewRecorder(db, log, clock.System{}),
		release:  release,
	}, nil
}
