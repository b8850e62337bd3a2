package migration

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/sbn-software/samsync/internal/shared/config"
	"github.com/sbn-software/samsync/internal/shared/logger"
)

// Manager handles catalog schema migrations with different strategies
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager picks GORM AutoMigrate when cfg asks for it and the versioned
// goose scripts otherwise.
func NewManager(cfg *config.DatabaseConfig, log logger.Interface) *Manager {
	var strategy Strategy
	if cfg.AutoMigrate {
		strategy = NewGormAutoMigrateStrategy(log)
	} else {
		strategy = NewGooseStrategy(cfg.Driver, log)
	}
	return NewManagerWithStrategy(strategy, log)
}

func NewManagerWithStrategy(strategy Strategy, log logger.Interface) *Manager {
	return &Manager{
		strategy: strategy,
		logger:   log.Named("schema"),
	}
}

// Migrate executes the configured migration strategy
func (m *Manager) Migrate(ctx context.Context, db *gorm.DB) error {
	m.logger.Infow("starting database migration", "strategy", m.strategy.GetName())

	if err := m.strategy.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.GetName(), err)
	}
	return nil
}

// Version reports the applied schema version. Only versioned strategies have one.
func (m *Manager) Version(ctx context.Context, db *gorm.DB) (int64, error) {
	goose, ok := m.strategy.(*GooseStrategy)
	if !ok {
		return 0, fmt.Errorf("strategy %s is not versioned", m.strategy.GetName())
	}
	return goose.GetVersion(ctx, db)
}

// Status logs the state of every versioned script.
func (m *Manager) Status(ctx context.Context, db *gorm.DB) error {
	goose, ok := m.strategy.(*GooseStrategy)
	if !ok {
		return fmt.Errorf("strategy %s is not versioned", m.strategy.GetName())
	}
	return goose.Status(ctx, db)
}

// GetStrategy returns the current migration strategy
func (m *Manager) GetStrategy() Strategy {
	return m.strategy
}
