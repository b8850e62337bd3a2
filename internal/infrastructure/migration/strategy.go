package migration

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/sbn-software/samsync/internal/infrastructure/persistence/models"
	"github.com/sbn-software/samsync/internal/shared/constants"
	"github.com/sbn-software/samsync/internal/shared/logger"
)

//go:embed scripts/*/*.sql
var scripts embed.FS

// Strategy defines the interface for different migration strategies
type Strategy interface {
	// Migrate brings the catalog schema up to date
	Migrate(ctx context.Context, db *gorm.DB) error
	// GetName returns the strategy name
	GetName() string
}

// GooseStrategy applies the versioned SQL scripts embedded in the binary.
type GooseStrategy struct {
	driver string
	logger logger.Interface
}

func NewGooseStrategy(driver string, log logger.Interface) *GooseStrategy {
	if driver == "" {
		driver = constants.DriverSQLite
	}
	return &GooseStrategy{
		driver: driver,
		logger: log.Named("schema.goose"),
	}
}

func (s *GooseStrategy) GetName() string {
	return "goose"
}

// setup points goose at the embedded scripts of the configured driver. goose
// keeps this as package state.
func (s *GooseStrategy) setup() (string, error) {
	dialect := "sqlite3"
	if s.driver == constants.DriverMySQL {
		dialect = "mysql"
	}
	goose.SetBaseFS(scripts)
	goose.SetLogger(&gooseLogger{log: s.logger})
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return "scripts/" + s.driver, nil
}

func (s *GooseStrategy) Migrate(ctx context.Context, db *gorm.DB) error {
	dir, err := s.setup()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	currentVersion, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		s.logger.Errorw("failed to get current version", "error", err)
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		s.logger.Errorw("migration failed", "error", err)
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	finalVersion, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("failed to get final version: %w", err)
	}

	s.logger.Infow("migration completed successfully",
		"from_version", currentVersion,
		"to_version", finalVersion)
	return nil
}

// MigrateDown rolls back the given number of versions.
func (s *GooseStrategy) MigrateDown(ctx context.Context, db *gorm.DB, steps int) error {
	dir, err := s.setup()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	for i := 0; i < steps; i++ {
		if err := goose.DownContext(ctx, sqlDB, dir); err != nil {
			s.logger.Errorw("down migration failed", "error", err)
			return fmt.Errorf("failed to run down migration: %w", err)
		}
	}
	return nil
}

func (s *GooseStrategy) GetVersion(ctx context.Context, db *gorm.DB) (int64, error) {
	if _, err := s.setup(); err != nil {
		return 0, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return 0, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

// Status logs the applied state of every script.
func (s *GooseStrategy) Status(ctx context.Context, db *gorm.DB) error {
	dir, err := s.setup()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := goose.StatusContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	return nil
}

// GormAutoMigrateStrategy creates or alters tables from the model structs.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy(log logger.Interface) *GormAutoMigrateStrategy {
	return &GormAutoMigrateStrategy{logger: log.Named("schema.gorm")}
}

func (s *GormAutoMigrateStrategy) GetName() string {
	return "gorm_auto_migrate"
}

func (s *GormAutoMigrateStrategy) Migrate(ctx context.Context, db *gorm.DB) error {
	all := models.All()
	if err := db.WithContext(ctx).AutoMigrate(all...); err != nil {
		s.logger.Errorw("auto migration failed", "error", err)
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	s.logger.Infow("auto migration completed", "models_count", len(all))
	return nil
}

type gooseLogger struct {
	log logger.Interface
}

func (g *gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Infow(fmt.Sprintf(format, v...))
}

// Fatalf is reported as an error; goose's default would exit the process.
func (g *gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Errorw(fmt.Sprintf(format, v...))
}
