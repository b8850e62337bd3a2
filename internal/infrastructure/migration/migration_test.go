package migration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/infrastructure/repository"
	"github.com/sbn-software/samsync/internal/shared/config"
	"github.com/sbn-software/samsync/internal/shared/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

// exercise checks the schema serves the catalog repository.
func exercise(t *testing.T, db *gorm.DB) {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewCatalogRepository(db, "sbn", logger.NewNopLogger())

	require.NoError(t, repo.DeclareFile(ctx, catalog.Metadata{"file_name": "a.root", "run": 1}))
	require.NoError(t, repo.AddFileLocation(ctx, "a.root", "dcache:/pnfs/sbn/a"))
	require.NoError(t, repo.CreateDefinition(ctx, &catalog.Definition{Name: "all", Dimensions: "file_id > 0"}))
	require.NoError(t, repo.AddUser(ctx, &catalog.User{Username: "alice"}))
	require.NoError(t, repo.ModifyUser(ctx, "alice", catalog.UserModification{AddGroups: []string{"sbn"}}))

	names, err := repo.ListFiles(ctx, "defname: all with availability physical,anystatus")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.root"}, names)

	u, err := repo.DescribeUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"sbn"}, u.Groups)
}

func TestGooseStrategy(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	manager := NewManager(&config.DatabaseConfig{Driver: "sqlite"}, logger.NewNopLogger())
	assert.Equal(t, "goose", manager.GetStrategy().GetName())

	require.NoError(t, manager.Migrate(ctx, db))
	version, err := manager.Version(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// idempotent
	require.NoError(t, manager.Migrate(ctx, db))
	require.NoError(t, manager.Status(ctx, db))

	exercise(t, db)

	goose := manager.GetStrategy().(*GooseStrategy)
	require.NoError(t, goose.MigrateDown(ctx, db, 1))
	version, err = manager.Version(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
	assert.False(t, db.Migrator().HasTable("sam_files"))
}

func TestGormAutoMigrateStrategy(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	manager := NewManager(&config.DatabaseConfig{AutoMigrate: true}, logger.NewNopLogger())
	assert.Equal(t, "gorm_auto_migrate", manager.GetStrategy().GetName())

	require.NoError(t, manager.Migrate(ctx, db))
	exercise(t, db)

	_, err := manager.Version(ctx, db)
	assert.Error(t, err)
}
