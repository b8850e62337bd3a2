package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type row struct {
	ID         uint `gorm:"primaryKey"`
	Experiment string
	Name       string
}

func openTestDB(t *testing.T) *gorm.DB {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&row{}))
	return conn
}

func TestRunInTransaction(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	t.Run("rollback covers nested calls", func(t *testing.T) {
		err := RunInTransaction(ctx, conn, func(ctx context.Context) error {
			assert.True(t, InTransaction(ctx))
			require.NoError(t, Conn(ctx, conn).Create(&row{Experiment: "sbnd", Name: "a"}).Error)
			return RunInTransaction(ctx, conn, func(ctx context.Context) error {
				require.NoError(t, Conn(ctx, conn).Create(&row{Experiment: "sbnd", Name: "b"}).Error)
				return fmt.Errorf("boom")
			})
		})
		require.Error(t, err)

		var count int64
		require.NoError(t, conn.Model(&row{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("commit", func(t *testing.T) {
		err := RunInTransaction(ctx, conn, func(ctx context.Context) error {
			return Conn(ctx, conn).Create(&row{Experiment: "sbn", Name: "c"}).Error
		})
		require.NoError(t, err)
		assert.False(t, InTransaction(ctx))

		var names []string
		require.NoError(t, Conn(ctx, conn).Model(&row{}).Scopes(ForExperiment("sbn"), Limit(5)).Pluck("name", &names).Error)
		assert.Equal(t, []string{"c"}, names)
	})
}
