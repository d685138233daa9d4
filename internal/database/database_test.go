package database

import (
	"errors"
	"testing"

	"circles/internal/config"
	"circles/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConfigurePoolSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, configurePool(db, &config.Config{DBDriver: config.DriverSQLite}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestMigrateCreatesTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "circles", "circle_memberships", "circle_invites", "restaurant_lists", "restaurant_list_items", "circle_shared_lists", "user_followers"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestPendingInviteIndexIsPartial(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	first := &models.CircleInvite{CircleID: 1, Target: "bob", InvitedByID: 1, Status: models.InviteStatusPending}
	require.NoError(t, db.Create(first).Error)

	dup := &models.CircleInvite{CircleID: 1, Target: "bob", InvitedByID: 1, Status: models.InviteStatusPending}
	err = db.Create(dup).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	require.NoError(t, db.Model(first).Update("status", models.InviteStatusDeclined).Error)
	again := &models.CircleInvite{CircleID: 1, Target: "bob", InvitedByID: 1, Status: models.InviteStatusPending}
	assert.NoError(t, db.Create(again).Error)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
}

func TestDialectorSelectsDriver(t *testing.T) {
	assert.Equal(t, "sqlite", Dialector(&config.Config{DBDriver: config.DriverSQLite, DBPath: ":memory:"}).Name())
	assert.Equal(t, "postgres", Dialector(&config.Config{DBDriver: config.DriverPostgres}).Name())
}
