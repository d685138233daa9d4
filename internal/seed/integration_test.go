//go:build integration

package seed

import (
	"net/url"
	"os"
	"strings"
	"testing"

	"circles/internal/config"
	"circles/internal/database"
	"circles/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDatabaseURLToConfig(dsn string) (*config.Config, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	password := ""
	if u.User != nil {
		password, _ = u.User.Password()
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return &config.Config{
		DBDriver:   config.DriverPostgres,
		DBHost:     u.Hostname(),
		DBPort:     port,
		DBUser:     u.User.Username(),
		DBPassword: password,
		DBName:     strings.TrimPrefix(u.Path, "/"),
		DBSSLMode:  "disable",
		Env:        "test",
	}, nil
}

func TestIntegration_SeedPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration seed test")
	}
	cfg, err := parseDatabaseURLToConfig(dsn)
	require.NoError(t, err)

	db, err := database.Connect(cfg)
	require.NoError(t, err)

	require.NoError(t, Seed(db, Options{NumUsers: 10, SkipBcrypt: true, ShouldClean: true}))

	var lists int64
	require.NoError(t, db.Model(&models.RestaurantList{}).Count(&lists).Error)
	assert.NotZero(t, lists)

	// TRUNCATE ... RESTART IDENTITY resets sequences.
	require.NoError(t, ClearAll(db))
	require.NoError(t, Seed(db, Options{NumUsers: 4, SkipBcrypt: true}))
	var demo models.User
	require.NoError(t, db.Where("username = ?", DemoUsername).First(&demo).Error)
	assert.Equal(t, uint(1), demo.ID)
}
