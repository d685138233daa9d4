// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"circles/internal/database"
	"circles/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB returns a migrated in-memory sqlite database private to t.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every :memory: connection is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

var seq atomic.Uint64

// CreateUser inserts a user with a unique handle derived from username.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	n := seq.Add(1)
	u := &models.User{
		Username: fmt.Sprintf("%s%d", username, n),
		Email:    fmt.Sprintf("%s%d@example.com", username, n),
		Password: "hash",
		Name:     gofakeit.Name(),
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateCircle inserts a circle owned by owner with an active owner membership.
func CreateCircle(t *testing.T, db *gorm.DB, owner *models.User, allowPublicJoin bool) *models.Circle {
	t.Helper()
	c := &models.Circle{
		Name:            gofakeit.Company(),
		OwnerID:         owner.ID,
		InviteCode:      gofakeit.UUID(),
		AllowPublicJoin: allowPublicJoin,
		MemberCount:     1,
	}
	require.NoError(t, db.Create(c).Error)
	AddMember(t, db, c, owner, models.CircleRoleOwner, models.MembershipStatusActive)
	return c
}

// AddMember inserts a membership row without touching member_count.
func AddMember(t *testing.T, db *gorm.DB, c *models.Circle, u *models.User, role models.CircleRole, status models.MembershipStatus) *models.CircleMembership {
	t.Helper()
	m := &models.CircleMembership{CircleID: c.ID, UserID: u.ID, Role: role, Status: status}
	require.NoError(t, db.Create(m).Error)
	return m
}

// CreateRestaurant inserts a restaurant named name.
func CreateRestaurant(t *testing.T, db *gorm.DB, name string) *models.Restaurant {
	t.Helper()
	r := &models.Restaurant{Name: name, Location: gofakeit.City(), Category: "Restaurant", PriceRange: "$$"}
	require.NoError(t, db.Create(r).Error)
	return r
}

// CreateList inserts a list owned by owner.
func CreateList(t *testing.T, db *gorm.DB, owner *models.User, circleID *uint, makePublic, shareWithCircle bool) *models.RestaurantList {
	t.Helper()
	l, err := models.NewRestaurantList(owner.ID, gofakeit.BeerName(), circleID, models.NewVisibilitySettings(makePublic, shareWithCircle))
	require.NoError(t, err)
	require.NoError(t, db.Create(l).Error)
	return l
}

// CreatePost inserts a review by author. circleID scopes a circle post.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, restaurant *models.Restaurant, vis models.PostVisibility, circleID *uint) *models.Post {
	t.Helper()
	p := &models.Post{
		UserID:       author.ID,
		RestaurantID: restaurant.ID,
		CircleID:     circleID,
		Visibility:   vis,
		Content:      gofakeit.Sentence(12),
		Rating:       gofakeit.Number(1, 5),
	}
	require.NoError(t, db.Omit("User", "Restaurant", "Circle").Create(p).Error)
	return p
}
