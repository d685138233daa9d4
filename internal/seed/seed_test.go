package seed

import (
	"testing"

	"circles/internal/models"
	"circles/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)
	assert.NotEmpty(t, catalog.Restaurants)
	assert.NotEmpty(t, catalog.Circles)
	assert.NotEmpty(t, catalog.Lists)

	for _, r := range catalog.Restaurants {
		assert.NotEmpty(t, r.Name)
		assert.NotEmpty(t, r.Location, r.Name)
	}

	_, err = parseCatalog([]byte("circles: []\n"))
	assert.Error(t, err)
	_, err = parseCatalog([]byte("restaurants: [\n"))
	assert.Error(t, err)
}

func TestRestaurantsIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)

	first, err := Restaurants(db)
	require.NoError(t, err)
	second, err := Restaurants(db)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}

	var count int64
	require.NoError(t, db.Model(&models.Restaurant{}).Count(&count).Error)
	assert.Equal(t, int64(len(first)), count)
}

func TestSeed(t *testing.T) {
	db := testutil.NewTestDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 8, SkipBcrypt: true, RandSeed: 42}))

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(8), users)

	var demo models.User
	require.NoError(t, db.Where("username = ?", DemoUsername).First(&demo).Error)

	catalog, err := LoadCatalog()
	require.NoError(t, err)

	var circles []models.Circle
	require.NoError(t, db.Find(&circles).Error)
	assert.Len(t, circles, len(catalog.Circles))
	for _, c := range circles {
		var active int64
		require.NoError(t, db.Model(&models.CircleMembership{}).
			Where("circle_id = ? AND status = ?", c.ID, models.MembershipStatusActive).
			Count(&active).Error)
		assert.Equal(t, int64(c.MemberCount), active, "member_count of %s", c.Name)
	}

	var lists []models.RestaurantList
	require.NoError(t, db.Find(&lists).Error)
	assert.Len(t, lists, len(catalog.Lists))
	tiers := map[models.ListVisibility]int{}
	for _, l := range lists {
		assert.Equal(t, models.DeriveVisibility(l.MakePublic, l.ShareWithCircle), l.Visibility, l.Name)
		if l.ShareWithCircle {
			assert.NotNil(t, l.CircleID, l.Name)
		}
		tiers[l.Visibility]++
	}
	assert.Len(t, tiers, 3)

	var items int64
	require.NoError(t, db.Model(&models.RestaurantListItem{}).Count(&items).Error)
	assert.GreaterOrEqual(t, items, int64(3*len(lists)))

	var follows int64
	require.NoError(t, db.Model(&models.UserFollower{}).Count(&follows).Error)
	assert.Equal(t, int64(16), follows)

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	assert.Len(t, posts, 8+len(circles))
	for _, p := range posts {
		if p.CircleID != nil {
			assert.Equal(t, models.PostVisibilityCircle, p.Visibility)
		}
	}

	var recs int64
	require.NoError(t, db.Model(&models.Recommendation{}).Count(&recs).Error)
	assert.Equal(t, int64(len(circles)), recs)
}

func TestSeedCleanRerun(t *testing.T) {
	db := testutil.NewTestDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 4, SkipBcrypt: true, RandSeed: 7}))
	require.NoError(t, Seed(db, Options{NumUsers: 4, SkipBcrypt: true, RandSeed: 7, ShouldClean: true}))

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(4), users)
}

func TestClearAll(t *testing.T) {
	db := testutil.NewTestDB(t)
	require.NoError(t, Seed(db, Options{NumUsers: 4, SkipBcrypt: true, RandSeed: 1}))

	require.NoError(t, ClearAll(db))

	for _, m := range []any{&models.User{}, &models.Circle{}, &models.RestaurantList{}, &models.Restaurant{}, &models.Post{}, &models.Recommendation{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n)
	}
}
