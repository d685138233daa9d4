package repository

import (
	"context"
	"testing"

	"circles/internal/models"
	"circles/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listIDs(lists []models.RestaurantList) []uint {
	ids := make([]uint, 0, len(lists))
	for _, l := range lists {
		ids = append(ids, l.ID)
	}
	return ids
}

func TestListRepository_PredicateQueries(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewListRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	circle := testutil.CreateCircle(t, db, alice, false)
	other := testutil.CreateCircle(t, db, alice, false)

	private := testutil.CreateList(t, db, alice, nil, false, false)
	public := testutil.CreateList(t, db, alice, nil, true, false)
	home := testutil.CreateList(t, db, alice, &circle.ID, false, true)
	sharedIn := testutil.CreateList(t, db, alice, nil, false, false)
	require.NoError(t, repo.CreateShare(ctx, &models.CircleSharedList{CircleID: other.ID, ListID: sharedIn.ID, SharedByID: alice.ID}))

	owned, err := repo.ListOwned(ctx, alice.ID, 50)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{private.ID, public.ID, home.ID, sharedIn.ID}, listIDs(owned))

	pub, err := repo.ListPublic(ctx, bob.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, []uint{public.ID}, listIDs(pub))

	pub, err = repo.ListPublic(ctx, alice.ID, 50)
	require.NoError(t, err)
	assert.Empty(t, pub)

	homeShared, err := repo.ListHomeCircleShared(ctx, []uint{circle.ID}, bob.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, []uint{home.ID}, listIDs(homeShared))

	none, err := repo.ListHomeCircleShared(ctx, nil, bob.ID, 50)
	require.NoError(t, err)
	assert.Empty(t, none)

	into, err := repo.ListSharedInto(ctx, []uint{other.ID}, bob.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, []uint{sharedIn.ID}, listIDs(into))

	inCircle, err := repo.ListCircleLists(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{sharedIn.ID}, listIDs(inCircle))
}

func TestListRepository_ItemsAndCascade(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewListRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	circle := testutil.CreateCircle(t, db, alice, false)
	list := testutil.CreateList(t, db, alice, nil, false, false)
	ramen := testutil.CreateRestaurant(t, db, "Ramen Bar")
	tacos := testutil.CreateRestaurant(t, db, "Taqueria")

	pos, err := repo.NextPosition(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)

	first := &models.RestaurantListItem{ListID: list.ID, RestaurantID: ramen.ID, AddedByID: alice.ID, Position: pos}
	require.NoError(t, repo.CreateItem(ctx, first))

	pos, err = repo.NextPosition(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	second := &models.RestaurantListItem{ListID: list.ID, RestaurantID: tacos.ID, AddedByID: alice.ID, Position: pos}
	require.NoError(t, repo.CreateItem(ctx, second))

	err = repo.CreateItem(ctx, &models.RestaurantListItem{ListID: list.ID, RestaurantID: ramen.ID, AddedByID: alice.ID})
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)

	second.Position = 0
	first.Position = 5
	require.NoError(t, repo.UpdateItem(ctx, second))
	require.NoError(t, repo.UpdateItem(ctx, first))

	full, err := repo.GetWithItems(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, full.Items, 2)
	assert.Equal(t, tacos.ID, full.Items[0].RestaurantID)
	require.NotNil(t, full.Items[0].Restaurant)
	assert.Equal(t, "Taqueria", full.Items[0].Restaurant.Name)

	require.NoError(t, repo.CreateComment(ctx, &models.ListItemComment{ListItemID: first.ID, UserID: alice.ID, Content: "get the tonkotsu"}))
	comments, err := repo.ListComments(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.NotNil(t, comments[0].User)

	require.NoError(t, repo.CreateShare(ctx, &models.CircleSharedList{CircleID: circle.ID, ListID: list.ID, SharedByID: alice.ID, CanEdit: true}))
	err = repo.CreateShare(ctx, &models.CircleSharedList{CircleID: circle.ID, ListID: list.ID, SharedByID: alice.ID})
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)

	require.NoError(t, repo.IncrementViewCount(ctx, list.ID))
	require.NoError(t, repo.IncrementViewCount(ctx, list.ID))
	got, err := repo.GetByID(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ViewCount)

	require.NoError(t, repo.Delete(ctx, list.ID))
	for _, model := range []interface{}{&models.RestaurantListItem{}, &models.ListItemComment{}, &models.CircleSharedList{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
	_, err = repo.GetByID(ctx, list.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestListRepository_UpdateKeepsTierConsistent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewListRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	circle := testutil.CreateCircle(t, db, alice, false)
	list := testutil.CreateList(t, db, alice, nil, false, false)

	list.CircleID = &circle.ID
	require.NoError(t, list.ApplyVisibility(models.NewVisibilitySettings(false, true)))
	require.NoError(t, repo.Update(ctx, list))

	got, err := repo.GetByID(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityCircle, got.Visibility)
	require.NotNil(t, got.CircleID)
	assert.Equal(t, circle.ID, *got.CircleID)
}

func TestListRepository_CreateWithItemsAndShareDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewListRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	circle := testutil.CreateCircle(t, db, alice, false)
	src := testutil.CreateList(t, db, alice, nil, false, false)
	r := testutil.CreateRestaurant(t, db, "Dim Sum Palace")
	require.NoError(t, repo.CreateItem(ctx, &models.RestaurantListItem{ListID: src.ID, RestaurantID: r.ID, AddedByID: alice.ID}))

	items, err := repo.ListItems(ctx, src.ID)
	require.NoError(t, err)
	cp, err := models.NewRestaurantList(bob.ID, "Copy", nil, models.NewVisibilitySettings(false, false))
	require.NoError(t, err)
	require.NoError(t, repo.CreateWithItems(ctx, cp, items))

	copied, err := repo.ListItems(ctx, cp.ID)
	require.NoError(t, err)
	require.Len(t, copied, 1)
	assert.NotEqual(t, items[0].ID, copied[0].ID)

	require.NoError(t, repo.CreateShare(ctx, &models.CircleSharedList{CircleID: circle.ID, ListID: src.ID, SharedByID: alice.ID}))
	shares, err := repo.SharesForLists(ctx, []uint{src.ID, cp.ID}, []uint{circle.ID})
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, src.ID, shares[0].ListID)
	shares, err = repo.SharesForLists(ctx, []uint{src.ID}, nil)
	require.NoError(t, err)
	assert.Empty(t, shares)

	require.NoError(t, repo.DeleteShare(ctx, src.ID, circle.ID))
	err = repo.DeleteShare(ctx, src.ID, circle.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
