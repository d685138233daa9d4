package repository

import (
	"context"
	"testing"

	"circles/internal/models"
	"circles/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func memberCount(t *testing.T, db *gorm.DB, circleID uint) int {
	t.Helper()
	var c models.Circle
	require.NoError(t, db.First(&c, circleID).Error)
	return c.MemberCount
}

func TestCircleRepository_CreateAddsOwnerMembership(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCircleRepository(db)
	members := NewMembershipRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	circle := &models.Circle{Name: "Taco Tuesday", OwnerID: owner.ID, InviteCode: uuid.NewString()}
	require.NoError(t, repo.Create(ctx, circle))

	assert.Equal(t, 1, memberCount(t, db, circle.ID))
	m, err := members.Get(ctx, circle.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.CircleRoleOwner, m.Role)
	assert.True(t, m.CanManage())

	dup := &models.Circle{Name: "Other", OwnerID: owner.ID, InviteCode: circle.InviteCode}
	err = repo.Create(ctx, dup)
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)

	byCode, err := repo.GetByInviteCode(ctx, circle.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, circle.ID, byCode.ID)

	_, err = repo.GetByInviteCode(ctx, "missing")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestCircleRepository_DeleteDetachesLists(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCircleRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	member := testutil.CreateUser(t, db, "member")
	circle := testutil.CreateCircle(t, db, owner, false)
	testutil.AddMember(t, db, circle, member, models.CircleRoleMember, models.MembershipStatusActive)
	shared := testutil.CreateList(t, db, owner, &circle.ID, false, true)
	public := testutil.CreateList(t, db, owner, &circle.ID, true, true)
	require.NoError(t, db.Create(&models.CircleInvite{CircleID: circle.ID, Target: "x@example.com", InvitedByID: owner.ID, Status: models.InviteStatusPending}).Error)

	require.NoError(t, repo.Delete(ctx, circle.ID))

	var remaining int64
	require.NoError(t, db.Model(&models.CircleMembership{}).Where("circle_id = ?", circle.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
	require.NoError(t, db.Model(&models.CircleInvite{}).Where("circle_id = ?", circle.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	var l models.RestaurantList
	require.NoError(t, db.First(&l, shared.ID).Error)
	assert.Nil(t, l.CircleID)
	assert.False(t, l.ShareWithCircle)
	assert.Equal(t, models.VisibilityPrivate, l.Visibility)

	var stillPublic models.RestaurantList
	require.NoError(t, db.First(&stillPublic, public.ID).Error)
	assert.Equal(t, models.VisibilityPublic, stillPublic.Visibility)

	err := repo.Delete(ctx, circle.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
}

func TestCircleRepository_ListForUserAndSearch(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCircleRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	pending := testutil.CreateUser(t, db, "pending")
	open := testutil.CreateCircle(t, db, owner, true)
	closed := testutil.CreateCircle(t, db, owner, false)
	testutil.AddMember(t, db, closed, pending, models.CircleRoleMember, models.MembershipStatusPending)

	mine, err := repo.ListForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := repo.ListForUser(ctx, pending.ID)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	found, err := repo.SearchJoinable(ctx, open.Name, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, open.ID, found[0].ID)
}

func TestCircleRepository_ReconcileMemberCounts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCircleRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	a := testutil.CreateCircle(t, db, owner, false)
	b := testutil.CreateCircle(t, db, owner, false)
	testutil.AddMember(t, db, a, testutil.CreateUser(t, db, "extra"), models.CircleRoleMember, models.MembershipStatusActive)
	testutil.AddMember(t, db, a, testutil.CreateUser(t, db, "waiting"), models.CircleRoleMember, models.MembershipStatusPending)

	fixed, err := repo.ReconcileMemberCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fixed)
	assert.Equal(t, 2, memberCount(t, db, a.ID))
	assert.Equal(t, 1, memberCount(t, db, b.ID))

	fixed, err = repo.ReconcileMemberCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}

func TestMembershipRepository_StateTransitions(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	joiner := testutil.CreateUser(t, db, "joiner")
	circle := testutil.CreateCircle(t, db, owner, false)

	req := &models.CircleMembership{CircleID: circle.ID, UserID: joiner.ID}
	require.NoError(t, repo.CreatePending(ctx, req))
	assert.Equal(t, models.MembershipStatusPending, req.Status)
	assert.Equal(t, 1, memberCount(t, db, circle.ID))

	err := repo.CreatePending(ctx, &models.CircleMembership{CircleID: circle.ID, UserID: joiner.ID})
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)

	pending, err := repo.ListPendingForManager(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, req.ID, pending[0].ID)

	approved, err := repo.Approve(ctx, req.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsActive())
	require.NotNil(t, approved.ApprovedByID)
	assert.Equal(t, owner.ID, *approved.ApprovedByID)
	assert.Equal(t, 2, memberCount(t, db, circle.ID))

	_, err = repo.Approve(ctx, req.ID, owner.ID)
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)
	assert.Equal(t, 2, memberCount(t, db, circle.ID))

	active, err := repo.ActiveCircleIDs(ctx, joiner.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{circle.ID}, active)

	require.NoError(t, repo.Delete(ctx, req.ID))
	assert.Equal(t, 1, memberCount(t, db, circle.ID))

	err = repo.Delete(ctx, req.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
}

func TestMembershipRepository_RejectDoesNotTouchCount(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	circle := testutil.CreateCircle(t, db, owner, false)
	req := testutil.AddMember(t, db, circle, testutil.CreateUser(t, db, "joiner"), models.CircleRoleMember, models.MembershipStatusPending)

	require.NoError(t, repo.Delete(ctx, req.ID))
	assert.Equal(t, 1, memberCount(t, db, circle.ID))
}

func TestMembershipRepository_CreateActiveIncrements(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	circle := testutil.CreateCircle(t, db, owner, true)
	joiner := testutil.CreateUser(t, db, "joiner")

	m := &models.CircleMembership{CircleID: circle.ID, UserID: joiner.ID}
	require.NoError(t, repo.CreateActive(ctx, m))
	assert.Equal(t, models.CircleRoleMember, m.Role)
	assert.Equal(t, 2, memberCount(t, db, circle.ID))

	err := repo.CreateActive(ctx, &models.CircleMembership{CircleID: circle.ID, UserID: joiner.ID})
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)
	assert.Equal(t, 2, memberCount(t, db, circle.ID))

	require.NoError(t, repo.UpdateRole(ctx, m.ID, models.CircleRoleAdmin))
	got, err := repo.Get(ctx, circle.ID, joiner.ID)
	require.NoError(t, err)
	assert.True(t, got.CanManage())
}

func TestCircleRepository_DeleteMakesCirclePostsPrivate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCircleRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	circle := testutil.CreateCircle(t, db, owner, true)
	restaurant := testutil.CreateRestaurant(t, db, "Sunny's")
	post := testutil.CreatePost(t, db, owner, restaurant, models.PostVisibilityCircle, &circle.ID)
	require.NoError(t, db.Create(&models.Recommendation{CircleID: circle.ID, RestaurantID: restaurant.ID, UserID: owner.ID}).Error)

	require.NoError(t, repo.Delete(ctx, circle.ID))

	var p models.Post
	require.NoError(t, db.First(&p, post.ID).Error)
	assert.Nil(t, p.CircleID)
	assert.Equal(t, models.PostVisibilityPrivate, p.Visibility)

	var recs int64
	require.NoError(t, db.Model(&models.Recommendation{}).Where("circle_id = ?", circle.ID).Count(&recs).Error)
	assert.Zero(t, recs)
}
