package repository

import (
	"context"
	"testing"

	"circles/internal/models"
	"circles/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteRepository_OnePendingPerTarget(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInviteRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	circle := testutil.CreateCircle(t, db, owner, false)

	first := &models.CircleInvite{CircleID: circle.ID, Target: " Bob@Example.com", InvitedByID: owner.ID}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, "bob@example.com", first.Target)

	err := repo.Create(ctx, &models.CircleInvite{CircleID: circle.ID, Target: "bob@example.com", InvitedByID: owner.ID})
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)

	var count int64
	require.NoError(t, db.Model(&models.CircleInvite{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	found, err := repo.FindPending(ctx, circle.ID, "BOB@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	require.NoError(t, repo.Decline(ctx, first.ID))
	again := &models.CircleInvite{CircleID: circle.ID, Target: "bob@example.com", InvitedByID: owner.ID}
	assert.NoError(t, repo.Create(ctx, again), "a declined invite does not block a fresh one")

	err = repo.Decline(ctx, first.ID)
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)
}

func TestInviteRepository_AcceptCreatesOneActiveMembership(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInviteRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	bob := testutil.CreateUser(t, db, "bob")
	circle := testutil.CreateCircle(t, db, owner, false)

	invite := &models.CircleInvite{CircleID: circle.ID, Target: bob.Email, InvitedByID: owner.ID}
	require.NoError(t, repo.Create(ctx, invite))

	mine, err := repo.ListPendingForUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	m, err := repo.Accept(ctx, invite.ID, bob)
	require.NoError(t, err)
	assert.True(t, m.IsActive())
	assert.Equal(t, 2, memberCount(t, db, circle.ID))

	_, err = repo.Accept(ctx, invite.ID, bob)
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)
	assert.Equal(t, 2, memberCount(t, db, circle.ID))

	var rows int64
	require.NoError(t, db.Model(&models.CircleMembership{}).Where("circle_id = ? AND user_id = ?", circle.ID, bob.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	got, err := repo.GetByID(ctx, invite.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusAccepted, got.Status)
	assert.NotNil(t, got.RespondedAt)
}

func TestInviteRepository_AcceptActivatesPendingRequest(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInviteRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	bob := testutil.CreateUser(t, db, "bob")
	circle := testutil.CreateCircle(t, db, owner, false)
	request := testutil.AddMember(t, db, circle, bob, models.CircleRoleMember, models.MembershipStatusPending)

	invite := &models.CircleInvite{CircleID: circle.ID, Target: bob.Username, InvitedByID: owner.ID}
	require.NoError(t, repo.Create(ctx, invite))

	m, err := repo.Accept(ctx, invite.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, request.ID, m.ID)
	assert.Equal(t, 2, memberCount(t, db, circle.ID))
}

func TestInviteRepository_AcceptWhenAlreadyActive(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInviteRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	bob := testutil.CreateUser(t, db, "bob")
	circle := testutil.CreateCircle(t, db, owner, false)
	testutil.AddMember(t, db, circle, bob, models.CircleRoleMember, models.MembershipStatusActive)
	require.NoError(t, db.Model(circle).UpdateColumn("member_count", 2).Error)

	invite := &models.CircleInvite{CircleID: circle.ID, Target: bob.Username, InvitedByID: owner.ID}
	require.NoError(t, repo.Create(ctx, invite))

	_, err := repo.Accept(ctx, invite.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, 2, memberCount(t, db, circle.ID))
}

func TestInviteRepository_Delete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInviteRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	circle := testutil.CreateCircle(t, db, owner, false)
	invite := &models.CircleInvite{CircleID: circle.ID, Target: "x@example.com", InvitedByID: owner.ID}
	require.NoError(t, repo.Create(ctx, invite))

	list, err := repo.ListForCircle(ctx, circle.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, invite.ID))
	err = repo.Delete(ctx, invite.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
}
