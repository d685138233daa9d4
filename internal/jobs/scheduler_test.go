package jobs

import (
	"context"
	"errors"
	"testing"

	"circles/internal/models"
	"circles/internal/repository"
	"circles/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconcilerFunc func(context.Context) (int64, error)

func (f reconcilerFunc) ReconcileMemberCounts(ctx context.Context) (int64, error) { return f(ctx) }

func TestNewScheduler_RejectsInvalidSchedule(t *testing.T) {
	_, err := NewScheduler("every tuesday-ish", reconcilerFunc(func(context.Context) (int64, error) { return 0, nil }))
	assert.Error(t, err)
}

func TestNewScheduler_DefaultSchedule(t *testing.T) {
	s, err := NewScheduler("", reconcilerFunc(func(context.Context) (int64, error) { return 0, nil }))
	require.NoError(t, err)
	assert.Equal(t, DefaultReconcileSchedule, s.schedule)

	s.Start()
	s.Stop(context.Background())
}

func TestReconcileMemberCounts_SwallowsErrors(t *testing.T) {
	s, err := NewScheduler("", reconcilerFunc(func(context.Context) (int64, error) {
		return 0, errors.New("db down")
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.ReconcileMemberCounts(context.Background()))
}

func TestReconcileMemberCounts_FixesDrift(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner")
	member := testutil.CreateUser(t, db, "member")
	pending := testutil.CreateUser(t, db, "pending")

	drifted := testutil.CreateCircle(t, db, owner, false)
	testutil.AddMember(t, db, drifted, member, models.CircleRoleMember, models.MembershipStatusActive)
	testutil.AddMember(t, db, drifted, pending, models.CircleRoleMember, models.MembershipStatusPending)
	consistent := testutil.CreateCircle(t, db, member, false)

	s, err := NewScheduler("", repository.NewCircleRepository(db))
	require.NoError(t, err)

	assert.Equal(t, int64(1), s.ReconcileMemberCounts(context.Background()))

	var fixed, untouched models.Circle
	require.NoError(t, db.First(&fixed, drifted.ID).Error)
	assert.Equal(t, 2, fixed.MemberCount)
	require.NoError(t, db.First(&untouched, consistent.ID).Error)
	assert.Equal(t, 1, untouched.MemberCount)

	assert.Equal(t, int64(0), s.ReconcileMemberCounts(context.Background()))
}
