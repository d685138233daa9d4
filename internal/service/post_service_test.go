package service

import (
	"context"
	"testing"

	"circles/internal/models"
	"circles/internal/repository"
	"circles/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postIDs(posts []models.Post) []uint {
	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	return ids
}

func TestPostCreateValidation(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	restaurant := testutil.CreateRestaurant(t, s.db, "Di Fara")
	bobsCircle := testutil.CreateCircle(t, s.db, bob, false)

	valid := func() PostInput {
		return PostInput{RestaurantID: restaurant.ID, Content: ptr("Square slice was perfect."), Rating: ptr(5)}
	}

	tests := []struct {
		name   string
		mutate func(*PostInput)
		code   string
	}{
		{"Missing Restaurant", func(in *PostInput) { in.RestaurantID = restaurant.ID + 100 }, models.CodeNotFound},
		{"Missing Rating", func(in *PostInput) { in.Rating = nil }, models.CodeValidation},
		{"Rating Out Of Range", func(in *PostInput) { in.Rating = ptr(6) }, models.CodeValidation},
		{"Blank Content", func(in *PostInput) { in.Content = ptr("   ") }, models.CodeValidation},
		{"Service Rating Out Of Range", func(in *PostInput) { in.ServiceRating = ptr(0) }, models.CodeValidation},
		{"Unknown Visibility", func(in *PostInput) { in.Visibility = ptr("friends") }, models.CodeValidation},
		{"Circle Visibility Without Circle", func(in *PostInput) { in.Visibility = ptr("circle") }, models.CodeValidation},
		{"Circle With Private Visibility", func(in *PostInput) {
			in.Visibility = ptr("private")
			in.CircleID = &bobsCircle.ID
		}, models.CodeValidation},
		{"Circle Author Is Not In", func(in *PostInput) { in.CircleID = &bobsCircle.ID }, models.CodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := s.posts.Create(ctx, alice.ID, in)
			assertAppCode(t, err, tt.code)
		})
	}

	in := valid()
	in.DishesTried = ptr([]string{"Square slice", "Calzone"})
	in.ServiceRating = ptr(4)
	post, err := s.posts.Create(ctx, alice.ID, in)
	require.NoError(t, err)
	assert.Equal(t, models.PostVisibilityPublic, post.Visibility)
	assert.Equal(t, []string{"Square slice", "Calzone"}, post.DishesTried)
	require.NotNil(t, post.User)
	assert.Equal(t, alice.Username, post.User.Username)
	assert.Empty(t, post.User.Email)
	require.NotNil(t, post.Restaurant)
	assert.Equal(t, "Di Fara", post.Restaurant.Name)
}

func TestCirclePostReadableUnderCircleRules(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	restaurant := testutil.CreateRestaurant(t, s.db, "Roberta's")

	circle, err := s.circles.Create(ctx, alice.ID, CircleInput{Name: ptr("Pizza Nerds")})
	require.NoError(t, err)
	post, err := s.posts.Create(ctx, alice.ID, PostInput{
		RestaurantID: restaurant.ID,
		CircleID:     &circle.ID,
		Content:      ptr("Bee sting is worth the wait."),
		Rating:       ptr(4),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PostVisibilityCircle, post.Visibility)

	_, err = s.posts.Get(ctx, bob.ID, post.ID)
	assertAppCode(t, err, models.CodeForbidden)
	_, err = s.posts.Get(ctx, 0, post.ID)
	assertAppCode(t, err, models.CodeUnauthorized)
	listed, err := s.posts.List(ctx, bob.ID, repository.PostFilter{RestaurantID: restaurant.ID}, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, listed)

	// Any membership row satisfies the circle read rules.
	_, err = s.circles.RequestJoin(ctx, bob.ID, circle.ID)
	require.NoError(t, err)
	got, err := s.posts.Get(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
	listed, err = s.posts.List(ctx, bob.ID, repository.PostFilter{CircleID: circle.ID}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{post.ID}, postIDs(listed))

	private := testutil.CreatePost(t, s.db, alice, restaurant, models.PostVisibilityPrivate, nil)
	_, err = s.posts.Get(ctx, bob.ID, private.ID)
	assertAppCode(t, err, models.CodeForbidden)
	_, err = s.posts.Get(ctx, alice.ID, private.ID)
	require.NoError(t, err)
}

func TestOpenCirclePostsReadableAnonymously(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice")
	restaurant := testutil.CreateRestaurant(t, s.db, "Lucali")
	open := testutil.CreateCircle(t, s.db, alice, true)
	closed := testutil.CreateCircle(t, s.db, alice, false)

	openPost := testutil.CreatePost(t, s.db, alice, restaurant, models.PostVisibilityCircle, &open.ID)
	closedPost := testutil.CreatePost(t, s.db, alice, restaurant, models.PostVisibilityCircle, &closed.ID)
	public := testutil.CreatePost(t, s.db, alice, restaurant, models.PostVisibilityPublic, nil)

	listed, err := s.posts.List(ctx, 0, repository.PostFilter{AuthorID: alice.ID}, 20, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{openPost.ID, public.ID}, postIDs(listed))

	_, err = s.posts.Get(ctx, 0, openPost.ID)
	require.NoError(t, err)
	_, err = s.posts.Get(ctx, 0, closedPost.ID)
	assertAppCode(t, err, models.CodeUnauthorized)
	_, err = s.posts.List(ctx, 0, repository.PostFilter{CircleID: closed.ID}, 20, 0)
	assertAppCode(t, err, models.CodeUnauthorized)
}

func TestFeedScopedByFollowsAndCircles(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	carol := testutil.CreateUser(t, s.db, "carol")
	dave := testutil.CreateUser(t, s.db, "dave")
	restaurant := testutil.CreateRestaurant(t, s.db, "Joe's")

	_, err := s.follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	circle := testutil.CreateCircle(t, s.db, dave, false)
	testutil.AddMember(t, s.db, circle, alice, models.CircleRoleMember, models.MembershipStatusActive)
	otherCircle := testutil.CreateCircle(t, s.db, dave, false)

	own := testutil.CreatePost(t, s.db, alice, restaurant, models.PostVisibilityPrivate, nil)
	followed := testutil.CreatePost(t, s.db, bob, restaurant, models.PostVisibilityPublic, nil)
	testutil.CreatePost(t, s.db, bob, restaurant, models.PostVisibilityPrivate, nil)
	testutil.CreatePost(t, s.db, carol, restaurant, models.PostVisibilityPublic, nil)
	inCircle := testutil.CreatePost(t, s.db, dave, restaurant, models.PostVisibilityCircle, &circle.ID)
	testutil.CreatePost(t, s.db, dave, restaurant, models.PostVisibilityCircle, &otherCircle.ID)

	feed, err := s.posts.Feed(ctx, alice.ID, 20, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{own.ID, followed.ID, inCircle.ID}, postIDs(feed))

	first, err := s.posts.Feed(ctx, alice.ID, 2, 0)
	require.NoError(t, err)
	rest, err := s.posts.Feed(ctx, alice.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Len(t, rest, 1)
	assert.ElementsMatch(t, postIDs(feed), append(postIDs(first), postIDs(rest)...))

	anonymous, err := s.posts.Feed(ctx, 0, 20, 0)
	require.NoError(t, err)
	for _, p := range anonymous {
		assert.Equal(t, models.PostVisibilityPublic, p.Visibility)
	}
	assert.Len(t, anonymous, 2)
}

func TestToggleLikeUpdatesCounts(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	restaurant := testutil.CreateRestaurant(t, s.db, "Katz's")
	post := testutil.CreatePost(t, s.db, alice, restaurant, models.PostVisibilityPublic, nil)
	private := testutil.CreatePost(t, s.db, alice, restaurant, models.PostVisibilityPrivate, nil)

	liked, err := s.posts.ToggleLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked.Liked)
	assert.Equal(t, 1, liked.LikesCount)

	likers, err := s.posts.Likers(ctx, 0, post.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, likers, 1)
	assert.Equal(t, bob.ID, likers[0].ID)

	asAlice, err := s.posts.Get(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, asAlice.Liked)
	assert.Equal(t, 1, asAlice.LikesCount)

	unliked, err := s.posts.ToggleLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, unliked.Liked)
	assert.Equal(t, 0, unliked.LikesCount)

	again, err := s.posts.Unlike(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.LikesCount)

	_, err = s.posts.ToggleLike(ctx, bob.ID, private.ID)
	assertAppCode(t, err, models.CodeForbidden)
}

func TestCommentsFollowPostAccess(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	carol := testutil.CreateUser(t, s.db, "carol")
	restaurant := testutil.CreateRestaurant(t, s.db, "Peter Luger")
	post := testutil.CreatePost(t, s.db, alice, restaurant, models.PostVisibilityPublic, nil)
	private := testutil.CreatePost(t, s.db, alice, restaurant, models.PostVisibilityPrivate, nil)

	_, err := s.comment.CreateComment(ctx, CreateCommentInput{UserID: bob.ID, PostID: private.ID, Content: "Looks great"})
	assertAppCode(t, err, models.CodeForbidden)
	_, err = s.comment.CreateComment(ctx, CreateCommentInput{UserID: bob.ID, PostID: post.ID, Content: " "})
	assertAppCode(t, err, models.CodeValidation)

	bobs, err := s.comment.CreateComment(ctx, CreateCommentInput{UserID: bob.ID, PostID: post.ID, Content: " Get the bacon "})
	require.NoError(t, err)
	assert.Equal(t, "Get the bacon", bobs.Content)
	require.NotNil(t, bobs.User)
	assert.Equal(t, bob.Username, bobs.User.Username)
	carols, err := s.comment.CreateComment(ctx, CreateCommentInput{UserID: carol.ID, PostID: post.ID, Content: "Cash only"})
	require.NoError(t, err)

	got, err := s.posts.Get(ctx, 0, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CommentsCount)

	_, err = s.comment.UpdateComment(ctx, UpdateCommentInput{UserID: carol.ID, PostID: post.ID, CommentID: bobs.ID, Content: "edited"})
	assertAppCode(t, err, models.CodeForbidden)
	updated, err := s.comment.UpdateComment(ctx, UpdateCommentInput{UserID: bob.ID, PostID: post.ID, CommentID: bobs.ID, Content: "Get the steak"})
	require.NoError(t, err)
	assert.Equal(t, "Get the steak", updated.Content)

	assertAppCode(t, s.comment.DeleteComment(ctx, bob.ID, post.ID, carols.ID), models.CodeForbidden)
	assertAppCode(t, s.comment.DeleteComment(ctx, alice.ID, private.ID, carols.ID), models.CodeNotFound)
	require.NoError(t, s.comment.DeleteComment(ctx, alice.ID, post.ID, carols.ID))

	comments, err := s.comment.ListComments(ctx, 0, post.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Get the steak", comments[0].Content)

	got, err = s.posts.Get(ctx, 0, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentsCount)
}

func TestPostUpdateAndDeleteRights(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, s.db, "owner")
	dave := testutil.CreateUser(t, s.db, "dave")
	eve := testutil.CreateUser(t, s.db, "eve")
	restaurant := testutil.CreateRestaurant(t, s.db, "Russ & Daughters")
	circle := testutil.CreateCircle(t, s.db, owner, false)
	testutil.AddMember(t, s.db, circle, dave, models.CircleRoleMember, models.MembershipStatusActive)
	testutil.AddMember(t, s.db, circle, eve, models.CircleRoleMember, models.MembershipStatusActive)

	post, err := s.posts.Create(ctx, dave.ID, PostInput{
		RestaurantID: restaurant.ID,
		CircleID:     &circle.ID,
		Content:      ptr("Classic bagel and lox."),
		Rating:       ptr(5),
	})
	require.NoError(t, err)

	_, err = s.posts.Update(ctx, eve.ID, post.ID, PostInput{Rating: ptr(1)})
	assertAppCode(t, err, models.CodeForbidden)

	updated, err := s.posts.Update(ctx, dave.ID, post.ID, PostInput{Rating: ptr(4), Visibility: ptr("public")})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, models.PostVisibilityPublic, updated.Visibility)
	assert.Nil(t, updated.CircleID)
	assert.Equal(t, "Classic bagel and lox.", updated.Content)

	rescoped, err := s.posts.Update(ctx, dave.ID, post.ID, PostInput{CircleID: &circle.ID})
	require.NoError(t, err)
	assert.Equal(t, models.PostVisibilityCircle, rescoped.Visibility)

	assertAppCode(t, s.posts.Delete(ctx, eve.ID, post.ID), models.CodeForbidden)
	require.NoError(t, s.posts.Delete(ctx, owner.ID, post.ID))
	_, err = s.posts.Get(ctx, dave.ID, post.ID)
	assertAppCode(t, err, models.CodeNotFound)

	loose := testutil.CreatePost(t, s.db, dave, restaurant, models.PostVisibilityPublic, nil)
	assertAppCode(t, s.posts.Delete(ctx, owner.ID, loose.ID), models.CodeForbidden)
}

func TestRecommendationsRequireMembership(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, s.db, "owner")
	member := testutil.CreateUser(t, s.db, "member")
	pending := testutil.CreateUser(t, s.db, "pending")
	outsider := testutil.CreateUser(t, s.db, "outsider")
	restaurant := testutil.CreateRestaurant(t, s.db, "Xi'an Famous Foods")
	circle := testutil.CreateCircle(t, s.db, owner, false)
	testutil.AddMember(t, s.db, circle, member, models.CircleRoleMember, models.MembershipStatusActive)
	testutil.AddMember(t, s.db, circle, pending, models.CircleRoleMember, models.MembershipStatusPending)

	in := RecommendInput{CircleID: circle.ID, RestaurantID: restaurant.ID, Note: "Spicy cumin lamb"}
	_, err := s.recs.Recommend(ctx, outsider.ID, in)
	assertAppCode(t, err, models.CodeForbidden)
	_, err = s.recs.Recommend(ctx, pending.ID, in)
	assertAppCode(t, err, models.CodeForbidden)

	rec, err := s.recs.Recommend(ctx, member.ID, in)
	require.NoError(t, err)
	require.NotNil(t, rec.Restaurant)
	assert.Equal(t, restaurant.Name, rec.Restaurant.Name)
	_, err = s.recs.Recommend(ctx, member.ID, in)
	assertAppCode(t, err, models.CodeConflict)
	ownerRec, err := s.recs.Recommend(ctx, owner.ID, in)
	require.NoError(t, err)

	recs, err := s.recs.ForCircle(ctx, pending.ID, circle.ID, 20, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	_, err = s.recs.ForCircle(ctx, outsider.ID, circle.ID, 20, 0)
	assertAppCode(t, err, models.CodeForbidden)

	assertAppCode(t, s.recs.Remove(ctx, member.ID, circle.ID, ownerRec.ID), models.CodeForbidden)
	require.NoError(t, s.recs.Remove(ctx, owner.ID, circle.ID, rec.ID))
	assertAppCode(t, s.recs.Remove(ctx, owner.ID, circle.ID+100, ownerRec.ID), models.CodeNotFound)
	require.NoError(t, s.recs.Remove(ctx, owner.ID, circle.ID, ownerRec.ID))
	recs, err = s.recs.ForCircle(ctx, member.ID, circle.ID, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSavedRestaurantsArePrivate(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	restaurant := testutil.CreateRestaurant(t, s.db, "Superiority Burger")

	_, err := s.recs.Save(ctx, alice.ID, restaurant.ID+100)
	assertAppCode(t, err, models.CodeNotFound)
	saved, err := s.recs.Save(ctx, alice.ID, restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, restaurant.ID, saved.RestaurantID)
	_, err = s.recs.Save(ctx, alice.ID, restaurant.ID)
	assertAppCode(t, err, models.CodeConflict)

	mine, err := s.recs.Saved(ctx, alice.ID, alice.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Restaurant)
	assert.Equal(t, "Superiority Burger", mine[0].Restaurant.Name)

	_, err = s.recs.Saved(ctx, bob.ID, alice.ID, 20, 0)
	assertAppCode(t, err, models.CodeForbidden)

	require.NoError(t, s.recs.Unsave(ctx, alice.ID, restaurant.ID))
	assertAppCode(t, s.recs.Unsave(ctx, alice.ID, restaurant.ID), models.CodeNotFound)
}
