package server

import (
	"fmt"
	"net/http"
	"testing"

	"circles/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) createPost(t *testing.T, token string, body map[string]any) models.Post {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/posts", token, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[models.Post](t, resp)
}

func TestPostLifecycle(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, aliceID := ts.signup(t, "alice")
	bobToken, _ := ts.signup(t, "bob")
	restaurant := ts.createRestaurant(t, aliceToken, "Pok Pok")

	resp := ts.do(t, http.MethodPost, "/api/posts", aliceToken, map[string]any{
		"restaurant_id": 999999, "content": "Wings", "rating": 5,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = ts.do(t, http.MethodPost, "/api/posts", aliceToken, map[string]any{
		"restaurant_id": restaurant.ID, "content": "Wings",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = ts.do(t, http.MethodPost, "/api/posts", "", map[string]any{
		"restaurant_id": restaurant.ID, "content": "Wings", "rating": 5,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	post := ts.createPost(t, aliceToken, map[string]any{
		"restaurant_id": restaurant.ID,
		"content":       "Fish sauce wings live up to the hype.",
		"rating":        5,
		"dishes_tried":  []string{"Fish sauce wings", "Papaya salad"},
	})
	assert.Equal(t, aliceID, post.UserID)
	assert.Equal(t, models.PostVisibilityPublic, post.Visibility)
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	resp = ts.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Pok Pok", decode[models.Post](t, resp).Restaurant.Name)

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/posts?restaurant_id=%d", restaurant.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Post](t, resp), 1)
	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/posts", aliceID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Post](t, resp), 1)

	resp = ts.do(t, http.MethodPut, path, bobToken, map[string]any{"rating": 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = ts.do(t, http.MethodPut, path, aliceToken, map[string]any{"visibility": "private"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.PostVisibilityPrivate, decode[models.Post](t, resp).Visibility)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, path, bobToken, nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, path, "", nil).StatusCode)

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodDelete, path, bobToken, nil).StatusCode)
	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, path, aliceToken, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, path, aliceToken, nil).StatusCode)
}

func TestPostLikesAndComments(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.signup(t, "alice")
	bobToken, bobID := ts.signup(t, "bob")
	restaurant := ts.createRestaurant(t, aliceToken, "Nong's")
	post := ts.createPost(t, aliceToken, map[string]any{
		"restaurant_id": restaurant.ID, "content": "Khao man gai, every time.", "rating": 4,
	})
	likePath := fmt.Sprintf("/api/posts/%d/like", post.ID)

	resp := ts.do(t, http.MethodPost, likePath, bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	liked := decode[models.Post](t, resp)
	assert.True(t, liked.Liked)
	assert.Equal(t, 1, liked.LikesCount)

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/likes", post.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	likers := decode[[]models.UserSummary](t, resp)
	require.Len(t, likers, 1)
	assert.Equal(t, bobID, likers[0].ID)

	resp = ts.do(t, http.MethodDelete, likePath, bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decode[models.Post](t, resp).LikesCount)

	commentsPath := fmt.Sprintf("/api/posts/%d/comments", post.ID)
	resp = ts.do(t, http.MethodPost, commentsPath, bobToken, map[string]any{"content": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = ts.do(t, http.MethodPost, commentsPath, bobToken, map[string]any{"content": "Sauce is the secret"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	comment := decode[models.Comment](t, resp)
	assert.Equal(t, bobID, comment.UserID)

	commentPath := fmt.Sprintf("%s/%d", commentsPath, comment.ID)
	resp = ts.do(t, http.MethodPut, commentPath, aliceToken, map[string]any{"content": "hijack"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = ts.do(t, http.MethodPut, commentPath, bobToken, map[string]any{"content": "Ginger sauce is the secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, commentsPath, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments := decode[[]models.Comment](t, resp)
	require.Len(t, comments, 1)
	assert.Equal(t, "Ginger sauce is the secret", comments[0].Content)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, commentPath, aliceToken, nil).StatusCode)
	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decode[models.Post](t, resp).CommentsCount)
}

func TestFeedAndCirclePosts(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.signup(t, "alice")
	bobToken, bobID := ts.signup(t, "bob")
	carolToken, _ := ts.signup(t, "carol")
	restaurant := ts.createRestaurant(t, aliceToken, "Tusk")

	circle := ts.createCircle(t, carolToken, map[string]any{"name": "Brunch Bunch"})
	resp := ts.do(t, http.MethodPost, "/api/circles/join/"+circle.InviteCode, aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/follow/%d", bobID), aliceToken, nil)
	require.Less(t, resp.StatusCode, 300)

	resp = ts.do(t, http.MethodPost, "/api/posts", bobToken, map[string]any{
		"restaurant_id": restaurant.ID, "content": "Sneaking in", "rating": 3, "circle_id": circle.ID,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	followed := ts.createPost(t, bobToken, map[string]any{
		"restaurant_id": restaurant.ID, "content": "Hummus is silky.", "rating": 5,
	})
	circlePost := ts.createPost(t, carolToken, map[string]any{
		"restaurant_id": restaurant.ID, "content": "Book the patio.", "rating": 4, "circle_id": circle.ID,
	})
	assert.Equal(t, models.PostVisibilityCircle, circlePost.Visibility)
	ts.createPost(t, carolToken, map[string]any{
		"restaurant_id": restaurant.ID, "content": "Just for me.", "rating": 2, "visibility": "private",
	})

	feedIDs := func(token, query string) []uint {
		resp := ts.do(t, http.MethodGet, "/api/feed"+query, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var ids []uint
		for _, p := range decode[[]models.Post](t, resp) {
			ids = append(ids, p.ID)
		}
		return ids
	}
	assert.ElementsMatch(t, []uint{followed.ID, circlePost.ID}, feedIDs(aliceToken, ""))
	assert.Len(t, feedIDs(aliceToken, "?limit=1"), 1)
	assert.Equal(t, []uint{followed.ID}, feedIDs("", ""))

	circlePath := fmt.Sprintf("/api/posts?circle_id=%d", circle.ID)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, circlePath, bobToken, nil).StatusCode)
	resp = ts.do(t, http.MethodGet, circlePath, aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Post](t, resp), 1)
}

func TestSavedRestaurantsAndRecommendations(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, aliceID := ts.signup(t, "alice")
	bobToken, _ := ts.signup(t, "bob")
	restaurant := ts.createRestaurant(t, aliceToken, "Ava Gene's")

	resp := ts.do(t, http.MethodPost, "/api/saved-restaurants", aliceToken, map[string]any{"restaurant_id": restaurant.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = ts.do(t, http.MethodPost, "/api/saved-restaurants", aliceToken, map[string]any{"restaurant_id": restaurant.ID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/users/me/saved-restaurants", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.SavedRestaurant](t, resp), 1)
	savedPath := fmt.Sprintf("/api/users/%d/saved-restaurants", aliceID)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, savedPath, bobToken, nil).StatusCode)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, savedPath, aliceToken, nil).StatusCode)

	unsavePath := fmt.Sprintf("/api/saved-restaurants/%d", restaurant.ID)
	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, unsavePath, aliceToken, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, unsavePath, aliceToken, nil).StatusCode)

	circle := ts.createCircle(t, aliceToken, map[string]any{"name": "Pasta Club"})
	recsPath := fmt.Sprintf("/api/circles/%d/recommendations", circle.ID)
	resp = ts.do(t, http.MethodPost, recsPath, bobToken, map[string]any{"restaurant_id": restaurant.ID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, recsPath, aliceToken, map[string]any{"restaurant_id": restaurant.ID, "note": "Order the chicories"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	rec := decode[models.Recommendation](t, resp)
	assert.Equal(t, "Order the chicories", rec.Note)

	resp = ts.do(t, http.MethodGet, recsPath, aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Recommendation](t, resp), 1)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, recsPath, bobToken, nil).StatusCode)

	recPath := fmt.Sprintf("%s/%d", recsPath, rec.ID)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodDelete, recPath, bobToken, nil).StatusCode)
	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, recPath, aliceToken, nil).StatusCode)
}
