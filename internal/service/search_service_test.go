package service

import (
	"context"
	"errors"
	"testing"

	"circles/internal/models"
	"circles/internal/places"
	"circles/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQuery(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		q       string
		want    string
		details string
	}{
		{"Missing", "   ", "", CodeMissingQuery},
		{"Too Short", " a ", "", CodeQueryTooShort},
		{"Trimmed", "  ramen ", "ramen", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeQuery(tt.q)
			if tt.details == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			var appErr *models.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Equal(t, tt.details, appErr.Details)
		})
	}
}

func TestParseSearchType(t *testing.T) {
	t.Parallel()
	got, err := ParseSearchType("")
	require.NoError(t, err)
	assert.Equal(t, SearchAll, got)

	got, err = ParseSearchType("Users")
	require.NoError(t, err)
	assert.Equal(t, SearchUsers, got)

	_, err = ParseSearchType("posts")
	assertValidationError(t, err)
}

func TestSearchServiceMergesPlacesWithoutDuplicates(t *testing.T) {
	t.Parallel()
	known := "p-1"
	repo := noopRestaurantRepo()
	repo.searchFn = func(_ context.Context, q repository.RestaurantSearch) ([]models.Restaurant, error) {
		assert.Equal(t, searchRestaurantLimit, q.Limit)
		return []models.Restaurant{{ID: 4, Name: "Local Ramen", GooglePlaceID: &known}}, nil
	}
	lookup := noopPlaces()
	lookup.searchFn = func(context.Context, string, *places.Bias) ([]places.Place, error) {
		return []places.Place{
			{PlaceID: "p-1", Name: "Local Ramen"},
			{PlaceID: "p-2", Name: "Remote Ramen"},
		}, nil
	}

	svc := NewSearchService(repo, noopUserRepo(), nil, lookup)
	res, err := svc.Search(context.Background(), 0, "ramen", SearchRestaurants)
	require.NoError(t, err)
	require.Len(t, res.Restaurants, 2)
	assert.Equal(t, "4", res.Restaurants[0].ID)
	assert.Equal(t, models.RestaurantSourceDatabase, res.Restaurants[0].Source)
	assert.Equal(t, "google_p-2", res.Restaurants[1].ID)
	assert.Equal(t, models.RestaurantSourcePlaces, res.Restaurants[1].Source)
	assert.False(t, res.Degraded)
}

func TestSearchServiceSwallowsPlacesFailure(t *testing.T) {
	t.Parallel()
	repo := noopRestaurantRepo()
	repo.searchFn = func(context.Context, repository.RestaurantSearch) ([]models.Restaurant, error) {
		return []models.Restaurant{{ID: 1, Name: "Sushi Bar"}}, nil
	}
	lookup := noopPlaces()
	lookup.searchFn = func(context.Context, string, *places.Bias) ([]places.Place, error) {
		return nil, models.NewUpstreamError("places", errors.New("timeout"))
	}

	svc := NewSearchService(repo, noopUserRepo(), nil, lookup)
	res, err := svc.Search(context.Background(), 0, "sushi", SearchRestaurants)
	require.NoError(t, err)
	assert.Len(t, res.Restaurants, 1)
	assert.True(t, res.Degraded)
}

func TestSearchServiceUsers(t *testing.T) {
	t.Parallel()
	users := noopUserRepo()
	users.searchFn = func(_ context.Context, _ string, limit int) ([]models.User, error) {
		assert.Equal(t, searchUserLimit, limit)
		return []models.User{{ID: 2, Username: "sam", Name: "Sam"}}, nil
	}
	svc := NewSearchService(noopRestaurantRepo(), users, nil, noopPlaces())
	res, err := svc.Search(context.Background(), 0, "sam", SearchUsers)
	require.NoError(t, err)
	hits := res.Flatten(SearchUsers)
	require.Len(t, hits, 1)
	assert.Equal(t, "@sam", hits[0].Subtitle)
	assert.Equal(t, "user", hits[0].Type)
}
