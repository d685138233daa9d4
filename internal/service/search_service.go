package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"circles/internal/models"
	"circles/internal/observability"
	"circles/internal/repository"
)

// Search result caps per type.
const (
	searchRestaurantLimit = 10
	searchListLimit       = 5
	searchUserLimit       = 5
)

// SearchType selects which result groups a search returns.
type SearchType string

const (
	SearchAll         SearchType = "all"
	SearchRestaurants SearchType = "restaurants"
	SearchLists       SearchType = "lists"
	SearchUsers       SearchType = "users"
)

// Search validation codes reported in the error details.
const (
	CodeMissingQuery  = "MISSING_QUERY"
	CodeQueryTooShort = "QUERY_TOO_SHORT"
)

// SearchHit is one row of a search response.
type SearchHit struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Name      string  `json:"name"`
	Subtitle  string  `json:"subtitle,omitempty"`
	Thumbnail string  `json:"thumbnail_url,omitempty"`
	Location  string  `json:"location,omitempty"`
	Category  string  `json:"category,omitempty"`
	Cuisine   string  `json:"cuisine,omitempty"`
	Price     string  `json:"price_range,omitempty"`
	Address   string  `json:"address,omitempty"`
	Rating    float64 `json:"avg_rating,omitempty"`
	Source    string  `json:"source,omitempty"`
	Avatar    string  `json:"avatar,omitempty"`
}

// SearchResults groups hits by type.
type SearchResults struct {
	Restaurants []SearchHit `json:"restaurants"`
	Lists       []SearchHit `json:"lists"`
	Users       []SearchHit `json:"users"`
	// Degraded is set when the places lookup failed and only local
	// restaurants were returned.
	Degraded bool `json:"degraded,omitempty"`
}

// Flatten returns the hits of a single-type search.
func (r *SearchResults) Flatten(t SearchType) []SearchHit {
	switch t {
	case SearchRestaurants:
		return r.Restaurants
	case SearchLists:
		return r.Lists
	case SearchUsers:
		return r.Users
	}
	out := make([]SearchHit, 0, len(r.Restaurants)+len(r.Lists)+len(r.Users))
	out = append(out, r.Restaurants...)
	out = append(out, r.Lists...)
	return append(out, r.Users...)
}

// ParseSearchType validates the type query parameter. Empty means all.
func ParseSearchType(raw string) (SearchType, error) {
	switch t := SearchType(strings.ToLower(strings.TrimSpace(raw))); t {
	case "":
		return SearchAll, nil
	case SearchAll, SearchRestaurants, SearchLists, SearchUsers:
		return t, nil
	}
	return "", models.NewValidationError("type must be one of all, restaurants, lists, users")
}

// SearchService merges local restaurants, places results, readable lists and
// users.
type SearchService struct {
	restaurants repository.RestaurantRepository
	users       repository.UserRepository
	lists       *ListService
	places      PlacesLookup
}

func NewSearchService(restaurants repository.RestaurantRepository, users repository.UserRepository, lists *ListService, lookup PlacesLookup) *SearchService {
	return &SearchService{restaurants: restaurants, users: users, lists: lists, places: lookup}
}

// NormalizeQuery trims q and enforces the minimum length.
func NormalizeQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", models.NewValidationError("Search query is required").WithDetails(CodeMissingQuery)
	}
	if len([]rune(q)) < 2 {
		return "", models.NewValidationError("Search query must be at least 2 characters").WithDetails(CodeQueryTooShort)
	}
	return q, nil
}

// Search runs q against the groups selected by t. userID 0 is anonymous.
func (s *SearchService) Search(ctx context.Context, userID uint, q string, t SearchType) (*SearchResults, error) {
	q, err := NormalizeQuery(q)
	if err != nil {
		return nil, err
	}
	ctx, span := observability.StartServiceSpan(ctx, "SearchService", "Search")
	defer span.End()

	res := &SearchResults{Restaurants: []SearchHit{}, Lists: []SearchHit{}, Users: []SearchHit{}}

	if t == SearchAll || t == SearchRestaurants {
		hits, degraded, err := s.searchRestaurants(ctx, q)
		if err != nil {
			return nil, err
		}
		res.Restaurants, res.Degraded = hits, degraded
	}
	if t == SearchAll || t == SearchLists {
		lists, err := s.lists.SearchReadable(ctx, userID, q, searchListLimit)
		if err != nil {
			return nil, err
		}
		for _, l := range lists {
			subtitle := l.Description
			if subtitle == "" {
				subtitle = strconv.Itoa(len(l.Tags)) + " tags"
			}
			res.Lists = append(res.Lists, SearchHit{
				ID:       strconv.FormatUint(uint64(l.ID), 10),
				Type:     "list",
				Name:     l.Name,
				Subtitle: subtitle,
			})
		}
	}
	if t == SearchAll || t == SearchUsers {
		users, err := s.users.Search(ctx, q, searchUserLimit)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			res.Users = append(res.Users, SearchHit{
				ID:       strconv.FormatUint(uint64(u.ID), 10),
				Type:     "user",
				Name:     u.Name,
				Subtitle: "@" + u.Username,
				Avatar:   u.Avatar,
			})
		}
	}
	return res, nil
}

func (s *SearchService) searchRestaurants(ctx context.Context, q string) ([]SearchHit, bool, error) {
	local, err := s.restaurants.Search(ctx, repository.RestaurantSearch{Query: q, Limit: searchRestaurantLimit})
	if err != nil {
		return nil, false, err
	}

	hits := make([]SearchHit, 0, len(local))
	known := make(map[string]struct{}, len(local))
	for _, r := range local {
		if r.GooglePlaceID != nil {
			known[*r.GooglePlaceID] = struct{}{}
		}
		hits = append(hits, restaurantHit(localView(r)))
	}

	if s.places == nil {
		return hits, false, nil
	}
	remote, err := s.places.Search(ctx, q, nil)
	if err != nil {
		observability.SearchDegraded.Inc()
		slog.WarnContext(ctx, "places search failed, serving local results", slog.Any("error", err))
		return hits, true, nil
	}
	for _, p := range remote {
		if _, dup := known[p.PlaceID]; dup {
			continue
		}
		known[p.PlaceID] = struct{}{}
		hits = append(hits, restaurantHit(placeView(p)))
	}
	return hits, false, nil
}

func restaurantHit(v RestaurantView) SearchHit {
	return SearchHit{
		ID:        v.ID,
		Type:      "restaurant",
		Name:      v.Name,
		Thumbnail: v.ImageURL,
		Location:  v.Location,
		Category:  v.Category,
		Cuisine:   v.Cuisine,
		Price:     v.PriceRange,
		Address:   v.Address,
		Rating:    v.Rating,
		Source:    v.Source,
	}
}
