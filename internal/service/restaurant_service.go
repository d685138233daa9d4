package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"circles/internal/models"
	"circles/internal/places"
	"circles/internal/repository"
	"circles/internal/validation"
)

// PlacesLookup is the external places collaborator.
type PlacesLookup interface {
	Search(ctx context.Context, query string, bias *places.Bias) ([]places.Place, error)
	Details(ctx context.Context, placeID string) (*places.Place, error)
}

// RestaurantInput carries the fields of a locally created restaurant.
type RestaurantInput struct {
	Name          string  `json:"name"`
	Location      string  `json:"location"`
	Category      string  `json:"category"`
	PriceRange    string  `json:"price_range"`
	Address       string  `json:"address"`
	Cuisine       string  `json:"cuisine"`
	GooglePlaceID *string `json:"google_place_id"`
}

// RestaurantView is a restaurant as served to clients. ID is the numeric id
// for stored rows and "google_<place id>" for places results.
type RestaurantView struct {
	models.Restaurant
	ID     string `json:"id"`
	Source string `json:"source"`
}

func localView(r models.Restaurant) RestaurantView {
	return RestaurantView{Restaurant: r, ID: strconv.FormatUint(uint64(r.ID), 10), Source: models.RestaurantSourceDatabase}
}

func placeView(p places.Place) RestaurantView {
	return RestaurantView{Restaurant: p.Restaurant(), ID: models.PlacesIDPrefix + p.PlaceID, Source: models.RestaurantSourcePlaces}
}

type RestaurantService struct {
	restaurants repository.RestaurantRepository
	places      PlacesLookup
}

func NewRestaurantService(restaurants repository.RestaurantRepository, lookup PlacesLookup) *RestaurantService {
	return &RestaurantService{restaurants: restaurants, places: lookup}
}

func (s *RestaurantService) Create(ctx context.Context, in RestaurantInput) (*models.Restaurant, error) {
	if err := validation.ValidateName("name", in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if strings.TrimSpace(in.Location) == "" || strings.TrimSpace(in.Category) == "" {
		return nil, models.NewValidationError("location and category are required")
	}
	if err := validation.ValidatePriceRange(in.PriceRange); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	r := &models.Restaurant{
		Name:       strings.TrimSpace(in.Name),
		Location:   strings.TrimSpace(in.Location),
		Category:   strings.TrimSpace(in.Category),
		Cuisine:    strings.TrimSpace(in.Cuisine),
		PriceRange: in.PriceRange,
		Address:    strings.TrimSpace(in.Address),
	}
	if r.PriceRange == "" {
		r.PriceRange = "$$"
	}
	if r.Cuisine == "" {
		r.Cuisine = r.Category
	}
	if in.GooglePlaceID != nil && strings.TrimSpace(*in.GooglePlaceID) != "" {
		id := strings.TrimSpace(*in.GooglePlaceID)
		r.GooglePlaceID = &id
	}
	if err := s.restaurants.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Import stores a places result locally. An existing row for the same place
// is returned instead, with created false.
func (s *RestaurantService) Import(ctx context.Context, placeID string) (*models.Restaurant, bool, error) {
	placeID = strings.TrimPrefix(strings.TrimSpace(placeID), models.PlacesIDPrefix)
	if placeID == "" {
		return nil, false, models.NewValidationError("place_id is required")
	}
	existing, err := s.restaurants.GetByPlaceID(ctx, placeID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	place, err := s.places.Details(ctx, placeID)
	if err != nil {
		return nil, false, err
	}
	if place == nil {
		return nil, false, models.NewNotFoundError("Place", placeID)
	}

	r := place.Restaurant()
	if err := s.restaurants.Create(ctx, &r); err != nil {
		if models.IsCode(err, models.CodeConflict) {
			// Lost a concurrent import of the same place.
			if existing, getErr := s.restaurants.GetByPlaceID(ctx, placeID); getErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return &r, true, nil
}

// Get resolves a restaurant id. Ids with the places prefix go through the
// places lookup; numeric ids read the local row.
func (s *RestaurantService) Get(ctx context.Context, id string) (*RestaurantView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, models.NewValidationError("Restaurant ID is required")
	}

	if strings.HasPrefix(id, models.PlacesIDPrefix) {
		placeID := strings.TrimPrefix(id, models.PlacesIDPrefix)
		place, err := s.places.Details(ctx, placeID)
		if err != nil {
			return nil, err
		}
		if place == nil {
			return nil, models.NewNotFoundError("Restaurant", id)
		}
		view := placeView(*place)
		if view.Location == "" {
			view.Location = place.Address
		}
		return &view, nil
	}

	numeric, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, models.NewValidationError("Invalid restaurant ID format")
	}
	r, err := s.restaurants.GetByID(ctx, uint(numeric))
	if err != nil {
		return nil, err
	}
	s.backfillAddress(ctx, r)
	view := localView(*r)
	return &view, nil
}

// backfillAddress fills a missing location from places. Failures keep the
// stored values.
func (s *RestaurantService) backfillAddress(ctx context.Context, r *models.Restaurant) {
	if r.GooglePlaceID == nil || *r.GooglePlaceID == "" {
		return
	}
	if r.Location != "" && r.Location != "Unknown location" {
		return
	}
	place, err := s.places.Details(ctx, *r.GooglePlaceID)
	if err != nil || place == nil || place.Address == "" {
		if err != nil {
			slog.WarnContext(ctx, "address backfill failed", slog.Uint64("restaurant_id", uint64(r.ID)), slog.Any("error", err))
		}
		return
	}
	r.Location = place.Address
	r.Address = place.Address
	if err := s.restaurants.Update(ctx, r); err != nil {
		slog.WarnContext(ctx, "address backfill not persisted", slog.Uint64("restaurant_id", uint64(r.ID)), slog.Any("error", err))
	}
}
