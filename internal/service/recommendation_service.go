package service

import (
	"context"
	"strings"

	"circles/internal/models"
	"circles/internal/repository"
	"circles/internal/validation"
)

// RecommendInput suggests a restaurant to a circle.
type RecommendInput struct {
	CircleID     uint
	RestaurantID uint
	Note         string
}

// RecommendationService owns per-user saved restaurants and restaurants
// recommended to circles.
type RecommendationService struct {
	saved           repository.SavedRestaurantRepository
	recommendations repository.RecommendationRepository
	restaurants     repository.RestaurantRepository
	circles         repository.CircleRepository
	access          *AccessService
}

// NewRecommendationService returns a new RecommendationService.
func NewRecommendationService(
	saved repository.SavedRestaurantRepository,
	recommendations repository.RecommendationRepository,
	restaurants repository.RestaurantRepository,
	circles repository.CircleRepository,
	access *AccessService,
) *RecommendationService {
	return &RecommendationService{
		saved:           saved,
		recommendations: recommendations,
		restaurants:     restaurants,
		circles:         circles,
		access:          access,
	}
}

// Save bookmarks a restaurant for userID.
func (s *RecommendationService) Save(ctx context.Context, userID, restaurantID uint) (*models.SavedRestaurant, error) {
	if restaurantID == 0 {
		return nil, models.NewValidationError("restaurant_id is required")
	}
	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	saved := &models.SavedRestaurant{UserID: userID, RestaurantID: restaurantID}
	if err := s.saved.Save(ctx, saved); err != nil {
		return nil, err
	}
	saved.Restaurant = restaurant
	return saved, nil
}

func (s *RecommendationService) Unsave(ctx context.Context, userID, restaurantID uint) error {
	return s.saved.Unsave(ctx, userID, restaurantID)
}

// Saved lists ownerID's bookmarks. Bookmarks are private to their owner.
func (s *RecommendationService) Saved(ctx context.Context, viewerID, ownerID uint, limit, offset int) ([]models.SavedRestaurant, error) {
	if err := deny(viewerID, "saved_restaurants", "read", viewerID != 0 && viewerID == ownerID, "Saved restaurants are private"); err != nil {
		return nil, err
	}
	return s.saved.ListSaved(ctx, ownerID, limit, offset)
}

// Recommend adds a restaurant to a circle's recommendations. Only active
// members may recommend.
func (s *RecommendationService) Recommend(ctx context.Context, userID uint, in RecommendInput) (*models.Recommendation, error) {
	if in.CircleID == 0 || in.RestaurantID == 0 {
		return nil, models.NewValidationError("circle_id and restaurant_id are required")
	}
	if err := validation.ValidateDescription(in.Note); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.circles.GetByID(ctx, in.CircleID); err != nil {
		return nil, err
	}
	if _, err := s.access.RequireActiveMember(ctx, userID, in.CircleID); err != nil {
		return nil, err
	}
	if _, err := s.restaurants.GetByID(ctx, in.RestaurantID); err != nil {
		return nil, err
	}

	rec := &models.Recommendation{
		CircleID:     in.CircleID,
		RestaurantID: in.RestaurantID,
		UserID:       userID,
		Note:         strings.TrimSpace(in.Note),
	}
	if err := s.recommendations.Create(ctx, rec); err != nil {
		return nil, err
	}
	return s.recommendations.GetByID(ctx, rec.ID)
}

// ForCircle lists a circle's recommendations under the circle read rules.
func (s *RecommendationService) ForCircle(ctx context.Context, viewerID, circleID uint, limit, offset int) ([]models.Recommendation, error) {
	circle, err := s.circles.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanReadCircle(ctx, viewerID, circle); err != nil {
		return nil, err
	}
	return s.recommendations.ListForCircle(ctx, circleID, limit, offset)
}

// Remove deletes a recommendation. The recommender and the circle's owners
// and admins may remove it.
func (s *RecommendationService) Remove(ctx context.Context, actorID, circleID, id uint) error {
	rec, err := s.recommendations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.CircleID != circleID {
		return models.NewNotFoundError("Recommendation", id)
	}
	if rec.UserID != actorID {
		if _, err := s.access.RequireManager(ctx, actorID, rec.CircleID); err != nil {
			return err
		}
	}
	return s.recommendations.Delete(ctx, id)
}
