package repository

import (
	"context"

	"circles/internal/models"
	"circles/internal/observability"

	"gorm.io/gorm"
)

// SavedRestaurantRepository persists per-user restaurant bookmarks.
type SavedRestaurantRepository interface {
	Save(ctx context.Context, saved *models.SavedRestaurant) error
	Unsave(ctx context.Context, userID, restaurantID uint) error
	ListSaved(ctx context.Context, userID uint, limit, offset int) ([]models.SavedRestaurant, error)
}

// RecommendationRepository persists restaurants recommended to circles.
type RecommendationRepository interface {
	Create(ctx context.Context, rec *models.Recommendation) error
	GetByID(ctx context.Context, id uint) (*models.Recommendation, error)
	ListForCircle(ctx context.Context, circleID uint, limit, offset int) ([]models.Recommendation, error)
	Delete(ctx context.Context, id uint) error
}

type savedRestaurantRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewSavedRestaurantRepository returns a new SavedRestaurantRepository implementation.
func NewSavedRestaurantRepository(db *gorm.DB) SavedRestaurantRepository {
	return &savedRestaurantRepository{db: db, log: observability.NewRepoLogger("saved_restaurants")}
}

func (r *savedRestaurantRepository) Save(ctx context.Context, saved *models.SavedRestaurant) error {
	if err := r.db.WithContext(ctx).Omit("Restaurant").Create(saved).Error; err != nil {
		return writeError(err, "Restaurant already saved")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": saved.ID, "restaurant_id": saved.RestaurantID})
	return nil
}

func (r *savedRestaurantRepository) Unsave(ctx context.Context, userID, restaurantID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND restaurant_id = ?", userID, restaurantID).
		Delete(&models.SavedRestaurant{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Saved restaurant", restaurantID)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"restaurant_id": restaurantID})
	return nil
}

// ListSaved returns userID's bookmarks, most recently saved first.
func (r *savedRestaurantRepository) ListSaved(ctx context.Context, userID uint, limit, offset int) ([]models.SavedRestaurant, error) {
	var saved []models.SavedRestaurant
	if err := r.db.WithContext(ctx).
		Preload("Restaurant").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&saved).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return saved, nil
}

type recommendationRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewRecommendationRepository returns a new RecommendationRepository implementation.
func NewRecommendationRepository(db *gorm.DB) RecommendationRepository {
	return &recommendationRepository{db: db, log: observability.NewRepoLogger("recommendations")}
}

func (r *recommendationRepository) Create(ctx context.Context, rec *models.Recommendation) error {
	if err := r.db.WithContext(ctx).Omit("Restaurant", "User").Create(rec).Error; err != nil {
		return writeError(err, "You already recommended this restaurant to the circle")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": rec.ID, "circle_id": rec.CircleID, "restaurant_id": rec.RestaurantID})
	return nil
}

func (r *recommendationRepository) GetByID(ctx context.Context, id uint) (*models.Recommendation, error) {
	defer observability.TrackQuery("select", "recommendations")()
	var rec models.Recommendation
	if err := r.db.WithContext(ctx).Preload("Restaurant").Preload("User", publicUser).First(&rec, id).Error; err != nil {
		return nil, readError(err, "Recommendation", id)
	}
	return &rec, nil
}

// ListForCircle returns a circle's recommendations, newest first.
func (r *recommendationRepository) ListForCircle(ctx context.Context, circleID uint, limit, offset int) ([]models.Recommendation, error) {
	var recs []models.Recommendation
	if err := r.db.WithContext(ctx).
		Preload("Restaurant").
		Preload("User", publicUser).
		Where("circle_id = ?", circleID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&recs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return recs, nil
}

func (r *recommendationRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Recommendation{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Recommendation", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}
