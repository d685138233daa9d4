package repository

import (
	"context"
	"errors"
	"strings"

	"circles/internal/models"
	"circles/internal/observability"

	"gorm.io/gorm"
)

// RestaurantSearch filters a local restaurant search.
type RestaurantSearch struct {
	Query      string
	Location   string
	Cuisine    string
	PriceRange string
	Limit      int
}

// RestaurantRepository defines persistence operations for restaurants.
type RestaurantRepository interface {
	Create(ctx context.Context, r *models.Restaurant) error
	GetByID(ctx context.Context, id uint) (*models.Restaurant, error)
	GetByPlaceID(ctx context.Context, placeID string) (*models.Restaurant, error)
	Update(ctx context.Context, r *models.Restaurant) error
	Search(ctx context.Context, s RestaurantSearch) ([]models.Restaurant, error)
}

type restaurantRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewRestaurantRepository returns a new RestaurantRepository implementation.
func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{db: db, log: observability.NewRepoLogger("restaurants")}
}

func (r *restaurantRepository) Create(ctx context.Context, rest *models.Restaurant) error {
	if err := r.db.WithContext(ctx).Create(rest).Error; err != nil {
		return writeError(err, "Restaurant already imported")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": rest.ID})
	return nil
}

func (r *restaurantRepository) GetByID(ctx context.Context, id uint) (*models.Restaurant, error) {
	defer observability.TrackQuery("select", "restaurants")()
	var rest models.Restaurant
	if err := r.db.WithContext(ctx).First(&rest, id).Error; err != nil {
		return nil, readError(err, "Restaurant", id)
	}
	return &rest, nil
}

// GetByPlaceID returns (nil, nil) when the place has not been imported.
func (r *restaurantRepository) GetByPlaceID(ctx context.Context, placeID string) (*models.Restaurant, error) {
	var rest models.Restaurant
	if err := r.db.WithContext(ctx).Where("google_place_id = ?", placeID).First(&rest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &rest, nil
}

func (r *restaurantRepository) Update(ctx context.Context, rest *models.Restaurant) error {
	if err := r.db.WithContext(ctx).Save(rest).Error; err != nil {
		return writeError(err, "Restaurant already imported")
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": rest.ID})
	return nil
}

func (r *restaurantRepository) Search(ctx context.Context, s RestaurantSearch) ([]models.Restaurant, error) {
	defer observability.TrackQuery("search", "restaurants")()
	q := r.db.WithContext(ctx).Model(&models.Restaurant{})

	if term := strings.TrimSpace(s.Query); term != "" {
		p := strings.ToLower(likePattern(term))
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(cuisine) LIKE ? ESCAPE '\\' OR LOWER(category) LIKE ? ESCAPE '\\'", p, p, p)
	}
	if loc := strings.TrimSpace(s.Location); loc != "" {
		p := strings.ToLower(likePattern(loc))
		q = q.Where("LOWER(location) LIKE ? ESCAPE '\\' OR LOWER(address) LIKE ? ESCAPE '\\'", p, p)
	}
	if s.Cuisine != "" {
		q = q.Where("LOWER(cuisine) = ?", strings.ToLower(s.Cuisine))
	}
	if s.PriceRange != "" {
		q = q.Where("price_range = ?", s.PriceRange)
	}

	var out []models.Restaurant
	if err := q.Order("rating DESC, name ASC").Limit(clampLimit(s.Limit)).Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
