package repository

import (
	"context"
	"errors"
	"strings"

	"circles/internal/models"
	"circles/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	FindByHandle(ctx context.Context, handle string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	Suggestions(ctx context.Context, userID uint, limit int) ([]models.User, error)
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	defer observability.TrackQuery("select", "users")()
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, readError(err, "User", id)
	}
	return &user, nil
}

// GetByEmail returns (nil, nil) when no user has the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// FindByHandle resolves a username or email, case-insensitively. A missing
// user is (nil, nil).
func (r *userRepository) FindByHandle(ctx context.Context, handle string) (*models.User, error) {
	h := models.NormalizeInviteTarget(handle)
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("LOWER(username) = ? OR LOWER(email) = ?", h, h).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return writeError(err, "Username or email already in use")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": user.ID})
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return writeError(err, "Username or email already in use")
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": user.ID})
	return nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	pattern := strings.ToLower(likePattern(query))
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? ESCAPE '\\' OR LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(bio) LIKE ? ESCAPE '\\'", pattern, pattern, pattern).
		Order("username ASC").
		Limit(clampLimit(limit)).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Suggestions returns users userID has no edge to, most-followed first.
func (r *userRepository) Suggestions(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	var users []models.User
	followerCounts := r.db.Model(&models.UserFollower{}).
		Select("following_id, COUNT(*) AS followers").
		Where("status = ?", models.FollowStatusFollowing).
		Group("following_id")

	if err := r.db.WithContext(ctx).
		Table("users").
		Select("users.*").
		Joins("LEFT JOIN (?) fc ON fc.following_id = users.id", followerCounts).
		Where("users.id <> ?", userID).
		Where("users.id NOT IN (?)", r.db.Model(&models.UserFollower{}).Select("following_id").Where("follower_id = ?", userID)).
		Order("COALESCE(fc.followers, 0) DESC, users.id ASC").
		Limit(clampLimit(limit)).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
