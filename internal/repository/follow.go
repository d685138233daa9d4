package repository

import (
	"context"
	"errors"
	"time"

	"circles/internal/models"
	"circles/internal/observability"

	"gorm.io/gorm"
)

// FollowCounts summarizes accepted edges around one user.
type FollowCounts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// FollowRepository persists the directed follow graph.
type FollowRepository interface {
	Get(ctx context.Context, followerID, followingID uint) (*models.UserFollower, error)
	GetByID(ctx context.Context, id uint) (*models.UserFollower, error)
	Create(ctx context.Context, edge *models.UserFollower) error
	Delete(ctx context.Context, followerID, followingID uint) error
	DeleteByID(ctx context.Context, id uint) error
	Accept(ctx context.Context, id uint) (*models.UserFollower, error)
	Followers(ctx context.Context, userID uint) ([]models.User, error)
	Following(ctx context.Context, userID uint) ([]models.User, error)
	PendingFor(ctx context.Context, userID uint) ([]models.UserFollower, error)
	Counts(ctx context.Context, userID uint) (FollowCounts, error)
}

type followRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, log: observability.NewRepoLogger("user_followers")}
}

// Get returns (nil, nil) when there is no edge.
func (r *followRepository) Get(ctx context.Context, followerID, followingID uint) (*models.UserFollower, error) {
	var edge models.UserFollower
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &edge, nil
}

func (r *followRepository) GetByID(ctx context.Context, id uint) (*models.UserFollower, error) {
	var edge models.UserFollower
	if err := r.db.WithContext(ctx).Preload("Follower").First(&edge, id).Error; err != nil {
		return nil, readError(err, "Follow request", id)
	}
	return &edge, nil
}

func (r *followRepository) Create(ctx context.Context, edge *models.UserFollower) error {
	if edge.Status == models.FollowStatusFollowing && edge.ApprovedAt == nil {
		now := time.Now()
		edge.ApprovedAt = &now
	}
	if err := r.db.WithContext(ctx).Omit("Follower", "Following").Create(edge).Error; err != nil {
		return writeError(err, "Already following or request pending")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": edge.ID, "status": edge.Status})
	return nil
}

// Delete removes the edge if present. A missing edge is not an error.
func (r *followRepository) Delete(ctx context.Context, followerID, followingID uint) error {
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.UserFollower{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"follower_id": followerID, "following_id": followingID})
	return nil
}

func (r *followRepository) DeleteByID(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.UserFollower{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Follow request", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}

// Accept moves a pending edge to following.
func (r *followRepository) Accept(ctx context.Context, id uint) (*models.UserFollower, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.UserFollower{}).
		Where("id = ? AND status = ?", id, models.FollowStatusPending).
		Updates(map[string]interface{}{"status": models.FollowStatusFollowing, "approved_at": now})
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewConflictError("Follow request is no longer pending")
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": id, "status": models.FollowStatusFollowing})
	return r.GetByID(ctx, id)
}

func (r *followRepository) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN user_followers uf ON uf.follower_id = users.id").
		Where("uf.following_id = ? AND uf.status = ?", userID, models.FollowStatusFollowing).
		Order("uf.created_at DESC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *followRepository) Following(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN user_followers uf ON uf.following_id = users.id").
		Where("uf.follower_id = ? AND uf.status = ?", userID, models.FollowStatusFollowing).
		Order("uf.created_at DESC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// PendingFor returns follow requests awaiting userID's response.
func (r *followRepository) PendingFor(ctx context.Context, userID uint) ([]models.UserFollower, error) {
	var edges []models.UserFollower
	if err := r.db.WithContext(ctx).
		Preload("Follower").
		Where("following_id = ? AND status = ?", userID, models.FollowStatusPending).
		Order("created_at DESC, id DESC").
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

func (r *followRepository) Counts(ctx context.Context, userID uint) (FollowCounts, error) {
	var c FollowCounts
	if err := r.db.WithContext(ctx).Model(&models.UserFollower{}).
		Where("following_id = ? AND status = ?", userID, models.FollowStatusFollowing).
		Count(&c.Followers).Error; err != nil {
		return c, models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Model(&models.UserFollower{}).
		Where("follower_id = ? AND status = ?", userID, models.FollowStatusFollowing).
		Count(&c.Following).Error; err != nil {
		return c, models.NewInternalError(err)
	}
	return c, nil
}
