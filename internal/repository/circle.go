package repository

import (
	"context"
	"errors"
	"strings"

	"circles/internal/models"
	"circles/internal/observability"

	"gorm.io/gorm"
)

// CircleRepository defines persistence operations for circles.
type CircleRepository interface {
	Create(ctx context.Context, circle *models.Circle) error
	GetByID(ctx context.Context, id uint) (*models.Circle, error)
	GetByInviteCode(ctx context.Context, code string) (*models.Circle, error)
	Update(ctx context.Context, circle *models.Circle) error
	Delete(ctx context.Context, id uint) error
	ListForUser(ctx context.Context, userID uint) ([]models.Circle, error)
	SearchJoinable(ctx context.Context, query string, limit int) ([]models.Circle, error)
	ReconcileMemberCounts(ctx context.Context) (int64, error)
}

type circleRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCircleRepository returns a new CircleRepository implementation.
func NewCircleRepository(db *gorm.DB) CircleRepository {
	return &circleRepository{db: db, log: observability.NewRepoLogger("circles")}
}

// adjustMemberCount must run inside the transaction that changed the
// membership it accounts for.
func adjustMemberCount(tx *gorm.DB, circleID uint, delta int) error {
	return tx.Model(&models.Circle{}).
		Where("id = ?", circleID).
		UpdateColumn("member_count", gorm.Expr("member_count + ?", delta)).Error
}

// Create inserts the circle and its owner membership together.
func (r *circleRepository) Create(ctx context.Context, circle *models.Circle) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		circle.MemberCount = 1
		if err := tx.Create(circle).Error; err != nil {
			return err
		}
		owner := &models.CircleMembership{
			CircleID: circle.ID,
			UserID:   circle.OwnerID,
			Role:     models.CircleRoleOwner,
			Status:   models.MembershipStatusActive,
		}
		return tx.Create(owner).Error
	})
	if err != nil {
		return writeError(err, "Circle invite code already in use")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": circle.ID, "owner_id": circle.OwnerID})
	return nil
}

func (r *circleRepository) GetByID(ctx context.Context, id uint) (*models.Circle, error) {
	defer observability.TrackQuery("select", "circles")()
	var circle models.Circle
	if err := r.db.WithContext(ctx).Preload("Owner").First(&circle, id).Error; err != nil {
		return nil, readError(err, "Circle", id)
	}
	return &circle, nil
}

func (r *circleRepository) GetByInviteCode(ctx context.Context, code string) (*models.Circle, error) {
	var circle models.Circle
	if err := r.db.WithContext(ctx).Where("invite_code = ?", strings.TrimSpace(code)).First(&circle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Circle invite code", code)
		}
		return nil, models.NewInternalError(err)
	}
	return &circle, nil
}

func (r *circleRepository) Update(ctx context.Context, circle *models.Circle) error {
	if err := r.db.WithContext(ctx).Model(circle).Select(
		"name", "description", "allow_public_join", "tags", "primary_cuisine", "price_range", "location",
	).Updates(circle).Error; err != nil {
		return writeError(err, "Circle already exists")
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": circle.ID})
	return nil
}

// Delete removes the circle with its memberships, invites and shares. Lists
// homed in the circle lose their circle sharing and fall back to public or
// private.
func (r *circleRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("circle_id = ?", id).Delete(&models.CircleMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("circle_id = ?", id).Delete(&models.CircleInvite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("circle_id = ?", id).Delete(&models.CircleSharedList{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.RestaurantList{}).Where("circle_id = ?", id).UpdateColumns(map[string]interface{}{
			"circle_id":         nil,
			"share_with_circle": false,
			"visibility": gorm.Expr("CASE WHEN make_public THEN ? ELSE ? END",
				models.VisibilityPublic, models.VisibilityPrivate),
		}).Error; err != nil {
			return err
		}
		if err := tx.Where("circle_id = ?", id).Delete(&models.Recommendation{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("circle_id = ?", id).UpdateColumns(map[string]interface{}{
			"circle_id":  nil,
			"visibility": models.PostVisibilityPrivate,
		}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Circle{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Circle", id)
		}
		return nil
	})
	if err != nil {
		return writeError(err, "Circle could not be deleted")
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}

// ListForUser returns circles where userID holds an active membership.
func (r *circleRepository) ListForUser(ctx context.Context, userID uint) ([]models.Circle, error) {
	var circles []models.Circle
	if err := r.db.WithContext(ctx).
		Joins("JOIN circle_memberships cm ON cm.circle_id = circles.id").
		Where("cm.user_id = ? AND cm.status = ?", userID, models.MembershipStatusActive).
		Order("circles.created_at DESC, circles.id DESC").
		Find(&circles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return circles, nil
}

// SearchJoinable matches open circles by name or description.
func (r *circleRepository) SearchJoinable(ctx context.Context, query string, limit int) ([]models.Circle, error) {
	p := strings.ToLower(likePattern(strings.TrimSpace(query)))
	var circles []models.Circle
	if err := r.db.WithContext(ctx).
		Where("allow_public_join = ?", true).
		Where("LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'", p, p).
		Order("member_count DESC, id ASC").
		Limit(clampLimit(limit)).
		Find(&circles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return circles, nil
}

// ReconcileMemberCounts rewrites member_count from active membership rows and
// reports how many circles had drifted.
func (r *circleRepository) ReconcileMemberCounts(ctx context.Context) (int64, error) {
	active := r.db.Model(&models.CircleMembership{}).
		Select("COUNT(*)").
		Where("circle_memberships.circle_id = circles.id AND circle_memberships.status = ?", models.MembershipStatusActive)

	res := r.db.WithContext(ctx).Model(&models.Circle{}).
		Where("member_count <> (?)", active).
		UpdateColumn("member_count", active)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
