package repository

import (
	"context"
	"errors"
	"time"

	"circles/internal/models"
	"circles/internal/observability"

	"gorm.io/gorm"
)

// MembershipRepository persists circle memberships and keeps each circle's
// member_count in step with its active rows.
type MembershipRepository interface {
	Get(ctx context.Context, circleID, userID uint) (*models.CircleMembership, error)
	GetByID(ctx context.Context, id uint) (*models.CircleMembership, error)
	ListMembers(ctx context.Context, circleID uint) ([]models.CircleMembership, error)
	ListPendingForCircle(ctx context.Context, circleID uint) ([]models.CircleMembership, error)
	ListPendingForManager(ctx context.Context, managerID uint) ([]models.CircleMembership, error)
	ActiveCircleIDs(ctx context.Context, userID uint) ([]uint, error)
	AnyCircleIDs(ctx context.Context, userID uint) ([]uint, error)
	CreatePending(ctx context.Context, m *models.CircleMembership) error
	CreateActive(ctx context.Context, m *models.CircleMembership) error
	Approve(ctx context.Context, id, approverID uint) (*models.CircleMembership, error)
	Delete(ctx context.Context, id uint) error
	UpdateRole(ctx context.Context, id uint, role models.CircleRole) error
}

type membershipRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewMembershipRepository returns a new MembershipRepository implementation.
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db, log: observability.NewRepoLogger("circle_memberships")}
}

// Get returns (nil, nil) when userID has no row in circleID.
func (r *membershipRepository) Get(ctx context.Context, circleID, userID uint) (*models.CircleMembership, error) {
	defer observability.TrackQuery("select", "circle_memberships")()
	var m models.CircleMembership
	err := r.db.WithContext(ctx).
		Where("circle_id = ? AND user_id = ?", circleID, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &m, nil
}

func (r *membershipRepository) GetByID(ctx context.Context, id uint) (*models.CircleMembership, error) {
	var m models.CircleMembership
	if err := r.db.WithContext(ctx).Preload("User").Preload("Circle").First(&m, id).Error; err != nil {
		return nil, readError(err, "Membership request", id)
	}
	return &m, nil
}

func (r *membershipRepository) ListMembers(ctx context.Context, circleID uint) ([]models.CircleMembership, error) {
	var members []models.CircleMembership
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("circle_id = ? AND status = ?", circleID, models.MembershipStatusActive).
		Order("created_at ASC, id ASC").
		Find(&members).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return members, nil
}

func (r *membershipRepository) ListPendingForCircle(ctx context.Context, circleID uint) ([]models.CircleMembership, error) {
	var pending []models.CircleMembership
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("circle_id = ? AND status = ?", circleID, models.MembershipStatusPending).
		Order("created_at ASC, id ASC").
		Find(&pending).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return pending, nil
}

// ListPendingForManager returns pending requests in every circle where
// managerID is an active owner or admin.
func (r *membershipRepository) ListPendingForManager(ctx context.Context, managerID uint) ([]models.CircleMembership, error) {
	managed := r.db.Model(&models.CircleMembership{}).
		Select("circle_id").
		Where("user_id = ? AND status = ? AND role IN ?", managerID, models.MembershipStatusActive,
			[]models.CircleRole{models.CircleRoleOwner, models.CircleRoleAdmin})

	var pending []models.CircleMembership
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Circle").
		Where("status = ? AND circle_id IN (?)", models.MembershipStatusPending, managed).
		Order("created_at ASC, id ASC").
		Find(&pending).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return pending, nil
}

func (r *membershipRepository) circleIDs(ctx context.Context, userID uint, statuses ...models.MembershipStatus) ([]uint, error) {
	q := r.db.WithContext(ctx).Model(&models.CircleMembership{}).Where("user_id = ?", userID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var ids []uint
	if err := q.Pluck("circle_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// ActiveCircleIDs lists circles where userID is an active member.
func (r *membershipRepository) ActiveCircleIDs(ctx context.Context, userID uint) ([]uint, error) {
	return r.circleIDs(ctx, userID, models.MembershipStatusActive)
}

// AnyCircleIDs lists circles where userID has a row in any status.
func (r *membershipRepository) AnyCircleIDs(ctx context.Context, userID uint) ([]uint, error) {
	return r.circleIDs(ctx, userID)
}

func (r *membershipRepository) CreatePending(ctx context.Context, m *models.CircleMembership) error {
	m.Status = models.MembershipStatusPending
	if m.Role == "" {
		m.Role = models.CircleRoleMember
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return writeError(err, "Already a member or request pending")
	}
	observability.MembershipTransitions.WithLabelValues("membership", "requested").Inc()
	r.log.LogCreate(ctx, map[string]interface{}{"id": m.ID, "circle_id": m.CircleID, "status": m.Status})
	return nil
}

// CreateActive inserts an active membership and increments member_count in
// one transaction.
func (r *membershipRepository) CreateActive(ctx context.Context, m *models.CircleMembership) error {
	now := time.Now()
	m.Status = models.MembershipStatusActive
	m.ApprovedAt = &now
	if m.Role == "" {
		m.Role = models.CircleRoleMember
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return adjustMemberCount(tx, m.CircleID, 1)
	})
	if err != nil {
		return writeError(err, "Already a member or request pending")
	}
	observability.MembershipTransitions.WithLabelValues("membership", "joined").Inc()
	r.log.LogCreate(ctx, map[string]interface{}{"id": m.ID, "circle_id": m.CircleID, "status": m.Status})
	return nil
}

// Approve moves a pending membership to active. The status guard in the
// UPDATE makes a concurrent second approval a Conflict rather than a double
// increment.
func (r *membershipRepository) Approve(ctx context.Context, id, approverID uint) (*models.CircleMembership, error) {
	var approved models.CircleMembership
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.CircleMembership{}).
			Where("id = ? AND status = ?", id, models.MembershipStatusPending).
			Updates(map[string]interface{}{
				"status":         models.MembershipStatusActive,
				"approved_by_id": approverID,
				"approved_at":    now,
				"updated_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewConflictError("Request is no longer pending")
		}
		if err := tx.First(&approved, id).Error; err != nil {
			return err
		}
		return adjustMemberCount(tx, approved.CircleID, 1)
	})
	if err != nil {
		return nil, writeError(err, "Request is no longer pending")
	}
	observability.MembershipTransitions.WithLabelValues("membership", "approved").Inc()
	r.log.LogUpdate(ctx, map[string]interface{}{"id": id, "status": approved.Status})
	return &approved, nil
}

// Delete removes a membership row, decrementing member_count when it was
// active. Rejecting a pending request is a Delete.
func (r *membershipRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.CircleMembership
		if err := tx.First(&m, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&m).Error; err != nil {
			return err
		}
		if m.IsActive() {
			return adjustMemberCount(tx, m.CircleID, -1)
		}
		return nil
	})
	if err != nil {
		return readError(err, "Membership", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}

func (r *membershipRepository) UpdateRole(ctx context.Context, id uint, role models.CircleRole) error {
	res := r.db.WithContext(ctx).Model(&models.CircleMembership{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Membership", id)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": id, "role": role})
	return nil
}
