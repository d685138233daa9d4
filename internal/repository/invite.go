package repository

import (
	"context"
	"errors"
	"time"

	"circles/internal/models"
	"circles/internal/observability"

	"gorm.io/gorm"
)

// InviteRepository persists targeted circle invites.
type InviteRepository interface {
	Create(ctx context.Context, invite *models.CircleInvite) error
	GetByID(ctx context.Context, id uint) (*models.CircleInvite, error)
	FindPending(ctx context.Context, circleID uint, target string) (*models.CircleInvite, error)
	ListForCircle(ctx context.Context, circleID uint) ([]models.CircleInvite, error)
	ListPendingForUser(ctx context.Context, user *models.User) ([]models.CircleInvite, error)
	Accept(ctx context.Context, id uint, user *models.User) (*models.CircleMembership, error)
	Decline(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

type inviteRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewInviteRepository returns a new InviteRepository implementation.
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db, log: observability.NewRepoLogger("circle_invites")}
}

// Create stores a pending invite. The partial unique index rejects a second
// pending invite for the same target.
func (r *inviteRepository) Create(ctx context.Context, invite *models.CircleInvite) error {
	invite.Target = models.NormalizeInviteTarget(invite.Target)
	invite.Status = models.InviteStatusPending
	if err := r.db.WithContext(ctx).Create(invite).Error; err != nil {
		return writeError(err, "A pending invite already exists for this target")
	}
	observability.MembershipTransitions.WithLabelValues("invite", "sent").Inc()
	r.log.LogCreate(ctx, map[string]interface{}{"id": invite.ID, "circle_id": invite.CircleID})
	return nil
}

func (r *inviteRepository) GetByID(ctx context.Context, id uint) (*models.CircleInvite, error) {
	var invite models.CircleInvite
	if err := r.db.WithContext(ctx).Preload("Circle").Preload("InvitedBy").First(&invite, id).Error; err != nil {
		return nil, readError(err, "Invite", id)
	}
	return &invite, nil
}

// FindPending returns (nil, nil) when no pending invite exists.
func (r *inviteRepository) FindPending(ctx context.Context, circleID uint, target string) (*models.CircleInvite, error) {
	var invite models.CircleInvite
	err := r.db.WithContext(ctx).
		Where("circle_id = ? AND target = ? AND status = ?", circleID, models.NormalizeInviteTarget(target), models.InviteStatusPending).
		First(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &invite, nil
}

func (r *inviteRepository) ListForCircle(ctx context.Context, circleID uint) ([]models.CircleInvite, error) {
	var invites []models.CircleInvite
	if err := r.db.WithContext(ctx).
		Preload("InvitedBy").
		Where("circle_id = ?", circleID).
		Order("created_at DESC, id DESC").
		Find(&invites).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return invites, nil
}

// ListPendingForUser returns pending invites addressed to the user's
// username or email.
func (r *inviteRepository) ListPendingForUser(ctx context.Context, user *models.User) ([]models.CircleInvite, error) {
	var invites []models.CircleInvite
	if err := r.db.WithContext(ctx).
		Preload("Circle").
		Preload("InvitedBy").
		Where("status = ? AND target IN ?", models.InviteStatusPending,
			[]string{models.NormalizeInviteTarget(user.Username), models.NormalizeInviteTarget(user.Email)}).
		Order("created_at DESC, id DESC").
		Find(&invites).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return invites, nil
}

// Accept marks the invite accepted and leaves exactly one active membership
// for the invitee, activating a pending request if one exists. member_count
// moves in the same transaction.
func (r *inviteRepository) Accept(ctx context.Context, id uint, user *models.User) (*models.CircleMembership, error) {
	var membership models.CircleMembership
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invite models.CircleInvite
		if err := tx.First(&invite, id).Error; err != nil {
			return err
		}
		now := time.Now()
		res := tx.Model(&models.CircleInvite{}).
			Where("id = ? AND status = ?", id, models.InviteStatusPending).
			Updates(map[string]interface{}{
				"status":       models.InviteStatusAccepted,
				"responded_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewConflictError("Invite is no longer pending")
		}

		err := tx.Where("circle_id = ? AND user_id = ?", invite.CircleID, user.ID).First(&membership).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			inviter := invite.InvitedByID
			membership = models.CircleMembership{
				CircleID:     invite.CircleID,
				UserID:       user.ID,
				Role:         models.CircleRoleMember,
				Status:       models.MembershipStatusActive,
				InvitedByID:  &inviter,
				ApprovedByID: &inviter,
				ApprovedAt:   &now,
			}
			if err := tx.Create(&membership).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		case membership.IsActive():
			return nil
		default:
			if err := tx.Model(&membership).Updates(map[string]interface{}{
				"status":         models.MembershipStatusActive,
				"invited_by_id":  invite.InvitedByID,
				"approved_by_id": invite.InvitedByID,
				"approved_at":    now,
			}).Error; err != nil {
				return err
			}
		}
		return adjustMemberCount(tx, invite.CircleID, 1)
	})
	if err != nil {
		return nil, readError(err, "Invite", id)
	}
	observability.MembershipTransitions.WithLabelValues("invite", "accepted").Inc()
	r.log.LogUpdate(ctx, map[string]interface{}{"id": id, "status": models.InviteStatusAccepted})
	return &membership, nil
}

func (r *inviteRepository) Decline(ctx context.Context, id uint) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.CircleInvite{}).
		Where("id = ? AND status = ?", id, models.InviteStatusPending).
		Updates(map[string]interface{}{
			"status":       models.InviteStatusDeclined,
			"responded_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("Invite is no longer pending")
	}
	observability.MembershipTransitions.WithLabelValues("invite", "declined").Inc()
	r.log.LogUpdate(ctx, map[string]interface{}{"id": id, "status": models.InviteStatusDeclined})
	return nil
}

func (r *inviteRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.CircleInvite{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Invite", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}
