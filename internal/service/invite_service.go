package service

import (
	"context"
	"fmt"

	"circles/internal/models"
	"circles/internal/repository"
	"circles/internal/validation"
)

// InviteAction is the invitee's response to an invite.
type InviteAction string

const (
	InviteAccept  InviteAction = "accept"
	InviteDecline InviteAction = "decline"
)

// InviteResult carries the created invite and, when the target resolves to
// an account, that user.
type InviteResult struct {
	Invite *models.CircleInvite
	Target *models.User
}

// InviteService owns the invite state machine.
type InviteService struct {
	invites     repository.InviteRepository
	memberships repository.MembershipRepository
	circles     repository.CircleRepository
	users       repository.UserRepository
	access      *AccessService
}

// NewInviteService returns a new InviteService.
func NewInviteService(
	invites repository.InviteRepository,
	memberships repository.MembershipRepository,
	circles repository.CircleRepository,
	users repository.UserRepository,
	access *AccessService,
) *InviteService {
	return &InviteService{invites: invites, memberships: memberships, circles: circles, users: users, access: access}
}

// Invite sends a pending invite to a username or email. Managers only.
func (s *InviteService) Invite(ctx context.Context, actorID, circleID uint, target string) (*InviteResult, error) {
	if err := validation.ValidateInviteTarget(target); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.circles.GetByID(ctx, circleID); err != nil {
		return nil, err
	}
	if _, err := s.access.RequireManager(ctx, actorID, circleID); err != nil {
		return nil, err
	}

	existing, err := s.invites.FindPending(ctx, circleID, target)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("A pending invite already exists for this target").
			WithDetails(fmt.Sprintf("invite_id=%d", existing.ID))
	}

	user, err := s.users.FindByHandle(ctx, target)
	if err != nil {
		return nil, err
	}
	if user != nil {
		m, err := s.memberships.Get(ctx, circleID, user.ID)
		if err != nil {
			return nil, err
		}
		if m.IsActive() {
			return nil, models.NewConflictError("User is already a member of this circle")
		}
	}

	invite := &models.CircleInvite{CircleID: circleID, Target: target, InvitedByID: actorID}
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, err
	}
	return &InviteResult{Invite: invite, Target: user}, nil
}

// ListForCircle returns every invite of a circle. Managers only.
func (s *InviteService) ListForCircle(ctx context.Context, actorID, circleID uint) ([]models.CircleInvite, error) {
	if _, err := s.access.RequireManager(ctx, actorID, circleID); err != nil {
		return nil, err
	}
	return s.invites.ListForCircle(ctx, circleID)
}

// Revoke deletes a pending invite. Managers only.
func (s *InviteService) Revoke(ctx context.Context, actorID, circleID, inviteID uint) error {
	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		return err
	}
	if invite.CircleID != circleID {
		return models.NewNotFoundError("Invite", inviteID)
	}
	if _, err := s.access.RequireManager(ctx, actorID, circleID); err != nil {
		return err
	}
	if invite.Status != models.InviteStatusPending {
		return models.NewConflictError("Invite is no longer pending")
	}
	return s.invites.Delete(ctx, inviteID)
}

// Mine lists pending invites addressed to userID.
func (s *InviteService) Mine(ctx context.Context, userID uint) ([]models.CircleInvite, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.invites.ListPendingForUser(ctx, user)
}

// Respond accepts or declines an invite. Only the invited identity may
// respond, and only once.
func (s *InviteService) Respond(ctx context.Context, userID, inviteID uint, action InviteAction) (*models.CircleInvite, *models.CircleMembership, error) {
	if action != InviteAccept && action != InviteDecline {
		return nil, nil, models.NewValidationError("action must be accept or decline")
	}
	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if !invite.MatchesUser(user) {
		return nil, nil, models.NewForbiddenError("This invite is addressed to someone else")
	}
	if invite.Status != models.InviteStatusPending {
		return nil, nil, models.NewConflictError("Invite is no longer pending")
	}

	if action == InviteDecline {
		if err := s.invites.Decline(ctx, inviteID); err != nil {
			return nil, nil, err
		}
		invite.Status = models.InviteStatusDeclined
		return invite, nil, nil
	}

	m, err := s.invites.Accept(ctx, inviteID, user)
	if err != nil {
		return nil, nil, err
	}
	invite.Status = models.InviteStatusAccepted
	return invite, m, nil
}
