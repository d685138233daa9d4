package service

import (
	"context"
	"strings"

	"circles/internal/models"
	"circles/internal/observability"
	"circles/internal/repository"
	"circles/internal/validation"

	"github.com/google/uuid"
)

// CircleInput carries the editable circle fields. Nil pointers are left
// unchanged on update.
type CircleInput struct {
	Name            *string
	Description     *string
	AllowPublicJoin *bool
	Tags            *[]string
	PrimaryCuisine  *string
	PriceRange      *string
	Location        *string
}

// RequestAction is a manager's response to a pending join request.
type RequestAction string

const (
	RequestApprove RequestAction = "approve"
	RequestReject  RequestAction = "reject"
)

// JoinResult reports how a join attempt resolved.
type JoinResult struct {
	Membership *models.CircleMembership
	Circle     *models.Circle
	// Pending is true when the request awaits a manager.
	Pending bool
}

// CircleService owns circle lifecycle and the join-request state machine.
type CircleService struct {
	circles     repository.CircleRepository
	memberships repository.MembershipRepository
	access      *AccessService
}

// NewCircleService returns a new CircleService.
func NewCircleService(circles repository.CircleRepository, memberships repository.MembershipRepository, access *AccessService) *CircleService {
	return &CircleService{circles: circles, memberships: memberships, access: access}
}

func applyCircleInput(c *models.Circle, in CircleInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateName("name", name); err != nil {
			return models.NewValidationError(err.Error())
		}
		c.Name = name
	}
	if in.Description != nil {
		if err := validation.ValidateDescription(*in.Description); err != nil {
			return models.NewValidationError(err.Error())
		}
		c.Description = *in.Description
	}
	if in.AllowPublicJoin != nil {
		c.AllowPublicJoin = *in.AllowPublicJoin
	}
	if in.Tags != nil {
		if err := validation.ValidateTags(*in.Tags); err != nil {
			return models.NewValidationError(err.Error())
		}
		c.Tags = *in.Tags
	}
	if in.PrimaryCuisine != nil {
		c.PrimaryCuisine = strings.TrimSpace(*in.PrimaryCuisine)
	}
	if in.PriceRange != nil {
		if err := validation.ValidatePriceRange(*in.PriceRange); err != nil {
			return models.NewValidationError(err.Error())
		}
		c.PriceRange = *in.PriceRange
	}
	if in.Location != nil {
		c.Location = strings.TrimSpace(*in.Location)
	}
	return nil
}

// Create makes ownerID the first owner member of a new circle.
func (s *CircleService) Create(ctx context.Context, ownerID uint, in CircleInput) (*models.Circle, error) {
	if in.Name == nil {
		return nil, models.NewValidationError("name is required")
	}
	c := &models.Circle{OwnerID: ownerID, InviteCode: uuid.NewString()}
	if err := applyCircleInput(c, in); err != nil {
		return nil, err
	}
	if err := s.circles.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the circle when userID passes the circle read contract.
func (s *CircleService) Get(ctx context.Context, userID, circleID uint) (*models.Circle, error) {
	c, err := s.circles.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanReadCircle(ctx, userID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListMine returns circles where userID is an active member.
func (s *CircleService) ListMine(ctx context.Context, userID uint) ([]models.Circle, error) {
	return s.circles.ListForUser(ctx, userID)
}

// Update requires an owner or admin.
func (s *CircleService) Update(ctx context.Context, userID, circleID uint, in CircleInput) (*models.Circle, error) {
	c, err := s.circles.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.RequireManager(ctx, userID, circleID); err != nil {
		return nil, err
	}
	if err := applyCircleInput(c, in); err != nil {
		return nil, err
	}
	if err := s.circles.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete requires the circle's creator.
func (s *CircleService) Delete(ctx context.Context, userID, circleID uint) error {
	c, err := s.circles.GetByID(ctx, circleID)
	if err != nil {
		return err
	}
	if c.OwnerID != userID {
		return models.NewForbiddenError("Only the circle owner can delete the circle")
	}
	return s.circles.Delete(ctx, circleID)
}

// Members lists active members under the circle read contract.
func (s *CircleService) Members(ctx context.Context, userID, circleID uint) ([]models.CircleMembership, error) {
	if _, err := s.Get(ctx, userID, circleID); err != nil {
		return nil, err
	}
	return s.memberships.ListMembers(ctx, circleID)
}

// RemoveMember lets a member leave or a manager remove someone. The owner can
// neither leave nor be removed.
func (s *CircleService) RemoveMember(ctx context.Context, actorID, circleID, targetUserID uint) error {
	c, err := s.circles.GetByID(ctx, circleID)
	if err != nil {
		return err
	}
	target, err := s.memberships.Get(ctx, circleID, targetUserID)
	if err != nil {
		return err
	}
	if target == nil {
		return models.NewNotFoundError("Membership", targetUserID)
	}
	if targetUserID == c.OwnerID || target.Role == models.CircleRoleOwner {
		return models.NewForbiddenError("The circle owner cannot leave or be removed")
	}
	if actorID != targetUserID {
		actor, err := s.access.RequireManager(ctx, actorID, circleID)
		if err != nil {
			return err
		}
		if actor.Role == models.CircleRoleAdmin && target.Role == models.CircleRoleAdmin {
			return models.NewForbiddenError("Admins cannot remove other admins")
		}
	}
	if err := s.memberships.Delete(ctx, target.ID); err != nil {
		return err
	}
	observability.MembershipTransitions.WithLabelValues("membership", "removed").Inc()
	return nil
}

// SetRole lets the owner promote or demote a member.
func (s *CircleService) SetRole(ctx context.Context, actorID, circleID, targetUserID uint, role models.CircleRole) error {
	c, err := s.circles.GetByID(ctx, circleID)
	if err != nil {
		return err
	}
	if c.OwnerID != actorID {
		return models.NewForbiddenError("Only the circle owner can change roles")
	}
	if role != models.CircleRoleAdmin && role != models.CircleRoleMember {
		return models.NewValidationError("role must be admin or member")
	}
	target, err := s.memberships.Get(ctx, circleID, targetUserID)
	if err != nil {
		return err
	}
	if !target.IsActive() || target.Role == models.CircleRoleOwner {
		return models.NewValidationError("Only active non-owner members can change role")
	}
	return s.memberships.UpdateRole(ctx, target.ID, role)
}

// RequestJoin opens a join request. Open circles activate it at once.
// An existing pending or active row is a Conflict.
func (s *CircleService) RequestJoin(ctx context.Context, userID, circleID uint) (*JoinResult, error) {
	c, err := s.circles.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoMembership(ctx, circleID, userID); err != nil {
		return nil, err
	}

	m := &models.CircleMembership{CircleID: circleID, UserID: userID, Role: models.CircleRoleMember}
	if c.AllowPublicJoin {
		if err := s.memberships.CreateActive(ctx, m); err != nil {
			return nil, err
		}
		return &JoinResult{Membership: m, Circle: c}, nil
	}
	if err := s.memberships.CreatePending(ctx, m); err != nil {
		return nil, err
	}
	return &JoinResult{Membership: m, Circle: c, Pending: true}, nil
}

// JoinByCode activates a membership for the holder of the invite code. A
// pending request for the same circle is approved in place.
func (s *CircleService) JoinByCode(ctx context.Context, userID uint, code string) (*JoinResult, error) {
	c, err := s.circles.GetByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	existing, err := s.memberships.Get(ctx, c.ID, userID)
	if err != nil {
		return nil, err
	}
	switch {
	case existing.IsActive():
		return nil, models.NewConflictError("Already a member of this circle")
	case existing != nil:
		m, err := s.memberships.Approve(ctx, existing.ID, c.OwnerID)
		if err != nil {
			return nil, err
		}
		return &JoinResult{Membership: m, Circle: c}, nil
	}

	m := &models.CircleMembership{CircleID: c.ID, UserID: userID, Role: models.CircleRoleMember}
	if err := s.memberships.CreateActive(ctx, m); err != nil {
		return nil, err
	}
	return &JoinResult{Membership: m, Circle: c}, nil
}

func (s *CircleService) ensureNoMembership(ctx context.Context, circleID, userID uint) error {
	existing, err := s.memberships.Get(ctx, circleID, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if existing.IsActive() {
		return models.NewConflictError("Already a member of this circle")
	}
	return models.NewConflictError("A join request is already pending")
}

// PendingRequests lists pending requests of one circle for a manager.
func (s *CircleService) PendingRequests(ctx context.Context, actorID, circleID uint) ([]models.CircleMembership, error) {
	if _, err := s.access.RequireManager(ctx, actorID, circleID); err != nil {
		return nil, err
	}
	return s.memberships.ListPendingForCircle(ctx, circleID)
}

// PendingRequestsForManager lists pending requests across every circle the
// actor manages.
func (s *CircleService) PendingRequestsForManager(ctx context.Context, actorID uint) ([]models.CircleMembership, error) {
	return s.memberships.ListPendingForManager(ctx, actorID)
}

// RespondToRequest approves or rejects a pending request. Rejection deletes
// the row; both outcomes are terminal.
func (s *CircleService) RespondToRequest(ctx context.Context, actorID, requestID uint, action RequestAction) (*models.CircleMembership, error) {
	if action != RequestApprove && action != RequestReject {
		return nil, models.NewValidationError("action must be approve or reject")
	}
	req, err := s.memberships.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.RequireManager(ctx, actorID, req.CircleID); err != nil {
		return nil, err
	}
	if req.IsActive() {
		return nil, models.NewConflictError("Request is no longer pending")
	}

	if action == RequestReject {
		if err := s.memberships.Delete(ctx, req.ID); err != nil {
			return nil, err
		}
		observability.MembershipTransitions.WithLabelValues("membership", "rejected").Inc()
		return req, nil
	}

	approved, err := s.memberships.Approve(ctx, req.ID, actorID)
	if err != nil {
		return nil, err
	}
	approved.User = req.User
	approved.Circle = req.Circle
	return approved, nil
}
