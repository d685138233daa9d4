package service

import (
	"context"

	"circles/internal/models"
	"circles/internal/observability"
	"circles/internal/repository"
)

// ListPermissions is what one requester may do with one list. Write covers
// list metadata, visibility and shares.
type ListPermissions struct {
	Read      bool `json:"read"`
	Write     bool `json:"write"`
	EditItems bool `json:"edit_items"`
	Reshare   bool `json:"reshare"`
}

// AccessService is the visibility resolver. A zero userID is an
// unauthenticated caller.
type AccessService struct {
	lists       repository.ListRepository
	memberships repository.MembershipRepository
}

// NewAccessService returns a new AccessService.
func NewAccessService(lists repository.ListRepository, memberships repository.MembershipRepository) *AccessService {
	return &AccessService{lists: lists, memberships: memberships}
}

// Viewer is what the resolver needs to know about one requester. Anonymous
// viewers have a zero UserID and no circles.
type Viewer struct {
	UserID        uint
	ActiveCircles []uint
}

// Viewer loads the circles userID is an active member of.
func (s *AccessService) Viewer(ctx context.Context, userID uint) (Viewer, error) {
	if userID == 0 {
		return Viewer{}, nil
	}
	active, err := s.memberships.ActiveCircleIDs(ctx, userID)
	if err != nil {
		return Viewer{}, err
	}
	return Viewer{UserID: userID, ActiveCircles: active}, nil
}

// resolvePermissions decides v's permissions on list from ownership, public
// visibility, the home circle and shares into v's active circles. Shares of
// other lists are ignored.
func resolvePermissions(v Viewer, list *models.RestaurantList, shares []models.CircleSharedList) ListPermissions {
	if OwnedBy(v.UserID)(list) {
		return ListPermissions{Read: true, Write: true, EditItems: true, Reshare: true}
	}

	perms := ListPermissions{Read: list.MakePublic, Reshare: list.MakePublic && v.UserID != 0}
	if v.UserID == 0 {
		return perms
	}
	if SharedWithHomeCircle(v.UserID, v.ActiveCircles)(list) {
		perms.Read = true
	}
	for _, sh := range shares {
		if sh.ListID != list.ID {
			continue
		}
		perms.Read = true
		perms.EditItems = perms.EditItems || sh.CanEdit
		perms.Reshare = perms.Reshare || sh.CanReshare
	}
	return perms
}

// ListPermissions resolves every permission userID holds on list.
func (s *AccessService) ListPermissions(ctx context.Context, userID uint, list *models.RestaurantList) (ListPermissions, error) {
	if OwnedBy(userID)(list) {
		return resolvePermissions(Viewer{UserID: userID}, list, nil), nil
	}
	v, err := s.Viewer(ctx, userID)
	if err != nil {
		return ListPermissions{}, err
	}
	perms, err := s.PermissionsFor(ctx, v, []models.RestaurantList{*list})
	if err != nil {
		return ListPermissions{}, err
	}
	return perms[list.ID], nil
}

// PermissionsFor resolves v's permissions on every list with a single share
// lookup, keyed by list id.
func (s *AccessService) PermissionsFor(ctx context.Context, v Viewer, lists []models.RestaurantList) (map[uint]ListPermissions, error) {
	var ids []uint
	for i := range lists {
		if !OwnedBy(v.UserID)(&lists[i]) {
			ids = append(ids, lists[i].ID)
		}
	}
	var shares []models.CircleSharedList
	if v.UserID != 0 && len(ids) > 0 {
		var err error
		shares, err = s.lists.SharesForLists(ctx, ids, v.ActiveCircles)
		if err != nil {
			return nil, err
		}
	}

	out := make(map[uint]ListPermissions, len(lists))
	for i := range lists {
		out[lists[i].ID] = resolvePermissions(v, &lists[i], shares)
	}
	return out, nil
}

func deny(userID uint, resource, mode string, ok bool, msg string) error {
	observability.RecordAccess(resource, mode, ok)
	if ok {
		return nil
	}
	if userID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	return models.NewForbiddenError(msg)
}

func (s *AccessService) require(ctx context.Context, userID uint, list *models.RestaurantList, mode string, allowed func(ListPermissions) bool, msg string) error {
	perms, err := s.ListPermissions(ctx, userID, list)
	if err != nil {
		return err
	}
	return deny(userID, "list", mode, allowed(perms), msg)
}

// ReadPermissions resolves permissions and fails unless they include read.
func (s *AccessService) ReadPermissions(ctx context.Context, userID uint, list *models.RestaurantList) (ListPermissions, error) {
	perms, err := s.ListPermissions(ctx, userID, list)
	if err != nil {
		return ListPermissions{}, err
	}
	if err := deny(userID, "list", "read", perms.Read, "You do not have access to this list"); err != nil {
		return ListPermissions{}, err
	}
	return perms, nil
}

// CanReadList returns nil when userID may read list.
func (s *AccessService) CanReadList(ctx context.Context, userID uint, list *models.RestaurantList) error {
	_, err := s.ReadPermissions(ctx, userID, list)
	return err
}

// CanWriteList returns nil only for the owner.
func (s *AccessService) CanWriteList(ctx context.Context, userID uint, list *models.RestaurantList) error {
	return deny(userID, "list", "write", OwnedBy(userID)(list), "Only the list owner can modify this list")
}

// CanEditItems returns nil for the owner and for active members of a circle
// holding a can_edit share.
func (s *AccessService) CanEditItems(ctx context.Context, userID uint, list *models.RestaurantList) error {
	return s.require(ctx, userID, list, "edit_items", func(p ListPermissions) bool { return p.EditItems },
		"You cannot edit items in this list")
}

// CanReshare returns nil when userID may copy list.
func (s *AccessService) CanReshare(ctx context.Context, userID uint, list *models.RestaurantList) error {
	return s.require(ctx, userID, list, "reshare", func(p ListPermissions) bool { return p.Reshare },
		"You cannot copy this list")
}

// CanReadCircle returns nil when userID holds any membership row in circle or
// the circle is open to public joins.
func (s *AccessService) CanReadCircle(ctx context.Context, userID uint, circle *models.Circle) error {
	if circle.AllowPublicJoin || userID == 0 {
		return deny(userID, "circle", "read", circle.AllowPublicJoin, "You do not have access to this circle")
	}
	m, err := s.memberships.Get(ctx, circle.ID, userID)
	if err != nil {
		return err
	}
	return deny(userID, "circle", "read", m != nil, "You do not have access to this circle")
}

// CanReadPost returns nil when viewerID may read post: its author, anyone
// for public posts, and for circle posts whoever may read the circle.
// post.Circle must be loaded for circle posts.
func (s *AccessService) CanReadPost(ctx context.Context, viewerID uint, post *models.Post) error {
	if viewerID != 0 && post.UserID == viewerID {
		return deny(viewerID, "post", "read", true, "")
	}
	switch post.Visibility {
	case models.PostVisibilityPublic:
		return deny(viewerID, "post", "read", true, "")
	case models.PostVisibilityCircle:
		if post.Circle != nil {
			return s.CanReadCircle(ctx, viewerID, post.Circle)
		}
	}
	return deny(viewerID, "post", "read", false, "You do not have access to this post")
}

// RequireActiveMember returns the caller's active membership in circleID.
func (s *AccessService) RequireActiveMember(ctx context.Context, userID, circleID uint) (*models.CircleMembership, error) {
	m, err := s.memberships.Get(ctx, circleID, userID)
	if err != nil {
		return nil, err
	}
	if err := deny(userID, "circle", "member", m.IsActive(), "You must be an active member of this circle"); err != nil {
		return nil, err
	}
	return m, nil
}

// RequireManager returns the caller's membership when it is an active owner
// or admin of circleID.
func (s *AccessService) RequireManager(ctx context.Context, userID, circleID uint) (*models.CircleMembership, error) {
	m, err := s.memberships.Get(ctx, circleID, userID)
	if err != nil {
		return nil, err
	}
	if err := deny(userID, "circle", "manage", m.CanManage(), "Only circle owners and admins can do that"); err != nil {
		return nil, err
	}
	return m, nil
}

// AccessibleLists returns the union of lists userID owns, public lists, and
// lists shared with a home circle where userID has any membership row, plus
// lists shared into circles where userID is active. limit and offset page
// through the merged result. A pending member is listed home-circle lists
// that ListPermissions does not let them read yet.
func (s *AccessService) AccessibleLists(ctx context.Context, userID uint, limit, offset int) ([]models.RestaurantList, error) {
	window := limit + offset
	public, err := s.lists.ListPublic(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	if userID == 0 {
		return Paginate(public, limit, offset), nil
	}

	owned, err := s.lists.ListOwned(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	circleIDs, err := s.memberships.AnyCircleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	home, err := s.lists.ListHomeCircleShared(ctx, circleIDs, userID, window)
	if err != nil {
		return nil, err
	}
	active, err := s.memberships.ActiveCircleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	sharedInto, err := s.lists.ListSharedInto(ctx, active, userID, window)
	if err != nil {
		return nil, err
	}

	merged := UnionLists(
		FilterLists(owned, OwnedBy(userID)),
		FilterLists(public, PublicNotOwnedBy(userID)),
		FilterLists(home, SharedWithHomeCircle(userID, circleIDs)),
		sharedInto,
	)
	return Paginate(merged, limit, offset), nil
}
