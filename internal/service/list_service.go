package service

import (
	"context"
	"strings"

	"circles/internal/models"
	"circles/internal/repository"
	"circles/internal/validation"
)

// ListInput carries list fields. On update nil pointers are left unchanged
// and a CircleID of 0 detaches the home circle.
type ListInput struct {
	Name            *string
	Description     *string
	CircleID        *uint
	Visibility      models.VisibilityInput
	Tags            *[]string
	PrimaryLocation *string
}

// ItemInput carries list item fields. On update nil pointers are left
// unchanged.
type ItemInput struct {
	RestaurantID    uint
	Rating          *int
	PriceAssessment *string
	Liked           *string
	Disliked        *string
	Notes           *string
	MustTryDishes   *[]string
	Position        *int
}

// ShareInput shares a list into a circle.
type ShareInput struct {
	CircleID   uint
	CanEdit    bool
	CanReshare bool
}

// ListView is a list with the caller's permissions on it.
type ListView struct {
	*models.RestaurantList
	Permissions ListPermissions `json:"permissions"`
}

// ListService owns lists, their items, comments, shares and copies.
type ListService struct {
	lists       repository.ListRepository
	restaurants repository.RestaurantRepository
	access      *AccessService
}

// NewListService returns a new ListService.
func NewListService(lists repository.ListRepository, restaurants repository.RestaurantRepository, access *AccessService) *ListService {
	return &ListService{lists: lists, restaurants: restaurants, access: access}
}

func applyListFields(l *models.RestaurantList, in ListInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateName("name", name); err != nil {
			return models.NewValidationError(err.Error())
		}
		l.Name = name
	}
	if in.Description != nil {
		if err := validation.ValidateDescription(*in.Description); err != nil {
			return models.NewValidationError(err.Error())
		}
		l.Description = *in.Description
	}
	if in.Tags != nil {
		if err := validation.ValidateTags(*in.Tags); err != nil {
			return models.NewValidationError(err.Error())
		}
		l.Tags = *in.Tags
	}
	if in.PrimaryLocation != nil {
		l.PrimaryLocation = strings.TrimSpace(*in.PrimaryLocation)
	}
	return nil
}

// setHomeCircle checks the owner's active membership before attaching a
// circle. Zero detaches.
func (s *ListService) setHomeCircle(ctx context.Context, ownerID uint, l *models.RestaurantList, circleID *uint) error {
	if circleID == nil {
		return nil
	}
	if *circleID == 0 {
		l.CircleID = nil
		return nil
	}
	if _, err := s.access.RequireActiveMember(ctx, ownerID, *circleID); err != nil {
		return err
	}
	id := *circleID
	l.CircleID = &id
	return nil
}

// Create builds a list through the visibility factory. Lists default to
// private.
func (s *ListService) Create(ctx context.Context, ownerID uint, in ListInput) (*models.RestaurantList, error) {
	if in.Name == nil {
		return nil, models.NewValidationError("name is required")
	}
	vis, err := models.ResolveVisibility(models.NewVisibilitySettings(false, false), in.Visibility)
	if err != nil {
		return nil, err
	}

	draft := &models.RestaurantList{}
	if err := s.setHomeCircle(ctx, ownerID, draft, in.CircleID); err != nil {
		return nil, err
	}
	l, err := models.NewRestaurantList(ownerID, "", draft.CircleID, vis)
	if err != nil {
		return nil, err
	}
	if err := applyListFields(l, in); err != nil {
		return nil, err
	}
	if err := s.lists.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Get returns the list with its items. Reads by anyone but the owner bump
// view_count.
func (s *ListService) Get(ctx context.Context, userID, listID uint) (*ListView, error) {
	l, err := s.lists.GetWithItems(ctx, listID)
	if err != nil {
		return nil, err
	}
	perms, err := s.access.ReadPermissions(ctx, userID, l)
	if err != nil {
		return nil, err
	}
	if !perms.Write {
		if err := s.lists.IncrementViewCount(ctx, l.ID); err != nil {
			return nil, err
		}
		l.ViewCount++
	}
	return &ListView{RestaurantList: l, Permissions: perms}, nil
}

// Accessible pages through the accessible lists with the caller's
// permissions on each. Home-circle lists seen through a pending membership
// carry read=false.
func (s *ListService) Accessible(ctx context.Context, userID uint, limit, offset int) ([]ListView, error) {
	lists, err := s.access.AccessibleLists(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	v, err := s.access.Viewer(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms, err := s.access.PermissionsFor(ctx, v, lists)
	if err != nil {
		return nil, err
	}
	views := make([]ListView, len(lists))
	for i := range lists {
		views[i] = ListView{RestaurantList: &lists[i], Permissions: perms[lists[i].ID]}
	}
	return views, nil
}

// Update changes list metadata and visibility. Owner only.
func (s *ListService) Update(ctx context.Context, userID, listID uint, in ListInput) (*models.RestaurantList, error) {
	l, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanWriteList(ctx, userID, l); err != nil {
		return nil, err
	}
	if err := applyListFields(l, in); err != nil {
		return nil, err
	}
	if err := s.setHomeCircle(ctx, userID, l, in.CircleID); err != nil {
		return nil, err
	}

	current := l.VisibilitySettings()
	if l.CircleID == nil && current.ShareWithCircle() {
		current = models.NewVisibilitySettings(current.MakePublic(), false)
	}
	vis, err := models.ResolveVisibility(current, in.Visibility)
	if err != nil {
		return nil, err
	}
	if err := l.ApplyVisibility(vis); err != nil {
		return nil, err
	}
	if err := s.lists.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Delete removes a list with its items, comments and shares. Owner only.
func (s *ListService) Delete(ctx context.Context, userID, listID uint) error {
	l, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return err
	}
	if err := s.access.CanWriteList(ctx, userID, l); err != nil {
		return err
	}
	return s.lists.Delete(ctx, listID)
}

func validateItem(in ItemInput) error {
	if err := validation.ValidateRating(in.Rating); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePosition(in.Position); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

func applyItemFields(item *models.RestaurantListItem, in ItemInput) {
	if in.Rating != nil {
		r := *in.Rating
		item.Rating = &r
	}
	if in.PriceAssessment != nil {
		item.PriceAssessment = *in.PriceAssessment
	}
	if in.Liked != nil {
		item.Liked = *in.Liked
	}
	if in.Disliked != nil {
		item.Disliked = *in.Disliked
	}
	if in.Notes != nil {
		item.Notes = *in.Notes
	}
	if in.MustTryDishes != nil {
		item.MustTryDishes = *in.MustTryDishes
	}
	if in.Position != nil {
		item.Position = *in.Position
	}
}

// AddItem appends a restaurant to the list unless a position is given.
func (s *ListService) AddItem(ctx context.Context, userID, listID uint, in ItemInput) (*models.RestaurantListItem, error) {
	l, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanEditItems(ctx, userID, l); err != nil {
		return nil, err
	}
	if in.RestaurantID == 0 {
		return nil, models.NewValidationError("restaurant_id is required")
	}
	if err := validateItem(in); err != nil {
		return nil, err
	}
	restaurant, err := s.restaurants.GetByID(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}

	item := &models.RestaurantListItem{ListID: listID, RestaurantID: restaurant.ID, AddedByID: userID}
	applyItemFields(item, in)
	if in.Position == nil {
		next, err := s.lists.NextPosition(ctx, listID)
		if err != nil {
			return nil, err
		}
		item.Position = next
	}
	if err := s.lists.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	item.Restaurant = restaurant
	return item, nil
}

// UpdateItem edits an item's impressions or position.
func (s *ListService) UpdateItem(ctx context.Context, userID, listID, itemID uint, in ItemInput) (*models.RestaurantListItem, error) {
	l, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanEditItems(ctx, userID, l); err != nil {
		return nil, err
	}
	if err := validateItem(in); err != nil {
		return nil, err
	}
	item, err := s.lists.GetItem(ctx, listID, itemID)
	if err != nil {
		return nil, err
	}
	applyItemFields(item, in)
	if err := s.lists.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem deletes an item and its comments.
func (s *ListService) RemoveItem(ctx context.Context, userID, listID, itemID uint) error {
	l, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return err
	}
	if err := s.access.CanEditItems(ctx, userID, l); err != nil {
		return err
	}
	return s.lists.DeleteItem(ctx, listID, itemID)
}

// Comments returns an item's comments under the list read contract.
func (s *ListService) Comments(ctx context.Context, userID, listID, itemID uint) ([]models.ListItemComment, error) {
	if _, err := s.readableItem(ctx, userID, listID, itemID); err != nil {
		return nil, err
	}
	return s.lists.ListComments(ctx, itemID)
}

// AddComment requires an authenticated reader.
func (s *ListService) AddComment(ctx context.Context, userID, listID, itemID uint, content string) (*models.ListItemComment, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if err := validation.ValidateComment(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.readableItem(ctx, userID, listID, itemID); err != nil {
		return nil, err
	}
	c := &models.ListItemComment{ListItemID: itemID, UserID: userID, Content: strings.TrimSpace(content)}
	if err := s.lists.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ListService) readableItem(ctx context.Context, userID, listID, itemID uint) (*models.RestaurantListItem, error) {
	l, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanReadList(ctx, userID, l); err != nil {
		return nil, err
	}
	return s.lists.GetItem(ctx, listID, itemID)
}

// Share shares a list into a circle the owner actively belongs to.
func (s *ListService) Share(ctx context.Context, userID, listID uint, in ShareInput) (*models.CircleSharedList, error) {
	l, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanWriteList(ctx, userID, l); err != nil {
		return nil, err
	}
	if in.CircleID == 0 {
		return nil, models.NewValidationError("circle_id is required")
	}
	if _, err := s.access.RequireActiveMember(ctx, userID, in.CircleID); err != nil {
		return nil, err
	}
	share := &models.CircleSharedList{
		CircleID:   in.CircleID,
		ListID:     listID,
		SharedByID: userID,
		CanEdit:    in.CanEdit,
		CanReshare: in.CanReshare,
	}
	if err := s.lists.CreateShare(ctx, share); err != nil {
		return nil, err
	}
	share.List = l
	return share, nil
}

// Shares lists the circles a list is shared into. Owner only.
func (s *ListService) Shares(ctx context.Context, userID, listID uint) ([]models.CircleSharedList, error) {
	l, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanWriteList(ctx, userID, l); err != nil {
		return nil, err
	}
	return s.lists.ListShares(ctx, listID)
}

// Unshare removes a share. Owner only.
func (s *ListService) Unshare(ctx context.Context, userID, listID, circleID uint) error {
	l, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return err
	}
	if err := s.access.CanWriteList(ctx, userID, l); err != nil {
		return err
	}
	return s.lists.DeleteShare(ctx, listID, circleID)
}

// Copy creates a private list owned by userID holding the source's items.
func (s *ListService) Copy(ctx context.Context, userID, listID uint, name string) (*models.RestaurantList, error) {
	src, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanReshare(ctx, userID, src); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = src.Name
	}
	if err := validation.ValidateName("name", name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	items, err := s.lists.ListItems(ctx, listID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].AddedByID = userID
	}
	dst, err := models.NewRestaurantList(userID, strings.TrimSpace(name), nil, models.NewVisibilitySettings(false, false))
	if err != nil {
		return nil, err
	}
	dst.Description = src.Description
	dst.Tags = src.Tags
	dst.PrimaryLocation = src.PrimaryLocation
	if err := s.lists.CreateWithItems(ctx, dst, items); err != nil {
		return nil, err
	}
	if src.OwnerID != userID {
		if err := s.lists.IncrementSaveCount(ctx, src.ID); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// CircleLists returns lists visible inside a circle. Active members only.
func (s *ListService) CircleLists(ctx context.Context, userID, circleID uint) ([]models.RestaurantList, error) {
	if _, err := s.access.RequireActiveMember(ctx, userID, circleID); err != nil {
		return nil, err
	}
	return s.lists.ListCircleLists(ctx, circleID)
}

// SearchReadable matches lists by name or description, keeping only those
// userID may read.
func (s *ListService) SearchReadable(ctx context.Context, userID uint, query string, limit int) ([]models.RestaurantList, error) {
	candidates, err := s.lists.Search(ctx, query, limit*4)
	if err != nil {
		return nil, err
	}
	v, err := s.access.Viewer(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms, err := s.access.PermissionsFor(ctx, v, candidates)
	if err != nil {
		return nil, err
	}
	out := make([]models.RestaurantList, 0, limit)
	for i := range candidates {
		if len(out) == limit {
			break
		}
		if perms[candidates[i].ID].Read {
			out = append(out, candidates[i])
		}
	}
	return out, nil
}
