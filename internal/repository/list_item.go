package repository

import (
	"context"

	"circles/internal/models"

	"gorm.io/gorm"
)

// ListItemRepository persists list items and their comments.
type ListItemRepository interface {
	GetItem(ctx context.Context, listID, itemID uint) (*models.RestaurantListItem, error)
	ListItems(ctx context.Context, listID uint) ([]models.RestaurantListItem, error)
	NextPosition(ctx context.Context, listID uint) (int, error)
	CreateItem(ctx context.Context, item *models.RestaurantListItem) error
	UpdateItem(ctx context.Context, item *models.RestaurantListItem) error
	DeleteItem(ctx context.Context, listID, itemID uint) error
	ListComments(ctx context.Context, itemID uint) ([]models.ListItemComment, error)
	CreateComment(ctx context.Context, comment *models.ListItemComment) error
}

func (r *listRepository) GetItem(ctx context.Context, listID, itemID uint) (*models.RestaurantListItem, error) {
	var item models.RestaurantListItem
	if err := r.db.WithContext(ctx).
		Preload("Restaurant").
		Where("id = ? AND list_id = ?", itemID, listID).
		First(&item).Error; err != nil {
		return nil, readError(err, "List item", itemID)
	}
	return &item, nil
}

func (r *listRepository) ListItems(ctx context.Context, listID uint) ([]models.RestaurantListItem, error) {
	var items []models.RestaurantListItem
	if err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("position ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

// NextPosition returns one past the highest position in the list.
func (r *listRepository) NextPosition(ctx context.Context, listID uint) (int, error) {
	var next int
	if err := r.db.WithContext(ctx).Model(&models.RestaurantListItem{}).
		Select("COALESCE(MAX(position), -1) + 1").
		Where("list_id = ?", listID).
		Scan(&next).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return next, nil
}

func (r *listRepository) CreateItem(ctx context.Context, item *models.RestaurantListItem) error {
	if err := r.db.WithContext(ctx).Omit("Restaurant").Create(item).Error; err != nil {
		return writeError(err, "Restaurant is already in this list")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"list_id": item.ListID, "item_id": item.ID})
	return nil
}

func (r *listRepository) UpdateItem(ctx context.Context, item *models.RestaurantListItem) error {
	if err := r.db.WithContext(ctx).Model(item).Select(
		"rating", "price_assessment", "liked", "disliked", "notes", "must_try_dishes", "position",
	).Updates(item).Error; err != nil {
		return writeError(err, "Restaurant is already in this list")
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"list_id": item.ListID, "item_id": item.ID})
	return nil
}

// DeleteItem removes an item and its comments.
func (r *listRepository) DeleteItem(ctx context.Context, listID, itemID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND list_id = ?", itemID, listID).Delete(&models.RestaurantListItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("List item", itemID)
		}
		return tx.Where("list_item_id = ?", itemID).Delete(&models.ListItemComment{}).Error
	})
	if err != nil {
		return readError(err, "List item", itemID)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"list_id": listID, "item_id": itemID})
	return nil
}

func (r *listRepository) ListComments(ctx context.Context, itemID uint) ([]models.ListItemComment, error) {
	var comments []models.ListItemComment
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("list_item_id = ?", itemID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *listRepository) CreateComment(ctx context.Context, comment *models.ListItemComment) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(comment).Error; err != nil {
		return writeError(err, "Comment already exists")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"list_item_id": comment.ListItemID, "comment_id": comment.ID})
	return nil
}
