package repository

import (
	"context"

	"circles/internal/models"
)

// ShareRepository persists circle shares of lists.
type ShareRepository interface {
	CreateShare(ctx context.Context, share *models.CircleSharedList) error
	ListShares(ctx context.Context, listID uint) ([]models.CircleSharedList, error)
	SharesForLists(ctx context.Context, listIDs, circleIDs []uint) ([]models.CircleSharedList, error)
	DeleteShare(ctx context.Context, listID, circleID uint) error
	ListCircleLists(ctx context.Context, circleID uint) ([]models.RestaurantList, error)
}

func (r *listRepository) CreateShare(ctx context.Context, share *models.CircleSharedList) error {
	if err := r.db.WithContext(ctx).Omit("Circle", "List").Create(share).Error; err != nil {
		return writeError(err, "List is already shared with this circle")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"list_id": share.ListID, "circle_id": share.CircleID})
	return nil
}

func (r *listRepository) ListShares(ctx context.Context, listID uint) ([]models.CircleSharedList, error) {
	var shares []models.CircleSharedList
	if err := r.db.WithContext(ctx).
		Preload("Circle").
		Where("list_id = ?", listID).
		Order("created_at ASC, id ASC").
		Find(&shares).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return shares, nil
}

// SharesForLists returns the share rows of any of listIDs into any of
// circleIDs.
func (r *listRepository) SharesForLists(ctx context.Context, listIDs, circleIDs []uint) ([]models.CircleSharedList, error) {
	if len(listIDs) == 0 || len(circleIDs) == 0 {
		return nil, nil
	}
	var shares []models.CircleSharedList
	if err := r.db.WithContext(ctx).
		Where("list_id IN ? AND circle_id IN ?", listIDs, circleIDs).
		Find(&shares).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return shares, nil
}

func (r *listRepository) DeleteShare(ctx context.Context, listID, circleID uint) error {
	res := r.db.WithContext(ctx).
		Where("list_id = ? AND circle_id = ?", listID, circleID).
		Delete(&models.CircleSharedList{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Share", circleID)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"list_id": listID, "circle_id": circleID})
	return nil
}

// ListCircleLists returns lists visible inside a circle: home-circle lists
// shared with it and lists shared into it.
func (r *listRepository) ListCircleLists(ctx context.Context, circleID uint) ([]models.RestaurantList, error) {
	shared := r.db.Model(&models.CircleSharedList{}).Select("list_id").Where("circle_id = ?", circleID)
	var lists []models.RestaurantList
	if err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("(circle_id = ? AND share_with_circle = ?) OR id IN (?)", circleID, true, shared).
		Order("created_at DESC, id DESC").
		Find(&lists).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return lists, nil
}
