package repository

import (
	"context"

	"circles/internal/models"
	"circles/internal/observability"

	"gorm.io/gorm"
)

// ListRepository persists restaurant lists, their items, item comments and
// circle shares.
type ListRepository interface {
	Create(ctx context.Context, list *models.RestaurantList) error
	CreateWithItems(ctx context.Context, list *models.RestaurantList, items []models.RestaurantListItem) error
	GetByID(ctx context.Context, id uint) (*models.RestaurantList, error)
	GetWithItems(ctx context.Context, id uint) (*models.RestaurantList, error)
	Update(ctx context.Context, list *models.RestaurantList) error
	Delete(ctx context.Context, id uint) error
	IncrementViewCount(ctx context.Context, id uint) error
	IncrementSaveCount(ctx context.Context, id uint) error

	ListOwned(ctx context.Context, ownerID uint, limit int) ([]models.RestaurantList, error)
	ListPublic(ctx context.Context, excludeOwnerID uint, limit int) ([]models.RestaurantList, error)
	ListHomeCircleShared(ctx context.Context, circleIDs []uint, excludeOwnerID uint, limit int) ([]models.RestaurantList, error)
	ListSharedInto(ctx context.Context, circleIDs []uint, excludeOwnerID uint, limit int) ([]models.RestaurantList, error)
	Search(ctx context.Context, query string, limit int) ([]models.RestaurantList, error)

	ListItemRepository
	ShareRepository
}

type listRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewListRepository returns a new ListRepository implementation.
func NewListRepository(db *gorm.DB) ListRepository {
	return &listRepository{db: db, log: observability.NewRepoLogger("restaurant_lists")}
}

func (r *listRepository) Create(ctx context.Context, list *models.RestaurantList) error {
	if err := r.db.WithContext(ctx).Omit("Items").Create(list).Error; err != nil {
		return writeError(err, "List already exists")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": list.ID, "visibility": list.Visibility})
	return nil
}

// CreateWithItems inserts list and copies of items in one transaction.
func (r *listRepository) CreateWithItems(ctx context.Context, list *models.RestaurantList, items []models.RestaurantListItem) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(list).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		copies := make([]models.RestaurantListItem, len(items))
		for i, it := range items {
			copies[i] = it
			copies[i].ID = 0
			copies[i].ListID = list.ID
			copies[i].Restaurant = nil
		}
		return tx.Create(&copies).Error
	})
	if err != nil {
		return writeError(err, "List already exists")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": list.ID, "items": len(items)})
	return nil
}

func (r *listRepository) GetByID(ctx context.Context, id uint) (*models.RestaurantList, error) {
	defer observability.TrackQuery("select", "restaurant_lists")()
	var list models.RestaurantList
	if err := r.db.WithContext(ctx).First(&list, id).Error; err != nil {
		return nil, readError(err, "List", id)
	}
	return &list, nil
}

// GetWithItems loads the list with its owner and items ordered by position.
func (r *listRepository) GetWithItems(ctx context.Context, id uint) (*models.RestaurantList, error) {
	defer observability.TrackQuery("select_items", "restaurant_lists")()
	var list models.RestaurantList
	if err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Items.Restaurant").
		First(&list, id).Error; err != nil {
		return nil, readError(err, "List", id)
	}
	return &list, nil
}

func (r *listRepository) Update(ctx context.Context, list *models.RestaurantList) error {
	if err := r.db.WithContext(ctx).Model(list).Select(
		"name", "description", "circle_id", "make_public", "share_with_circle", "visibility", "tags", "primary_location",
	).Updates(list).Error; err != nil {
		return writeError(err, "List already exists")
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": list.ID, "visibility": list.Visibility})
	return nil
}

// Delete removes the list with its items, their comments and its shares.
func (r *listRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := tx.Model(&models.RestaurantListItem{}).Select("id").Where("list_id = ?", id)
		if err := tx.Where("list_item_id IN (?)", items).Delete(&models.ListItemComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("list_id = ?", id).Delete(&models.RestaurantListItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("list_id = ?", id).Delete(&models.CircleSharedList{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.RestaurantList{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("List", id)
		}
		return nil
	})
	if err != nil {
		return readError(err, "List", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}

func (r *listRepository) increment(ctx context.Context, id uint, column string) error {
	if err := r.db.WithContext(ctx).Model(&models.RestaurantList{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// IncrementViewCount bumps view_count in a single UPDATE.
func (r *listRepository) IncrementViewCount(ctx context.Context, id uint) error {
	return r.increment(ctx, id, "view_count")
}

// IncrementSaveCount bumps save_count in a single UPDATE.
func (r *listRepository) IncrementSaveCount(ctx context.Context, id uint) error {
	return r.increment(ctx, id, "save_count")
}

// find is not capped at maxLimit: the accessible-lists union pages over
// offset+limit rows of each set.
func (r *listRepository) find(ctx context.Context, limit int, scope func(*gorm.DB) *gorm.DB) ([]models.RestaurantList, error) {
	defer observability.TrackQuery("list", "restaurant_lists")()
	if limit <= 0 {
		limit = defaultLimit
	}
	var lists []models.RestaurantList
	q := scope(r.db.WithContext(ctx).Model(&models.RestaurantList{}).Preload("Owner"))
	if err := q.Order("restaurant_lists.created_at DESC, restaurant_lists.id DESC").
		Limit(limit).
		Find(&lists).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return lists, nil
}

// ListOwned returns lists owned by ownerID.
func (r *listRepository) ListOwned(ctx context.Context, ownerID uint, limit int) ([]models.RestaurantList, error) {
	return r.find(ctx, limit, func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_id = ?", ownerID)
	})
}

// ListPublic returns public lists not owned by excludeOwnerID. Zero excludes
// nobody.
func (r *listRepository) ListPublic(ctx context.Context, excludeOwnerID uint, limit int) ([]models.RestaurantList, error) {
	return r.find(ctx, limit, func(db *gorm.DB) *gorm.DB {
		db = db.Where("make_public = ?", true)
		if excludeOwnerID != 0 {
			db = db.Where("owner_id <> ?", excludeOwnerID)
		}
		return db
	})
}

// ListHomeCircleShared returns non-public lists shared with their home circle
// when that circle is in circleIDs.
func (r *listRepository) ListHomeCircleShared(ctx context.Context, circleIDs []uint, excludeOwnerID uint, limit int) ([]models.RestaurantList, error) {
	if len(circleIDs) == 0 {
		return nil, nil
	}
	return r.find(ctx, limit, func(db *gorm.DB) *gorm.DB {
		return db.Where("share_with_circle = ? AND make_public = ? AND circle_id IN ? AND owner_id <> ?",
			true, false, circleIDs, excludeOwnerID)
	})
}

// ListSharedInto returns non-public lists with a share row into any of
// circleIDs.
func (r *listRepository) ListSharedInto(ctx context.Context, circleIDs []uint, excludeOwnerID uint, limit int) ([]models.RestaurantList, error) {
	if len(circleIDs) == 0 {
		return nil, nil
	}
	shared := r.db.Model(&models.CircleSharedList{}).Select("list_id").Where("circle_id IN ?", circleIDs)
	return r.find(ctx, limit, func(db *gorm.DB) *gorm.DB {
		return db.Where("make_public = ? AND owner_id <> ? AND id IN (?)", false, excludeOwnerID, shared)
	})
}

// Search matches lists by name or description without applying visibility.
func (r *listRepository) Search(ctx context.Context, query string, limit int) ([]models.RestaurantList, error) {
	p := likePattern(query)
	return r.find(ctx, limit, func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(name) LIKE LOWER(?) ESCAPE '\\' OR LOWER(description) LIKE LOWER(?) ESCAPE '\\'", p, p)
	})
}
