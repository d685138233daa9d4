package repository

import (
	"context"

	"circles/internal/models"
	"circles/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a post listing. Zero fields are ignored.
type PostFilter struct {
	AuthorID     uint
	RestaurantID uint
	CircleID     uint
}

// PostRepository persists reviews, their likes and their comments. Reads
// take the viewer so counts and the liked flag are resolved in one query.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, viewerID uint, limit, offset int) ([]models.Post, error)
	Feed(ctx context.Context, viewerID uint, limit, offset int) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error

	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
	Likers(ctx context.Context, postID uint, limit, offset int) ([]models.User, error)

	CommentRepository
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return writeError(err, "Post already exists")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": post.ID, "restaurant_id": post.RestaurantID, "visibility": post.Visibility})
	return nil
}

// withDetails selects the computed counts and the viewer's liked flag.
func withDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL) AS comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count"
	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS liked", viewerID)
	}
	return db.Select(selectQuery + ", false AS liked")
}

// readableBy keeps posts viewerID may read: public posts, the viewer's own,
// and circle posts in circles the viewer holds any membership in or that
// are open to public joins.
func readableBy(db *gorm.DB, viewerID uint) *gorm.DB {
	openCircles := "posts.circle_id IN (SELECT id FROM circles WHERE allow_public_join = ?)"
	if viewerID == 0 {
		return db.Where("(posts.visibility = ? OR (posts.visibility = ? AND "+openCircles+"))",
			models.PostVisibilityPublic, models.PostVisibilityCircle, true)
	}
	return db.Where("(posts.visibility = ? OR posts.user_id = ? OR (posts.visibility = ? AND "+
		"(posts.circle_id IN (SELECT circle_id FROM circle_memberships WHERE user_id = ?) OR "+openCircles+")))",
		models.PostVisibilityPublic, viewerID, models.PostVisibilityCircle, viewerID, true)
}

func (r *postRepository) details(ctx context.Context, viewerID uint) *gorm.DB {
	return withDetails(r.db.WithContext(ctx).Model(&models.Post{}), viewerID).
		Preload("User", publicUser).
		Preload("Restaurant")
}

func (r *postRepository) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	defer observability.TrackQuery("select", "posts")()
	var post models.Post
	if err := r.details(ctx, viewerID).Preload("Circle").First(&post, "posts.id = ?", id).Error; err != nil {
		return nil, readError(err, "Post", id)
	}
	return &post, nil
}

// List returns readable posts matching filter, newest first.
func (r *postRepository) List(ctx context.Context, filter PostFilter, viewerID uint, limit, offset int) ([]models.Post, error) {
	defer observability.TrackQuery("select", "posts")()
	q := readableBy(r.details(ctx, viewerID), viewerID)
	if filter.AuthorID != 0 {
		q = q.Where("posts.user_id = ?", filter.AuthorID)
	}
	if filter.RestaurantID != 0 {
		q = q.Where("posts.restaurant_id = ?", filter.RestaurantID)
	}
	if filter.CircleID != 0 {
		q = q.Where("posts.circle_id = ?", filter.CircleID)
	}
	var posts []models.Post
	if err := q.Order("posts.created_at DESC, posts.id DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Feed returns the viewer's own posts, public posts by users they follow,
// and circle posts from circles they hold a membership in, newest first.
// An anonymous feed is every public post.
func (r *postRepository) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]models.Post, error) {
	defer observability.TrackQuery("select", "posts")()
	q := r.details(ctx, viewerID)
	if viewerID == 0 {
		q = q.Where("posts.visibility = ?", models.PostVisibilityPublic)
	} else {
		q = q.Where("(posts.user_id = ? OR "+
			"(posts.visibility = ? AND posts.user_id IN (SELECT following_id FROM user_followers WHERE follower_id = ? AND status = ?)) OR "+
			"(posts.visibility = ? AND posts.circle_id IN (SELECT circle_id FROM circle_memberships WHERE user_id = ?)))",
			viewerID,
			models.PostVisibilityPublic, viewerID, models.FollowStatusFollowing,
			models.PostVisibilityCircle, viewerID)
	}
	var posts []models.Post
	if err := q.Order("posts.created_at DESC, posts.id DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Model(post).Select(
		"Content", "Rating", "ServiceRating", "PriceAssessment", "Atmosphere",
		"DishesTried", "DietaryOptions", "Images", "Visibility", "CircleID",
	).Updates(post).Error
	if err != nil {
		return writeError(err, "Post could not be updated")
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": post.ID, "visibility": post.Visibility})
	return nil
}

// Delete soft-deletes the post and its comments and removes its likes.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", id).Delete(&models.Like{}).Error
	})
	if err != nil {
		return readError(err, "Post", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Like is idempotent; a concurrent duplicate is ignored by the unique index.
func (r *postRepository) Like(ctx context.Context, userID, postID uint) error {
	like := models.Like{UserID: userID, PostID: postID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "post_id"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(&like).Error
	if err != nil {
		return writeError(err, "Post already liked")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"post_id": postID, "like": true})
	return nil
}

// Unlike is idempotent.
func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"post_id": postID, "like": true})
	return nil
}

// Likers returns users who liked postID, most recent first.
func (r *postRepository) Likers(ctx context.Context, postID uint, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN likes ON likes.user_id = users.id").
		Where("likes.post_id = ?", postID).
		Order("likes.created_at DESC, likes.id DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
