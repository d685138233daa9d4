package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PostVisibility is who may read a review.
type PostVisibility string

const (
	PostVisibilityPublic  PostVisibility = "public"
	PostVisibilityCircle  PostVisibility = "circle"
	PostVisibilityPrivate PostVisibility = "private"
)

// ParsePostVisibility validates a visibility name. An empty string means
// public.
func ParsePostVisibility(s string) (PostVisibility, error) {
	switch v := PostVisibility(s); v {
	case "":
		return PostVisibilityPublic, nil
	case PostVisibilityPublic, PostVisibilityCircle, PostVisibilityPrivate:
		return v, nil
	default:
		return "", fmt.Errorf("visibility must be one of public, circle, private")
	}
}

// Post is a review of one restaurant. A circle post carries CircleID and is
// readable under that circle's read rules.
type Post struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	User            *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	RestaurantID    uint           `gorm:"not null;index" json:"restaurant_id"`
	Restaurant      *Restaurant    `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
	CircleID        *uint          `gorm:"index" json:"circle_id,omitempty"`
	Circle          *Circle        `gorm:"foreignKey:CircleID" json:"-"`
	Visibility      PostVisibility `gorm:"size:16;not null;default:public;index" json:"visibility"`
	Content         string         `gorm:"type:text;not null" json:"content"`
	Rating          int            `gorm:"not null" json:"rating"`
	ServiceRating   *int           `json:"service_rating,omitempty"`
	PriceAssessment string         `gorm:"size:40" json:"price_assessment,omitempty"`
	Atmosphere      string         `gorm:"size:120" json:"atmosphere,omitempty"`
	DishesTried     []string       `gorm:"serializer:json" json:"dishes_tried"`
	DietaryOptions  []string       `gorm:"serializer:json" json:"dietary_options"`
	Images          []string       `gorm:"serializer:json" json:"images"`
	// LikesCount, CommentsCount and Liked are computed at query time.
	LikesCount    int            `gorm:"->;-:migration" json:"likes_count"`
	CommentsCount int            `gorm:"->;-:migration" json:"comments_count"`
	Liked         bool           `gorm:"->;-:migration" json:"liked"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM.
func (Post) TableName() string {
	return "posts"
}

// Comment is a reply on a post.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PostID    uint           `gorm:"not null;index" json:"post_id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM.
func (Comment) TableName() string {
	return "comments"
}

// Like records one user liking one post.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Like) TableName() string {
	return "likes"
}
