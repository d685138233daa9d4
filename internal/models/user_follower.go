package models

import "time"

// FollowStatus is the state of a follow edge.
type FollowStatus string

const (
	// FollowStatusPending awaits approval by the followed user.
	FollowStatusPending FollowStatus = "pending"
	// FollowStatusFollowing is an accepted edge.
	FollowStatusFollowing FollowStatus = "following"
)

// UserFollower is a directed edge from FollowerID to FollowingID.
type UserFollower struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	FollowerID  uint         `gorm:"not null;uniqueIndex:idx_user_followers_pair;index" json:"follower_id"`
	Follower    *User        `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	FollowingID uint         `gorm:"not null;uniqueIndex:idx_user_followers_pair;index" json:"following_id"`
	Following   *User        `gorm:"foreignKey:FollowingID" json:"following,omitempty"`
	Status      FollowStatus `gorm:"type:varchar(20);not null;default:'following'" json:"status"`
	ApprovedAt  *time.Time   `json:"approved_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (UserFollower) TableName() string {
	return "user_followers"
}
