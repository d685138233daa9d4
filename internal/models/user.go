// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents an account in Circles.
type User struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	Username              string    `gorm:"size:30;not null;uniqueIndex" json:"username"`
	Email                 string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Password              string    `gorm:"not null" json:"-"`
	Name                  string    `gorm:"size:120" json:"name"`
	Bio                   string    `gorm:"type:text" json:"bio"`
	Avatar                string    `json:"avatar"`
	RequireFollowApproval bool      `gorm:"not null;default:false" json:"require_follow_approval"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// UserSummary is the public projection of a user embedded in other payloads.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

// Summary returns the public projection of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Name: u.Name, Avatar: u.Avatar}
}
