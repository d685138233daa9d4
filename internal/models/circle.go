package models

import "time"

// Circle is a user-created group used to scope sharing of lists.
type Circle struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:120;not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	OwnerID         uint      `gorm:"not null;index" json:"owner_id"`
	Owner           *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	InviteCode      string    `gorm:"size:36;not null;uniqueIndex" json:"invite_code,omitempty"`
	AllowPublicJoin bool      `gorm:"not null;default:false" json:"allow_public_join"`
	MemberCount     int       `gorm:"not null;default:0" json:"member_count"`
	Tags            []string  `gorm:"serializer:json" json:"tags"`
	PrimaryCuisine  string    `gorm:"size:80" json:"primary_cuisine,omitempty"`
	PriceRange      string    `gorm:"size:4" json:"price_range,omitempty"`
	Location        string    `gorm:"size:200" json:"location,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Circle) TableName() string {
	return "circles"
}
