package models

import "time"

// CircleSharedList shares a list into a circle beyond its home circle.
// CanEdit lets active members of the circle manage items; CanReshare lets them
// copy the list into a list of their own.
type CircleSharedList struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CircleID   uint            `gorm:"not null;uniqueIndex:idx_circle_shared_lists_pair;index" json:"circle_id"`
	Circle     *Circle         `gorm:"foreignKey:CircleID" json:"circle,omitempty"`
	ListID     uint            `gorm:"not null;uniqueIndex:idx_circle_shared_lists_pair;index" json:"list_id"`
	List       *RestaurantList `gorm:"foreignKey:ListID" json:"list,omitempty"`
	SharedByID uint            `gorm:"not null" json:"shared_by_id"`
	CanEdit    bool            `gorm:"not null;default:false" json:"can_edit"`
	CanReshare bool            `gorm:"not null;default:false" json:"can_reshare"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (CircleSharedList) TableName() string {
	return "circle_shared_lists"
}
