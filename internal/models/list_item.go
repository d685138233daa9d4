package models

import "time"

// RestaurantListItem places one restaurant in one list.
type RestaurantListItem struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	ListID          uint        `gorm:"not null;index;uniqueIndex:idx_list_items_restaurant" json:"list_id"`
	RestaurantID    uint        `gorm:"not null;uniqueIndex:idx_list_items_restaurant" json:"restaurant_id"`
	Restaurant      *Restaurant `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
	Rating          *int        `json:"rating"`
	PriceAssessment string      `gorm:"size:40" json:"price_assessment,omitempty"`
	Liked           string      `gorm:"type:text" json:"liked,omitempty"`
	Disliked        string      `gorm:"type:text" json:"disliked,omitempty"`
	Notes           string      `gorm:"type:text" json:"notes,omitempty"`
	MustTryDishes   []string    `gorm:"serializer:json" json:"must_try_dishes"`
	AddedByID       uint        `gorm:"not null" json:"added_by_id"`
	Position        int         `gorm:"not null;default:0" json:"position"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (RestaurantListItem) TableName() string {
	return "restaurant_list_items"
}

// ListItemComment is a remark left on a list item.
type ListItemComment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ListItemID uint      `gorm:"not null;index" json:"list_item_id"`
	UserID     uint      `gorm:"not null" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (ListItemComment) TableName() string {
	return "list_item_comments"
}
