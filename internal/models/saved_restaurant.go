package models

import "time"

// SavedRestaurant bookmarks a restaurant for one user.
type SavedRestaurant struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	UserID       uint        `gorm:"not null;uniqueIndex:idx_saved_restaurants_user_restaurant" json:"user_id"`
	RestaurantID uint        `gorm:"not null;uniqueIndex:idx_saved_restaurants_user_restaurant" json:"restaurant_id"`
	Restaurant   *Restaurant `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
	CreatedAt    time.Time   `json:"saved_at"`
}

// TableName specifies the table name for GORM.
func (SavedRestaurant) TableName() string {
	return "saved_restaurants"
}

// Recommendation is a member suggesting a restaurant to a circle.
type Recommendation struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	CircleID     uint        `gorm:"not null;index;uniqueIndex:idx_recommendations_circle_restaurant_user" json:"circle_id"`
	RestaurantID uint        `gorm:"not null;uniqueIndex:idx_recommendations_circle_restaurant_user" json:"restaurant_id"`
	Restaurant   *Restaurant `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
	UserID       uint        `gorm:"not null;uniqueIndex:idx_recommendations_circle_restaurant_user" json:"user_id"`
	User         *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Note         string      `gorm:"type:text" json:"note,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Recommendation) TableName() string {
	return "recommendations"
}
