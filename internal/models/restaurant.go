package models

import "time"

// Restaurant sources reported by lookup and search.
const (
	RestaurantSourceDatabase = "database"
	RestaurantSourcePlaces   = "places"
)

// PlacesIDPrefix marks restaurant ids that resolve through the places lookup.
const PlacesIDPrefix = "google_"

// Restaurant is a locally stored restaurant record.
type Restaurant struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:200;not null;index" json:"name"`
	Location      string    `gorm:"size:200" json:"location"`
	Category      string    `gorm:"size:80" json:"category"`
	Cuisine       string    `gorm:"size:80" json:"cuisine"`
	PriceRange    string    `gorm:"size:4;not null;default:'$$'" json:"price_range"`
	Address       string    `gorm:"size:300" json:"address"`
	Phone         string    `gorm:"size:40" json:"phone,omitempty"`
	Website       string    `gorm:"size:300" json:"website,omitempty"`
	Hours         string    `gorm:"type:text" json:"hours,omitempty"`
	Description   string    `gorm:"type:text" json:"description,omitempty"`
	ImageURL      string    `gorm:"size:500" json:"image_url,omitempty"`
	GooglePlaceID *string   `gorm:"size:255;uniqueIndex" json:"google_place_id,omitempty"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	Rating        float64   `gorm:"not null;default:0" json:"rating"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Restaurant) TableName() string {
	return "restaurants"
}
