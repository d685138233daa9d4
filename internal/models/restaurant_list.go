package models

import (
	"time"

	"gorm.io/gorm"
)

// RestaurantList is a named, orderable collection of restaurants curated by
// one owner. Visibility is always derived from MakePublic and ShareWithCircle.
type RestaurantList struct {
	ID              uint                 `gorm:"primaryKey" json:"id"`
	Name            string               `gorm:"size:120;not null" json:"name"`
	Description     string               `gorm:"type:text" json:"description"`
	OwnerID         uint                 `gorm:"not null;index" json:"owner_id"`
	Owner           *User                `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CircleID        *uint                `gorm:"index" json:"circle_id"`
	MakePublic      bool                 `gorm:"not null;default:false;index" json:"make_public"`
	ShareWithCircle bool                 `gorm:"not null;default:false" json:"share_with_circle"`
	Visibility      ListVisibility       `gorm:"type:varchar(20);not null;default:'private'" json:"visibility"`
	Tags            []string             `gorm:"serializer:json" json:"tags"`
	PrimaryLocation string               `gorm:"size:200" json:"primary_location,omitempty"`
	ViewCount       int                  `gorm:"not null;default:0" json:"view_count"`
	SaveCount       int                  `gorm:"not null;default:0" json:"save_count"`
	Items           []RestaurantListItem `gorm:"foreignKey:ListID" json:"items,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (RestaurantList) TableName() string {
	return "restaurant_lists"
}

// NewRestaurantList builds a list with consistent visibility. A circle-shared
// list must name its home circle.
func NewRestaurantList(ownerID uint, name string, circleID *uint, vis VisibilitySettings) (*RestaurantList, error) {
	l := &RestaurantList{OwnerID: ownerID, Name: name, CircleID: circleID}
	if err := l.ApplyVisibility(vis); err != nil {
		return nil, err
	}
	return l, nil
}

// VisibilitySettings returns the list's current controls.
func (l *RestaurantList) VisibilitySettings() VisibilitySettings {
	return NewVisibilitySettings(l.MakePublic, l.ShareWithCircle)
}

// ApplyVisibility sets all three visibility fields from vis.
func (l *RestaurantList) ApplyVisibility(vis VisibilitySettings) error {
	if vis.ShareWithCircle() && l.CircleID == nil {
		return NewValidationError("share_with_circle requires circle_id")
	}
	l.MakePublic = vis.MakePublic()
	l.ShareWithCircle = vis.ShareWithCircle()
	l.Visibility = vis.Tier()
	return nil
}

// BeforeSave keeps the stored tier consistent with the flags.
func (l *RestaurantList) BeforeSave(_ *gorm.DB) error {
	l.Visibility = DeriveVisibility(l.MakePublic, l.ShareWithCircle)
	return nil
}
