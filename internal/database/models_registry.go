package database

import "circles/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Restaurant{},
		&models.Circle{},
		&models.CircleMembership{},
		&models.CircleInvite{},
		&models.RestaurantList{},
		&models.RestaurantListItem{},
		&models.ListItemComment{},
		&models.CircleSharedList{},
		&models.UserFollower{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.SavedRestaurant{},
		&models.Recommendation{},
	}
}
