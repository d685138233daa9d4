package places

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceRange(t *testing.T) {
	t.Parallel()
	level := func(v int) *int { return &v }
	tests := []struct {
		name  string
		level *int
		want  string
	}{
		{"Missing", nil, "$$"},
		{"Free", level(0), "$"},
		{"Inexpensive", level(1), "$"},
		{"Moderate", level(2), "$$"},
		{"Expensive", level(3), "$$$"},
		{"Very Expensive", level(4), "$$$$"},
		{"Out Of Range", level(9), "$$"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PriceRange(tt.level))
		})
	}
}

func TestCuisine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		types []string
		want  string
	}{
		{"Empty", nil, "Restaurant"},
		{"Italian", []string{"point_of_interest", "italian_restaurant", "restaurant"}, "Italian"},
		{"First Match Wins", []string{"cafe", "bakery"}, "Cafe"},
		{"Unknown Types", []string{"establishment"}, "Restaurant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Cuisine(tt.types))
		})
	}
}

func TestShortLocation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		address string
		want    string
	}{
		{"Full Address", "123 Main St, Toronto, ON M5V 1A1, Canada", "Toronto, ON"},
		{"US ZIP", "500 Congress Ave, Austin, TX 78701, USA", "Austin, TX"},
		{"ZIP Plus Four", "1 Market St, San Francisco, CA 94105-1420, USA", "San Francisco, CA"},
		{"Region Without Code", "Rue de Rivoli, Paris, Ile-de-France, France", "Paris, Ile-de-France"},
		{"Two Parts", "Toronto, Canada", "Toronto, Canada"},
		{"Single Part", "Downtown", "Downtown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShortLocation(tt.address))
		})
	}
}

func TestPlaceRestaurant(t *testing.T) {
	t.Parallel()
	p := Place{PlaceID: "abc", Name: "Pizzeria", Cuisine: "Pizza", PriceRange: "$$", Location: "Austin, TX"}
	r := p.Restaurant()
	if assert.NotNil(t, r.GooglePlaceID) {
		assert.Equal(t, "abc", *r.GooglePlaceID)
	}
	assert.Equal(t, "Pizza", r.Category)
	assert.Equal(t, "Austin, TX", r.Location)
	assert.Zero(t, r.ID)
}
