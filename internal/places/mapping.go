package places

import (
	"regexp"
	"strings"

	"circles/internal/models"
)

var priceLevels = map[int]string{
	0: "$",
	1: "$",
	2: "$$",
	3: "$$$",
	4: "$$$$",
}

var cuisineByType = map[string]string{
	"bakery":                "Bakery",
	"bar":                   "Bar",
	"cafe":                  "Cafe",
	"restaurant":            "Restaurant",
	"food":                  "Food",
	"meal_takeaway":         "Takeaway",
	"meal_delivery":         "Delivery",
	"italian_restaurant":    "Italian",
	"japanese_restaurant":   "Japanese",
	"chinese_restaurant":    "Chinese",
	"mexican_restaurant":    "Mexican",
	"thai_restaurant":       "Thai",
	"indian_restaurant":     "Indian",
	"french_restaurant":     "French",
	"american_restaurant":   "American",
	"steakhouse":            "Steakhouse",
	"seafood_restaurant":    "Seafood",
	"vegetarian_restaurant": "Vegetarian",
	"breakfast_restaurant":  "Breakfast",
	"coffee_shop":           "Coffee",
	"pizza_restaurant":      "Pizza",
}

// trailingPostalCode matches a US ZIP (with optional +4) or a Canadian
// two-part code after the region.
var trailingPostalCode = regexp.MustCompile(`\s+[A-Z]{0,2}\d[A-Z0-9]{0,4}(?:[\s-]+[A-Z0-9]{3,4})?\s*$`)

// PriceRange maps a places price level to the $..$$$$ scale. A missing
// level is "$$".
func PriceRange(level *int) string {
	if level == nil {
		return "$$"
	}
	if p, ok := priceLevels[*level]; ok {
		return p
	}
	return "$$"
}

// Cuisine returns the readable cuisine of the first recognized place type.
func Cuisine(types []string) string {
	for _, t := range types {
		if c, ok := cuisineByType[t]; ok {
			return c
		}
	}
	return "Restaurant"
}

// ShortLocation reduces a formatted address to "City, State" when it has
// enough comma-separated parts.
func ShortLocation(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return strings.TrimSpace(address)
	}
	if len(parts) >= 3 {
		city := strings.TrimSpace(parts[len(parts)-3])
		state := strings.TrimSpace(parts[len(parts)-2])
		if city != "" && state != "" {
			return city + ", " + trailingPostalCode.ReplaceAllString(state, "")
		}
	}
	return strings.TrimSpace(strings.Join(parts[len(parts)-2:], ","))
}

// Place is a restaurant as reported by the places lookup.
type Place struct {
	PlaceID     string   `json:"place_id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Location    string   `json:"location"`
	Cuisine     string   `json:"cuisine"`
	PriceRange  string   `json:"price_range"`
	Rating      float64  `json:"rating"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Website     string   `json:"website,omitempty"`
	Hours       string   `json:"hours,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Restaurant converts p into an unsaved restaurant row.
func (p Place) Restaurant() models.Restaurant {
	placeID := p.PlaceID
	return models.Restaurant{
		Name:          p.Name,
		Location:      p.Location,
		Category:      p.Cuisine,
		Cuisine:       p.Cuisine,
		PriceRange:    p.PriceRange,
		Address:       p.Address,
		Phone:         p.Phone,
		Website:       p.Website,
		Hours:         p.Hours,
		Description:   p.Description,
		GooglePlaceID: &placeID,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		Rating:        p.Rating,
	}
}

type geometry struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

type placeResult struct {
	PlaceID          string    `json:"place_id"`
	Name             string    `json:"name"`
	FormattedAddress string    `json:"formatted_address"`
	Vicinity         string    `json:"vicinity"`
	Types            []string  `json:"types"`
	PriceLevel       *int      `json:"price_level"`
	Rating           *float64  `json:"rating"`
	Geometry         *geometry `json:"geometry"`
	Phone            string    `json:"formatted_phone_number"`
	Website          string    `json:"website"`
	OpeningHours     *struct {
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
	EditorialSummary *struct {
		Overview string `json:"overview"`
	} `json:"editorial_summary"`
}

type searchResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []placeResult `json:"results"`
}

type detailsResponse struct {
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
	Result       placeResult `json:"result"`
}

// toPlace maps a raw result. defaultRating fills a missing rating.
func (r placeResult) toPlace(defaultRating float64) Place {
	address := r.FormattedAddress
	if address == "" {
		address = r.Vicinity
	}
	name := r.Name
	if name == "" {
		name = "Unknown Restaurant"
	}
	p := Place{
		PlaceID:    r.PlaceID,
		Name:       name,
		Address:    address,
		Location:   ShortLocation(address),
		Cuisine:    Cuisine(r.Types),
		PriceRange: PriceRange(r.PriceLevel),
		Rating:     defaultRating,
		Phone:      r.Phone,
		Website:    r.Website,
	}
	if r.Rating != nil {
		p.Rating = *r.Rating
	}
	if r.Geometry != nil {
		lat, lng := r.Geometry.Location.Lat, r.Geometry.Location.Lng
		p.Latitude, p.Longitude = &lat, &lng
	}
	if r.OpeningHours != nil {
		p.Hours = strings.Join(r.OpeningHours.WeekdayText, "\n")
	}
	if r.EditorialSummary != nil {
		p.Description = r.EditorialSummary.Overview
	}
	return p
}
