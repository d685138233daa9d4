package seed

import (
	_ "embed"
	"fmt"

	"circles/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed catalog.yaml
var catalogYAML []byte

// CatalogRestaurant is a built-in restaurant.
type CatalogRestaurant struct {
	Name       string `yaml:"name"`
	Location   string `yaml:"location"`
	Category   string `yaml:"category"`
	Cuisine    string `yaml:"cuisine"`
	PriceRange string `yaml:"price_range"`
	Address    string `yaml:"address"`
}

// CatalogCircle is a circle template.
type CatalogCircle struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	Tags            []string `yaml:"tags"`
	PrimaryCuisine  string   `yaml:"primary_cuisine"`
	PriceRange      string   `yaml:"price_range"`
	Location        string   `yaml:"location"`
	AllowPublicJoin bool     `yaml:"allow_public_join"`
}

// CatalogList is a list template.
type CatalogList struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
}

// Catalog is the embedded seed data.
type Catalog struct {
	Restaurants []CatalogRestaurant `yaml:"restaurants"`
	Circles     []CatalogCircle     `yaml:"circles"`
	Lists       []CatalogList       `yaml:"lists"`
}

// LoadCatalog parses the embedded catalog.
func LoadCatalog() (*Catalog, error) {
	return parseCatalog(catalogYAML)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	if len(c.Restaurants) == 0 {
		return nil, fmt.Errorf("seed catalog has no restaurants")
	}
	return &c, nil
}

// Restaurants ensures every catalog restaurant exists, matched by name and
// location. It is safe to run on every boot.
func Restaurants(db *gorm.DB) ([]models.Restaurant, error) {
	catalog, err := LoadCatalog()
	if err != nil {
		return nil, err
	}

	out := make([]models.Restaurant, 0, len(catalog.Restaurants))
	for _, item := range catalog.Restaurants {
		r := models.Restaurant{}
		err := db.
			Where(models.Restaurant{Name: item.Name, Location: item.Location}).
			Attrs(models.Restaurant{
				Category:   item.Category,
				Cuisine:    item.Cuisine,
				PriceRange: item.PriceRange,
				Address:    item.Address,
			}).
			FirstOrCreate(&r).Error
		if err != nil {
			return nil, fmt.Errorf("seed restaurant %s: %w", item.Name, err)
		}
		out = append(out, r)
	}
	return out, nil
}
