package models

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Event represents a single user-recorded life event
type Event struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Name         string    `gorm:"not null" json:"name"`
	Date         string    `json:"date"`
	Description  string    `json:"description"`
	Category     *string   `json:"category"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	LocationName *string   `json:"location_name"`
}

// HasLocation reports whether the event carries a coordinate pair.
func (e *Event) HasLocation() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// Preference is a single persisted key/value setting
type Preference struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GeoPoint is a coordinate pair picked on the map surface
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Marker describes one map marker; it carries no map-library types
type Marker struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label"`
	Color     string  `json:"color"`
}

// EventCategories is the fixed set of categories an event may carry.
var EventCategories = []string{
	"Work",
	"Personal",
	"School",
	"Travel",
	"Health",
	"Family",
	"Other",
}

// DefaultCategoryColor is used for events without a recognized category.
const DefaultCategoryColor = "#8EB5C9"

var categoryColors = map[string]string{
	"Work":     "#66B3FC",
	"Personal": "#5FD964",
	"School":   "#F8BA63",
	"Travel":   "#E65DFF",
	"Health":   "#F85346",
	"Family":   "#F63A7A",
	"Other":    "#8EB5C9",
}

// CategoryColor returns the marker color for a category.
func CategoryColor(category *string) string {
	if category == nil {
		return DefaultCategoryColor
	}
	if color, ok := categoryColors[*category]; ok {
		return color
	}
	return DefaultCategoryColor
}

// IsValidCategory reports whether the category is in the fixed set.
func IsValidCategory(category string) bool {
	_, ok := categoryColors[category]
	return ok
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Event{},
		&Preference{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
