package models

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// EventForm holds the in-progress event creation/edit form. It is
// UI-only state: never persisted, reset on process restart.
type EventForm struct {
	Name         string   `json:"name" validate:"required,max=100"`
	Date         string   `json:"date" validate:"max=10"`
	Description  string   `json:"description" validate:"max=500"`
	Category     *string  `json:"category"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,longitude"`
	LocationName *string  `json:"location_name"`
}

// Validate checks the form before it is allowed to reach the store.
func (f *EventForm) Validate() error {
	if err := validate.Struct(f); err != nil {
		return errors.Wrap(err, "invalid event form")
	}

	if f.Category != nil && !IsValidCategory(*f.Category) {
		return errors.Errorf("unknown category %q", *f.Category)
	}

	// Coordinates are a pair: both present or both absent
	if (f.Latitude == nil) != (f.Longitude == nil) {
		return errors.New("latitude and longitude must be set together")
	}

	return nil
}

// ToEvent converts a validated form into a persistable event.
func (f *EventForm) ToEvent() Event {
	return Event{
		Name:         f.Name,
		Date:         f.Date,
		Description:  f.Description,
		Category:     f.Category,
		Latitude:     f.Latitude,
		Longitude:    f.Longitude,
		LocationName: f.LocationName,
	}
}
