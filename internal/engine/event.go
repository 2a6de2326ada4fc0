package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tartampluch/go-eventtracker/internal/config"
)

// Category is the closed set of event kinds.
type Category string

const (
	Birthday    Category = "BIRTHDAY"
	Anniversary Category = "ANNIVERSARY"
)

// Categories lists every valid Category.
var Categories = []Category{Birthday, Anniversary}

// IsValid reports whether c is one of Categories.
func (c Category) IsValid() bool {
	return c == Birthday || c == Anniversary
}

// ParseCategory maps a tag name to a Category.
// Unknown or empty tags fall back to Birthday; the boolean reports whether
// the tag was recognized.
func ParseCategory(tag string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(tag)))
	if c.IsValid() {
		return c, true
	}
	return Birthday, false
}

// Event is a tracked recurring date.
type Event struct {
	// ID is assigned by the store on creation; zero means "not stored yet".
	ID int64

	// Name is the display label.
	Name string

	// Date is the original date (birth date, wedding date...).
	// When YearKnown is false only Month and Day are meaningful.
	Date Date

	Category Category

	YearKnown bool
}

// Validate enforces the persistence-time invariants. The recurrence engine
// itself never calls it.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return errors.New(config.ErrNameBlank)
	}
	if !e.Category.IsValid() {
		return fmt.Errorf("%s: %q", config.ErrCategoryUnknown, e.Category)
	}
	return e.Date.Validate()
}

// SameOccasion reports whether two events describe the same thing for the
// purpose of import de-duplication: same name and same original date.
func (e Event) SameOccasion(o Event) bool {
	return e.Name == o.Name && e.Date == o.Date
}
