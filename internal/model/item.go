package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrEmptyContent is returned when an item's content is empty or
// whitespace-only. It never reaches the remote collection.
var ErrEmptyContent = errors.New("content cannot be empty")

// Category is the fixed item classification.
type Category string

const (
	CategoryBusiness Category = "business"
	CategoryPersonal Category = "personal"
)

// ParseCategory maps user input to a Category.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryBusiness:
		return CategoryBusiness, nil
	case CategoryPersonal:
		return CategoryPersonal, nil
	}
	return "", fmt.Errorf("unknown category: %q", s)
}

// Item is the domain model for a todo entry.
type Item struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Category  Category `json:"category"`
	Done      bool     `json:"done"`
	CreatedAt Marker   `json:"created_at"`
	CreatedBy string   `json:"created_by,omitempty"`
}

// Validate checks the persistable invariants: non-blank content and a
// category from the fixed set. The content check runs first so callers can
// match ErrEmptyContent with errors.Is.
func (it Item) Validate() error {
	if err := ValidateContent(it.Content); err != nil {
		return err
	}
	return validation.ValidateStruct(&it,
		validation.Field(&it.Category, validation.Required, validation.In(CategoryBusiness, CategoryPersonal)),
	)
}

// ValidateContent applies the content rule alone. The synchronizer calls it
// before any create or edit leaves the process.
func ValidateContent(s string) error {
	return notBlank(s)
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return ErrEmptyContent
	}
	return nil
}

// SortByCreation orders items ascending by creation marker. Unresolved and
// absent markers sort first (key 0). The sort is stable, so equal keys keep
// the order the last snapshot delivered.
func SortByCreation(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.SortKey() < items[j].CreatedAt.SortKey()
	})
}

// Timestamp is a resolved creation time, split into seconds and nanoseconds
// the way the store resolves it.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

// Time converts the resolved value back to a time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, int64(t.Nanos))
}
