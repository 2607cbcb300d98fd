package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"apartment-tracker/models"
	"apartment-tracker/utils"
)

// ErrDegradedExtraction means the page yielded listings but none of them
// carried an id, which points at broken selectors rather than real data.
var ErrDegradedExtraction = errors.New("degraded extraction")

// Cleaner tidies freshly extracted listings and runs the structural presence
// checks that decide whether a snapshot can be trusted.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean collapses whitespace in the display fields and returns a new snapshot.
// Id and address are left as extracted so identity and filtering see exactly
// what the site served.
func (c *Cleaner) Clean(raw models.Snapshot) (models.Snapshot, error) {
	result := make(models.Snapshot, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	missingID := 0

	for _, r := range raw {
		if r.ID == "" {
			missingID++
		} else if _, dup := seen[r.ID]; dup {
			c.logger.Debug("[cleaner] Duplicate id in snapshot: %s", r.ID)
		}
		seen[r.ID] = struct{}{}

		l := r
		l.Title = normaliseText(r.Title)
		l.Price = normaliseText(r.Price)
		l.Size = normaliseText(r.Size)
		l.Rooms = normaliseText(r.Rooms)
		result = append(result, l)
	}

	if len(raw) > 0 && missingID == len(raw) {
		return nil, fmt.Errorf("%w: none of %d listings has an id", ErrDegradedExtraction, len(raw))
	}
	if missingID > 0 {
		c.logger.Warn("[cleaner] %d of %d listings have no id", missingID, len(raw))
	}
	return result, nil
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
