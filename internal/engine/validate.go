package engine

import (
	"errors"
	"strings"
)

var ErrEmptyTitle = errors.New("title is required")

// ValidateBeforeSave is the only required-field check made before a create or
// update reaches the store.
func ValidateBeforeSave(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	return nil
}
