package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrWong99/enunciate/pkg/types"
)

// Validate checks a [types.PracticeItem] for required fields.
//
// Rules:
//   - ID must be positive.
//   - Text must not be blank.
//   - Kind must be word or phrase.
//   - Difficulty must be a known level.
func Validate(item types.PracticeItem) error {
	var errs []error
	if item.ID <= 0 {
		errs = append(errs, fmt.Errorf("id %d must be positive", item.ID))
	}
	errs = append(errs, contentErrors(item)...)
	return errors.Join(errs...)
}

// ValidateContent applies the rules of [Validate] except the ID check. It is
// used for ad-hoc items that are scored without being added to a catalog.
func ValidateContent(item types.PracticeItem) error {
	return errors.Join(contentErrors(item)...)
}

func contentErrors(item types.PracticeItem) []error {
	var errs []error
	if strings.TrimSpace(item.Text) == "" {
		errs = append(errs, errors.New("text must not be empty"))
	}
	if !item.Kind.IsValid() {
		errs = append(errs, fmt.Errorf("kind %q is invalid; valid values: word, phrase", item.Kind))
	}
	if !item.Difficulty.IsValid() {
		errs = append(errs, fmt.Errorf("difficulty %q is invalid; valid values: beginner, intermediate, advanced", item.Difficulty))
	}
	return errs
}
