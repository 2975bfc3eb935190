package validation

import (
	"regexp"

	"yatube/internal/models"
)

// MsgInvalidSlug matches the wording used for slug fields across the site.
const MsgInvalidSlug = "Enter a valid slug consisting of letters, numbers, underscores or hyphens."

var slugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidateSlug rejects slugs that cannot appear in a /group/<slug>/ path.
func ValidateSlug(slug string) error {
	if len(slug) > 100 || !slugRegex.MatchString(slug) {
		return models.NewFieldValidationError("slug", MsgInvalidSlug, slug)
	}
	return nil
}
