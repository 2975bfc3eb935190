package validation

import (
	"regexp"
	"unicode"

	"yatube/internal/models"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return models.NewFieldValidationError("username", "username must be at least 3 characters long", username)
	}
	if len(username) > 150 {
		return models.NewFieldValidationError("username", "username must not exceed 150 characters", username)
	}
	if !usernameRegex.MatchString(username) {
		return models.NewFieldValidationError("username",
			"username can only contain letters, numbers, underscores, and hyphens", username)
	}

	// Usernames appear in /profile/<username>/ paths.
	first, last := username[0], username[len(username)-1]
	if first == '_' || first == '-' || last == '_' || last == '-' {
		return models.NewFieldValidationError("username", "username cannot start or end with underscore or hyphen", username)
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return models.NewFieldValidationError("email", "email must not exceed 254 characters", email)
	}
	if !emailRegex.MatchString(email) {
		return models.NewFieldValidationError("email", "invalid email format", email)
	}
	return nil
}

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

// ValidatePassword checks if a password meets the signup requirements.
// The rejected value is never echoed back.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return models.NewFieldValidationError("password", "password must be at least 8 characters long", nil)
	}
	if len(password) > MaxPasswordBytes {
		return models.NewFieldValidationError("password", "password must not exceed 72 bytes", nil)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		return models.NewFieldValidationError("password", "password can't be entirely numeric", nil)
	}
	if !hasDigit {
		return models.NewFieldValidationError("password", "password must contain at least one digit", nil)
	}
	return nil
}
