package auth

import (
	"fmt"
	"html"
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"github.com/instasora/user-service/internal/domain"
)

const maxEmailLength = 254 // RFC 5321

// MinPasswordLen is the minimum accepted password length.
const MinPasswordLen = 8

// Username: starts alphanumeric, then alphanumeric/underscore/hyphen,
// 3 to 30 characters.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{2,29}$`)

// ValidateEmail validates an email address for format and length.
func ValidateEmail(email string) error {
	if email == "" || len(email) > maxEmailLength {
		return domain.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(NormalizeEmail(email))
	if err != nil || addr.Address != NormalizeEmail(email) {
		return domain.ErrInvalidEmail
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address. Lookups and storage
// always go through this, so email uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateUsername validates a username against format and length rules.
func ValidateUsername(username string) error {
	if len(username) > domain.MaxUsernameLen || !usernameRegex.MatchString(username) {
		return domain.ErrInvalidUsername
	}
	return nil
}

// ValidatePassword enforces the minimum password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("%w: must be at least %d characters", domain.ErrWeakPassword, MinPasswordLen)
	}
	return nil
}

// ValidateName enforces the name field length limit. Checked after
// sanitization, since HTML escaping can lengthen the value.
func ValidateName(name string) error {
	if len(name) > domain.MaxNameLen {
		return domain.ErrNameTooLong
	}
	return nil
}

// ValidateBio enforces the bio length limit.
func ValidateBio(bio string) error {
	if len(bio) > domain.MaxBioLen {
		return domain.ErrBioTooLong
	}
	return nil
}

// SanitizeName trims a name field, strips control characters and escapes
// HTML.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return html.EscapeString(name)
}
