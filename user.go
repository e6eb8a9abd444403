// This file defines the User model and its validation rules.
//
// Validation is an explicit function invoked by the stores before every
// write, not a lifecycle hook: every violated rule is accumulated into a
// single ValidationError so the caller sees the whole picture at once.
package feedcore

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Length bounds count characters (runes), not bytes, so multibyte names
// and passwords are measured the way a user perceives them.
const (
	// MaxNameLength is the longest accepted user name after trimming.
	MaxNameLength = 50
	// MaxEmailLength is the longest accepted email after normalization.
	MaxEmailLength = 255
	// MinPasswordLength is the shortest accepted password after trimming.
	MinPasswordLength = 6
)

// emailPattern accepts a local part of word characters plus + - . followed
// by a dotted domain of alphanumeric/hyphen labels ending in an alphabetic
// TLD. Consecutive dots are rejected separately; the pattern alone would
// admit them in the local part.
var emailPattern = regexp.MustCompile(`^[\w+\-.]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]+$`)

// User is a persisted user record. PasswordDigest holds only the derived
// credential; the plaintext password never touches this struct.
type User struct {
	ID             int64     `db:"id"`
	Name           string    `db:"name"`
	Email          string    `db:"email"`
	PasswordDigest string    `db:"password_digest"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Emails are stored and compared only in this form, so uniqueness is
// case-insensitive by construction rather than by query-time folding.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the (already normalized) address has an
// acceptable shape.
func ValidEmail(email string) bool {
	if strings.Contains(email, "..") {
		return false
	}
	return emailPattern.MatchString(email)
}

// validateName checks the trimmed name for presence and length.
func validateName(name string, verr *ValidationError) {
	if name == "" {
		verr.Add("name", "can't be blank")
		return
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		verr.Add("name", "is too long (maximum is 50 characters)")
	}
}

// validateEmail checks the normalized email for presence, length, and shape.
func validateEmail(email string, verr *ValidationError) {
	if email == "" {
		verr.Add("email", "can't be blank")
		return
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		verr.Add("email", "is too long (maximum is 255 characters)")
	}
	if !ValidEmail(email) {
		verr.Add("email", "is invalid")
	}
}

// validatePassword checks the password/confirmation pair. The password is
// trimmed before the presence and length checks, so six spaces are blank.
func validatePassword(password, confirmation string, verr *ValidationError) {
	if password != confirmation {
		verr.Add("password_confirmation", "doesn't match password")
	}
	trimmed := strings.TrimSpace(password)
	if trimmed == "" {
		verr.Add("password", "can't be blank")
		return
	}
	if utf8.RuneCountInString(trimmed) < MinPasswordLength {
		verr.Add("password", "is too short (minimum is 6 characters)")
	}
}
