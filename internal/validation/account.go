package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 12
	maxPasswordLength = 128
	maxEmailLength    = 254
	maxEmailLocalPart = 64
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{1,30}[a-zA-Z0-9]$`)

// ValidateUsername checks length and allowed characters. Usernames are
// immutable once created, so the rules only apply at account creation.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-32 characters of letters, numbers, '_' or '-', starting and ending with a letter or number")
	}
	return nil
}

// ValidatePassword enforces length and character class requirements.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength || n > maxPasswordLength {
		return fmt.Errorf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return fmt.Errorf("password must contain upper and lower case letters, a digit and a special character")
	}
	return nil
}

// ValidateEmail performs a structural check of an address.
func ValidateEmail(email string) error {
	if len(email) > maxEmailLength {
		return fmt.Errorf("email must be at most %d characters", maxEmailLength)
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return fmt.Errorf("email must not contain whitespace")
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return fmt.Errorf("email must contain exactly one '@'")
	}
	if local == "" || len(local) > maxEmailLocalPart {
		return fmt.Errorf("email local part must be 1-%d characters", maxEmailLocalPart)
	}
	if domain == "" || !strings.Contains(domain, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") ||
		strings.Contains(domain, "..") {
		return fmt.Errorf("email domain is invalid")
	}
	return nil
}
