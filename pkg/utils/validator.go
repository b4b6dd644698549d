package utils

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ParseAmount parses a user-entered amount string, returning 0 for anything
// that does not parse as a number.
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatAmount formats an amount with two decimal places, the display form
// used for product amounts and totals.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// SanitizeString removes control characters from user input. Tabs and line
// breaks survive, they are ordinary whitespace in memo text.
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
