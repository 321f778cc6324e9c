package service

import (
	"regexp"
	"strings"
)

var (
	lowercasePattern = regexp.MustCompile(`[a-z]`)
	uppercasePattern = regexp.MustCompile(`[A-Z]`)
	digitPattern     = regexp.MustCompile(`\d`)
	specialPattern   = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

const minPasswordStrength = 60

// PasswordChecks are the individual strength criteria shown next to the
// password field.
type PasswordChecks struct {
	Length    bool
	Lowercase bool
	Uppercase bool
	Number    bool
	Special   bool
}

// PasswordStrength scores a password 0-100, 20 points per satisfied check.
func PasswordStrength(password string) (int, PasswordChecks) {
	checks := PasswordChecks{
		Length:    len(password) >= 8,
		Lowercase: lowercasePattern.MatchString(password),
		Uppercase: uppercasePattern.MatchString(password),
		Number:    digitPattern.MatchString(password),
		Special:   specialPattern.MatchString(password),
	}

	strength := 0
	for _, ok := range []bool{checks.Length, checks.Lowercase, checks.Uppercase, checks.Number, checks.Special} {
		if ok {
			strength += 20
		}
	}
	return strength, checks
}

func ValidateLogin(email, password string) error {
	if email == "" || password == "" {
		return &ValidationError{Field: "form", Message: "Please fill in all fields"}
	}
	if !strings.Contains(email, "@") {
		return &ValidationError{Field: "email", Message: "Please enter a valid email address"}
	}
	return nil
}

func ValidateRegistration(username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return &ValidationError{Field: "form", Message: "Please fill in all fields"}
	}
	if !strings.Contains(email, "@") {
		return &ValidationError{Field: "email", Message: "Please enter a valid email address"}
	}
	if strength, _ := PasswordStrength(password); strength < minPasswordStrength {
		return &ValidationError{Field: "password", Message: "Password is too weak. Please choose a stronger password."}
	}
	return nil
}
