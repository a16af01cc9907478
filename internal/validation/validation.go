// Package validation holds pure input checks. Problems are reported as
// human-readable strings in a Result; nothing here returns an error.
package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	MinPasswordLength = 8
	MaxTitleLength    = 100
	MaxDisplayName    = 50
	MaxTags           = 10
	MaxTagLength      = 20
)

var validate = validator.New()

// Result is the outcome of a validation.
type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

func newResult(errs []string) Result {
	if errs == nil {
		errs = []string{}
	}
	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// Merge combines several results into one.
func Merge(results ...Result) Result {
	var errs []string
	for _, r := range results {
		errs = append(errs, r.Errors...)
	}
	return newResult(errs)
}

func Email(email string) Result {
	email = strings.TrimSpace(email)
	if email == "" {
		return newResult([]string{"Email is required"})
	}
	if err := validate.Var(email, "email"); err != nil {
		return newResult([]string{"Please enter a valid email address"})
	}
	return newResult(nil)
}

// Password requires a minimum length plus at least one letter and one digit.
func Password(password string) Result {
	var errs []string
	if len(password) < MinPasswordLength {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
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
		errs = append(errs, "Password must contain at least one letter")
	}
	if !hasDigit {
		errs = append(errs, "Password must contain at least one number")
	}
	return newResult(errs)
}

func Title(title string) Result {
	title = strings.TrimSpace(title)
	if title == "" {
		return newResult([]string{"Title is required"})
	}
	if n := len([]rune(title)); n > MaxTitleLength {
		return newResult([]string{fmt.Sprintf("Title must be %d characters or less", MaxTitleLength)})
	}
	return newResult(nil)
}

// DateRange requires end to be strictly after start.
func DateRange(start, end time.Time) Result {
	var errs []string
	if start.IsZero() {
		errs = append(errs, "Start date is required")
	}
	if end.IsZero() {
		errs = append(errs, "End date is required")
	}
	if len(errs) == 0 && !end.After(start) {
		errs = append(errs, "End date must be after start date")
	}
	return newResult(errs)
}

// Tags limits the count and length of tags and rejects blanks and duplicates.
func Tags(tags []string) Result {
	var errs []string
	if len(tags) > MaxTags {
		errs = append(errs, fmt.Sprintf("No more than %d tags are allowed", MaxTags))
	}
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		t := strings.TrimSpace(tag)
		if t == "" {
			errs = append(errs, "Tags cannot be empty")
			continue
		}
		if len([]rune(t)) > MaxTagLength {
			errs = append(errs, fmt.Sprintf("Tag %q must be %d characters or less", t, MaxTagLength))
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			errs = append(errs, fmt.Sprintf("Duplicate tag %q", t))
		}
		seen[key] = struct{}{}
	}
	return newResult(errs)
}

func DisplayName(name string) Result {
	name = strings.TrimSpace(name)
	if name == "" {
		return newResult([]string{"Display name cannot be empty"})
	}
	if n := len([]rune(name)); n > MaxDisplayName {
		return newResult([]string{fmt.Sprintf("Display name must be %d characters or less", MaxDisplayName)})
	}
	return newResult(nil)
}

// PhotoURL accepts an empty value, which clears the photo, or an http(s) URL.
func PhotoURL(raw string) Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return newResult(nil)
	}
	if err := validate.Var(raw, "http_url"); err != nil {
		return newResult([]string{"Photo URL must be a valid http or https URL"})
	}
	return newResult(nil)
}
