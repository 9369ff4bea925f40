package handlers

import (
	"fmt"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// fieldErrors accumulates per-field validation messages for form
// redisplay.
type fieldErrors map[string]string

func (f fieldErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		f[field] = "This field is required"
	}
}

func (f fieldErrors) email(field, value string) {
	if value != "" && !emailPattern.MatchString(value) {
		f[field] = "Invalid email address"
	}
}

func (f fieldErrors) minLength(field, value string, min int) {
	if len(value) < min {
		f[field] = fmt.Sprintf("Must be at least %d characters", min)
	}
}

func (f fieldErrors) match(field, a, b string) {
	if a != b {
		f[field] = "Passwords do not match"
	}
}

func (f fieldErrors) ok() bool {
	return len(f) == 0
}
