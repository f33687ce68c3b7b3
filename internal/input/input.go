// Package input cleans and validates free text coming from record sources before it reaches
// the roster or the calendar feed.
package input

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tartampluch/go-compass/internal/config"
)

var (
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
	unsafePattern = regexp.MustCompile(`(?i)(<\s*script|javascript:|data:text/html|on\w+\s*=)`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// SanitizeText strips markup and control characters, trims, and cuts to maxLength runes.
// maxLength <= 0 means config.MaxTextLength.
func SanitizeText(value string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = config.MaxTextLength
	}

	value = tagPattern.ReplaceAllString(value, "")
	value = strings.Map(func(r rune) rune {
		if r == '<' || r == '>' || r < 32 || r == 127 {
			return -1
		}
		return r
	}, value)
	value = strings.TrimSpace(value)

	if runes := []rune(value); len(runes) > maxLength {
		value = string(runes[:maxLength])
	}
	return value
}

// ContainsUnsafeInput reports script-like payloads (script tags, javascript: URLs, inline handlers).
func ContainsUnsafeInput(value string) bool {
	return unsafePattern.MatchString(value)
}

// IsValidEmail checks length and address syntax.
func IsValidEmail(value string) bool {
	if value == "" || len(value) > config.MaxEmailLength {
		return false
	}
	return validate.Var(value, "email") == nil
}

// Struct validates v against its `validate` tags.
func Struct(v any) error {
	return validate.Struct(v)
}
