// Package normalizer holds the field-level helpers every source adapter uses
// to flatten upstream records into the site's schema.
package normalizer

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// DefaultDescription is used when an upstream record carries no text.
const DefaultDescription = "No description available."

var (
	yearPattern   = regexp.MustCompile(`\d{4}`)
	slugStrip     = regexp.MustCompile(`[^\w\s-]`)
	slugSpaces    = regexp.MustCompile(`\s+`)
	slugDashes    = regexp.MustCompile(`--+`)
	digitsOnly    = regexp.MustCompile(`^\d+$`)
	schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
)

// FlexText decodes a field that upstream sends either as a plain string or
// as an object of the form {"type": "...", "value": "..."}.
type FlexText struct {
	Text  string
	Valid bool
}

// UnmarshalJSON accepts a string, an object with a string "value", or null.
func (f *FlexText) UnmarshalJSON(data []byte) error {
	*f = FlexText{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}

		f.Text, f.Valid = s, true
	case '{':
		var obj struct {
			Value *string `json:"value"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}

		if obj.Value != nil && *obj.Value != "" {
			f.Text, f.Valid = *obj.Value, true
		}
	}

	return nil
}

// MarshalJSON writes the text, or null when unset.
func (f FlexText) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}

	return json.Marshal(f.Text)
}

// OrDefault returns the text or def when unset.
func (f FlexText) OrDefault(def string) string {
	if !f.Valid {
		return def
	}

	return f.Text
}

// Ptr returns the text as a pointer, nil when unset.
func (f FlexText) Ptr() *string {
	if !f.Valid {
		return nil
	}

	s := f.Text

	return &s
}

// Slug builds "<title-slug>-<id>". An empty title becomes "no-title".
func Slug(title, id string) string {
	slug := "no-title"

	if title != "" {
		slug = strings.ToLower(title)
		slug = slugStrip.ReplaceAllString(slug, "")
		slug = slugSpaces.ReplaceAllString(slug, "-")
		slug = slugDashes.ReplaceAllString(slug, "-")
	}

	return slug + "-" + id
}

// ExtractYear returns the first run of four digits in s, or nil.
func ExtractYear(s string) *string {
	match := yearPattern.FindString(s)
	if match == "" {
		return nil
	}

	return &match
}

// EnsureScheme turns protocol-relative ("//host/x") and scheme-less URLs
// into https URLs. Empty input stays empty.
func EnsureScheme(raw string) string {
	raw = strings.TrimSpace(raw)

	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case schemePattern.MatchString(raw):
		return raw
	default:
		return "https://" + raw
	}
}

// NormalizeWhitespace replaces runs of whitespace with a single space.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to maxRunes runes, appending "..." when cut.
func Truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}

	return string(runes[:maxRunes]) + "..."
}

// FirstNonEmpty returns the first argument that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

// First returns the first element of values, or nil.
func First(values []string) *string {
	if len(values) == 0 {
		return nil
	}

	return StringPtr(values[0])
}

// NonNil returns values, or an empty slice when values is nil.
func NonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}

	return values
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	return digitsOnly.MatchString(s)
}

// Itoa formats a numeric upstream id as a string.
func Itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
