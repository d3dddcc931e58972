package dto

import (
	"fmt"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) ToMap() map[string]string {
	return map[string]string{e.Field: e.Message}
}

func ToMap(errs []ValidationError) map[string]string {
	result := make(map[string]string)
	for _, e := range errs {
		result[e.Field] = e.Message
	}
	return result
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

const dateLayout = "2006-01-02"

// parseDate accepts a calendar date or an RFC 3339 timestamp. A calendar
// date used as an upper bound covers the whole day.
func parseDate(s string, endOfDay bool) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return t, true
}

func validateDate(field string, value *string) []ValidationError {
	var errs []ValidationError
	if value != nil && *value != "" {
		if _, ok := parseDate(*value, false); !ok {
			errs = append(errs, ValidationError{Field: field, Message: "invalid date (expected: YYYY-MM-DD or RFC 3339)"})
		}
	}
	return errs
}

func validateLatitude(field string, lat *float64) []ValidationError {
	var errs []ValidationError
	if lat != nil && (*lat < -90 || *lat > 90) {
		errs = append(errs, ValidationError{Field: field, Message: "must be between -90 and 90"})
	}
	return errs
}

func validateLongitude(field string, lon *float64) []ValidationError {
	var errs []ValidationError
	if lon != nil && (*lon < -180 || *lon > 180) {
		errs = append(errs, ValidationError{Field: field, Message: "must be between -180 and 180"})
	}
	return errs
}

func validateRadius(radius *float64) []ValidationError {
	var errs []ValidationError
	if radius != nil && *radius <= 0 {
		errs = append(errs, ValidationError{Field: "radius", Message: "must be greater than 0"})
	}
	return errs
}

func validateNonNegative(field string, n *int) []ValidationError {
	var errs []ValidationError
	if n != nil && *n < 0 {
		errs = append(errs, ValidationError{Field: field, Message: "cannot be negative"})
	}
	return errs
}

func validateMonth(month int) []ValidationError {
	var errs []ValidationError
	if month < 1 || month > 12 {
		errs = append(errs, ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}
	return errs
}

func validateAlbumName(name string) []ValidationError {
	var errs []ValidationError
	name = strings.TrimSpace(name)
	if name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "is required"})
	} else if len(name) > 200 {
		errs = append(errs, ValidationError{Field: "name", Message: "must be at most 200 characters"})
	}
	return errs
}
