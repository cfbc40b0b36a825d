package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DateLayout = time.DateOnly

// dateTimeLayouts are tried in order when parsing datetime strings.
// time.RFC3339 also accepts fractional seconds.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

// ParseDateTime normalizes a datetime string into a time.Time.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDateTime)
	}

	for _, layout := range dateTimeLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, value)
}

// Date is a calendar-day filter, either built from a time.Time with DateOf
// or taken as a "2006-01-02" string. The zero value means unset.
type Date string

// DateOf returns the day of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

func (d Date) IsZero() bool {
	return strings.TrimSpace(string(d)) == ""
}

// Normalize returns the "2006-01-02" form of d. Datetime strings are
// converted to UTC and truncated to their day.
func (d Date) Normalize() (string, error) {
	value := strings.TrimSpace(string(d))

	if parsed, err := time.Parse(DateLayout, value); err == nil {
		return parsed.Format(DateLayout), nil
	}

	parsed, err := ParseDateTime(value)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, string(d))
	}

	return parsed.UTC().Format(DateLayout), nil
}

// Time returns the start of the day in UTC.
func (d Date) Time() (time.Time, error) {
	normalized, err := d.Normalize()
	if err != nil {
		return time.Time{}, err
	}

	return time.Parse(DateLayout, normalized)
}

// Timestamp is a datetime decoded from any of the layouts ParseDateTime accepts.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts any layout ParseDateTime does. null decodes to the zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDateTime, string(data))
	}

	if raw == nil {
		t.Time = time.Time{}

		return nil
	}

	parsed, err := ParseDateTime(*raw)
	if err != nil {
		return err
	}

	t.Time = parsed

	return nil
}

// MarshalJSON writes RFC 3339 with nanoseconds, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(t.Format(time.RFC3339Nano))
}
