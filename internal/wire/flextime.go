// Package wire decodes the planner API's activity payloads. The activity
// schema went through several generations (string timestamps, epoch numbers,
// renamed creator fields, optional counts); this package accepts all of them
// and hands the rest of the engine one canonical shape.
package wire

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FlexTime is a timestamp field tolerant of every historical encoding:
// RFC 3339 with or without fractional seconds or zone, a bare date, or an
// epoch number in seconds or milliseconds. Unparsable input leaves the value
// unset instead of failing the whole document.
type FlexTime struct {
	Time  time.Time
	Valid bool
}

// NewFlexTime wraps a concrete instant for encoding.
func NewFlexTime(t time.Time) FlexTime {
	return FlexTime{Time: t, Valid: true}
}

var flexLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Epoch values above this are read as milliseconds; none of the trips this
// system plans happen after the year 33658.
const epochMillisFloor = 1e12

func (f *FlexTime) UnmarshalJSON(b []byte) error {
	f.Time, f.Valid = time.Time{}, false

	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		for _, layout := range flexLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				f.Time, f.Valid = t, true
				return nil
			}
		}
		return nil
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	sec := int64(n)
	if n >= epochMillisFloor {
		ms := int64(n)
		f.Time, f.Valid = time.UnixMilli(ms).UTC(), true
		return nil
	}
	f.Time, f.Valid = time.Unix(sec, 0).UTC(), true
	return nil
}

func (f FlexTime) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Time.UTC().Format(time.RFC3339))
}

// TimePtr converts an optional FlexTime field to the domain's *time.Time.
func (f *FlexTime) TimePtr() *time.Time {
	if f == nil || !f.Valid {
		return nil
	}
	t := f.Time
	return &t
}
