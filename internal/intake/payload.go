package intake

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Payload is a raw, category-dependent submission. Any key may be absent;
// values arrive as whatever the transport decoded them to (JSON numbers,
// strings from multipart forms, slices, stored file keys).
type Payload map[string]any

// dateLayouts are tried in order when a date or time field is a string.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Present reports whether field carries a non-empty value. Empty strings,
// nil and empty slices count as absent.
func (p Payload) Present(field string) bool {
	v, ok := p[field]
	if !ok || v == nil {
		return false
	}

	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	}

	return true
}

func (p Payload) String(field string) *string {
	if !p.Present(field) {
		return nil
	}

	s, ok := toString(p[field])
	if !ok {
		return nil
	}

	return &s
}

func (p Payload) Int64(field string) *int64 {
	if !p.Present(field) {
		return nil
	}

	n, ok := toInt64(p[field])
	if !ok {
		return nil
	}

	return &n
}

func (p Payload) Int(field string) *int {
	n := p.Int64(field)
	if n == nil {
		return nil
	}

	i := int(*n)
	return &i
}

func (p Payload) Float64(field string) *float64 {
	if !p.Present(field) {
		return nil
	}

	f, ok := toFloat64(p[field])
	if !ok {
		return nil
	}

	return &f
}

// Bool coerces field with NormalizeBoolean; absent fields are false.
func (p Payload) Bool(field string) bool {
	return NormalizeBoolean(p[field])
}

// OptionalBool is Bool but keeps absence as nil.
func (p Payload) OptionalBool(field string) *bool {
	if !p.Present(field) {
		return nil
	}

	b := NormalizeBoolean(p[field])
	return &b
}

func (p Payload) Time(field string) *time.Time {
	if !p.Present(field) {
		return nil
	}

	t, ok := toTime(p[field])
	if !ok {
		return nil
	}

	return &t
}

func toString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}

	return "", false
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	}

	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}

	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}

	return time.Time{}, false
}
