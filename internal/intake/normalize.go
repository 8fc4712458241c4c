package intake

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// BuildFullName composes a display name from first_name/last_name, falling
// back to full_name. Returns nil when no name part was supplied.
func BuildFullName(p Payload) *string {
	first := p.String("first_name")
	last := p.String("last_name")

	switch {
	case first != nil && last != nil:
		name := strings.TrimSpace(*first + " " + *last)
		return &name
	case first != nil:
		return first
	case last != nil:
		return last
	}

	return p.String("full_name")
}

// NormalizeBoolean coerces the encodings form and JSON submissions use for
// booleans. Anything unrecognized is false.
func NormalizeBoolean(v any) bool {
	b, _ := parseBoolean(v)
	return b
}

// parseBoolean reports the coerced value and whether v was a recognized
// encoding at all.
func parseBoolean(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case int:
		return t == 1, t == 0 || t == 1
	case int64:
		return t == 1, t == 0 || t == 1
	case float64:
		return t == 1, t == 0 || t == 1
	case json.Number:
		return t.String() == "1", t.String() == "0" || t.String() == "1"
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "on", "yes":
			return true, true
		case "false", "0", "off", "no":
			return false, true
		}
	}

	return false, false
}

// NormalizeFileList converts a file field into an ordered list of stored
// paths. It accepts a single path, a list of paths, or a JSON-encoded list.
// Entries that are not strings (raw uploads that were never stored) are
// dropped, and an empty result is nil.
func NormalizeFileList(v any) []string {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if looksLikeJSONArray(s) {
			return decodeStringArray(s)
		}
		return []string{s}
	case []string:
		return compactStrings(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, entry := range t {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
		return compactStrings(out)
	}

	return nil
}

// NormalizeIntList is NormalizeFileList for id lists: entries that are not
// integers are dropped.
func NormalizeIntList(v any) []int64 {
	var entries []any

	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if looksLikeJSONArray(s) {
			return decodeIntArray(s)
		}
		entries = []any{s}
	case []any:
		entries = t
	case []string:
		for _, s := range t {
			entries = append(entries, s)
		}
	case []int:
		for _, n := range t {
			entries = append(entries, n)
		}
	case []int64:
		for _, n := range t {
			entries = append(entries, n)
		}
	default:
		if n, ok := toInt64(v); ok {
			return []int64{n}
		}
		return nil
	}

	out := make([]int64, 0, len(entries))
	for _, entry := range entries {
		if n, ok := toInt64(entry); ok {
			out = append(out, n)
		}
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

func looksLikeJSONArray(s string) bool {
	return strings.HasPrefix(s, "[")
}

// validJSONArray reports whether s decodes to a JSON array.
func validJSONArray(s string) bool {
	return gjson.Valid(s) && gjson.Parse(s).IsArray()
}

func decodeStringArray(s string) []string {
	if !validJSONArray(s) {
		return nil
	}

	out := make([]string, 0)
	gjson.Parse(s).ForEach(func(_, value gjson.Result) bool {
		if value.Type == gjson.String {
			out = append(out, value.Str)
		}
		return true
	})

	return compactStrings(out)
}

func decodeIntArray(s string) []int64 {
	if !validJSONArray(s) {
		return nil
	}

	out := make([]int64, 0)
	gjson.Parse(s).ForEach(func(_, value gjson.Result) bool {
		switch value.Type {
		case gjson.Number:
			if n, ok := toInt64(json.Number(value.Raw)); ok {
				out = append(out, n)
			}
		case gjson.String:
			if n, ok := toInt64(value.Str); ok {
				out = append(out, n)
			}
		}
		return true
	})

	if len(out) == 0 {
		return nil
	}

	return out
}

func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}

	if len(out) == 0 {
		return nil
	}

	return out
}
