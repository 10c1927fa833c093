package analytics

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// UnassignedLabel names groups whose key is null.
const UnassignedLabel = "Unassigned"

var isoDatePrefix = regexp.MustCompile(`^\d{4}[-/]\d{2}[-/]\d{2}`)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// LooksLikeDate reports whether s starts with a YYYY-MM-DD or YYYY/MM/DD date.
func LooksLikeDate(s string) bool {
	return isoDatePrefix.MatchString(s)
}

// ParseDate parses the date formats produced by the query backend.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if len(s) >= 10 && LooksLikeDate(s) {
		if t, err := time.Parse("2006-01-02", strings.ReplaceAll(s[:10], "/", "-")); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatNumber renders a number without a trailing fraction when integral.
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Stringify renders any record value as plain text. Nested records are
// rendered as JSON.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return FormatNumber(val)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, e := range val {
			parts = append(parts, Stringify(e))
		}
		return strings.Join(parts, ", ")
	case *Record:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// JoinValues joins the values of a record with ", ".
func JoinValues(r *Record) string {
	parts := make([]string, 0, r.Len())
	for _, k := range r.Keys() {
		parts = append(parts, Stringify(r.Value(k)))
	}
	return strings.Join(parts, ", ")
}

// IsPrimitive reports whether v is a string, number or bool.
func IsPrimitive(v any) bool {
	switch v.(type) {
	case string, float64, bool:
		return true
	}
	return false
}

// IsNonEmptyArray reports whether v is an array with at least one element.
func IsNonEmptyArray(v any) bool {
	arr, ok := v.([]any)
	return ok && len(arr) > 0
}

var labelKeys = []string{"name", "title", "label", "status", "priority", "severity", "role", "collection"}

// ReadableLabel extracts a display label from a group key or any value.
// Null keys become "Unassigned"; date buckets become human dates.
func ReadableLabel(v any) string {
	switch val := v.(type) {
	case nil:
		return UnassignedLabel
	case string:
		if val == "" {
			return UnassignedLabel
		}
		return val
	case *Record:
		if label, _, ok := BucketLabel(val); ok {
			return label
		}
		for _, k := range labelKeys {
			if s, ok := val.Value(k).(string); ok && s != "" {
				return s
			}
		}
		if val.Len() == 0 {
			return UnassignedLabel
		}
		return JoinValues(val)
	}
	return Stringify(v)
}

// FirstString returns the first non-empty string value of r, skipping keys
// in exclude.
func FirstString(r *Record, exclude ...string) (string, string, bool) {
	for _, k := range r.Keys() {
		if contains(exclude, k) {
			continue
		}
		if s, ok := r.Value(k).(string); ok && s != "" {
			return k, s, true
		}
	}
	return "", "", false
}

// FirstNumber returns the first numeric value of r, skipping keys in exclude.
func FirstNumber(r *Record, exclude ...string) (string, float64, bool) {
	for _, k := range r.Keys() {
		if contains(exclude, k) {
			continue
		}
		if f, ok := r.Value(k).(float64); ok {
			return k, f, true
		}
	}
	return "", 0, false
}

// NumericKeys lists the keys holding numbers, in order.
func NumericKeys(r *Record, exclude ...string) []string {
	var keys []string
	for _, k := range r.Keys() {
		if contains(exclude, k) {
			continue
		}
		if _, ok := r.Value(k).(float64); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
