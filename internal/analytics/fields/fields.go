// Package fields derives a column schema from a sample record.
package fields

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/querylens/querylens/internal/analytics"
)

// Type is the semantic type of a field.
type Type string

const (
	TypeText     Type = "text"
	TypeNumber   Type = "number"
	TypeDate     Type = "date"
	TypeBoolean  Type = "boolean"
	TypeID       Type = "id"
	TypeEmail    Type = "email"
	TypeStatus   Type = "status"
	TypePriority Type = "priority"
	TypeSeverity Type = "severity"
	TypeTag      Type = "tag"
)

// Keys with special meaning in grouped results.
const (
	DetailKey     = "tickets"
	TotalCountKey = "_total_count"
)

// Field describes one column of a result set.
type Field struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Type        Type   `json:"type"`
	Sortable    bool   `json:"sortable"`
}

// Analyze derives the field schema from a representative record.
//
// When a record carries a non-empty tickets array the schema describes the
// nested ticket documents instead, prefixed with a _total_count column if
// the parent group has a count.
func Analyze(records []*analytics.Record) []Field {
	rows := analytics.Compact(records)
	if len(rows) == 0 {
		return []Field{}
	}

	if parent, detail := nestedSample(rows); detail != nil {
		out := make([]Field, 0, detail.Len()+1)
		if parent.Has("count") {
			out = append(out, Field{
				Key:         TotalCountKey,
				DisplayName: FormatFieldName(TotalCountKey),
				Type:        TypeNumber,
				Sortable:    true,
			})
		}
		return append(out, fromSample(detail)...)
	}
	return fromSample(rows[0])
}

func nestedSample(rows []*analytics.Record) (*analytics.Record, *analytics.Record) {
	for _, r := range rows {
		items, ok := r.Value(DetailKey).([]any)
		if !ok || len(items) == 0 {
			continue
		}
		for _, item := range items {
			if rec, ok := item.(*analytics.Record); ok {
				return r, rec
			}
		}
	}
	return nil, nil
}

func fromSample(sample *analytics.Record) []Field {
	out := make([]Field, 0, sample.Len())
	for _, key := range sample.Keys() {
		if key == DetailKey {
			continue
		}
		if strings.HasPrefix(key, "_") && key != "_id" {
			continue
		}
		typ := Classify(key, sample.Value(key))
		out = append(out, Field{
			Key:         key,
			DisplayName: FormatFieldName(key),
			Type:        typ,
			Sortable:    typ != TypeTag,
		})
	}
	return out
}

// Classify returns the semantic type of a key/value pair. Name-based rules
// run before value-based ones and the first match wins.
func Classify(key string, value any) Type {
	lower := strings.ToLower(key)
	switch {
	case lower == "id" || lower == "_id" || strings.HasSuffix(lower, "_id"):
		return TypeID
	case lower == "status":
		return TypeStatus
	case lower == "priority":
		return TypePriority
	case lower == "severity":
		return TypeSeverity
	}
	if _, isArray := value.([]any); lower == "tags" || isArray {
		return TypeTag
	}
	if strings.Contains(lower, "date") || strings.HasSuffix(lower, "_at") {
		return TypeDate
	}
	if strings.Contains(lower, "email") {
		return TypeEmail
	}
	switch v := value.(type) {
	case float64:
		return TypeNumber
	case bool:
		return TypeBoolean
	case string:
		if analytics.LooksLikeDate(v) {
			return TypeDate
		}
	}
	return TypeText
}

// FormatFieldName turns a raw key into a display name: "ticket_id" becomes
// "Ticket ID" and "createdAt" becomes "Created At". It is idempotent.
func FormatFieldName(key string) string {
	key = strings.TrimSpace(key)
	lower := strings.ToLower(key)
	if lower == "id" || lower == "_id" {
		return "ID"
	}
	if strings.HasSuffix(lower, "_id") {
		base := FormatFieldName(key[:len(key)-3])
		if base == "" {
			return "ID"
		}
		return base + " ID"
	}

	replaced := strings.NewReplacer("_", " ", "-", " ").Replace(splitCamel(key))
	words := strings.Fields(replaced)
	caser := cases.Title(language.English)
	for i, w := range words {
		if strings.EqualFold(w, "id") {
			words[i] = "ID"
			continue
		}
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

func splitCamel(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// HasType reports whether any field has type t.
func HasType(fields []Field, t Type) bool {
	for _, f := range fields {
		if f.Type == t {
			return true
		}
	}
	return false
}

// Find returns the field with the given key.
func Find(fields []Field, key string) (Field, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}
