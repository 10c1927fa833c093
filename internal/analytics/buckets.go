package analytics

import (
	"strconv"
	"time"
)

// Date bucket keys produced by $group stages on date parts.
var bucketKeys = []string{"year", "month", "date"}

// IsDateBucket reports whether r carries year, month or date parts.
func IsDateBucket(r *Record) bool {
	if r == nil {
		return false
	}
	for _, k := range bucketKeys {
		if r.Has(k) {
			return true
		}
	}
	return false
}

// BucketLabel turns a {year, month, day} or {date} record into a display
// label and the instant it starts at.
func BucketLabel(r *Record) (string, time.Time, bool) {
	if r == nil {
		return "", time.Time{}, false
	}
	if raw, ok := r.Value("date").(string); ok {
		if t, ok := ParseDate(raw); ok {
			return t.Format("Jan 2, 2006"), t, true
		}
		return raw, time.Time{}, false
	}
	year, hasYear := r.Number("year")
	month, hasMonth := r.Number("month")
	day, hasDay := r.Number("day")
	switch {
	case hasYear && hasMonth && hasDay:
		t := time.Date(int(year), time.Month(int(month)), int(day), 0, 0, 0, 0, time.UTC)
		return t.Format("Jan 2, 2006"), t, true
	case hasYear && hasMonth:
		t := time.Date(int(year), time.Month(int(month)), 1, 0, 0, 0, 0, time.UTC)
		return t.Format("Jan 2006"), t, true
	case hasYear:
		t := time.Date(int(year), time.January, 1, 0, 0, 0, 0, time.UTC)
		return strconv.Itoa(int(year)), t, true
	case hasMonth:
		t := time.Date(0, time.Month(int(month)), 1, 0, 0, 0, 0, time.UTC)
		return t.Format("January"), t, true
	}
	return "", time.Time{}, false
}

// RecordBucket finds the time bucket of a grouped row, looking at an object
// _id first and at top-level date parts second.
func RecordBucket(r *Record) (string, time.Time, bool) {
	if id, ok := r.Value("_id").(*Record); ok && IsDateBucket(id) {
		return BucketLabel(id)
	}
	if IsDateBucket(r) {
		return BucketLabel(r)
	}
	return "", time.Time{}, false
}
