package analytics

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/querylens/querylens/internal/utils"
)

// Metadata is the optional execution metadata attached by the query backend.
type Metadata struct {
	ExecutionTime *float64 `json:"executionTime,omitempty"`
	Timestamp     string   `json:"timestamp,omitempty"`
	Collection    string   `json:"collection,omitempty"`
}

// QueryResult is the payload returned by the NLP query backend.
//
// Results holds one entry per array element. Elements that are not JSON
// objects decode to nil and are skipped by every consumer.
type QueryResult struct {
	Query    json.RawMessage `json:"query,omitempty"`
	Results  []*Record       `json:"results"`
	Metadata *Metadata       `json:"metadata,omitempty"`
}

type rawQueryResult struct {
	Query    json.RawMessage `json:"query"`
	Results  json.RawMessage `json:"results"`
	Metadata json.RawMessage `json:"metadata"`
}

// UnmarshalJSON accepts any shape for results; a missing or non-array value
// decodes to an empty result set instead of an error.
func (q *QueryResult) UnmarshalJSON(data []byte) error {
	var raw rawQueryResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q.Query = raw.Query
	q.Metadata = decodeMetadata(raw.Metadata)
	q.Results = nil

	trimmed := bytes.TrimSpace(raw.Results)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	v, err := DecodeValue(trimmed)
	if err != nil {
		return err
	}
	items, _ := v.([]any)
	q.Results = make([]*Record, len(items))
	for i, item := range items {
		if rec, ok := item.(*Record); ok {
			q.Results[i] = rec
		}
	}
	return nil
}

// decodeMetadata keeps the recognised metadata fields and ignores values of
// the wrong type. Anything but an object yields nil.
func decodeMetadata(data json.RawMessage) *Metadata {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	v, err := DecodeValue(trimmed)
	if err != nil {
		return nil
	}
	rec, ok := v.(*Record)
	if !ok {
		return nil
	}

	md := &Metadata{}
	if raw, ok := rec.Get("executionTime"); ok {
		if s, isString := raw.(string); isString {
			raw = json.Number(strings.TrimSpace(s))
		}
		if ms, ok := utils.ToFloat64(raw); ok {
			md.ExecutionTime = &ms
		}
	}
	md.Timestamp, _ = rec.String("timestamp")
	md.Collection, _ = rec.String("collection")
	return md
}

// ParseQueryResult decodes a backend payload.
func ParseQueryResult(data []byte) (*QueryResult, error) {
	var qr QueryResult
	if err := json.Unmarshal(data, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

// ParseRecords decodes a JSON array of objects.
func ParseRecords(data []byte) ([]*Record, error) {
	qr, err := ParseQueryResult(append(append([]byte(`{"results":`), data...), '}'))
	if err != nil {
		return nil, err
	}
	return qr.Results, nil
}

// HasData reports whether the result carries at least one object record.
func (q *QueryResult) HasData() bool {
	if q == nil {
		return false
	}
	return len(Compact(q.Results)) > 0
}

// ExecutionTime returns the backend execution time in milliseconds.
func (q *QueryResult) ExecutionTime() (float64, bool) {
	if q == nil || q.Metadata == nil || q.Metadata.ExecutionTime == nil {
		return 0, false
	}
	return *q.Metadata.ExecutionTime, true
}

// Collection returns the queried collection from the query descriptor,
// falling back to metadata. Pipelines given as arrays use their first stage.
func (q *QueryResult) Collection() string {
	if q == nil {
		return ""
	}
	if len(q.Query) > 0 {
		if v, err := DecodeValue(q.Query); err == nil {
			switch query := v.(type) {
			case *Record:
				if s, ok := query.String("collection"); ok && s != "" {
					return s
				}
			case []any:
				if len(query) > 0 {
					if first, ok := query[0].(*Record); ok {
						if s, ok := first.String("collection"); ok && s != "" {
							return s
						}
					}
				}
			}
		}
	}
	if q.Metadata != nil {
		return q.Metadata.Collection
	}
	return ""
}

// Compact drops nil records.
func Compact(records []*Record) []*Record {
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// NewQueryResult wraps records with an optional collection name, mostly for
// tests and the CLI.
func NewQueryResult(collection string, records ...*Record) *QueryResult {
	qr := &QueryResult{Results: records}
	if collection != "" {
		query, _ := json.Marshal(map[string]string{"collection": collection})
		qr.Query = query
	}
	return qr
}

// WithExecutionTime sets metadata.executionTime.
func (q *QueryResult) WithExecutionTime(ms float64) *QueryResult {
	if q.Metadata == nil {
		q.Metadata = &Metadata{}
	}
	q.Metadata.ExecutionTime = &ms
	q.Metadata.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return q
}
