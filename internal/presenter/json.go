package presenter

import (
	"encoding/json"

	"github.com/querylens/querylens/internal/analytics"
)

// RawJSON pretty-prints the results array with source key order.
func RawJSON(records []*analytics.Record) ([]byte, error) {
	if records == nil {
		records = []*analytics.Record{}
	}
	return json.MarshalIndent(records, "", "  ")
}
