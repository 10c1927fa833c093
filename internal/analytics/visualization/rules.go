package visualization

import (
	"regexp"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/fields"
)

// Rule maps a predicate over the input to a visualization kind.
type Rule struct {
	Name  string
	Kind  Kind
	Match func(Input) bool
}

const (
	pieMaxRows   = 7
	cardsMaxRows = 3
	barMaxRows   = 10
)

var distributionWords = regexp.MustCompile(`(?i)distribution|percentage|breakdown`)

// Rules is evaluated top to bottom; order is significant.
var Rules = []Rule{
	{Name: "empty", Kind: KindNone, Match: func(in Input) bool {
		return len(in.Records) == 0
	}},
	{Name: "timeSeries", Kind: KindCombo, Match: func(in Input) bool {
		return in.Profile.TimeBucketed && len(seriesKeys(in.Records)) >= 2
	}},
	{Name: "distribution", Kind: KindPie, Match: func(in Input) bool {
		return in.Profile.CountStyle && len(in.Records) <= pieMaxRows && distributionWords.MatchString(in.Question)
	}},
	{Name: "countStyle", Kind: KindBar, Match: func(in Input) bool {
		return in.Profile.CountStyle
	}},
	{Name: "singleAggregate", Kind: KindBar, Match: func(in Input) bool {
		if len(in.Records) != 1 {
			return false
		}
		r := in.Records[0]
		return r.Has("count") || r.Has("value") || r.Has("percentage")
	}},
	{Name: "fewRows", Kind: KindCards, Match: func(in Input) bool {
		return len(in.Records) <= cardsMaxRows
	}},
	{Name: "dates", Kind: KindTimeline, Match: func(in Input) bool {
		return fields.HasType(in.Fields, fields.TypeDate)
	}},
	{Name: "numbers", Kind: KindBar, Match: func(in Input) bool {
		return fields.HasType(in.Fields, fields.TypeNumber) && len(in.Records) <= barMaxRows
	}},
	{Name: "manyRows", Kind: KindTable, Match: func(in Input) bool {
		return len(in.Records) > barMaxRows
	}},
	{Name: "default", Kind: KindCards, Match: func(Input) bool {
		return true
	}},
}

// seriesKeys lists the numeric keys of the first record that can act as
// chart series. Date parts are bucket coordinates, not series.
func seriesKeys(records []*analytics.Record) []string {
	for _, r := range records {
		if r != nil {
			return analytics.NumericKeys(r, "_id", "year", "month", "day")
		}
	}
	return nil
}
