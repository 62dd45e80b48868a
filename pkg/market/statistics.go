package market

import "math"

// Statistics window keys as the API spells them.
const (
	Window90Days  = "90days"
	Window48Hours = "48hours"
)

// Aggregate is one dated bucket inside a statistics window. Only the median
// is consumed; when the API omits it the field stays nil.
type Aggregate struct {
	Datetime string   `json:"datetime"`
	Volume   int      `json:"volume"`
	Median   *float64 `json:"median"`
}

// StatisticsDocument is the raw /items/{slug}/statistics response body.
type StatisticsDocument struct {
	Payload struct {
		StatisticsClosed map[string][]Aggregate `json:"statistics_closed"`
		StatisticsOpen   map[string][]Aggregate `json:"statistics_open"`
	} `json:"payload"`
}

// ExtractPrice resolves a single platinum price from a statistics document.
// Completed trades over the long window are the strongest signal; open
// listings and the short window are progressively noisier fallbacks:
//
//	statistics_closed 90days -> statistics_open 90days ->
//	statistics_closed 48hours -> statistics_open 48hours
//
// Each stage reads the median of the window's most recent bucket, rounded
// to the nearest integer. An absent or malformed stage falls through to the
// next; when every stage is empty the second return is false.
func ExtractPrice(doc *StatisticsDocument) (int, bool) {
	if doc == nil {
		return 0, false
	}

	closed := doc.Payload.StatisticsClosed
	open := doc.Payload.StatisticsOpen

	stages := []struct {
		section map[string][]Aggregate
		window  string
	}{
		{closed, Window90Days},
		{open, Window90Days},
		{closed, Window48Hours},
		{open, Window48Hours},
	}

	for _, stage := range stages {
		if v, ok := windowMedian(stage.section, stage.window); ok {
			return v, true
		}
	}
	return 0, false
}

// windowMedian reads the last bucket's median for a single window.
func windowMedian(section map[string][]Aggregate, window string) (int, bool) {
	if section == nil {
		return 0, false
	}
	buckets := section[window]
	if len(buckets) == 0 {
		return 0, false
	}
	last := buckets[len(buckets)-1]
	if last.Median == nil {
		return 0, false
	}
	return int(math.Round(*last.Median)), true
}
