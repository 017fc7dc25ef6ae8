package clustering

import (
	"fmt"
	"sort"

	"insightsuite/internal/core"
)

// weeklyTrend buckets the cluster's members by ISO week. Reviews without a
// timestamp are left out; buckets come back in chronological order.
func weeklyTrend(reviews []core.Review, members []int) []core.TrendPoint {
	counts := make(map[string]int)
	for _, idx := range members {
		r := reviews[idx]
		if !r.HasTimestamp() {
			continue
		}
		year, week := r.Timestamp.ISOWeek()
		counts[fmt.Sprintf("%d-W%02d", year, week)]++
	}

	weeks := make([]string, 0, len(counts))
	for w := range counts {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)

	trend := make([]core.TrendPoint, len(weeks))
	for i, w := range weeks {
		trend[i] = core.TrendPoint{Week: w, Count: counts[w]}
	}
	return trend
}
