// Package stats aggregates classification results and assembles the final
// run report handed to the output formatters.
package stats

import (
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/classify"
)

type CategoryStat struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Aggregate tallies records into per-category counts and percentages. All
// eight categories are always present in the result; with no records every
// category reports 0/0 rather than dividing by zero.
func Aggregate(records []classify.Record) map[classify.Category]CategoryStat {
	counts := make(map[classify.Category]int, len(classify.Categories()))
	for _, c := range classify.Categories() {
		counts[c] = 0
	}
	for _, record := range records {
		counts[record.Category]++
	}

	stats := make(map[classify.Category]CategoryStat, len(counts))
	total := len(records)
	for category, count := range counts {
		stat := CategoryStat{Count: count}
		if total > 0 {
			stat.Percentage = float64(count) / float64(total) * 100
		}
		stats[category] = stat
	}

	return stats
}
