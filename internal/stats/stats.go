// Package stats aggregates work-log entries over a date range.
//
// Compute is pure: no I/O, no clock, no randomness. Identical input always
// produces identical output.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/starford/lumina/internal/models"
)

// Weekdays are the labels of the most-productive-day buckets, indexed by
// time.Weekday (Sunday = 0).
var Weekdays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Compute derives DashboardStats from the entries dated within [start, end].
// Bounds are inclusive and compared as strings; callers validate them.
func Compute(entries []models.Entry, start, end string) models.DashboardStats {
	filtered := models.FilterRange(entries, start, end)

	st := models.DashboardStats{
		TotalLogs:            len(filtered),
		MostProductiveDay:    models.NoDataDay,
		DailyActivity:        []models.DailyActivity{},
		CategoryDistribution: []models.CategoryShare{},
	}

	daily := make(map[string]int) // date -> index into st.DailyActivity
	categories := make(map[string]int)
	var weekdays [7]int

	for _, e := range filtered {
		st.TotalTasks += len(e.Tasks)
		st.CompletedTasks += e.CompletedTasks()

		i, ok := daily[e.Date]
		if !ok {
			i = len(st.DailyActivity)
			daily[e.Date] = i
			st.DailyActivity = append(st.DailyActivity, models.DailyActivity{Date: e.Date})
		}
		st.DailyActivity[i].Count++
		st.DailyActivity[i].TaskCount += len(e.Tasks)

		cat := e.Category
		if cat == "" {
			cat = models.CategoryUncategorized
		}
		j, ok := categories[cat]
		if !ok {
			j = len(st.CategoryDistribution)
			categories[cat] = j
			st.CategoryDistribution = append(st.CategoryDistribution, models.CategoryShare{Category: cat})
		}
		st.CategoryDistribution[j].Count++

		if d, ok := weekday(e.Date); ok {
			weekdays[d]++
		}
	}

	st.ActiveDays = len(st.DailyActivity)
	st.CompletionRate = percent(st.CompletedTasks, st.TotalTasks)

	sort.SliceStable(st.DailyActivity, func(a, b int) bool {
		return st.DailyActivity[a].Date < st.DailyActivity[b].Date
	})

	// Ties keep first-appearance order.
	for i := range st.CategoryDistribution {
		st.CategoryDistribution[i].Percentage = percent(st.CategoryDistribution[i].Count, st.TotalLogs)
	}
	sort.SliceStable(st.CategoryDistribution, func(a, b int) bool {
		return st.CategoryDistribution[a].Count > st.CategoryDistribution[b].Count
	})

	if st.TotalLogs > 0 {
		st.MostProductiveDay = Weekdays[busiest(weekdays)]
	}
	return st
}

// busiest returns the index of the largest bucket; the lowest index wins ties.
func busiest(buckets [7]int) int {
	best := 0
	for i := 1; i < len(buckets); i++ {
		if buckets[i] > buckets[best] {
			best = i
		}
	}
	return best
}

// percent returns round(100*part/whole), or 0 when whole is 0.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(whole)))
}

// weekday parses a YYYY-MM-DD date as UTC midnight.
func weekday(date string) (time.Weekday, bool) {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return 0, false
	}
	return t.Weekday(), true
}
