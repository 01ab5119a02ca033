// File: internal/aggregate/daywise.go
package aggregate

import (
	"sort"
	"time"

	"github.com/confstats/regboard/internal/models"
)

// Daywise reduces a snapshot series to one row per distinct calendar date
// (UTC), keeping the last observation of each date. Rows are ordered by date
// and carry a day index shifted by offset so that day 0 falls on the day
// registration opened.
func Daywise(snapshots []*models.Snapshot, offset int) []*models.DayAggregate {
	if len(snapshots) == 0 {
		return nil
	}

	ordered := make([]*models.Snapshot, len(snapshots))
	copy(ordered, snapshots)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	// Last snapshot wins per date.
	byDate := make(map[time.Time]*models.Snapshot)
	for _, s := range ordered {
		byDate[dateOf(s.Timestamp)] = s
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	aggregates := make([]*models.DayAggregate, 0, len(dates))
	for i, d := range dates {
		s := byDate[d]
		aggregates = append(aggregates, &models.DayAggregate{
			Season:     s.Season,
			Date:       d,
			DayIndex:   i - offset,
			TotalCount: s.TotalCount,
			Status:     s.Status,
			Sponsor:    s.Sponsor,
		})
	}

	return aggregates
}

// dateOf truncates a timestamp to its UTC calendar date.
func dateOf(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

// DayDelta is a per-day difference of a cumulative count.
type DayDelta struct {
	Date     time.Time `json:"date"`
	DayIndex int       `json:"day_index"`
	Delta    int       `json:"delta"`
}

// TotalGains returns the per-day gain of the cumulative total. The first
// aggregate has no predecessor and yields no delta.
func TotalGains(aggregates []*models.DayAggregate) []DayDelta {
	return deltas(aggregates, func(a *models.DayAggregate) int { return a.TotalCount })
}

// CheckinRate returns the per-day gain of the checked-in count over the
// trailing window days. With fewer days available it returns what exists.
func CheckinRate(aggregates []*models.DayAggregate, windowDays int) []DayDelta {
	rate := deltas(aggregates, func(a *models.DayAggregate) int { return a.Status.CheckedIn })
	if windowDays > 0 && len(rate) > windowDays {
		rate = rate[len(rate)-windowDays:]
	}
	return rate
}

func deltas(aggregates []*models.DayAggregate, value func(*models.DayAggregate) int) []DayDelta {
	if len(aggregates) < 2 {
		return nil
	}

	out := make([]DayDelta, 0, len(aggregates)-1)
	for i := 1; i < len(aggregates); i++ {
		out = append(out, DayDelta{
			Date:     aggregates[i].Date,
			DayIndex: aggregates[i].DayIndex,
			Delta:    value(aggregates[i]) - value(aggregates[i-1]),
		})
	}
	return out
}

// Comparison pairs two seasons' day-wise series aligned on day index.
type Comparison struct {
	Current  []*models.DayAggregate `json:"current"`
	Previous []*models.DayAggregate `json:"previous"`
}

// Compare builds a day-aligned year-over-year comparison. Previous may be
// empty, in which case only the current series is drawn.
func Compare(current, previous []*models.DayAggregate) Comparison {
	return Comparison{Current: current, Previous: previous}
}

// MaxDayIndex returns the largest day index across both seasons of c.
func (c Comparison) MaxDayIndex() int {
	max := 0
	for _, aggs := range [][]*models.DayAggregate{c.Current, c.Previous} {
		for _, a := range aggs {
			if a.DayIndex > max {
				max = a.DayIndex
			}
		}
	}
	return max
}
