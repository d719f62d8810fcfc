package rules

import (
	"time"

	"github.com/perkforge/loyalty-engine/internal/domain"
)

// IsLive reports whether a campaign should be evaluated at the given
// moment. An inactive campaign is never live; a campaign without a schedule
// is always live. Date bounds are inclusive whole days, daysOfWeek uses
// 0=Sunday, and the time window is a lexicographic HH:mm comparison against
// the local clock. The schedule's Timezone field is carried for callers but
// not applied here.
func IsLive(campaign *domain.Campaign, now time.Time) bool {
	if !campaign.Active {
		return false
	}

	schedule := campaign.Schedule
	if schedule == nil {
		return true
	}

	today := truncateToDay(now)
	if schedule.StartDate != nil && today.Before(truncateToDay(*schedule.StartDate)) {
		return false
	}
	if schedule.EndDate != nil && today.After(truncateToDay(*schedule.EndDate)) {
		return false
	}

	if len(schedule.DaysOfWeek) > 0 && !containsDay(schedule.DaysOfWeek, int(now.Weekday())) {
		return false
	}

	clock := now.Format("15:04")
	if schedule.StartTime != "" && clock < schedule.StartTime {
		return false
	}
	if schedule.EndTime != "" && clock > schedule.EndTime {
		return false
	}

	return true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
