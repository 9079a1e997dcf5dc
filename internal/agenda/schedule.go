package agenda

import (
	"time"

	"upnext/internal/model"
)

// NextRefreshAt computes the earliest future instant at which any item's
// visibility or highlighting can change. The result always falls in
// (now, now+Day]: a day never passes unrefreshed, and every candidate
// considered lies strictly after now.
func NextRefreshAt(s *Store, now time.Time, opts Options) time.Time {
	min := now.Add(Day)

	for _, it := range s.Items() {
		if now.Before(it.Start) && it.Start.Before(min) {
			min = it.Start
		}
		if now.Before(it.End) && it.End.Before(min) {
			min = it.End
		}
	}

	// Wake up when the first hidden event enters the look-ahead window.
	if fes := s.FollowingEventStart(); !fes.IsZero() {
		if c := fes.Add(-opts.LookAhead); now.Before(c) && c.Before(min) {
			min = c
		}
	}

	if opts.HighlightUpcoming {
		// Highlighting flips at the upcoming-from hour and at midnight.
		sod := startOfDay(now, opts.location())
		upcomingAt := sod.Add(opts.upcomingFromHour())
		if now.Before(upcomingAt) && upcomingAt.Before(min) {
			min = upcomingAt
		} else if midnight := sod.Add(Day); midnight.Before(min) {
			min = midnight
		}
	}

	return min
}

// Upcoming reports whether an item gets the "next up" styling right now.
// Before the upcoming-from hour that covers items starting today; after
// it, items starting tomorrow as well.
func Upcoming(it model.Item, now time.Time, opts Options) bool {
	sod := startOfDay(now, opts.location())

	var endOfUpcoming time.Time
	if sod.Add(opts.upcomingFromHour()).After(now) {
		endOfUpcoming = sod.Add(Day)
	} else {
		endOfUpcoming = sod.Add(2 * Day)
	}
	return it.Start.Before(endOfUpcoming)
}

func startOfDay(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
