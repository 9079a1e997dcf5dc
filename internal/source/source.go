// Package source defines the collaborator contracts the aggregation core
// queries, plus shared plumbing (local file change watching). Concrete
// implementations live in the ics and vcf subpackages.
package source

import (
	"context"
	"time"

	"upnext/internal/model"
)

// Filter restricts which event rows a source returns.
type Filter struct {
	// RemindersOnly keeps only events with at least one attached reminder.
	RemindersOnly bool
	// ExcludeAllDay drops whole-day events.
	ExcludeAllDay bool
	// Calendars is an allow-list of calendar IDs. Empty means all.
	Calendars []string
}

// Allows reports whether an event row passes the filter.
func (f Filter) Allows(ev model.Event) bool {
	if f.RemindersOnly && !ev.HasAlarm {
		return false
	}
	if f.ExcludeAllDay && ev.AllDay {
		return false
	}
	if len(f.Calendars) > 0 {
		ok := false
		for _, id := range f.Calendars {
			if id == ev.CalendarID {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// EventSource supplies calendar event rows.
type EventSource interface {
	// Events returns rows whose instance overlaps [from, to], sorted by
	// start ascending. Callers pad the range themselves when they need
	// slack for all-day UTC storage skew.
	Events(ctx context.Context, from, to time.Time, f Filter) ([]model.Event, error)

	// NextStart returns the start of the earliest event instance starting
	// strictly after `after` and no later than `until`. ok is false when
	// no such instance is known.
	NextStart(ctx context.Context, after, until time.Time, f Filter) (start time.Time, ok bool, err error)
}

// AnniversarySource supplies contact anniversary rows, sorted by stored
// date string ascending.
type AnniversarySource interface {
	Anniversaries(ctx context.Context) ([]model.Anniversary, error)
}
