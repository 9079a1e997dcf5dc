// Package agenda is the aggregation core: it normalizes raw event and
// anniversary rows into display items, keeps them in a bounded ordered
// store, and computes the next instant the displayed set can change so a
// single wake-up can be armed.
package agenda

import "time"

// DetailMode controls how an optional text field contributes to an item's
// detail string.
type DetailMode int

const (
	ShowNever DetailMode = iota
	ShowFirstLine
	ShowAlways
)

// Day is the calendar-day duration used for window padding, the mandatory
// refresh horizon and the multi-day test.
const Day = 24 * time.Hour

// DefaultMaxItems caps the store when Options leaves MaxItems unset.
const DefaultMaxItems = 100

// DefaultUpcomingFromHour is the hour of day from which today's items are
// treated as upcoming.
const DefaultUpcomingFromHour = 20

// Options captures the display configuration one refresh runs under.
type Options struct {
	// LookAhead bounds how far into the future items are admitted.
	LookAhead time.Duration
	// MaxItems bounds the store size after aggregation.
	MaxItems int

	RemindersOnly     bool
	ShowAllDay        bool
	ShowAnniversaries bool

	LocationMode    DetailMode
	DescriptionMode DetailMode

	HighlightUpcoming bool
	UpcomingFromHour  int

	// Calendars is the allow-list of source calendar IDs. Empty means all.
	Calendars []string

	// Location is the display timezone. nil means time.Local.
	Location *time.Location
}

func (o Options) maxItems() int {
	if o.MaxItems <= 0 {
		return DefaultMaxItems
	}
	return o.MaxItems
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

func (o Options) upcomingFromHour() time.Duration {
	h := o.UpcomingFromHour
	if h < 0 || h > 23 {
		h = DefaultUpcomingFromHour
	}
	return time.Duration(h) * time.Hour
}
