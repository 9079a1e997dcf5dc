package agenda

import (
	"fmt"
	"strings"
	"time"

	"upnext/internal/dateparse"
	appLog "upnext/internal/log"
	"upnext/internal/model"
)

// Detail string layouts. All-day items show a date, timed items starting
// today show just the clock, timed items further out show both.
const (
	formatAllDay = "Mon, Jan 2"
	formatToday  = "15:04"
	formatFuture = "Mon, Jan 2 15:04"
)

const rangeSeparator = " – "

// NormalizeEvent converts a raw event row into a display item. ok is false
// when the row falls outside the visibility window.
//
// All-day rows arrive with UTC day boundaries; they are shifted onto the
// same wall-clock reading in the display zone before any comparison or
// formatting. That intentionally changes the absolute instant.
func NormalizeEvent(ev model.Event, now time.Time, opts Options) (model.Item, bool) {
	loc := opts.location()
	begin, end := ev.Start, ev.End
	if ev.AllDay {
		begin = utcToWall(begin, loc)
		end = utcToWall(end, loc)
	}

	later := now.Add(opts.LookAhead)
	if end.Before(now) || begin.After(later) {
		return model.Item{}, false
	}

	multiDay := ev.AllDay && end.Sub(begin) > Day

	var sb strings.Builder
	sb.WriteString(formatWhen(begin, end, ev.AllDay, multiDay, now, loc))
	locationShown := appendOptional(&sb, ev.Location, opts.LocationMode, ": ")
	descSep := ": "
	if locationShown {
		descSep = " - "
	}
	appendOptional(&sb, ev.Description, opts.DescriptionMode, descSep)

	return model.Item{
		ID:     ev.ID,
		Title:  ev.Title,
		Detail: sb.String(),
		Start:  begin,
		End:    end,
		AllDay: ev.AllDay,
	}, true
}

// NormalizeAnniversary converts a raw contact-event row into a display
// item, projecting the stored date onto the current year. label names the
// anniversary type ("Birthday", ...); the contact name is appended to it.
func NormalizeAnniversary(an model.Anniversary, now time.Time, opts Options, label string) (model.Item, bool) {
	parsed, yearKnown, err := dateparse.AnniversaryDate(an.StartDate)
	if err != nil {
		appLog.Debug("skipping unparseable anniversary date",
			"contact", an.DisplayName, "value", an.StartDate)
		return model.Item{}, false
	}

	loc := opts.location()
	// Recurrence projected onto the current year; the stored year (when
	// known) only feeds the age computation below.
	begin := time.Date(now.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, loc)

	// One day of grace before now: the projection can land slightly
	// earlier than an equivalent recurring event instance would.
	if begin.Before(now.Add(-Day)) || begin.After(now.Add(opts.LookAhead)) {
		return model.Item{}, false
	}

	var title strings.Builder
	title.WriteString(label)
	title.WriteString(" ")
	title.WriteString(an.DisplayName)
	if yearKnown && an.Type == model.TypeBirthday {
		title.WriteString(fmt.Sprintf(" (%d)", begin.Year()-parsed.Year()))
	}

	return model.Item{
		ID:          an.ContactID,
		Title:       title.String(),
		Detail:      begin.Format(formatAllDay),
		Start:       begin,
		End:         begin.Add(Day),
		AllDay:      true,
		Anniversary: true,
	}, true
}

// utcToWall reinterprets t's UTC civil reading in loc, shifting the
// absolute instant so the wall clock stays put.
func utcToWall(t time.Time, loc *time.Location) time.Time {
	u := t.In(time.UTC)
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), loc)
}

func formatWhen(begin, end time.Time, allDay, multiDay bool, now time.Time, loc *time.Location) string {
	layout := formatFuture
	switch {
	case allDay:
		layout = formatAllDay
	case sameDay(begin, now, loc):
		layout = formatToday
	}

	if (allDay && !multiDay) || begin.Equal(end) {
		return begin.In(loc).Format(layout)
	}
	return begin.In(loc).Format(layout) + rangeSeparator + end.In(loc).Format(layout)
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// appendOptional appends text per mode, reduced to its first line when the
// mode asks for that. Missing text is tolerated and simply omitted. The
// return value reports whether anything was written.
func appendOptional(sb *strings.Builder, text string, mode DetailMode, sep string) bool {
	if mode == ShowNever || text == "" {
		return false
	}
	if mode == ShowFirstLine {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i]
		}
	}
	sb.WriteString(sep)
	sb.WriteString(text)
	return true
}
