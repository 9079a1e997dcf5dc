package ics

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/teambition/rrule-go"

	appLog "upnext/internal/log"
	"upnext/internal/model"
)

// maxInstancesPerEvent caps recurrence expansion so a malformed rule
// cannot balloon a refresh.
const maxInstancesPerEvent = 1000

const day = 24 * time.Hour

// expandRange expands parsed events into concrete event rows overlapping
// [rangeStart, rangeEnd]. It handles single events, RRULE recurrence, EXDATE
// removal and RECURRENCE-ID overrides. All-day rows come out with UTC day
// boundaries, matching the event-source contract; the aggregation core does
// its own wall-clock conversion.
func expandRange(events []parsedEvent, rangeStart, rangeEnd time.Time) []model.Event {
	baseByUID := make(map[string][]parsedEvent)
	overridesByUID := make(map[string][]parsedEvent)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
		}
	}

	out := make([]model.Event, 0)
	for uid, bases := range baseByUID {
		ov := overridesByUID[uid]
		for _, ev := range bases {
			if ev.RawRRule == "" {
				out = append(out, expandSingle(ev, ov, rangeStart, rangeEnd)...)
			} else {
				out = append(out, expandRecurring(ev, ov, rangeStart, rangeEnd)...)
			}
		}
	}
	return out
}

func expandSingle(ev parsedEvent, overrides []parsedEvent, rangeStart, rangeEnd time.Time) []model.Event {
	if ev.End.Before(rangeStart) || ev.Start.After(rangeEnd) {
		return nil
	}

	start, end := ev.Start, ev.End
	if o, ok := overrideForStart(overrides, start); ok {
		start, end = o.Start, o.End
		ev = o
	}
	return []model.Event{makeRow(ev, start, end)}
}

func expandRecurring(ev parsedEvent, overrides []parsedEvent, rangeStart, rangeEnd time.Time) []model.Event {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Warn("skipping unparseable RRULE", "err", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	instances := set.Between(rangeStart.In(ev.Start.Location()), rangeEnd.In(ev.Start.Location()), true)
	if len(instances) > maxInstancesPerEvent {
		appLog.Warn("recurrence expansion truncated", "uid", ev.UID, "cap", maxInstancesPerEvent)
		instances = instances[:maxInstancesPerEvent]
	}

	duration := ev.End.Sub(ev.Start)
	out := make([]model.Event, 0, len(instances))
	for _, start := range instances {
		end := start.Add(duration)
		base := ev
		if o, ok := overrideForStart(overrides, start); ok {
			start, end = o.Start, o.End
			base = o
		}
		out = append(out, makeRow(base, start, end))
	}
	return out
}

func overrideForStart(overrides []parsedEvent, start time.Time) (parsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.In(start.Location()).Equal(start) {
			return ov, true
		}
	}
	return parsedEvent{}, false
}

// makeRow converts one concrete instance into an event row. All-day
// instances are pinned to UTC midnights spanning whole days.
func makeRow(ev parsedEvent, start, end time.Time) model.Event {
	if ev.AllDay {
		start, end = utcDaySpan(start, end)
	}
	return model.Event{
		ID:          rowID(ev.UID, start),
		CalendarID:  ev.Feed.ID,
		Title:       ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       start,
		End:         end,
		AllDay:      ev.AllDay,
		HasAlarm:    ev.HasAlarm,
	}
}

func utcDaySpan(start, end time.Time) (time.Time, time.Time) {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Round(day) / day)
	if days < 1 {
		days = 1
	}
	return s, s.AddDate(0, 0, days)
}

// rowID derives a stable int64 identity for one event instance, so view
// layers can keep stable row IDs across refreshes.
func rowID(uid string, start time.Time) int64 {
	sum := sha256.Sum256([]byte(uid + "|" + start.UTC().Format(time.RFC3339)))
	id := int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
	return id
}
