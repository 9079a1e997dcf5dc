package agenda

import (
	"context"
	"time"

	appLog "upnext/internal/log"
	"upnext/internal/model"
	"upnext/internal/source"
)

// Aggregator merges both sources into a fresh Store. A source failure is
// treated as that source returning no rows; the other source's items still
// land in the store.
type Aggregator struct {
	Events        source.EventSource
	Anniversaries source.AnniversarySource

	// Label resolves the localized anniversary type name used as the
	// title prefix. Custom-typed rows use their own label instead.
	Label func(model.AnniversaryType) string
}

// Refresh runs one aggregation pass at the given instant and returns the
// new store. It never fails; partial results are better than none.
func (a *Aggregator) Refresh(ctx context.Context, now time.Time, opts Options) *Store {
	later := now.Add(opts.LookAhead)
	filter := source.Filter{
		RemindersOnly: opts.RemindersOnly,
		ExcludeAllDay: !opts.ShowAllDay,
		Calendars:     opts.Calendars,
	}
	max := opts.maxItems()

	items := make([]model.Item, 0, max)

	if a.Events != nil {
		// All-day rows are stored with UTC boundaries, so the query window
		// is padded by a day on each side; the normalizer re-filters after
		// shifting them into the display zone.
		rows, err := a.Events.Events(ctx, now.Add(-Day), later.Add(Day), filter)
		if err != nil {
			appLog.Error("event source query failed, proceeding without events", err)
			rows = nil
		}
		for _, ev := range rows {
			if len(items) >= max {
				break
			}
			if it, ok := NormalizeEvent(ev, now, opts); ok {
				items = append(items, it)
			}
		}
	}

	if opts.ShowAnniversaries && a.Anniversaries != nil {
		rows, err := a.Anniversaries.Anniversaries(ctx)
		if err != nil {
			appLog.Error("anniversary source query failed, proceeding without anniversaries", err)
			rows = nil
		}
		for _, an := range rows {
			if it, ok := NormalizeAnniversary(an, now, opts, a.labelFor(an)); ok {
				items = append(items, it)
			}
		}
		// The cap is applied only after the merge: anniversaries never
		// evict an admitted event, they get dropped themselves.
		if len(items) > max {
			items = items[:max]
		}
	}

	return newStore(items, a.followingEventStart(ctx, now, later, filter))
}

func (a *Aggregator) labelFor(an model.Anniversary) string {
	if an.Type == model.TypeCustom {
		return an.Label
	}
	if a.Label == nil {
		return ""
	}
	return a.Label(an.Type)
}

// followingEventStart looks for the earliest event beyond the look-ahead
// window. Only worth asking when the window ends before the mandatory
// refresh horizon; past that the daily refresh covers it anyway.
func (a *Aggregator) followingEventStart(ctx context.Context, now, later time.Time, filter source.Filter) time.Time {
	horizon := now.Add(Day)
	if !later.Before(horizon) || a.Events == nil {
		return time.Time{}
	}

	start, ok, err := a.Events.NextStart(ctx, later, horizon, filter)
	if err != nil {
		appLog.Error("following event query failed", err)
		return time.Time{}
	}
	if !ok {
		return time.Time{}
	}
	return start
}
