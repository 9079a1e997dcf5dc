// Package ics implements the calendar event source on top of subscribed
// ICS feeds: conditional-GET fetching with a disk cache, VEVENT parsing
// and recurrence expansion. Recurrence never leaks past this package; the
// aggregation core only ever sees concrete instances.
package ics

import (
	"context"
	"sort"
	"time"

	appLog "upnext/internal/log"
	"upnext/internal/model"
	"upnext/internal/source"
)

// Source serves event rows from one or more ICS feeds.
type Source struct {
	fetcher *Fetcher
	feeds   []Feed
}

var _ source.EventSource = (*Source)(nil)

// NewSource builds an event source over the given feeds.
func NewSource(fetcher *Fetcher, feeds []Feed) *Source {
	return &Source{fetcher: fetcher, feeds: feeds}
}

// Events implements source.EventSource. A feed that fails to fetch or
// parse contributes no rows; the remaining feeds still answer.
func (s *Source) Events(ctx context.Context, from, to time.Time, f source.Filter) ([]model.Event, error) {
	rows := make([]model.Event, 0)

	for _, res := range s.fetcher.FetchAll(ctx, s.feeds) {
		parsed, err := parseFeed(res.Feed, res.Body)
		if err != nil {
			appLog.Error("ics feed unusable", err, "id", res.Feed.ID)
			continue
		}
		for _, ev := range expandRange(parsed, from, to) {
			if f.Allows(ev) {
				rows = append(rows, ev)
			}
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Start.Equal(rows[j].Start) {
			return rows[i].ID < rows[j].ID
		}
		return rows[i].Start.Before(rows[j].Start)
	})
	return rows, nil
}

// NextStart implements source.EventSource.
func (s *Source) NextStart(ctx context.Context, after, until time.Time, f source.Filter) (time.Time, bool, error) {
	rows, err := s.Events(ctx, after, until, f)
	if err != nil {
		return time.Time{}, false, err
	}
	for _, ev := range rows {
		if ev.Start.After(after) {
			return ev.Start, true, nil
		}
	}
	return time.Time{}, false, nil
}
