package agenda

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upnext/internal/model"
)

// utc2 is a fixed UTC+2 zone so tests don't depend on the host timezone.
var utc2 = time.FixedZone("UTC+2", 2*60*60)

func baseOptions() Options {
	return Options{
		LookAhead:  7 * 24 * time.Hour,
		MaxItems:   20,
		ShowAllDay: true,
		Location:   utc2,
	}
}

func TestNormalizeEvent_TimedEventPassesThrough(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	ev := model.Event{
		ID:    7,
		Title: "Dentist",
		Start: time.Date(2025, 6, 17, 9, 0, 0, 0, utc2),
		End:   time.Date(2025, 6, 17, 9, 30, 0, 0, utc2),
	}

	it, ok := NormalizeEvent(ev, now, baseOptions())
	require.True(t, ok)
	assert.Equal(t, int64(7), it.ID)
	assert.Equal(t, "Dentist", it.Title)
	assert.True(t, it.Start.Equal(ev.Start))
	assert.True(t, it.End.Equal(ev.End))
	assert.False(t, it.AllDay)
	assert.Equal(t, "Tue, Jun 17 09:00 – Tue, Jun 17 09:30", it.Detail)
}

func TestNormalizeEvent_TodayUsesClockOnly(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	ev := model.Event{
		ID:    1,
		Title: "Standup",
		Start: time.Date(2025, 6, 15, 14, 0, 0, 0, utc2),
		End:   time.Date(2025, 6, 15, 14, 15, 0, 0, utc2),
	}

	it, ok := NormalizeEvent(ev, now, baseOptions())
	require.True(t, ok)
	assert.Equal(t, "14:00 – 14:15", it.Detail)
}

func TestNormalizeEvent_AllDayUTCShiftsToLocalWallClock(t *testing.T) {
	// A one-day all-day event stored as UTC midnight-to-midnight must stay
	// a single local-zone day in UTC+2, not leak into the previous day.
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	ev := model.Event{
		ID:     2,
		Title:  "Holiday",
		Start:  time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC),
		AllDay: true,
	}

	it, ok := NormalizeEvent(ev, now, baseOptions())
	require.True(t, ok)
	assert.True(t, it.Start.Equal(time.Date(2025, 6, 17, 0, 0, 0, 0, utc2)))
	assert.True(t, it.End.Equal(time.Date(2025, 6, 18, 0, 0, 0, 0, utc2)))
	assert.Equal(t, Day, it.End.Sub(it.Start), "must remain a single-day span")
	// Single-day all-day items render as a point, not a range.
	assert.Equal(t, "Tue, Jun 17", it.Detail)
}

func TestNormalizeEvent_MultiDayRendersRange(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	ev := model.Event{
		ID:     3,
		Title:  "Conference",
		Start:  time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		AllDay: true,
	}

	it, ok := NormalizeEvent(ev, now, baseOptions())
	require.True(t, ok)
	assert.Equal(t, "Tue, Jun 17 – Fri, Jun 20", it.Detail)
}

func TestNormalizeEvent_WindowFiltering(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	opts := baseOptions()
	opts.LookAhead = 24 * time.Hour

	ended := model.Event{
		ID:    4,
		Start: time.Date(2025, 6, 15, 8, 0, 0, 0, utc2),
		End:   time.Date(2025, 6, 15, 9, 0, 0, 0, utc2),
	}
	_, ok := NormalizeEvent(ended, now, opts)
	assert.False(t, ok, "event already over must be dropped")

	tooFar := model.Event{
		ID:    5,
		Start: time.Date(2025, 6, 16, 11, 0, 0, 0, utc2),
		End:   time.Date(2025, 6, 16, 12, 0, 0, 0, utc2),
	}
	_, ok = NormalizeEvent(tooFar, now, opts)
	assert.False(t, ok, "event past the look-ahead window must be dropped")

	ongoing := model.Event{
		ID:    6,
		Start: time.Date(2025, 6, 15, 9, 0, 0, 0, utc2),
		End:   time.Date(2025, 6, 15, 11, 0, 0, 0, utc2),
	}
	_, ok = NormalizeEvent(ongoing, now, opts)
	assert.True(t, ok, "still-running event must be kept")
}

func TestNormalizeEvent_DetailModes(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	ev := model.Event{
		ID:          8,
		Title:       "Offsite",
		Start:       time.Date(2025, 6, 17, 9, 0, 0, 0, utc2),
		End:         time.Date(2025, 6, 17, 9, 0, 0, 0, utc2),
		Location:    "Main office\nFloor 3",
		Description: "Bring laptop\nAnd charger",
	}
	when := "Tue, Jun 17 09:00"

	tests := []struct {
		name     string
		locMode  DetailMode
		descMode DetailMode
		want     string
	}{
		{"both hidden", ShowNever, ShowNever, when},
		{"location first line", ShowFirstLine, ShowNever, when + ": Main office"},
		{"location full", ShowAlways, ShowNever, when + ": Main office\nFloor 3"},
		{"description only uses colon", ShowNever, ShowFirstLine, when + ": Bring laptop"},
		{"both use dash separator", ShowFirstLine, ShowFirstLine, when + ": Main office - Bring laptop"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := baseOptions()
			opts.LocationMode = tc.locMode
			opts.DescriptionMode = tc.descMode

			it, ok := NormalizeEvent(ev, now, opts)
			require.True(t, ok)
			assert.Equal(t, tc.want, it.Detail)
		})
	}
}

func TestNormalizeEvent_EmptyLocationFallsBackToColon(t *testing.T) {
	// With location display enabled but no location present, the
	// description keeps the plain colon separator.
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	ev := model.Event{
		ID:          9,
		Start:       time.Date(2025, 6, 17, 9, 0, 0, 0, utc2),
		End:         time.Date(2025, 6, 17, 9, 0, 0, 0, utc2),
		Description: "Agenda attached",
	}
	opts := baseOptions()
	opts.LocationMode = ShowAlways
	opts.DescriptionMode = ShowAlways

	it, ok := NormalizeEvent(ev, now, opts)
	require.True(t, ok)
	assert.Equal(t, "Tue, Jun 17 09:00: Agenda attached", it.Detail)
}

func TestNormalizeAnniversary_BirthdayWithKnownYear(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	an := model.Anniversary{
		ContactID:   42,
		DisplayName: "Ada",
		StartDate:   "1984-06-17",
		Type:        model.TypeBirthday,
	}

	it, ok := NormalizeAnniversary(an, now, baseOptions(), "Birthday")
	require.True(t, ok)
	assert.Equal(t, int64(42), it.ID)
	assert.Equal(t, "Birthday Ada (41)", it.Title)
	assert.True(t, it.Start.Equal(time.Date(2025, 6, 17, 0, 0, 0, 0, utc2)))
	assert.Equal(t, Day, it.End.Sub(it.Start))
	assert.True(t, it.AllDay)
	assert.True(t, it.Anniversary)
}

func TestNormalizeAnniversary_YearlessOmitsAge(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	an := model.Anniversary{
		ContactID:   43,
		DisplayName: "Grace",
		StartDate:   "--06-17",
		Type:        model.TypeBirthday,
	}

	it, ok := NormalizeAnniversary(an, now, baseOptions(), "Birthday")
	require.True(t, ok)
	assert.Equal(t, "Birthday Grace", it.Title)
}

func TestNormalizeAnniversary_NonBirthdayOmitsAge(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	an := model.Anniversary{
		ContactID:   44,
		DisplayName: "Linus and Tove",
		StartDate:   "1997-06-17",
		Type:        model.TypeAnniversary,
	}

	it, ok := NormalizeAnniversary(an, now, baseOptions(), "Anniversary")
	require.True(t, ok)
	assert.Equal(t, "Anniversary Linus and Tove", it.Title)
}

func TestNormalizeAnniversary_GracePeriodBeforeNow(t *testing.T) {
	// Today's occurrence projects to local midnight, hours before now; the
	// one-day grace keeps it visible through the whole day.
	now := time.Date(2025, 6, 15, 23, 0, 0, 0, utc2)
	today := model.Anniversary{ContactID: 1, DisplayName: "A", StartDate: "--06-15", Type: model.TypeBirthday}
	_, ok := NormalizeAnniversary(today, now, baseOptions(), "Birthday")
	assert.True(t, ok)

	// Yesterday's midnight is already past the grace window.
	yesterday := model.Anniversary{ContactID: 2, DisplayName: "B", StartDate: "--06-14", Type: model.TypeBirthday}
	_, ok = NormalizeAnniversary(yesterday, now, baseOptions(), "Birthday")
	assert.False(t, ok)
}

func TestNormalizeAnniversary_UnparseableSkipped(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	an := model.Anniversary{ContactID: 3, DisplayName: "C", StartDate: "someday"}

	_, ok := NormalizeAnniversary(an, now, baseOptions(), "Birthday")
	assert.False(t, ok)
}

func TestNormalizeAnniversary_LeapDayWithSeparatelyKnownYear(t *testing.T) {
	// The "--02-29" sentinel parses without a year; the age then comes
	// from a second record carrying the full date.
	// 2025 is not a leap year; the projection normalizes onto March 1st.
	now := time.Date(2025, 2, 25, 10, 0, 0, 0, utc2)

	yearless := model.Anniversary{ContactID: 5, DisplayName: "Leap", StartDate: "--02-29", Type: model.TypeBirthday}
	it, ok := NormalizeAnniversary(yearless, now, baseOptions(), "Birthday")
	require.True(t, ok)
	assert.Equal(t, "Birthday Leap", it.Title, "no age without a year")

	dated := model.Anniversary{ContactID: 5, DisplayName: "Leap", StartDate: "2000-02-29", Type: model.TypeBirthday}
	it, ok = NormalizeAnniversary(dated, now, baseOptions(), "Birthday")
	require.True(t, ok)
	assert.Equal(t, "Birthday Leap (25)", it.Title)
}

func TestNormalizedItems_StartNeverAfterEnd(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	events := []model.Event{
		{ID: 1, Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)},
		{ID: 2, Start: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC), AllDay: true},
	}
	for _, ev := range events {
		if it, ok := NormalizeEvent(ev, now, baseOptions()); ok {
			assert.False(t, it.Start.After(it.End))
		}
	}
}
