package agenda

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"upnext/internal/model"
	"upnext/internal/source"
)

// MockEventSource simulates the calendar collaborator.
type MockEventSource struct {
	mock.Mock
}

func (m *MockEventSource) Events(ctx context.Context, from, to time.Time, f source.Filter) ([]model.Event, error) {
	args := m.Called(ctx, from, to, f)
	if rows := args.Get(0); rows != nil {
		return rows.([]model.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEventSource) NextStart(ctx context.Context, after, until time.Time, f source.Filter) (time.Time, bool, error) {
	args := m.Called(ctx, after, until, f)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

// MockAnniversarySource simulates the address book collaborator.
type MockAnniversarySource struct {
	mock.Mock
}

func (m *MockAnniversarySource) Anniversaries(ctx context.Context) ([]model.Anniversary, error) {
	args := m.Called(ctx)
	if rows := args.Get(0); rows != nil {
		return rows.([]model.Anniversary), args.Error(1)
	}
	return nil, args.Error(1)
}

func staticLabel(model.AnniversaryType) string { return "Birthday" }

func timedEvents(now time.Time, n int) []model.Event {
	out := make([]model.Event, 0, n)
	for i := 0; i < n; i++ {
		start := now.Add(time.Duration(i+1) * time.Hour)
		out = append(out, model.Event{
			ID:    int64(i + 1),
			Title: fmt.Sprintf("event %d", i+1),
			Start: start,
			End:   start.Add(30 * time.Minute),
		})
	}
	return out
}

func anniversaries(now time.Time, n int) []model.Anniversary {
	out := make([]model.Anniversary, 0, n)
	for i := 0; i < n; i++ {
		d := now.AddDate(0, 0, i%5) // all within the window
		out = append(out, model.Anniversary{
			ContactID:   int64(100 + i),
			DisplayName: fmt.Sprintf("contact %d", i+1),
			StartDate:   fmt.Sprintf("--%02d-%02d", d.Month(), d.Day()),
			Type:        model.TypeBirthday,
		})
	}
	return out
}

func TestRefresh_CapAppliedAfterMerge(t *testing.T) {
	// 15 qualifying events plus 10 qualifying anniversaries with a cap of
	// 20: all events survive, the first 5 anniversaries follow, the rest
	// are dropped.
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	opts := baseOptions()
	opts.ShowAnniversaries = true

	events := new(MockEventSource)
	events.On("Events", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(timedEvents(now, 15), nil)

	annivs := new(MockAnniversarySource)
	annivs.On("Anniversaries", mock.Anything).Return(anniversaries(now, 10), nil)

	agg := &Aggregator{Events: events, Anniversaries: annivs, Label: staticLabel}
	st := agg.Refresh(context.Background(), now, opts)

	require.Equal(t, 20, st.Len())
	for i := 0; i < 15; i++ {
		assert.Equal(t, int64(i+1), st.At(i).ID)
		assert.False(t, st.At(i).Anniversary)
	}
	for i := 15; i < 20; i++ {
		assert.Equal(t, int64(100+i-15), st.At(i).ID)
		assert.True(t, st.At(i).Anniversary)
	}
}

func TestRefresh_NeverExceedsMaxItems(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	opts := baseOptions()
	opts.MaxItems = 7

	events := new(MockEventSource)
	events.On("Events", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(timedEvents(now, 50), nil)

	agg := &Aggregator{Events: events}
	st := agg.Refresh(context.Background(), now, opts)

	assert.Equal(t, 7, st.Len())
}

func TestRefresh_QueryWindowIsPadded(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	opts := baseOptions()

	events := new(MockEventSource)
	events.On("Events", mock.Anything,
		mock.MatchedBy(func(from time.Time) bool { return from.Equal(now.Add(-Day)) }),
		mock.MatchedBy(func(to time.Time) bool { return to.Equal(now.Add(opts.LookAhead + Day)) }),
		mock.Anything,
	).Return(nil, nil)

	agg := &Aggregator{Events: events}
	agg.Refresh(context.Background(), now, opts)

	events.AssertExpectations(t)
}

func TestRefresh_FilterBuiltFromOptions(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	opts := baseOptions()
	opts.RemindersOnly = true
	opts.ShowAllDay = false
	opts.Calendars = []string{"work"}

	events := new(MockEventSource)
	events.On("Events", mock.Anything, mock.Anything, mock.Anything,
		source.Filter{RemindersOnly: true, ExcludeAllDay: true, Calendars: []string{"work"}},
	).Return(nil, nil)

	agg := &Aggregator{Events: events}
	agg.Refresh(context.Background(), now, opts)

	events.AssertExpectations(t)
}

func TestRefresh_SourceFailureYieldsPartialResults(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	opts := baseOptions()
	opts.ShowAnniversaries = true

	events := new(MockEventSource)
	events.On("Events", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("calendar backend down"))

	annivs := new(MockAnniversarySource)
	annivs.On("Anniversaries", mock.Anything).Return(anniversaries(now, 3), nil)

	agg := &Aggregator{Events: events, Anniversaries: annivs, Label: staticLabel}
	st := agg.Refresh(context.Background(), now, opts)

	assert.Equal(t, 3, st.Len(), "anniversaries still aggregate when the event source fails")
	for _, it := range st.Items() {
		assert.True(t, it.Anniversary)
	}
}

func TestRefresh_Idempotent(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	opts := baseOptions()
	opts.ShowAnniversaries = true

	events := new(MockEventSource)
	events.On("Events", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(timedEvents(now, 5), nil)
	annivs := new(MockAnniversarySource)
	annivs.On("Anniversaries", mock.Anything).Return(anniversaries(now, 2), nil)

	agg := &Aggregator{Events: events, Anniversaries: annivs, Label: staticLabel}
	first := agg.Refresh(context.Background(), now, opts)
	second := agg.Refresh(context.Background(), now, opts)

	assert.Equal(t, first.Items(), second.Items())
}

func TestRefresh_FollowingEventStartOnlyWithShortLookahead(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	following := now.Add(18 * time.Hour)

	events := new(MockEventSource)
	events.On("Events", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil)
	events.On("NextStart", mock.Anything,
		mock.MatchedBy(func(after time.Time) bool { return after.Equal(now.Add(12 * time.Hour)) }),
		mock.MatchedBy(func(until time.Time) bool { return until.Equal(now.Add(Day)) }),
		mock.Anything,
	).Return(following, true, nil)

	opts := baseOptions()
	opts.LookAhead = 12 * time.Hour

	agg := &Aggregator{Events: events}
	st := agg.Refresh(context.Background(), now, opts)

	assert.True(t, st.FollowingEventStart().Equal(following))
	events.AssertExpectations(t)
}

func TestRefresh_NoFollowingEventQueryWithDayLookahead(t *testing.T) {
	// With a look-ahead of a full day the window already reaches the
	// mandatory refresh horizon; the extra query is pointless.
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)

	events := new(MockEventSource)
	events.On("Events", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil)

	opts := baseOptions()
	opts.LookAhead = Day

	agg := &Aggregator{Events: events}
	st := agg.Refresh(context.Background(), now, opts)

	assert.True(t, st.FollowingEventStart().IsZero())
	events.AssertNotCalled(t, "NextStart", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_AnniversariesDisabledSkipsSource(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, utc2)
	opts := baseOptions()
	opts.ShowAnniversaries = false

	events := new(MockEventSource)
	events.On("Events", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil)
	annivs := new(MockAnniversarySource)

	agg := &Aggregator{Events: events, Anniversaries: annivs, Label: staticLabel}
	agg.Refresh(context.Background(), now, opts)

	annivs.AssertNotCalled(t, "Anniversaries", mock.Anything)
}
