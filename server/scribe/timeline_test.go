package scribe

import (
	"testing"
	"time"

	"github.com/scribehq/scribe/server/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timelineMeeting(id string, status MeetingStatus, start time.Time, eventID *string) *Meeting {
	return &Meeting{
		ID:              id,
		UserID:          "u1",
		CalendarEventID: eventID,
		Title:           "meeting " + id,
		MeetingURL:      "https://meet.google.com/abc-defg-hij",
		MeetingProvider: ProviderGoogleMeet,
		Status:          status,
		ScheduledStart:  &start,
		CreatedAt:       start,
	}
}

func timelineEvent(id string, start time.Time) *CalendarEvent {
	return &CalendarEvent{
		ID:              id,
		UserID:          "u1",
		ExternalEventID: "ext-" + id,
		Title:           "event " + id,
		MeetingURL:      ptr.String("https://meet.google.com/abc-defg-hij"),
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		Status:          CalendarEventStatusConfirmed,
		CreatedAt:       start,
	}
}

func flattenTimeline(groups []TimelineGroup) []TimelineEntry {
	var entries []TimelineEntry
	for _, g := range groups {
		entries = append(entries, g.Entries...)
	}
	return entries
}

func TestBuildTimelineSuppressesLinkedEvents(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	loc := time.UTC

	linkedEventID := "ev1"
	meetings := []*Meeting{
		timelineMeeting("m1", MeetingStatusScheduled, now.Add(time.Hour), &linkedEventID),
	}
	events := []*CalendarEvent{
		timelineEvent("ev1", now.Add(time.Hour)),
		timelineEvent("ev2", now.Add(2*time.Hour)),
	}

	groups := BuildTimeline(meetings, events, now, "en", loc)
	entries := flattenTimeline(groups)
	require.Len(t, entries, 2)

	var ids []string
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	// ev1 is linked from m1, it must not appear as a synthetic entry
	assert.ElementsMatch(t, []string{"m1", "ev2"}, ids)

	for _, e := range entries {
		switch e.ID {
		case "m1":
			assert.False(t, e.IsUpcomingEvent)
		case "ev2":
			assert.True(t, e.IsUpcomingEvent)
			assert.Equal(t, MeetingStatusScheduled, e.Status)
			assert.Zero(t, e.DurationSeconds)
			assert.Zero(t, e.ParticipantCount)
		}
	}
}

func TestBuildTimelineSkipsExcludedAndUnconfirmedEvents(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	loc := time.UTC

	excluded := timelineEvent("ev-excluded", now.Add(time.Hour))
	excluded.IsExcluded = true
	tentative := timelineEvent("ev-tentative", now.Add(2*time.Hour))
	tentative.Status = CalendarEventStatusTentative
	kept := timelineEvent("ev-kept", now.Add(3*time.Hour))

	events := []*CalendarEvent{excluded, tentative, kept}

	// No linked meetings, so only the exclusion and status checks stand
	// between these events and the timeline.
	entries := flattenTimeline(BuildTimeline(nil, events, now, "en", loc))
	require.Len(t, entries, 1)
	assert.Equal(t, "ev-kept", entries[0].ID)
}

func TestBuildTimelineOrdering(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	loc := time.UTC

	meetings := []*Meeting{
		timelineMeeting("old", MeetingStatusCompleted, now.Add(-48*time.Hour), nil),
		timelineMeeting("recent", MeetingStatusCompleted, now.Add(-2*time.Hour), nil),
	}
	events := []*CalendarEvent{
		timelineEvent("future", now.Add(24*time.Hour)),
	}

	entries := flattenTimeline(BuildTimeline(meetings, events, now, "en", loc))
	require.Len(t, entries, 3)
	assert.Equal(t, "future", entries[0].ID)
	assert.Equal(t, "recent", entries[1].ID)
	assert.Equal(t, "old", entries[2].ID)
}

func TestBuildTimelineGroupLabels(t *testing.T) {
	loc := time.UTC
	// a Wednesday, so Monday of the same ISO week is two days back
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, loc)

	meetings := []*Meeting{
		timelineMeeting("today", MeetingStatusCompleted, now.Add(-time.Hour), nil),
		timelineMeeting("yesterday", MeetingStatusCompleted, now.Add(-24*time.Hour), nil),
		timelineMeeting("weekago", MeetingStatusCompleted, now.Add(-48*time.Hour), nil),
		timelineMeeting("lastmonth", MeetingStatusCompleted, time.Date(2026, 7, 3, 10, 0, 0, 0, loc), nil),
	}
	events := []*CalendarEvent{
		timelineEvent("tomorrow", now.Add(24*time.Hour)),
	}

	groups := BuildTimeline(meetings, events, now, "en", loc)
	var labels []string
	for _, g := range groups {
		labels = append(labels, g.Label)
	}
	assert.Equal(t, []string{"Upcoming", "Today", "Yesterday", "This week", "July 2026"}, labels)

	groupsPT := BuildTimeline(meetings, events, now, "pt-BR", loc)
	labels = labels[:0]
	for _, g := range groupsPT {
		labels = append(labels, g.Label)
	}
	assert.Equal(t, []string{"Próximas", "Hoje", "Ontem", "Esta semana", "julho de 2026"}, labels)
}

func TestBuildTimelineEmpty(t *testing.T) {
	groups := BuildTimeline(nil, nil, time.Now(), "en", time.UTC)
	require.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestBuildTimelineFallsBackToCreatedAt(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	unscheduled := timelineMeeting("adhoc", MeetingStatusCompleted, now.Add(-time.Hour), nil)
	unscheduled.ScheduledStart = nil
	unscheduled.CreatedAt = now.Add(-time.Minute)

	scheduled := timelineMeeting("sched", MeetingStatusCompleted, now.Add(-2*time.Hour), nil)

	entries := flattenTimeline(BuildTimeline([]*Meeting{scheduled, unscheduled}, nil, now, "en", time.UTC))
	require.Len(t, entries, 2)
	assert.Equal(t, "adhoc", entries[0].ID)
	assert.Equal(t, "sched", entries[1].ID)
}
