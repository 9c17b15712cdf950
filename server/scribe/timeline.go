package scribe

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ReferenceTimeZoneName is the fixed timezone used for timeline day
// boundaries. Grouping on the server side in one zone keeps the buckets
// deterministic across clients instead of shifting with each viewer.
const ReferenceTimeZoneName = "America/Sao_Paulo"

// ReferenceTimeZone loads the fixed grouping timezone, falling back to UTC
// when tzdata is unavailable.
func ReferenceTimeZone() *time.Location {
	loc, err := time.LoadLocation(ReferenceTimeZoneName)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TimelineEntry is one item of the reconciled meetings view: either a real
// meeting row or a synthetic projection of a calendar event that has no
// meeting dispatched against it yet.
type TimelineEntry struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	MeetingURL       *string       `json:"meeting_url"`
	MeetingProvider  string        `json:"meeting_provider"`
	Status           MeetingStatus `json:"status"`
	ScheduledStart   *time.Time    `json:"scheduled_start"`
	ScheduledEnd     *time.Time    `json:"scheduled_end"`
	DurationSeconds  int           `json:"duration_seconds"`
	ParticipantCount int           `json:"participant_count"`
	CalendarEventID  *string       `json:"calendar_event_id"`
	IsUpcomingEvent  bool          `json:"is_upcoming_event"`
	CreatedAt        time.Time     `json:"created_at"`
}

// TimelineGroup is a named temporal bucket of entries, in the order they
// appear in the sorted timeline.
type TimelineGroup struct {
	Label   string          `json:"label"`
	Entries []TimelineEntry `json:"entries"`
}

// BuildTimeline merges the user's meetings with the calendar events that
// have no meeting dispatched against them yet, producing one deduplicated,
// time-ordered view.
//
// An event already linked from a meeting (by calendar_event_id) is
// suppressed: once the dispatch path creates the meeting row, the synthetic
// projection disappears on the next read without any event deletion.
// Excluded and unconfirmed events never appear, regardless of how the input
// was filtered.
func BuildTimeline(meetings []*Meeting, events []*CalendarEvent, now time.Time, lang string, loc *time.Location) []TimelineGroup {
	if loc == nil {
		loc = time.UTC
	}

	linked := make(map[string]struct{}, len(meetings))
	for _, m := range meetings {
		if m.CalendarEventID != nil {
			linked[*m.CalendarEventID] = struct{}{}
		}
	}

	entries := make([]TimelineEntry, 0, len(meetings)+len(events))
	for _, m := range meetings {
		dur, participants := 0, 0
		if m.DurationSeconds != nil {
			dur = *m.DurationSeconds
		}
		if m.ParticipantCount != nil {
			participants = *m.ParticipantCount
		}
		url := m.MeetingURL
		entries = append(entries, TimelineEntry{
			ID:               m.ID,
			Title:            m.Title,
			MeetingURL:       &url,
			MeetingProvider:  m.MeetingProvider,
			Status:           m.Status,
			ScheduledStart:   m.ScheduledStart,
			ScheduledEnd:     m.ScheduledEnd,
			DurationSeconds:  dur,
			ParticipantCount: participants,
			CalendarEventID:  m.CalendarEventID,
			IsUpcomingEvent:  false,
			CreatedAt:        m.CreatedAt,
		})
	}
	for _, e := range events {
		if e.IsExcluded || e.Status != CalendarEventStatusConfirmed {
			continue
		}
		if _, ok := linked[e.ID]; ok {
			continue
		}
		provider := ProviderOther
		if e.MeetingProvider != nil {
			provider = *e.MeetingProvider
		}
		start, end := e.StartTime, e.EndTime
		eventID := e.ID
		entries = append(entries, TimelineEntry{
			ID:              e.ID,
			Title:           e.Title,
			MeetingURL:      e.MeetingURL,
			MeetingProvider: provider,
			Status:          MeetingStatusScheduled,
			ScheduledStart:  &start,
			ScheduledEnd:    &end,
			CalendarEventID: &eventID,
			IsUpcomingEvent: true,
			CreatedAt:       e.CreatedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entrySortTime(entries[i]).After(entrySortTime(entries[j]))
	})

	return groupTimeline(entries, now, lang, loc)
}

func entrySortTime(e TimelineEntry) time.Time {
	if e.ScheduledStart != nil {
		return *e.ScheduledStart
	}
	return e.CreatedAt
}

// groupTimeline buckets sorted entries into named temporal groups using
// calendar-day boundaries in loc. Group order follows first occurrence in
// the sorted input.
func groupTimeline(entries []TimelineEntry, now time.Time, lang string, loc *time.Location) []TimelineGroup {
	var groups []TimelineGroup
	index := make(map[string]int)

	for _, e := range entries {
		label := timelineGroupLabel(entrySortTime(e), now, lang, loc)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, TimelineGroup{Label: label})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	if groups == nil {
		groups = []TimelineGroup{}
	}
	return groups
}

func timelineGroupLabel(t, now time.Time, lang string, loc *time.Location) string {
	pt := strings.HasPrefix(strings.ToLower(lang), "pt")

	day := dateOnly(t.In(loc))
	today := dateOnly(now.In(loc))

	switch {
	case day.Equal(today):
		if pt {
			return "Hoje"
		}
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		if pt {
			return "Ontem"
		}
		return "Yesterday"
	case day.After(today):
		if pt {
			return "Próximas"
		}
		return "Upcoming"
	}

	dy, dw := day.ISOWeek()
	ty, tw := today.ISOWeek()
	if dy == ty && dw == tw {
		if pt {
			return "Esta semana"
		}
		return "This week"
	}

	return monthYearLabel(day, pt)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

var ptMonths = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

func monthYearLabel(day time.Time, pt bool) string {
	if pt {
		return fmt.Sprintf("%s de %d", ptMonths[day.Month()-1], day.Year())
	}
	return fmt.Sprintf("%s %d", day.Month().String(), day.Year())
}
