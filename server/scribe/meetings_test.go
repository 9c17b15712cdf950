package scribe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMeetingURL(t *testing.T) {
	testCases := []struct {
		url     string
		wantErr bool
	}{
		{"https://meet.google.com/abc-defg-hij", false},
		{"https://meet.google.com/xyz-abcd-efg", false},
		{"", true},
		{"https://meet.google.com/abcdefghij", true},
		{"https://meet.google.com/abc-defg-hij/extra", true},
		{"https://meet.google.com/ABC-DEFG-HIJ", true},
		{"https://meet.google.com/ab-defg-hij", true},
		{"http://meet.google.com/abc-defg-hij", true},
		{"https://zoom.us/j/123456789", true},
		{"https://teams.microsoft.com/l/meetup-join/xyz", true},
		{"meet.google.com/abc-defg-hij", true},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			err := ValidateMeetingURL(tc.url)
			if tc.wantErr {
				require.Error(t, err)
				var iae *InvalidArgumentError
				require.ErrorAs(t, err, &iae)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDetectMeetingProvider(t *testing.T) {
	assert.Equal(t, ProviderGoogleMeet, DetectMeetingProvider("https://meet.google.com/abc-defg-hij"))
	assert.Equal(t, ProviderZoom, DetectMeetingProvider("https://us02web.zoom.us/j/123"))
	assert.Equal(t, ProviderTeams, DetectMeetingProvider("https://teams.microsoft.com/l/meetup-join/xyz"))
	assert.Equal(t, ProviderOther, DetectMeetingProvider("https://example.com/call"))
}

func TestMeetingStatusCanTransition(t *testing.T) {
	testCases := []struct {
		from, to MeetingStatus
		want     bool
	}{
		{MeetingStatusScheduled, MeetingStatusJoining, true},
		{MeetingStatusScheduled, MeetingStatusCancelled, true},
		{MeetingStatusScheduled, MeetingStatusFailed, true},
		{MeetingStatusScheduled, MeetingStatusRecording, false},
		{MeetingStatusScheduled, MeetingStatusCompleted, false},
		{MeetingStatusJoining, MeetingStatusRecording, true},
		{MeetingStatusJoining, MeetingStatusCancelled, true},
		{MeetingStatusJoining, MeetingStatusFailed, true},
		{MeetingStatusJoining, MeetingStatusScheduled, false},
		{MeetingStatusRecording, MeetingStatusTranscribing, true},
		{MeetingStatusRecording, MeetingStatusCancelled, false},
		{MeetingStatusRecording, MeetingStatusFailed, true},
		{MeetingStatusTranscribing, MeetingStatusProcessing, true},
		{MeetingStatusTranscribing, MeetingStatusFailed, true},
		{MeetingStatusProcessing, MeetingStatusCompleted, true},
		{MeetingStatusProcessing, MeetingStatusRecording, false},
		{MeetingStatusFailed, MeetingStatusScheduled, true},
		{MeetingStatusFailed, MeetingStatusFailed, false},
		// terminal states allow nothing
		{MeetingStatusCompleted, MeetingStatusFailed, false},
		{MeetingStatusCompleted, MeetingStatusScheduled, false},
		{MeetingStatusCancelled, MeetingStatusJoining, false},
		{MeetingStatusCancelled, MeetingStatusFailed, false},
		// self transitions and unknown values
		{MeetingStatusRecording, MeetingStatusRecording, false},
		{MeetingStatusScheduled, MeetingStatus("bogus"), false},
		{MeetingStatus("bogus"), MeetingStatusFailed, false},
	}
	for _, tc := range testCases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransition(tc.to))
		})
	}
}

func TestMeetingStatusIsTerminal(t *testing.T) {
	assert.True(t, MeetingStatusCompleted.IsTerminal())
	assert.True(t, MeetingStatusCancelled.IsTerminal())
	assert.False(t, MeetingStatusFailed.IsTerminal())
	assert.False(t, MeetingStatusScheduled.IsTerminal())
}

func TestDefaultMeetingTitle(t *testing.T) {
	now := time.Date(2026, 8, 26, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "Reunião de 26/08/2026 15:04", DefaultMeetingTitle("pt-BR", now))
	assert.Equal(t, "Reunião de 26/08/2026 15:04", DefaultMeetingTitle("pt", now))
	assert.Equal(t, "Meeting 2026-08-26 15:04", DefaultMeetingTitle("en-US", now))
	assert.Equal(t, "Meeting 2026-08-26 15:04", DefaultMeetingTitle("", now))
}
