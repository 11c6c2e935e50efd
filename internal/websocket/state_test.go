package websocket

import (
	"testing"

	"fpp-ws/internal/fpp"

	"github.com/stretchr/testify/assert"
)

func TestNewPlaybackStateNilStatus(t *testing.T) {
	state := newPlaybackState(nil, true, []string{"Main Show"}, "")
	assert.False(t, state.Available)
	assert.Equal(t, string(fpp.StateIdle), state.State)
	assert.Empty(t, state.Sources)
}

func TestNewPlaybackStatePlaying(t *testing.T) {
	status := &fpp.PlayerStatus{
		State:         fpp.StatePlaying,
		DaemonRunning: true,
		Volume:        40,
		Sequence:      "Xmas_Show.fseq",
		Playlist:      "Main Show",
		Elapsed:       12,
		Remaining:     48,
	}

	state := newPlaybackState(status, true, []string{"Main Show"}, "http://fpp.local:80/api/file/Images/Xmas_Show.jpg")

	assert.True(t, state.Available)
	assert.Equal(t, "playing", state.State)
	assert.Equal(t, "Xmas_Show", state.Title)
	assert.Equal(t, "Main Show", state.Playlist)
	assert.Equal(t, 40, state.Volume)
	assert.Equal(t, 12, state.Elapsed)
	assert.Equal(t, 60, state.Duration)
	assert.Equal(t, "http://fpp.local:80/api/file/Images/Xmas_Show.jpg", state.CoverArt)
	assert.Equal(t, []string{"Main Show"}, state.Sources)
}

func TestNewPlaybackStateIdleOmitsMediaFields(t *testing.T) {
	status := &fpp.PlayerStatus{
		State:         fpp.StateIdle,
		DaemonRunning: true,
		Volume:        40,
		Sequence:      "leftover.fseq",
	}

	state := newPlaybackState(status, true, nil, "ignored")

	assert.True(t, state.Available)
	assert.Empty(t, state.Title)
	assert.Empty(t, state.CoverArt)
	assert.Zero(t, state.Duration)
}

func TestNewPlaybackStateDaemonStopped(t *testing.T) {
	status := &fpp.PlayerStatus{
		State:    fpp.StatePlaying,
		Volume:   40,
		Sequence: "Xmas_Show.fseq",
	}

	state := newPlaybackState(status, true, []string{"Main Show"}, "ignored")

	assert.False(t, state.Available)
	assert.Equal(t, string(fpp.StateStopped), state.State)
	assert.Equal(t, 40, state.Volume)
	assert.Empty(t, state.Title)
	assert.Empty(t, state.CoverArt)
	assert.Empty(t, state.Sources)
}

func TestPlaybackStateEqual(t *testing.T) {
	base := PlaybackState{
		Available: true,
		State:     "playing",
		Title:     "Xmas_Show",
		Volume:    40,
		Sources:   []string{"Main Show"},
	}

	tests := []struct {
		name     string
		mutate   func(*PlaybackState)
		expected bool
	}{
		{"identical", func(*PlaybackState) {}, true},
		{"volume differs", func(s *PlaybackState) { s.Volume = 50 }, false},
		{"availability differs", func(s *PlaybackState) { s.Available = false }, false},
		{"title differs", func(s *PlaybackState) { s.Title = "Other" }, false},
		{"sources differ", func(s *PlaybackState) { s.Sources = []string{"Other"} }, false},
		{"sources grow", func(s *PlaybackState) { s.Sources = append(s.Sources, "More") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			other.Sources = append([]string(nil), base.Sources...)
			tt.mutate(&other)
			assert.Equal(t, tt.expected, base.equal(other))
		})
	}
}
