package websocket

import "fpp-ws/internal/fpp"

// PlaybackState is the client-facing data structure pushed to WebSocket
// consumers and served on /api/state.
type PlaybackState struct {
	Available  bool     `json:"available"`
	State      string   `json:"state"`
	Title      string   `json:"title,omitempty"`
	Playlist   string   `json:"playlist,omitempty"`
	Volume     int      `json:"volume"`
	Elapsed    int      `json:"elapsed,omitempty"`
	Duration   int      `json:"duration,omitempty"`
	CoverArt   string   `json:"cover_art,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Brightness *int     `json:"brightness,omitempty"`
}

// newPlaybackState builds the client-facing payload from the last device
// snapshot. A nil status means the device has never answered.
func newPlaybackState(status *fpp.PlayerStatus, available bool, sources []string, coverArt string) PlaybackState {
	if status == nil {
		return PlaybackState{Available: false, State: string(fpp.StateIdle)}
	}
	if !status.DaemonRunning {
		// The API still answers when fppd itself is down; report the
		// device as off rather than echoing a stale playback state.
		return PlaybackState{Available: false, State: string(fpp.StateStopped), Volume: status.Volume}
	}
	state := PlaybackState{
		Available: available,
		State:     string(status.State),
		Volume:    status.Volume,
		Sources:   sources,
	}
	if status.State == fpp.StatePlaying {
		state.Title = status.Title()
		state.Playlist = status.Playlist
		state.Elapsed = status.Elapsed
		state.Duration = status.Duration()
		state.CoverArt = coverArt
	}
	return state
}

// equal compares two payloads field by field; used to suppress redundant
// broadcasts.
func (s PlaybackState) equal(o PlaybackState) bool {
	if s.Available != o.Available ||
		s.State != o.State ||
		s.Title != o.Title ||
		s.Playlist != o.Playlist ||
		s.Volume != o.Volume ||
		s.Elapsed != o.Elapsed ||
		s.Duration != o.Duration ||
		s.CoverArt != o.CoverArt {
		return false
	}
	if (s.Brightness == nil) != (o.Brightness == nil) {
		return false
	}
	if s.Brightness != nil && *s.Brightness != *o.Brightness {
		return false
	}
	if len(s.Sources) != len(o.Sources) {
		return false
	}
	for i := range s.Sources {
		if s.Sources[i] != o.Sources[i] {
			return false
		}
	}
	return true
}
