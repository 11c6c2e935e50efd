package fpp

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// PlayerState is the playback state as reported by fppd.
type PlayerState string

const (
	StateIdle    PlayerState = "idle"
	StatePlaying PlayerState = "playing"
	StatePaused  PlayerState = "paused"
	StateStopped PlayerState = "stopped"
)

// MediaType classifies a playable item.
type MediaType string

const (
	MediaPlaylist MediaType = "playlist"
	MediaSequence MediaType = "sequence"
	MediaFile     MediaType = "media-file"
)

// MediaItem is a single entry in the device's combined media listing.
type MediaItem struct {
	Name string    `json:"name"`
	Type MediaType `json:"type"`
}

// PlayerStatus is a snapshot of the device's self-reported state. It is
// replaced wholesale on every successful refresh and never partially
// updated.
type PlayerStatus struct {
	State         PlayerState `json:"state"`
	DaemonRunning bool        `json:"daemon_running"`
	Volume        int         `json:"volume"`
	Sequence      string      `json:"sequence,omitempty"`
	Song          string      `json:"song,omitempty"`
	Playlist      string      `json:"playlist,omitempty"`
	Elapsed       int         `json:"elapsed"`
	Remaining     int         `json:"remaining"`
	MediaType     MediaType   `json:"media_type,omitempty"`
}

// PlayingFile returns the file currently being played, preferring the
// sequence over a standalone song, or "" when nothing is playing.
func (s *PlayerStatus) PlayingFile() string {
	if s.Sequence != "" {
		return s.Sequence
	}
	return s.Song
}

// Title returns the playing file's name with its media extension stripped,
// suitable for display.
func (s *PlayerStatus) Title() string {
	return strings.TrimSuffix(s.PlayingFile(), path.Ext(s.PlayingFile()))
}

// Duration returns the total length of the playing item in seconds.
func (s *PlayerStatus) Duration() int {
	return s.Elapsed + s.Remaining
}

// systemStatus is the wire schema of GET /api/system/status. Required
// fields are pointers so their absence is detectable; everything else the
// device sends is ignored.
type systemStatus struct {
	Fppd            *string         `json:"fppd"`
	StatusName      *string         `json:"status_name"`
	Volume          *int            `json:"volume"`
	CurrentSequence string          `json:"current_sequence"`
	CurrentSong     string          `json:"current_song"`
	CurrentPlaylist currentPlaylist `json:"current_playlist"`
	SecondsPlayed   json.Number     `json:"seconds_played"`
	SecondsRemain   json.Number     `json:"seconds_remaining"`
}

// currentPlaylist is the nested playlist object inside the status payload.
type currentPlaylist struct {
	Playlist string      `json:"playlist"`
	Index    json.Number `json:"index"`
	Count    json.Number `json:"count"`
}

// validate checks that all required status fields were present.
func (w *systemStatus) validate() error {
	switch {
	case w.Fppd == nil:
		return fmt.Errorf("missing required field %q", "fppd")
	case w.StatusName == nil:
		return fmt.Errorf("missing required field %q", "status_name")
	case w.Volume == nil:
		return fmt.Errorf("missing required field %q", "volume")
	}
	return nil
}

// toStatus converts the wire payload into a public snapshot.
func (w *systemStatus) toStatus() *PlayerStatus {
	st := &PlayerStatus{
		State:         PlayerState(*w.StatusName),
		DaemonRunning: *w.Fppd == "running",
		Volume:        *w.Volume,
		Sequence:      w.CurrentSequence,
		Song:          w.CurrentSong,
		Playlist:      w.CurrentPlaylist.Playlist,
		Elapsed:       numberToInt(w.SecondsPlayed),
		Remaining:     numberToInt(w.SecondsRemain),
	}
	switch {
	case st.Playlist != "":
		st.MediaType = MediaPlaylist
	case st.Sequence != "":
		st.MediaType = MediaSequence
	case st.Song != "":
		st.MediaType = MediaFile
	}
	return st
}

// numberToInt converts a json.Number to int, tolerating the string-typed
// counters older fppd builds emit. Unparseable values become 0.
func numberToInt(n json.Number) int {
	if n == "" {
		return 0
	}
	v, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return int(v)
}
