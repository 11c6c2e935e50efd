package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"fpp-ws/internal/fpp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFPP is an httptest-backed device whose health can be toggled.
type fakeFPP struct {
	mu      sync.Mutex
	broken  bool
	stopped bool
	volume  int
	plugins []string
}

func (f *fakeFPP) setBroken(broken bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broken = broken
}

func (f *fakeFPP) setStopped(stopped bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = stopped
}

func (f *fakeFPP) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/system/status", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		broken, stopped, volume := f.broken, f.stopped, f.volume
		f.mu.Unlock()
		if broken {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		fppd := "running"
		if stopped {
			fppd = "stopped"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"fppd":              fppd,
			"status_name":       "playing",
			"volume":            volume,
			"current_sequence":  "Xmas_Show.fseq",
			"seconds_played":    "12",
			"seconds_remaining": "48",
		})
	})
	mux.HandleFunc("/api/playlists/playable", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{"Main Show"})
	})
	mux.HandleFunc("/api/sequence", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{"Xmas_Show.fseq"})
	})
	mux.HandleFunc("/api/plugin", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		plugins := f.plugins
		f.mu.Unlock()
		if plugins == nil {
			plugins = []string{}
		}
		_ = json.NewEncoder(w).Encode(plugins)
	})
	mux.HandleFunc("/api/plugin-apis/Brightness", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("75"))
	})
	return mux
}

func newPollerUnderTest(t *testing.T, device *fakeFPP) (*Poller, context.CancelFunc) {
	t.Helper()
	srv := httptest.NewServer(device.handler())
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	client := fpp.NewClient(fpp.Config{Host: u.Hostname(), Port: port, Timeout: time.Second})
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return NewPoller(client, hub, time.Second), cancel
}

func TestPollerFirstCycle(t *testing.T) {
	device := &fakeFPP{volume: 40}
	poller, _ := newPollerUnderTest(t, device)

	_, ok := poller.CurrentState()
	assert.False(t, ok)

	poller.UpdateState(context.Background())

	state, ok := poller.CurrentState()
	require.True(t, ok)
	assert.True(t, state.Available)
	assert.Equal(t, "playing", state.State)
	assert.Equal(t, "Xmas_Show", state.Title)
	assert.Equal(t, 40, state.Volume)
	assert.Equal(t, []string{"Main Show", "Xmas_Show"}, state.Sources)
}

func TestPollerBrightness(t *testing.T) {
	device := &fakeFPP{volume: 40, plugins: []string{"fpp-brightness"}}
	poller, _ := newPollerUnderTest(t, device)

	poller.UpdateState(context.Background())

	state, ok := poller.CurrentState()
	require.True(t, ok)
	require.NotNil(t, state.Brightness)
	assert.Equal(t, 75, *state.Brightness)
}

func TestPollerAvailabilityPolicy(t *testing.T) {
	device := &fakeFPP{volume: 40}
	poller, _ := newPollerUnderTest(t, device)

	poller.UpdateState(context.Background())
	device.setBroken(true)

	// Two consecutive failures keep the device available on stale data.
	poller.UpdateState(context.Background())
	poller.UpdateState(context.Background())
	state, _ := poller.CurrentState()
	assert.True(t, state.Available)
	assert.Equal(t, 40, state.Volume)

	// The third failure in a row trips the policy. The stale snapshot
	// stays visible either way.
	poller.UpdateState(context.Background())
	state, _ = poller.CurrentState()
	assert.False(t, state.Available)
	assert.Equal(t, "playing", state.State)
	assert.Equal(t, 40, state.Volume)
}

func TestPollerRecovery(t *testing.T) {
	device := &fakeFPP{volume: 40}
	poller, _ := newPollerUnderTest(t, device)

	device.setBroken(true)
	for i := 0; i < maxConsecutiveFailures; i++ {
		poller.UpdateState(context.Background())
	}
	state, _ := poller.CurrentState()
	assert.False(t, state.Available)

	device.setBroken(false)
	poller.UpdateState(context.Background())
	state, _ = poller.CurrentState()
	assert.True(t, state.Available)
	assert.Equal(t, 40, state.Volume)
}

func TestPollerDaemonStopped(t *testing.T) {
	device := &fakeFPP{volume: 40}
	poller, _ := newPollerUnderTest(t, device)

	poller.UpdateState(context.Background())
	state, _ := poller.CurrentState()
	assert.True(t, state.Available)

	// The API keeps answering after fppd itself goes down. That counts
	// as off, not as a playing device with stale data.
	device.setStopped(true)
	poller.UpdateState(context.Background())
	state, _ = poller.CurrentState()
	assert.False(t, state.Available)
	assert.Equal(t, "stopped", state.State)
	assert.Equal(t, 40, state.Volume)

	device.setStopped(false)
	poller.UpdateState(context.Background())
	state, _ = poller.CurrentState()
	assert.True(t, state.Available)
	assert.Equal(t, "playing", state.State)
}

func TestPollerNeverReachedDevice(t *testing.T) {
	device := &fakeFPP{volume: 40}
	poller, _ := newPollerUnderTest(t, device)

	device.setBroken(true)
	poller.UpdateState(context.Background())

	// No snapshot exists at all: unavailable immediately, not after three
	// failures.
	state, ok := poller.CurrentState()
	require.True(t, ok)
	assert.False(t, state.Available)
	assert.Equal(t, "idle", state.State)
}
