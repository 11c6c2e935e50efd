// Package fpp implements an HTTP client for the Falcon Pi Player (fppd)
// REST API: status polling, media listing, playback commands, volume and
// brightness control.
package fpp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultPort is the port fppd serves its API on.
	DefaultPort = 80
	// DefaultTimeout bounds every request made by the client.
	DefaultTimeout = 10 * time.Second

	brightnessPlugin = "fpp-brightness"
)

// Config describes how to reach a single FPP device. It is immutable once
// handed to NewClient.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// BaseURL returns the root URL of the device's API server.
func (c Config) BaseURL() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("http://%s:%d", c.Host, port)
}

// Client talks to one FPP device. It keeps the last successfully fetched
// status snapshot and the last known plugin list; both survive failed
// calls unchanged. All methods are safe for concurrent use, but overlapping
// requests are not ordered relative to each other.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client

	mu      sync.RWMutex
	status  *PlayerStatus
	plugins []string // nil until the first successful plugin refresh
}

// NewClient creates a client for the device described by cfg.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    cfg.BaseURL(),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the device's API root, mainly for log and display use.
func (c *Client) BaseURL() string { return c.baseURL }

// Refresh fetches /api/system/status and replaces the in-memory snapshot.
// On any failure the previous snapshot is left untouched and an
// UnreachableError or InvalidResponseError is returned.
func (c *Client) Refresh(ctx context.Context) (*PlayerStatus, error) {
	var wire systemStatus
	if err := c.getJSON(ctx, "/api/system/status", &wire); err != nil {
		return nil, err
	}
	if err := wire.validate(); err != nil {
		return nil, &InvalidResponseError{Endpoint: "/api/system/status", Err: err}
	}

	status := wire.toStatus()
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()

	log.WithFields(log.Fields{
		"state":  status.State,
		"volume": status.Volume,
		"file":   status.PlayingFile(),
	}).Debug("status refreshed")

	return status.clone(), nil
}

// Status returns a copy of the last successful snapshot, or nil if no
// refresh has succeeded yet.
func (c *Client) Status() *PlayerStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status.clone()
}

// ListMedia fetches the playable playlists and the sequence files and
// merges them into one listing, de-duplicated by name and lexically
// sorted. If exactly one of the two endpoints fails, the other's items
// are still returned alongside the error so callers can degrade instead
// of failing outright.
func (c *Client) ListMedia(ctx context.Context) ([]MediaItem, error) {
	var playlists, sequences []string

	plErr := c.getJSON(ctx, "/api/playlists/playable", &playlists)
	seqErr := c.getJSON(ctx, "/api/sequence", &sequences)

	if plErr != nil && seqErr != nil {
		return nil, plErr
	}

	seen := make(map[string]struct{})
	items := make([]MediaItem, 0, len(playlists)+len(sequences))
	add := func(name string, typ MediaType) {
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		items = append(items, MediaItem{Name: name, Type: typ})
	}

	for _, name := range playlists {
		add(name, MediaPlaylist)
	}
	for _, name := range sequences {
		add(strings.TrimSuffix(name, ".fseq"), MediaSequence)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	if plErr != nil {
		return items, plErr
	}
	if seqErr != nil {
		return items, seqErr
	}
	return items, nil
}

// Play starts the given item. Playlists and sequences use their dedicated
// start endpoints; the device has no direct play operation for other
// media types, so those fail without touching the network.
func (c *Client) Play(ctx context.Context, item MediaItem) error {
	switch item.Type {
	case MediaSequence:
		return c.get(ctx, "/api/sequence/"+url.PathEscape(item.Name+".fseq")+"/start")
	case MediaPlaylist:
		return c.get(ctx, "/api/playlist/"+url.PathEscape(item.Name)+"/start")
	default:
		return fmt.Errorf("play %q items: %w", item.Type, ErrUnsupportedFeature)
	}
}

// StartFPPD starts the player daemon on the device.
func (c *Client) StartFPPD(ctx context.Context) error {
	return c.get(ctx, "/api/system/fppd/start")
}

// StopFPPD stops the player daemon. Until it is started again, status
// polls report the daemon as not running.
func (c *Client) StopFPPD(ctx context.Context) error {
	return c.get(ctx, "/api/system/fppd/stop")
}

// Stop halts playback; the device returns to idle from any state.
func (c *Client) Stop(ctx context.Context) error {
	return c.get(ctx, "/api/playlists/stop")
}

// Pause pauses the running playlist.
func (c *Client) Pause(ctx context.Context) error {
	return c.get(ctx, "/api/playlists/pause")
}

// Resume continues a paused playlist.
func (c *Client) Resume(ctx context.Context) error {
	return c.get(ctx, "/api/playlists/resume")
}

// Next skips to the next playlist item.
func (c *Client) Next(ctx context.Context) error {
	return c.get(ctx, "/api/command/"+url.PathEscape("Next Playlist Item"))
}

// Previous skips back to the previous playlist item.
func (c *Client) Previous(ctx context.Context) error {
	return c.get(ctx, "/api/command/"+url.PathEscape("Prev Playlist Item"))
}

// SetVolume sets the device volume. Out-of-range input is clamped to
// 0..100 rather than rejected.
func (c *Client) SetVolume(ctx context.Context, level int) error {
	return c.command(ctx, "Volume Set", strconv.Itoa(clamp(level, 0, 100)))
}

// StepVolume adjusts the volume by delta relative to the last snapshot's
// volume. It does not poll first; before any successful refresh the
// current volume is taken as 0. The result is clamped to 0..100.
func (c *Client) StepVolume(ctx context.Context, delta int) error {
	current := 0
	if st := c.Status(); st != nil {
		current = st.Volume
	}
	return c.SetVolume(ctx, current+delta)
}

// RefreshPlugins fetches the device's installed plugin list and caches it
// for feature gating. Failures leave the previous list untouched.
func (c *Client) RefreshPlugins(ctx context.Context) ([]string, error) {
	var plugins []string
	if err := c.getJSON(ctx, "/api/plugin", &plugins); err != nil {
		return nil, err
	}
	if plugins == nil {
		plugins = []string{}
	}
	c.mu.Lock()
	c.plugins = plugins
	c.mu.Unlock()
	return plugins, nil
}

// SupportsBrightness reports whether the brightness plugin is installed
// according to the last plugin refresh. Before the first successful
// refresh the answer is optimistically true.
func (c *Client) SupportsBrightness() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.plugins == nil {
		return true
	}
	for _, p := range c.plugins {
		if p == brightnessPlugin {
			return true
		}
	}
	return false
}

// Brightness reads the current output brightness (0..100 percent) from
// the brightness plugin endpoint.
func (c *Client) Brightness(ctx context.Context) (int, error) {
	if !c.SupportsBrightness() {
		return 0, ErrUnsupportedFeature
	}
	endpoint := "/api/plugin-apis/Brightness"
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &UnreachableError{URL: c.baseURL + endpoint, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &UnreachableError{URL: c.baseURL + endpoint, Err: err}
	}
	value, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return 0, &InvalidResponseError{Endpoint: endpoint, Err: err}
	}
	return clamp(value, 0, 100), nil
}

// SetBrightness sets the overall output brightness. level is on the 0..255
// scale and is clamped before conversion to the device's percent scale.
// When the last plugin refresh reported the brightness plugin absent, the
// call fails with ErrUnsupportedFeature without touching the network.
func (c *Client) SetBrightness(ctx context.Context, level int) error {
	return c.FadeBrightness(ctx, level, 0)
}

// FadeBrightness fades the output brightness to level (0..255 scale) over
// the given number of seconds. Subject to the same plugin gating as
// SetBrightness.
func (c *Client) FadeBrightness(ctx context.Context, level, seconds int) error {
	if !c.SupportsBrightness() {
		return ErrUnsupportedFeature
	}
	percent := (clamp(level, 0, 255)*100 + 127) / 255
	return c.command(ctx, "Brightness Fade", strconv.Itoa(percent), strconv.Itoa(seconds))
}

// CoverArtURL derives the file-manager URL of the cover image paired with
// the given media file by swapping its extension for .jpg. The image's
// existence is not verified.
func (c *Client) CoverArtURL(filename string) string {
	if filename == "" {
		return ""
	}
	name := filename
	for _, ext := range []string{".fseq", ".mp3", ".mp4"} {
		if strings.HasSuffix(name, ext) {
			name = strings.TrimSuffix(name, ext)
			break
		}
	}
	return c.baseURL + "/api/file/Images/" + url.PathEscape(name+".jpg")
}

// command POSTs a named command with arguments to the generic dispatcher.
func (c *Client) command(ctx context.Context, name string, args ...string) error {
	payload, err := json.Marshal(struct {
		Command string   `json:"command"`
		Args    []string `json:"args"`
	}{Command: name, Args: args})
	if err != nil {
		return err
	}

	endpoint := "/api/command"
	resp, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &CommandError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return nil
}

// get issues a GET to a command-style endpoint where only the status code
// matters.
func (c *Client) get(ctx context.Context, endpoint string) error {
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &CommandError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return nil
}

// getJSON issues a GET to a query endpoint and decodes the JSON body into
// out. Transport failures and non-2xx answers become UnreachableError,
// undecodable bodies become InvalidResponseError.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UnreachableError{URL: c.baseURL + endpoint, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return &InvalidResponseError{Endpoint: endpoint, Err: err}
	}
	return nil
}

// do builds and executes a single request. Each call is independent; no
// retry, no connection guarantees beyond what net/http provides.
func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, err
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnreachableError{URL: c.baseURL + endpoint, Err: err}
	}
	return resp, nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		log.WithError(err).Warn("failed to close response body")
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clone returns a copy so readers never observe later snapshot swaps.
func (s *PlayerStatus) clone() *PlayerStatus {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
