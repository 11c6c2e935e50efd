package websocket

import (
	"context"
	"sync"
	"time"

	"fpp-ws/internal/fpp"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// maxConsecutiveFailures is how many refresh failures in a row are
// tolerated before the device is reported unavailable. The stale snapshot
// is kept either way.
const maxConsecutiveFailures = 3

// sourceRefreshInterval is how often the media source list and plugin
// list are re-fetched.
const sourceRefreshInterval = time.Minute

// Poller drives the device refresh cycle and pushes resulting state into
// the hub.
type Poller struct {
	client   *fpp.Client
	hub      *Hub
	interval time.Duration

	mu          sync.RWMutex
	lastState   PlaybackState
	hasState    bool
	failures    int
	sources     []string
	brightness  *int
	sourcesAsOf time.Time
}

// NewPoller creates a new Poller polling at the given interval.
func NewPoller(client *fpp.Client, hub *Hub, interval time.Duration) *Poller {
	return &Poller{
		client:   client,
		hub:      hub,
		interval: interval,
	}
}

// Run starts the polling loop. It must be run in a separate goroutine.
func (p *Poller) Run(ctx context.Context) {
	log.WithField("interval", p.interval).Info("poller started")
	defer log.Info("poller stopped")

	p.UpdateState(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.UpdateState(ctx)
		}
	}
}

// UpdateState performs one poll cycle: refresh the device status, apply
// the availability policy, and broadcast if the resulting state differs
// from the last one sent.
func (p *Poller) UpdateState(ctx context.Context) {
	_, err := p.client.Refresh(ctx)

	p.mu.Lock()
	if err != nil {
		p.failures++
		log.WithError(err).WithField("failures", p.failures).Warn("device refresh failed")
	} else {
		p.failures = 0
	}
	available := p.failures < maxConsecutiveFailures
	needSources := err == nil && time.Since(p.sourcesAsOf) >= sourceRefreshInterval
	p.mu.Unlock()

	if needSources {
		p.refreshSources(ctx)
	}

	p.mu.RLock()
	sources := p.sources
	brightness := p.brightness
	p.mu.RUnlock()

	status := p.client.Status()
	if status == nil || !status.DaemonRunning {
		available = false
	}

	coverArt := ""
	if status != nil && status.DaemonRunning && status.State == fpp.StatePlaying {
		coverArt = p.client.CoverArtURL(status.PlayingFile())
	}

	state := newPlaybackState(status, available, sources, coverArt)
	if status != nil {
		state.Brightness = brightness
	}

	p.mu.Lock()
	changed := !p.hasState || !state.equal(p.lastState)
	if changed {
		p.lastState = state
		p.hasState = true
	}
	p.mu.Unlock()

	if changed {
		log.WithFields(log.Fields{
			"available": state.Available,
			"state":     state.State,
			"title":     state.Title,
		}).Info("state changed, broadcasting update")
		p.hub.Broadcast(state)
	}
}

// refreshSources re-fetches the media listing and the plugin list.
// Partial listing failures degrade to whatever the device did return.
func (p *Poller) refreshSources(ctx context.Context) {
	items, err := p.client.ListMedia(ctx)
	if err != nil {
		log.WithError(err).Warn("media listing incomplete")
	}
	var sources []string
	if items != nil {
		sources = make([]string, 0, len(items))
		for _, item := range items {
			sources = append(sources, item.Name)
		}
	}
	if _, err := p.client.RefreshPlugins(ctx); err != nil {
		log.WithError(err).Debug("plugin listing failed")
	}
	var brightness *int
	if p.client.SupportsBrightness() {
		if value, err := p.client.Brightness(ctx); err == nil {
			brightness = &value
		} else {
			log.WithError(err).Debug("brightness read failed")
		}
	}

	p.mu.Lock()
	if sources != nil {
		p.sources = sources
	}
	p.brightness = brightness
	p.sourcesAsOf = time.Now()
	p.mu.Unlock()
}

// CurrentState returns the last computed client-facing state. The second
// return is false before the first poll cycle completes.
func (p *Poller) CurrentState() (PlaybackState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastState, p.hasState
}

// SendLastState sends the cached state to a single new client.
func (p *Poller) SendLastState(conn *websocket.Conn) {
	state, ok := p.CurrentState()
	if !ok {
		return
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.WithError(err).WithField("remoteAddr", conn.RemoteAddr()).Warn("failed to set write deadline")
		return
	}
	if err := conn.WriteJSON(state); err != nil {
		log.WithError(err).WithField("remoteAddr", conn.RemoteAddr()).Warn("failed to send initial state to client")
	}
}
