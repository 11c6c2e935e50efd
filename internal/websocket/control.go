package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fpp-ws/internal/fpp"

	log "github.com/sirupsen/logrus"
)

// controlRequest is the body of POST /api/control.
type controlRequest struct {
	Action     string `json:"action"`
	Item       string `json:"item,omitempty"`
	ItemType   string `json:"item_type,omitempty"`
	Volume     *int   `json:"volume,omitempty"`
	Brightness *int   `json:"brightness,omitempty"`
	Fade       int    `json:"fade,omitempty"`
}

// stateHandler serves the last computed state as plain JSON for non-WS
// consumers.
func (s *Server) stateHandler(w http.ResponseWriter, _ *http.Request) {
	state, ok := s.poller.CurrentState()
	if !ok {
		state = newPlaybackState(nil, false, nil, "")
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		log.WithError(err).Warn("failed to encode state response")
	}
}

// controlHandler dispatches playback commands to the device. Device-side
// failures map onto gateway status codes so UI callers can tell a bad
// request from an unreachable device.
func (s *Server) controlHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var err error

	switch req.Action {
	case "play":
		if req.Item == "" {
			http.Error(w, "missing item", http.StatusBadRequest)
			return
		}
		itemType := fpp.MediaType(req.ItemType)
		if itemType == "" {
			itemType = fpp.MediaPlaylist
		}
		err = s.client.Play(ctx, fpp.MediaItem{Name: req.Item, Type: itemType})
	case "stop":
		err = s.client.Stop(ctx)
	case "pause":
		err = s.client.Pause(ctx)
	case "resume":
		err = s.client.Resume(ctx)
	case "next":
		err = s.client.Next(ctx)
	case "previous":
		err = s.client.Previous(ctx)
	case "volume":
		if req.Volume == nil {
			http.Error(w, "missing volume", http.StatusBadRequest)
			return
		}
		err = s.client.SetVolume(ctx, *req.Volume)
	case "volume_step":
		if req.Volume == nil {
			http.Error(w, "missing volume", http.StatusBadRequest)
			return
		}
		err = s.client.StepVolume(ctx, *req.Volume)
	case "brightness":
		if req.Brightness == nil {
			http.Error(w, "missing brightness", http.StatusBadRequest)
			return
		}
		err = s.client.FadeBrightness(ctx, *req.Brightness, req.Fade)
	case "fppd_start":
		err = s.client.StartFPPD(ctx)
	case "fppd_stop":
		err = s.client.StopFPPD(ctx)
	default:
		http.Error(w, fmt.Sprintf("unknown action %q", req.Action), http.StatusBadRequest)
		return
	}

	if err != nil {
		log.WithError(err).WithField("action", req.Action).Warn("control action failed")
		http.Error(w, err.Error(), controlStatusCode(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// controlStatusCode maps a client error onto an HTTP status code.
func controlStatusCode(err error) int {
	var cmdErr *fpp.CommandError
	switch {
	case errors.Is(err, fpp.ErrUnsupportedFeature):
		return http.StatusNotImplemented
	case errors.As(err, &cmdErr):
		return http.StatusBadGateway
	case fpp.IsUnreachable(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
