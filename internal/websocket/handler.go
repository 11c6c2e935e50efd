package websocket

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// newWebsocketHandler creates the WebSocket upgrade handler. The hub stops
// servicing its channels once ctx is cancelled, so every channel send here
// must also select on ctx to avoid stranding handler goroutines during
// shutdown.
func (s *Server) newWebsocketHandler(ctx context.Context) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return s.originChecker(r.Header.Get("Origin"))
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Warn("websocket upgrade failed")
			return
		}
		defer func() {
			select {
			case s.hub.unregister <- conn:
			case <-ctx.Done():
			}
			if err := conn.Close(); err != nil {
				log.WithError(err).WithField("remoteAddr", conn.RemoteAddr()).Debug("error while closing websocket connection")
			}
		}()

		// The hub sends the last known state right after registration.
		select {
		case s.hub.register <- conn:
		case <-ctx.Done():
			return
		}

		// Block by reading from the client to detect disconnection.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break // Client has disconnected.
			}
		}
	}
}

// healthHandler responds to Docker health checks.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.WithError(err).Warn("failed to write health check response")
	}
}
