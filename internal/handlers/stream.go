package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/picshare/backend/internal/logging"
	"github.com/picshare/backend/internal/metrics"
	"github.com/picshare/backend/internal/models"
	"github.com/picshare/backend/internal/session"
)

const (
	streamWriteWait   = 10 * time.Second
	streamPingPeriod  = 30 * time.Second
	streamBufferSize  = 16
	streamSnapshotMsg = "snapshot"
)

// StreamHandler pushes identity changes to connected clients over a WebSocket.
type StreamHandler struct {
	Sessions SessionService
	Upgrader websocket.Upgrader
}

type streamMessage struct {
	Type     string           `json:"type"`
	Identity *models.Identity `json:"identity,omitempty"`
}

// Serve handles GET /api/v1/session/stream. The first message is a snapshot
// of the current identity; every session event follows in publish order.
func (h StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	events := make(chan session.Event, streamBufferSize)
	unsubscribe := h.Sessions.Subscribe(func(ev session.Event) {
		select {
		case events <- ev:
		default:
			logger.Warn("session stream full, dropping event", "type", ev.Kind)
		}
	})
	defer unsubscribe()

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("session stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	metrics.StreamClients.Inc()
	defer metrics.StreamClients.Dec()
	logger.Info("session stream connected")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snapshot := streamMessage{Type: streamSnapshotMsg}
	if identity, ok := h.Sessions.Current(); ok {
		snapshot.Identity = &identity
	}
	if err := writeStream(conn, snapshot); err != nil {
		logger.Warn("session stream write failed", "error", err)
		return
	}

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			logger.Info("session stream closed by client")
			return
		case <-ctx.Done():
			return
		case ev := <-events:
			msg := streamMessage{Type: string(ev.Kind)}
			if ev.Kind != session.EventSignedOut {
				identity := ev.Identity
				msg.Identity = &identity
			}
			if err := writeStream(conn, msg); err != nil {
				logger.Warn("session stream write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

func writeStream(conn *websocket.Conn, msg streamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
