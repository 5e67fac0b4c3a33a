package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/devaloi/huddle/internal/client"
	"github.com/devaloi/huddle/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS handles WebSocket upgrade requests. Each upgraded connection becomes
// a new session and lives until the peer goes away or ctx is cancelled.
func ServeWS(ctx context.Context, h *hub.Hub, opts client.Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", "err", err)
			return
		}

		c := client.New(h, conn, opts)
		go func() {
			if err := c.Serve(ctx); err != nil {
				log.Error("session rejected", "sid", c.SessionID(), "err", err)
			}
		}()
	}
}
