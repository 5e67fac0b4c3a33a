package handler

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/pion/webrtc/v4"

	"github.com/devaloi/huddle/internal/client"
	"github.com/devaloi/huddle/internal/hub"
	"github.com/devaloi/huddle/internal/metrics"
	"github.com/devaloi/huddle/internal/middleware"
	"github.com/devaloi/huddle/internal/registry"
)

// Deps are the components the HTTP surface is built from.
type Deps struct {
	Registry   *registry.Registry
	Hub        *hub.Hub
	Metrics    *metrics.Metrics
	ICEServers []webrtc.ICEServer
	Client     client.Options
	// StaticDir is served at "/" when the directory exists.
	StaticDir string
	Logger    *slog.Logger
}

// Routes builds the full HTTP handler. WebSocket sessions end when ctx is
// cancelled.
func Routes(ctx context.Context, d Deps) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", Health())
	mux.HandleFunc("POST /api/create-meeting", CreateMeeting(d.Registry, d.Logger))
	mux.HandleFunc("GET /api/meetings/{id}", MeetingInfo(d.Registry, d.Hub))
	mux.HandleFunc("GET /api/ice-servers", ICEServers(d.ICEServers))
	mux.Handle("GET /metrics", metrics.PrometheusHandler(d.Metrics))
	mux.HandleFunc("GET /ws", ServeWS(ctx, d.Hub, d.Client))

	if d.StaticDir != "" {
		if fi, err := os.Stat(d.StaticDir); err == nil && fi.IsDir() {
			mux.Handle("/", http.FileServer(http.Dir(d.StaticDir)))
		} else {
			d.Logger.Warn("static dir not found, not serving files", "dir", d.StaticDir)
		}
	}

	return middleware.Chain(mux,
		middleware.Recover(d.Logger),
		middleware.RequestID(),
		middleware.Logging(d.Logger),
		middleware.CORS(),
	)
}
