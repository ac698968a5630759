package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/fleet-live/internal/config"
	"github.com/example/fleet-live/internal/dispatch"
	"github.com/example/fleet-live/internal/eta"
	"github.com/example/fleet-live/internal/feed"
	"github.com/example/fleet-live/internal/geo"
	"github.com/example/fleet-live/internal/ingest"
	"github.com/example/fleet-live/internal/interp"
	"github.com/example/fleet-live/internal/storage"
)

// Deps carries the wired collaborators; cmd/server builds them from
// config so tests can hand in fakes.
type Deps struct {
	Tracker  *interp.Tracker
	View     *feed.BookingView
	Geo      geo.Store
	Store    storage.BookingStore
	Kafka    *ingest.KafkaProducer
	WSReg    *dispatch.WSRegistry
	ETA      eta.Client // optional OSRM client
	ETACache *eta.Cache // optional ETA cache
}

type Server struct {
	cfg    config.ServerConfig
	logger *slog.Logger
	deps   Deps
	mux    *mux.Router
}

func NewServer(cfg config.ServerConfig, logger *slog.Logger, deps Deps) *Server {
	s := &Server{cfg: cfg, logger: logger, deps: deps, mux: mux.NewRouter()}
	s.registerMiddleware()
	s.routes()
	return s
}

// RunTickLoop drives the per-frame broadcast: every tick interval it
// evaluates all tracked entities at the current wall clock and pushes
// the frame to connected map clients. Returns when ctx is cancelled,
// tearing down all animation state.
func (s *Server) RunTickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.deps.Tracker.CancelAll()
			return
		case now := <-ticker.C:
			if s.deps.WSReg.Count() == 0 {
				continue
			}
			frame := positionsFrame{
				Type:      "positions",
				At:        now.UTC(),
				Positions: s.deps.Tracker.TickAll(now),
			}
			s.deps.WSReg.Broadcast(frame)
		}
	}
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
