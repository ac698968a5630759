package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/fleet-live/internal/eta"
	"github.com/example/fleet-live/internal/interp"
	"github.com/example/fleet-live/internal/models"
	"github.com/example/fleet-live/internal/observability"
)

func (s *Server) routes() {
	s.mux.HandleFunc("/internal/driver/positions", s.handleDriverPosition).Methods("POST")
	s.mux.HandleFunc("/api/v1/map/positions", s.handleMapPositions).Methods("GET")
	s.mux.HandleFunc("/api/v1/map/drivers/near", s.handleNearDrivers).Methods("GET")
	s.mux.HandleFunc("/api/v1/bookings", s.handleBookings).Methods("GET")
	s.mux.HandleFunc("/api/v1/bookings/{id}/status", s.handleUpdateBookingStatus).Methods("POST")
	s.mux.HandleFunc("/api/v1/bookings/{id}/flash/dismiss", s.handleDismissFlash).Methods("POST")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/map", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type positionsFrame struct {
	Type      string                  `json:"type"`
	At        time.Time               `json:"at"`
	Positions []models.DriverPosition `json:"positions"`
}

func (s *Server) handleDriverPosition(w http.ResponseWriter, r *http.Request) {
	var sample models.PositionSample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if sample.ObservedAt.IsZero() {
		sample.ObservedAt = time.Now()
	}

	accepted, err := s.deps.Tracker.Observe(sample, time.Now())
	if err != nil {
		observability.SamplesInvalid.Inc()
		if errors.Is(err, interp.ErrInvalidSample) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "observe failed", http.StatusInternalServerError)
		return
	}
	if !accepted {
		// Older than the last sample for this driver: ignored, not an error.
		observability.SamplesStale.Inc()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	observability.SamplesObserved.Inc()
	observability.EntitiesTracked.Set(float64(s.deps.Tracker.Tracked()))

	if s.deps.Kafka != nil {
		if err := s.deps.Kafka.PublishSample(sample); err != nil {
			s.logger.Warn("kafka publish failed", "entity_id", sample.EntityID, "error", err)
		}
	}
	if s.deps.Geo != nil {
		s.deps.Geo.Upsert(sample)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMapPositions(w http.ResponseWriter, r *http.Request) {
	frame := positionsFrame{
		Type:      "positions",
		At:        time.Now().UTC(),
		Positions: s.deps.Tracker.TickAll(time.Now()),
	}
	writeJSON(w, http.StatusOK, frame)
}

type nearbyDriver struct {
	models.PositionSample
	ETASeconds float64 `json:"eta_seconds"`
}

func (s *Server) handleNearDrivers(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "lat and lng are required", http.StatusBadRequest)
		return
	}
	limit := s.cfg.NearbyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	target := models.Coord{Lat: lat, Lng: lng}
	samples := s.deps.Geo.Nearby(lat, lng, limit)
	out := make([]nearbyDriver, 0, len(samples))
	for _, sm := range samples {
		out = append(out, nearbyDriver{PositionSample: sm, ETASeconds: s.estimateETA(models.Coord{Lat: sm.Lat, Lng: sm.Lng}, target)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"drivers": out})
}

// estimateETA prefers the cache, then the routing client, then the
// naive distance/speed estimate.
func (s *Server) estimateETA(from, to models.Coord) float64 {
	if s.deps.ETACache != nil {
		if v, ok := s.deps.ETACache.Get(from, to); ok {
			return v
		}
	}
	if s.deps.ETA != nil {
		if v, err := s.deps.ETA.EstimateSeconds(from, to); err == nil {
			if s.deps.ETACache != nil {
				s.deps.ETACache.Set(from, to, v)
			}
			return v
		}
	}
	return eta.EstimateSeconds(from, to, s.cfg.DefaultSpeedMps)
}

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	rows, flashed := s.deps.View.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"bookings": rows, "flashed": flashed})
}

// handleUpdateBookingStatus is the operator's status transition: it
// persists the new status and reflects it in the local view right away.
// The change-feed echo of the same write replaces the row in place, so
// applying it twice is harmless.
func (s *Server) handleUpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		http.Error(w, "status is required", http.StatusBadRequest)
		return
	}

	rows, _ := s.deps.View.Snapshot()
	var row *models.Booking
	for i := range rows {
		if rows[i].ID == id {
			row = &rows[i]
			break
		}
	}
	if row == nil {
		http.Error(w, "unknown booking", http.StatusNotFound)
		return
	}

	if err := s.deps.Store.UpdateStatus(r.Context(), id, body.Status); err != nil {
		s.logger.Error("status update failed", "booking_id", id, "error", err)
		http.Error(w, "status update failed", http.StatusInternalServerError)
		return
	}
	row.Status = body.Status
	row.UpdatedAt = time.Now()
	_ = s.deps.View.Apply(models.ChangeEvent{Kind: models.EventUpdate, Table: "bookings", Row: row, ReceivedAt: time.Now()})
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleDismissFlash(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	s.deps.View.DismissFlash(id)
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	id := newID()
	s.deps.WSReg.Add(id, conn)

	// Reader goroutine: clients never send anything meaningful, but we
	// need the read pump to notice a closed connection.
	go func() {
		defer s.deps.WSReg.Remove(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
