package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/fleet-live/internal/config"
	"github.com/example/fleet-live/internal/feed"
	"github.com/example/fleet-live/internal/models"
)

// memStore records writes so tests can assert what the handlers
// persisted.
type memStore struct {
	statuses map[string]string
}

func newMemStore() *memStore {
	return &memStore{statuses: make(map[string]string)}
}

func (m *memStore) LoadRecent(ctx context.Context, limit int) ([]models.Booking, error) {
	return nil, nil
}

func (m *memStore) SaveBooking(ctx context.Context, b *models.Booking) error {
	return nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id, status string) error {
	m.statuses[id] = status
	return nil
}

func newTestServer(store *memStore) (*Server, *feed.BookingView) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	view := feed.NewBookingView(logger)
	cfg := config.ServerConfig{NearbyLimit: 8, DefaultSpeedMps: 10}
	return NewServer(cfg, logger, Deps{View: view, Store: store}), view
}

func TestUpdateBookingStatusPersistsAndUpdatesView(t *testing.T) {
	store := newMemStore()
	srv, view := newTestServer(store)
	view.Seed([]models.Booking{{ID: "b1", Status: "pending"}})

	req := httptest.NewRequest("POST", "/api/v1/bookings/b1/status", strings.NewReader(`{"status":"assigned"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.statuses["b1"] != "assigned" {
		t.Fatalf("status not persisted: %v", store.statuses)
	}
	rows, _ := view.Snapshot()
	if len(rows) != 1 || rows[0].Status != "assigned" {
		t.Fatalf("view not updated: %v", rows)
	}
	var body models.Booking
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Status != "assigned" {
		t.Fatalf("unexpected response body: %s", rec.Body.String())
	}
}

func TestUpdateBookingStatusUnknownID(t *testing.T) {
	store := newMemStore()
	srv, _ := newTestServer(store)

	req := httptest.NewRequest("POST", "/api/v1/bookings/ghost/status", strings.NewReader(`{"status":"assigned"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 404 {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if len(store.statuses) != 0 {
		t.Fatalf("unknown booking must not be persisted: %v", store.statuses)
	}
}

func TestUpdateBookingStatusRequiresStatus(t *testing.T) {
	store := newMemStore()
	srv, view := newTestServer(store)
	view.Seed([]models.Booking{{ID: "b1", Status: "pending"}})

	req := httptest.NewRequest("POST", "/api/v1/bookings/b1/status", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(store.statuses) != 0 {
		t.Fatalf("missing status must not be persisted: %v", store.statuses)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(newMemStore())
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != 200 || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response: %d %q", rec.Code, rec.Body.String())
	}
}
