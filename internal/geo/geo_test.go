package geo

import (
	"testing"
	"time"

	"github.com/example/fleet-live/internal/models"
)

func TestHaversineZero(t *testing.T) {
	d := Haversine(0, 0, 0, 0)
	if d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestIndexNearbyOrdersByDistance(t *testing.T) {
	g := NewIndex()
	now := time.Now()
	g.Upsert(models.PositionSample{EntityID: "far", Lat: 1, Lng: 1, ObservedAt: now})
	g.Upsert(models.PositionSample{EntityID: "near", Lat: 0.001, Lng: 0.001, ObservedAt: now})
	g.Upsert(models.PositionSample{EntityID: "mid", Lat: 0.1, Lng: 0.1, ObservedAt: now})

	out := g.Nearby(0, 0, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if out[0].EntityID != "near" || out[1].EntityID != "mid" {
		t.Fatalf("unexpected order: %s, %s", out[0].EntityID, out[1].EntityID)
	}
}

func TestIndexUpsertIgnoresOlderSample(t *testing.T) {
	g := NewIndex()
	now := time.Now()
	g.Upsert(models.PositionSample{EntityID: "d1", Lat: 1, Lng: 1, ObservedAt: now})
	g.Upsert(models.PositionSample{EntityID: "d1", Lat: 9, Lng: 9, ObservedAt: now.Add(-time.Minute)})

	out := g.Nearby(1, 1, 1)
	if len(out) != 1 || out[0].Lat != 1 {
		t.Fatalf("older sample overwrote newer: %+v", out)
	}
}
