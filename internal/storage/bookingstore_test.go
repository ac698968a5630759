package storage

import (
	"context"
	"testing"
	"time"

	"github.com/example/fleet-live/internal/models"
)

func TestMemoryStoreLoadRecentNewestFirst(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		b := &models.Booking{ID: id, Status: "pending", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := m.SaveBooking(ctx, b); err != nil {
			t.Fatal(err)
		}
	}

	out, err := m.LoadRecent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != "new" || out[1].ID != "mid" {
		t.Fatalf("expected newest-first with limit, got %v", out)
	}
}

func TestMemoryStoreUpdateStatus(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	_ = m.SaveBooking(ctx, &models.Booking{ID: "b1", Status: "pending", CreatedAt: time.Now()})

	if err := m.UpdateStatus(ctx, "b1", "assigned"); err != nil {
		t.Fatal(err)
	}
	out, _ := m.LoadRecent(ctx, 10)
	if len(out) != 1 || out[0].Status != "assigned" {
		t.Fatalf("status not updated: %v", out)
	}

	// unknown id is a no-op
	if err := m.UpdateStatus(ctx, "ghost", "assigned"); err != nil {
		t.Fatal(err)
	}
}
