package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/example/fleet-live/internal/models"
)

// BookingStore defines persistence operations for bookings. The live
// view seeds itself from LoadRecent once at startup; everything after
// that arrives through the change-feed.
type BookingStore interface {
	LoadRecent(ctx context.Context, limit int) ([]models.Booking, error)
	SaveBooking(ctx context.Context, b *models.Booking) error
	UpdateStatus(ctx context.Context, id, status string) error
}

type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]models.Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: make(map[string]models.Booking)}
}

func (m *MemoryStore) LoadRecent(ctx context.Context, limit int) ([]models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) SaveBooking(ctx context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = *b
	return nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		b.Status = status
		m.bookings[id] = b
	}
	return nil
}
