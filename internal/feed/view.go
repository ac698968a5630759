package feed

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/fleet-live/internal/models"
	"github.com/example/fleet-live/internal/observability"
	"github.com/example/fleet-live/internal/reconcile"
)

// BookingView is the client-held booking list kept consistent with the
// external source of truth. It owns a reconciler and the current list,
// applies change events in callback arrival order, and hands out
// immutable snapshots to render sinks.
type BookingView struct {
	mu     sync.Mutex
	rows   []models.Booking
	rec    *reconcile.Reconciler[models.Booking]
	logger *slog.Logger

	subs map[int]func()
	next int
}

func NewBookingView(logger *slog.Logger) *BookingView {
	return &BookingView{
		rec:    reconcile.New[models.Booking](),
		logger: logger,
		subs:   make(map[int]func()),
	}
}

// Seed installs the initial full load. Rows present in the seed that
// later re-arrive as inserts are replaced in place, not duplicated.
func (v *BookingView) Seed(rows []models.Booking) {
	v.mu.Lock()
	v.rows = append([]models.Booking(nil), rows...)
	observability.BookingsInView.Set(float64(len(v.rows)))
	subs := v.snapshotSubs()
	v.mu.Unlock()
	notify(subs)
}

// Apply merges one change event. Malformed events are rejected with
// reconcile.ErrMalformedEvent and leave every row untouched; the feed
// keeps going.
func (v *BookingView) Apply(ev models.ChangeEvent) error {
	v.mu.Lock()

	var (
		next []models.Booking
		err  error
	)
	switch ev.Kind {
	case models.EventInsert:
		if ev.Row == nil {
			err = fmt.Errorf("%w: insert without row", reconcile.ErrMalformedEvent)
			break
		}
		next, err = v.rec.ApplyInsert(v.rows, *ev.Row)
	case models.EventUpdate:
		if ev.Row == nil {
			err = fmt.Errorf("%w: update without row", reconcile.ErrMalformedEvent)
			break
		}
		next, err = v.rec.ApplyUpdate(v.rows, *ev.Row)
	case models.EventDelete:
		id := ev.ID
		if id == "" && ev.Row != nil {
			id = ev.Row.ID
		}
		next, err = v.rec.ApplyDelete(v.rows, id)
	default:
		err = fmt.Errorf("%w: unknown kind %q", reconcile.ErrMalformedEvent, ev.Kind)
	}

	if err != nil {
		v.mu.Unlock()
		observability.EventsMalformed.Inc()
		v.logger.Warn("rejected change event", "kind", ev.Kind, "table", ev.Table, "error", err)
		return err
	}

	v.rows = next
	observability.EventsApplied.WithLabelValues(string(ev.Kind)).Inc()
	observability.BookingsInView.Set(float64(len(v.rows)))
	subs := v.snapshotSubs()
	v.mu.Unlock()
	notify(subs)
	return nil
}

// Snapshot returns a copy of the current list plus the flashed ids.
func (v *BookingView) Snapshot() ([]models.Booking, []string) {
	v.mu.Lock()
	rows := append([]models.Booking(nil), v.rows...)
	v.mu.Unlock()
	return rows, v.rec.Flashes().IDs()
}

func (v *BookingView) DismissFlash(id string) { v.rec.DismissFlash(id) }

func (v *BookingView) IsFlashed(id string) bool { return v.rec.IsFlashed(id) }

// Flashes exposes the marker set for subscription.
func (v *BookingView) Flashes() *reconcile.FlashSet { return v.rec.Flashes() }

// OnChange registers a callback fired after every applied event or
// seed. The returned func removes the subscription.
func (v *BookingView) OnChange(fn func()) func() {
	v.mu.Lock()
	id := v.next
	v.next++
	v.subs[id] = fn
	v.mu.Unlock()
	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}

func (v *BookingView) snapshotSubs() []func() {
	out := make([]func(), 0, len(v.subs))
	for _, fn := range v.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func()) {
	for _, fn := range subs {
		fn()
	}
}
