package reconcile

import (
	"errors"
	"fmt"
)

// ErrMalformedEvent marks a change event that cannot be applied because
// it carries no usable row key. A rejected event affects no other row.
var ErrMalformedEvent = errors.New("malformed change event")

// Reconciler merges an unordered, possibly-duplicated stream of
// row-level change events into a client-held list while preserving
// transient flash markers. Every operation is pure with respect to the
// input list: callers get a new slice back and may keep the old one.
//
// Per-row application is convergent: any interleaving or duplication of
// insert/update/delete for a single id reaches the same final state.
// Two updates for the same id are last-write-wins by arrival order; the
// feed carries no ordering timestamp to do better.
type Reconciler[T Keyed] struct {
	flashes *FlashSet
}

func New[T Keyed]() *Reconciler[T] {
	return &Reconciler[T]{flashes: NewFlashSet()}
}

// ApplyInsert adds a row at the front of the list (newest first) and
// marks it as newly arrived. If the id is already present (duplicate
// delivery, or the row came in the initial full load) the payload is
// replaced in place instead and no second marker is created.
func (r *Reconciler[T]) ApplyInsert(rows []T, row T) ([]T, error) {
	if row.Key() == "" {
		return rows, fmt.Errorf("%w: insert with empty id", ErrMalformedEvent)
	}
	if i := indexOf(rows, row.Key()); i >= 0 {
		return replaceAt(rows, i, row), nil
	}
	r.flashes.Mark(row.Key())
	return prepend(rows, row), nil
}

// ApplyUpdate replaces the row with the matching id, keeping its
// position; updates never reorder the list. An update for an id not yet
// present is a legitimate race with the feed's insert and is treated as
// an insert at the front, which makes insert/update application
// commutative for the same id. No flash marker is set in that case:
// flashing is reserved for genuine inserts.
func (r *Reconciler[T]) ApplyUpdate(rows []T, row T) ([]T, error) {
	if row.Key() == "" {
		return rows, fmt.Errorf("%w: update with empty id", ErrMalformedEvent)
	}
	if i := indexOf(rows, row.Key()); i >= 0 {
		return replaceAt(rows, i, row), nil
	}
	return prepend(rows, row), nil
}

// ApplyDelete removes the row if present, along with its flash marker.
// Unknown ids are a no-op, which tolerates duplicate deletes and
// delete-before-insert races.
func (r *Reconciler[T]) ApplyDelete(rows []T, id string) ([]T, error) {
	if id == "" {
		return rows, fmt.Errorf("%w: delete with empty id", ErrMalformedEvent)
	}
	r.flashes.Dismiss(id)
	i := indexOf(rows, id)
	if i < 0 {
		return rows, nil
	}
	return removeAt(rows, i), nil
}

// DismissFlash clears the newly-arrived marker for a row without
// touching its payload or position.
func (r *Reconciler[T]) DismissFlash(id string) { r.flashes.Dismiss(id) }

// IsFlashed reports whether the row currently carries the marker.
func (r *Reconciler[T]) IsFlashed(id string) bool { return r.flashes.Has(id) }

// Flashes exposes the marker set for subscription by the presentation
// layer.
func (r *Reconciler[T]) Flashes() *FlashSet { return r.flashes }
