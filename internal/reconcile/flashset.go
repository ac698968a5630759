package reconcile

import "sync"

// FlashSet holds the transient "newly arrived" markers, keyed by row id
// and independent of the rows themselves: replacing a row's payload does
// not clear its marker, only an explicit dismiss or delete does.
//
// It is an explicit object with subscriber callbacks rather than a
// package-level set, so its lifecycle is owned by whoever composes the
// presentation layer.
type FlashSet struct {
	mu   sync.Mutex
	ids  map[string]struct{}
	subs map[int]func(id string, flashed bool)
	next int
}

func NewFlashSet() *FlashSet {
	return &FlashSet{
		ids:  make(map[string]struct{}),
		subs: make(map[int]func(string, bool)),
	}
}

// Subscribe registers a callback invoked on every marker change. The
// returned func removes the subscription.
func (f *FlashSet) Subscribe(fn func(id string, flashed bool)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

// Mark flags a row as newly arrived. Marking an already-flashed row is
// a no-op and does not re-notify.
func (f *FlashSet) Mark(id string) {
	f.mu.Lock()
	if _, ok := f.ids[id]; ok {
		f.mu.Unlock()
		return
	}
	f.ids[id] = struct{}{}
	subs := f.snapshotSubs()
	f.mu.Unlock()
	for _, fn := range subs {
		fn(id, true)
	}
}

// Dismiss clears a row's marker, typically once the UI has finished the
// flash animation. Idempotent.
func (f *FlashSet) Dismiss(id string) {
	f.mu.Lock()
	if _, ok := f.ids[id]; !ok {
		f.mu.Unlock()
		return
	}
	delete(f.ids, id)
	subs := f.snapshotSubs()
	f.mu.Unlock()
	for _, fn := range subs {
		fn(id, false)
	}
}

func (f *FlashSet) Has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[id]
	return ok
}

// IDs returns the currently flashed ids in no particular order.
func (f *FlashSet) IDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.ids))
	for id := range f.ids {
		out = append(out, id)
	}
	return out
}

func (f *FlashSet) snapshotSubs() []func(string, bool) {
	out := make([]func(string, bool), 0, len(f.subs))
	for _, fn := range f.subs {
		out = append(out, fn)
	}
	return out
}
