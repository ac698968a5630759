package reconcile

import (
	"sort"
	"testing"
)

func TestFlashSetMarkDismiss(t *testing.T) {
	f := NewFlashSet()
	f.Mark("a")
	f.Mark("b")
	if !f.Has("a") || !f.Has("b") {
		t.Fatal("marked ids missing")
	}

	got := f.IDs()
	sort.Strings(got)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected ids: %v", got)
	}

	f.Dismiss("a")
	f.Dismiss("a") // idempotent
	if f.Has("a") {
		t.Fatal("dismissed id still present")
	}
	if !f.Has("b") {
		t.Fatal("dismiss must not touch other ids")
	}
}

func TestFlashSetSubscribers(t *testing.T) {
	f := NewFlashSet()
	type change struct {
		id      string
		flashed bool
	}
	var seen []change
	cancel := f.Subscribe(func(id string, flashed bool) {
		seen = append(seen, change{id, flashed})
	})

	f.Mark("x")
	f.Mark("x") // duplicate mark must not re-notify
	f.Dismiss("x")
	f.Dismiss("x") // duplicate dismiss must not re-notify

	want := []change{{"x", true}, {"x", false}}
	if len(seen) != len(want) {
		t.Fatalf("expected %d notifications, got %d: %v", len(want), len(seen), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("notification %d: expected %+v, got %+v", i, want[i], seen[i])
		}
	}

	cancel()
	f.Mark("y")
	if len(seen) != len(want) {
		t.Fatal("unsubscribed callback still invoked")
	}
}
