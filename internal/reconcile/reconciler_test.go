package reconcile

import (
	"errors"
	"testing"
)

type testRow struct {
	ID  string
	Val string
}

func (r testRow) Key() string { return r.ID }

func ids(rows []testRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestInsertPrependsAndFlashes(t *testing.T) {
	r := New[testRow]()
	rows := []testRow{{ID: "b"}, {ID: "a"}}

	out, err := r.ApplyInsert(rows, testRow{ID: "c", Val: "new"})
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(out), []string{"c", "b", "a"}) {
		t.Fatalf("expected newest-first prepend, got %v", ids(out))
	}
	if !r.IsFlashed("c") {
		t.Fatal("inserted row must carry a flash marker")
	}
	if r.IsFlashed("b") || r.IsFlashed("a") {
		t.Fatal("pre-existing rows must not be flashed")
	}
}

func TestDuplicateInsertReplacesInPlace(t *testing.T) {
	r := New[testRow]()
	rows := []testRow{{ID: "b", Val: "old"}, {ID: "a"}}

	once, err := r.ApplyInsert(rows, testRow{ID: "b", Val: "v1"})
	if err != nil {
		t.Fatal(err)
	}
	twice, err := r.ApplyInsert(once, testRow{ID: "b", Val: "v2"})
	if err != nil {
		t.Fatal(err)
	}

	if !equalIDs(ids(twice), []string{"b", "a"}) {
		t.Fatalf("duplicate insert must not add a row: %v", ids(twice))
	}
	if twice[0].Val != "v2" {
		t.Fatalf("duplicate insert must replace the payload, got %q", twice[0].Val)
	}
	// row was present before any insert event, so no marker at all
	if r.IsFlashed("b") {
		t.Fatal("replace-in-place must not flash")
	}
}

func TestDuplicateInsertKeepsSingleFlash(t *testing.T) {
	r := New[testRow]()
	out, _ := r.ApplyInsert(nil, testRow{ID: "x", Val: "v1"})
	out, _ = r.ApplyInsert(out, testRow{ID: "x", Val: "v2"})

	if len(out) != 1 || out[0].Val != "v2" {
		t.Fatalf("expected one row with latest payload, got %v", out)
	}
	if !r.IsFlashed("x") {
		t.Fatal("first insert's marker must survive the duplicate")
	}
	r.DismissFlash("x")
	out, _ = r.ApplyInsert(out, testRow{ID: "x", Val: "v3"})
	if r.IsFlashed("x") {
		t.Fatal("a dismissed marker must not be revived by a duplicate insert")
	}
}

func TestUpdatePreservesPosition(t *testing.T) {
	r := New[testRow]()
	rows := []testRow{{ID: "c"}, {ID: "b", Val: "old"}, {ID: "a"}}

	out, err := r.ApplyUpdate(rows, testRow{ID: "b", Val: "new"})
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(out), []string{"c", "b", "a"}) {
		t.Fatalf("update must never reorder: %v", ids(out))
	}
	if out[1].Val != "new" {
		t.Fatalf("payload not replaced: %q", out[1].Val)
	}
	if r.IsFlashed("b") {
		t.Fatal("updates must not flash")
	}
}

func TestUpdateBeforeInsertConverges(t *testing.T) {
	row := testRow{ID: "x", Val: "payload"}
	seed := []testRow{{ID: "a"}}

	r1 := New[testRow]()
	viaUpdateFirst, _ := r1.ApplyUpdate(seed, row)
	viaUpdateFirst, _ = r1.ApplyInsert(viaUpdateFirst, row)

	r2 := New[testRow]()
	viaInsertFirst, _ := r2.ApplyInsert(seed, row)
	viaInsertFirst, _ = r2.ApplyUpdate(viaInsertFirst, row)

	if !equalIDs(ids(viaUpdateFirst), ids(viaInsertFirst)) {
		t.Fatalf("order mismatch: %v vs %v", ids(viaUpdateFirst), ids(viaInsertFirst))
	}
	if viaUpdateFirst[0] != viaInsertFirst[0] {
		t.Fatalf("payload mismatch: %+v vs %+v", viaUpdateFirst[0], viaInsertFirst[0])
	}
}

func TestDeleteIdempotent(t *testing.T) {
	r := New[testRow]()
	rows := []testRow{{ID: "b"}, {ID: "a"}}

	once, err := r.ApplyDelete(rows, "b")
	if err != nil {
		t.Fatal(err)
	}
	twice, err := r.ApplyDelete(once, "b")
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(once), ids(twice)) {
		t.Fatalf("double delete diverged: %v vs %v", ids(once), ids(twice))
	}
	if !equalIDs(ids(twice), []string{"a"}) {
		t.Fatalf("expected only a, got %v", ids(twice))
	}
}

func TestDeleteClearsFlash(t *testing.T) {
	r := New[testRow]()
	rows, _ := r.ApplyInsert(nil, testRow{ID: "x"})
	if !r.IsFlashed("x") {
		t.Fatal("precondition: inserted row flashed")
	}
	if _, err := r.ApplyDelete(rows, "x"); err != nil {
		t.Fatal(err)
	}
	if r.IsFlashed("x") {
		t.Fatal("deleted row must not keep its marker")
	}
}

func TestDeleteBeforeInsertIsNoOp(t *testing.T) {
	r := New[testRow]()
	rows := []testRow{{ID: "a"}}
	out, err := r.ApplyDelete(rows, "ghost")
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(out), []string{"a"}) {
		t.Fatalf("unknown delete must not change the list: %v", ids(out))
	}
}

func TestMalformedRowsRejected(t *testing.T) {
	r := New[testRow]()
	rows := []testRow{{ID: "a"}}

	if _, err := r.ApplyInsert(rows, testRow{}); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}
	if _, err := r.ApplyUpdate(rows, testRow{}); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}
	if _, err := r.ApplyDelete(rows, ""); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}
}

func TestOperationsReturnFreshLists(t *testing.T) {
	r := New[testRow]()
	in := []testRow{{ID: "b", Val: "orig"}, {ID: "a"}}

	out, _ := r.ApplyUpdate(in, testRow{ID: "b", Val: "changed"})
	if in[0].Val != "orig" {
		t.Fatal("input list was mutated")
	}
	out[1].Val = "scribble"
	if in[1].Val == "scribble" {
		t.Fatal("output list aliases the input backing array")
	}
}
