package reconcile

// Keyed is any row addressable by a unique string key within its
// collection.
type Keyed interface {
	Key() string
}

func indexOf[T Keyed](rows []T, key string) int {
	for i, r := range rows {
		if r.Key() == key {
			return i
		}
	}
	return -1
}

// The helpers below always return a fresh slice so callers holding the
// input list can rely on reference inequality for change detection.

func prepend[T Keyed](rows []T, row T) []T {
	out := make([]T, 0, len(rows)+1)
	out = append(out, row)
	return append(out, rows...)
}

func replaceAt[T Keyed](rows []T, i int, row T) []T {
	out := make([]T, len(rows))
	copy(out, rows)
	out[i] = row
	return out
}

func removeAt[T Keyed](rows []T, i int) []T {
	out := make([]T, 0, len(rows)-1)
	out = append(out, rows[:i]...)
	return append(out, rows[i+1:]...)
}
