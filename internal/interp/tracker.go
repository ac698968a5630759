package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/example/fleet-live/internal/models"
)

// ErrInvalidSample marks a sample rejected for malformed or out-of-range
// coordinates. Stale (not-newer) samples are not errors: Observe reports
// them by returning accepted=false with a nil error so callers can tell
// "ignored because old" from "rejected because malformed".
var ErrInvalidSample = errors.New("invalid position sample")

// animation is the interpolation state driving one entity's rendered
// position: ease from one coordinate to another over a fixed window.
// At most one animation exists per entity; a newer sample replaces it.
type animation struct {
	from, to  models.Coord
	startedAt time.Time
	duration  time.Duration
	heading   float64
	observed  time.Time // ObservedAt of the sample that started this animation
}

// Tracker converts sparse, irregular position samples into smooth
// per-frame positions. It is owned by whoever composes the map surface
// and torn down with it; nothing lives at package scope.
//
// Interpolation is linear in degrees of latitude/longitude, which is an
// accepted approximation at city scale.
type Tracker struct {
	mu       sync.Mutex
	anims    map[string]*animation
	duration time.Duration
}

// NewTracker builds a tracker whose Observe calls animate over the given
// window. The window should match the expected reporting interval so
// continuous updates produce continuous motion.
func NewTracker(duration time.Duration) *Tracker {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return &Tracker{anims: make(map[string]*animation), duration: duration}
}

// Observe feeds a new sample for an entity, starting a fresh animation
// from the entity's current rendered position (not the previous raw
// sample) so an update never causes a visual jump. It reports whether
// the sample was accepted; samples not strictly newer than the last one
// for the same entity are dropped.
func (t *Tracker) Observe(s models.PositionSample, now time.Time) (bool, error) {
	return t.ObserveFor(s, t.duration, now)
}

// ObserveFor is Observe with an explicit animation window for this sample.
func (t *Tracker) ObserveFor(s models.PositionSample, d time.Duration, now time.Time) (bool, error) {
	if err := validateSample(s); err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.anims[s.EntityID]
	if !ok {
		// First sample: place the marker immediately, nothing to ease from.
		t.anims[s.EntityID] = &animation{
			from:     models.Coord{Lat: s.Lat, Lng: s.Lng},
			to:       models.Coord{Lat: s.Lat, Lng: s.Lng},
			observed: s.ObservedAt,
		}
		return true, nil
	}
	if !s.ObservedAt.After(prev.observed) {
		return false, nil
	}

	from, _, _ := prev.at(now)
	to := models.Coord{Lat: s.Lat, Lng: s.Lng}
	heading := prev.heading
	if from.Lat != to.Lat || from.Lng != to.Lng {
		heading = bearingDegrees(from.Lat, from.Lng, to.Lat, to.Lng)
	}
	t.anims[s.EntityID] = &animation{
		from:      from,
		to:        to,
		startedAt: now,
		duration:  d,
		heading:   heading,
		observed:  s.ObservedAt,
	}
	return true, nil
}

// Tick evaluates the entity's current position at the given time. The
// second return is false if the entity is not tracked. Tick never
// mutates state beyond reading it, so hosts may call it at any frame
// rate, including synthetic timestamps in tests.
func (t *Tracker) Tick(entityID string, now time.Time) (models.DriverPosition, bool) {
	t.mu.Lock()
	a, ok := t.anims[entityID]
	t.mu.Unlock()
	if !ok {
		return models.DriverPosition{}, false
	}
	pos, heading, done := a.at(now)
	return models.DriverPosition{
		EntityID:       entityID,
		Lat:            pos.Lat,
		Lng:            pos.Lng,
		HeadingDegrees: heading,
		Done:           done,
	}, true
}

// TickAll evaluates every tracked entity at the given time, ordered by
// entity id for deterministic output.
func (t *Tracker) TickAll(now time.Time) []models.DriverPosition {
	t.mu.Lock()
	ids := make([]string, 0, len(t.anims))
	for id := range t.anims {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	sort.Strings(ids)

	out := make([]models.DriverPosition, 0, len(ids))
	for _, id := range ids {
		if p, ok := t.Tick(id, now); ok {
			out = append(out, p)
		}
	}
	return out
}

// Cancel discards the entity's animation state. Idempotent.
func (t *Tracker) Cancel(entityID string) {
	t.mu.Lock()
	delete(t.anims, entityID)
	t.mu.Unlock()
}

// CancelAll discards every tracked animation, used on full teardown.
func (t *Tracker) CancelAll() {
	t.mu.Lock()
	t.anims = make(map[string]*animation)
	t.mu.Unlock()
}

// Tracked returns the number of entities currently tracked.
func (t *Tracker) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.anims)
}

func (a *animation) at(now time.Time) (models.Coord, float64, bool) {
	p := a.progress(now)
	if p >= 1 {
		return a.to, a.heading, true
	}
	e := easeInOutCubic(p)
	return models.Coord{
		Lat: lerp(a.from.Lat, a.to.Lat, e),
		Lng: lerp(a.from.Lng, a.to.Lng, e),
	}, a.heading, false
}

func (a *animation) progress(now time.Time) float64 {
	if a.duration <= 0 {
		return 1
	}
	p := float64(now.Sub(a.startedAt)) / float64(a.duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func validateSample(s models.PositionSample) error {
	if s.EntityID == "" {
		return fmt.Errorf("%w: empty entity id", ErrInvalidSample)
	}
	if math.IsNaN(s.Lat) || math.IsNaN(s.Lng) || math.IsInf(s.Lat, 0) || math.IsInf(s.Lng, 0) {
		return fmt.Errorf("%w: non-finite coordinates", ErrInvalidSample)
	}
	if s.Lat < -90 || s.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidSample, s.Lat)
	}
	if s.Lng < -180 || s.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidSample, s.Lng)
	}
	return nil
}
