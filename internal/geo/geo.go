package geo

import (
	"math"
	"sync"

	"github.com/example/fleet-live/internal/models"
)

// Store holds the latest known raw position per driver and answers the
// operator map's "drivers near a point" query. It is the durable side
// of the live map; smoothing between samples is the tracker's job.
type Store interface {
	Upsert(s models.PositionSample)
	Nearby(lat, lng float64, limit int) []models.PositionSample
}

type Index struct {
	mu      sync.RWMutex
	drivers map[string]models.PositionSample
}

func NewIndex() *Index {
	return &Index{drivers: make(map[string]models.PositionSample)}
}

func (g *Index) Upsert(s models.PositionSample) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if prev, ok := g.drivers[s.EntityID]; ok && !s.ObservedAt.After(prev.ObservedAt) {
		return
	}
	g.drivers[s.EntityID] = s
}

// naive scan; in prod use geo-hash or H3
func (g *Index) Nearby(lat, lng float64, limit int) []models.PositionSample {
	g.mu.RLock()
	defer g.mu.RUnlock()
	type pair struct {
		s    models.PositionSample
		dist float64
	}
	arr := make([]pair, 0, len(g.drivers))
	for _, s := range g.drivers {
		dist := Haversine(lat, lng, s.Lat, s.Lng)
		arr = append(arr, pair{s, dist})
	}
	// partial selection sort for top-N
	n := limit
	if n > len(arr) {
		n = len(arr)
	}
	for i := 0; i < n; i++ {
		minIdx := i
		for j := i + 1; j < len(arr); j++ {
			if arr[j].dist < arr[minIdx].dist {
				minIdx = j
			}
		}
		arr[i], arr[minIdx] = arr[minIdx], arr[i]
	}
	out := make([]models.PositionSample, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, arr[i].s)
	}
	return out
}

// Haversine distance in meters
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
