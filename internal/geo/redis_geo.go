package geo

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/fleet-live/internal/models"
)

// RedisStore implements Store on Redis GEO commands, shared across
// server replicas. Sample timestamps live in a per-driver hash next to
// the geo set.
type RedisStore struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

func NewRedisStore(addr, password, key string) *RedisStore {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisStore{client: c, key: key, ctx: context.Background()}
}

func (r *RedisStore) Upsert(s models.PositionSample) {
	_, _ = r.client.GeoAdd(r.ctx, r.key, &redis.GeoLocation{Longitude: s.Lng, Latitude: s.Lat, Name: s.EntityID}).Result()
	_ = r.client.HSet(r.ctx, metaKey(s.EntityID), map[string]interface{}{"observed_at": s.ObservedAt.Format(time.RFC3339Nano)}).Err()
}

func (r *RedisStore) Nearby(lat, lng float64, limit int) []models.PositionSample {
	res, err := r.client.GeoRadius(r.ctx, r.key, lng, lat, &redis.GeoRadiusQuery{Radius: 5000, Unit: "m", WithCoord: true, WithDist: true, Count: limit, Sort: "ASC"}).Result()
	if err != nil {
		return nil
	}
	out := make([]models.PositionSample, 0, len(res))
	for _, g := range res {
		s := models.PositionSample{EntityID: g.Name, Lat: g.Latitude, Lng: g.Longitude}
		if m, err := r.client.HGetAll(r.ctx, metaKey(g.Name)).Result(); err == nil {
			if v, ok := m["observed_at"]; ok {
				if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
					s.ObservedAt = ts
				}
			}
		}
		out = append(out, s)
	}
	return out
}

func metaKey(id string) string { return "driver:position:" + id }
