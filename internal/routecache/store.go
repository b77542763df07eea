package routecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"fare-aggregator/internal/providers"
)

// TTL is how long a cached route stays valid. Redis enforces it; once the
// key expires the route is indistinguishable from one never cached.
const TTL = 30 * time.Minute

var (
	ErrNotFound       = errors.New("route not cached")
	ErrDuplicateRoute = errors.New("route already cached")
)

// Store keeps route entries in Redis hashes keyed by fingerprint.
type Store struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewStore returns a Store with the standard 30 minute TTL.
func NewStore(rdb *goredis.Client) *Store {
	return &Store{rdb: rdb, ttl: TTL}
}

func routeKey(fingerprint string) string { return "route:" + fingerprint }

// Save writes a new entry and starts its TTL. A live entry with the same
// fingerprint makes Save fail with ErrDuplicateRoute; two concurrent cold
// searches for one route race here and the loser simply keeps its already
// computed result.
func (s *Store) Save(ctx context.Context, e *Entry) error {
	key := routeKey(e.Fingerprint)

	created, err := s.rdb.HSetNX(ctx, key, "fingerprint", e.Fingerprint).Result()
	if err != nil {
		return fmt.Errorf("route cache save: %w", err)
	}
	if !created {
		return ErrDuplicateRoute
	}

	base, err := json.Marshal(e.Providers)
	if err != nil {
		return fmt.Errorf("route cache save: marshal base values: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"from_address":  e.FromAddress,
		"from_lat":      e.FromCoord.Lat,
		"from_lng":      e.FromCoord.Lng,
		"to_address":    e.ToAddress,
		"to_lat":        e.ToCoord.Lat,
		"to_lng":        e.ToCoord.Lng,
		"vehicle_class": string(e.VehicleClass),
		"distance_km":   e.DistanceKm,
		"duration_min":  e.DurationMin,
		"providers":     string(base),
		"hit_count":     e.HitCount,
		"created_at":    e.CreatedAt.UTC().Format(time.RFC3339),
	})
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("route cache save: %w", err)
	}
	return nil
}

// Lookup returns the live entry for a fingerprint, or ErrNotFound when the
// route was never cached or its TTL has lapsed.
func (s *Store) Lookup(ctx context.Context, fingerprint string) (*Entry, error) {
	vals, err := s.rdb.HGetAll(ctx, routeKey(fingerprint)).Result()
	if err != nil {
		return nil, fmt.Errorf("route cache lookup: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrNotFound
	}
	return parseEntry(fingerprint, vals)
}

// RecordHit bumps the entry's hit counter and returns the new value.
func (s *Store) RecordHit(ctx context.Context, fingerprint string) (int, error) {
	n, err := s.rdb.HIncrBy(ctx, routeKey(fingerprint), "hit_count", 1).Result()
	if err != nil {
		return 0, fmt.Errorf("route cache hit count: %w", err)
	}
	return int(n), nil
}

func parseEntry(fingerprint string, vals map[string]string) (*Entry, error) {
	e := &Entry{
		Fingerprint:  fingerprint,
		FromAddress:  vals["from_address"],
		ToAddress:    vals["to_address"],
		VehicleClass: providers.VehicleClass(vals["vehicle_class"]),
	}

	var err error
	if e.FromCoord.Lat, err = strconv.ParseFloat(vals["from_lat"], 64); err != nil {
		return nil, fmt.Errorf("route cache: bad from_lat: %w", err)
	}
	if e.FromCoord.Lng, err = strconv.ParseFloat(vals["from_lng"], 64); err != nil {
		return nil, fmt.Errorf("route cache: bad from_lng: %w", err)
	}
	if e.ToCoord.Lat, err = strconv.ParseFloat(vals["to_lat"], 64); err != nil {
		return nil, fmt.Errorf("route cache: bad to_lat: %w", err)
	}
	if e.ToCoord.Lng, err = strconv.ParseFloat(vals["to_lng"], 64); err != nil {
		return nil, fmt.Errorf("route cache: bad to_lng: %w", err)
	}
	if e.DistanceKm, err = strconv.ParseFloat(vals["distance_km"], 64); err != nil {
		return nil, fmt.Errorf("route cache: bad distance_km: %w", err)
	}
	if e.DurationMin, err = strconv.Atoi(vals["duration_min"]); err != nil {
		return nil, fmt.Errorf("route cache: bad duration_min: %w", err)
	}
	if e.HitCount, err = strconv.Atoi(vals["hit_count"]); err != nil {
		return nil, fmt.Errorf("route cache: bad hit_count: %w", err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339, vals["created_at"]); err != nil {
		return nil, fmt.Errorf("route cache: bad created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(vals["providers"]), &e.Providers); err != nil {
		return nil, fmt.Errorf("route cache: bad base values: %w", err)
	}
	return e, nil
}
