package search

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"fare-aggregator/internal/geo"
	"fare-aggregator/internal/providers"
	"fare-aggregator/internal/routecache"
)

// memStore is an in-memory RecordStore for tests.
type memStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

func newMemStore() *memStore { return &memStore{records: make(map[string]*Record)} }

func (m *memStore) Insert(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memStore) SetSelectedProvider(_ context.Context, id, provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	rec.SelectedProvider = &provider
	return nil
}

func (m *memStore) ListByUser(_ context.Context, userID string, page, limit int) ([]Record, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.records {
		if rec.UserID != nil && *rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	return out, len(out), nil
}

func (m *memStore) PopularRoutes(context.Context, int) ([]PopularRoute, error) {
	return nil, nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// captureFeed records broadcast events synchronously.
type captureFeed struct {
	mu     sync.Mutex
	events []any
}

func (f *captureFeed) Broadcast(v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, v)
}

// testRand is a seeded, mutex-guarded source so the concurrent fan-out is
// reproducible and race-free.
type testRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (t *testRand) Float64() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.r.Float64()
}

func (t *testRand) Intn(n int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.r.Intn(n)
}

func offPeakClock() time.Time {
	// Tuesday 14:00: flat surge, quotes depend only on rate tables.
	return time.Date(2024, time.March, 5, 14, 0, 0, 0, time.UTC)
}

type fixture struct {
	svc   *Service
	store *memStore
	cache *routecache.Store
	feed  *captureFeed
	mr    *miniredis.Miniredis
}

func setup(t *testing.T, seed int64) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := newMemStore()
	cache := routecache.NewStore(rdb)
	engine := providers.NewEngineWith(&testRand{r: rand.New(rand.NewSource(seed))}, offPeakClock)
	feed := &captureFeed{}

	return &fixture{
		svc:   NewService(store, cache, engine, nil, feed),
		store: store,
		cache: cache,
		feed:  feed,
		mr:    mr,
	}
}

func koramangalaToMGRoad() SearchRequest {
	return SearchRequest{
		From: Location{
			Address:     "Koramangala, Bangalore",
			Coordinates: geo.Coordinate{Lat: 12.9352, Lng: 77.6245},
		},
		To: Location{
			Address:     "MG Road, Bangalore",
			Coordinates: geo.Coordinate{Lat: 12.9758, Lng: 77.6033},
		},
		VehicleType: "car",
	}
}

func TestSearchColdThenCached(t *testing.T) {
	f := setup(t, 42)
	ctx := context.Background()
	req := koramangalaToMGRoad()

	cold, err := f.svc.Search(ctx, req, RequestContext{SessionID: "s1"})
	if err != nil {
		t.Fatalf("cold search: %v", err)
	}

	if cold.Cached {
		t.Error("first search must not be cached")
	}
	if cold.DistanceKm < 5.0 || cold.DistanceKm > 5.5 {
		t.Errorf("distance = %v, want ~5.0-5.5 km", cold.DistanceKm)
	}
	if len(cold.Providers) > 3 {
		t.Errorf("got %d providers, max 3 configured", len(cold.Providers))
	}
	if cold.QueryID == "" {
		t.Error("cold search should reference its search record")
	}
	if f.store.len() != 1 {
		t.Errorf("got %d search records, want exactly 1", f.store.len())
	}

	fp := geo.Fingerprint(req.From.Coordinates, req.To.Coordinates, "car")
	entry, err := f.cache.Lookup(ctx, fp)
	if err != nil {
		t.Fatalf("expected a cache entry for the route fingerprint: %v", err)
	}
	if entry.HitCount != 1 {
		t.Errorf("fresh entry hit count = %d, want 1", entry.HitCount)
	}

	warm, err := f.svc.Search(ctx, req, RequestContext{SessionID: "s2"})
	if err != nil {
		t.Fatalf("warm search: %v", err)
	}
	if !warm.Cached {
		t.Error("second search within the TTL must be cached")
	}
	if warm.DistanceKm != cold.DistanceKm || warm.DurationMin != cold.DurationMin {
		t.Errorf("cached estimates drifted: %v/%v vs %v/%v",
			warm.DistanceKm, warm.DurationMin, cold.DistanceKm, cold.DurationMin)
	}
	if warm.QueryID != "" {
		t.Error("cache hits write no search record")
	}
	if f.store.len() != 1 {
		t.Errorf("cache hit wrote a search record: %d records", f.store.len())
	}

	entry, err = f.cache.Lookup(ctx, fp)
	if err != nil {
		t.Fatalf("lookup after hit: %v", err)
	}
	if entry.HitCount != 2 {
		t.Errorf("hit count = %d, want 2 after one hit", entry.HitCount)
	}
}

func TestSearchExpiredEntryRecomputes(t *testing.T) {
	f := setup(t, 7)
	ctx := context.Background()
	req := koramangalaToMGRoad()

	if _, err := f.svc.Search(ctx, req, RequestContext{}); err != nil {
		t.Fatalf("cold search: %v", err)
	}

	f.mr.FastForward(routecache.TTL + time.Minute)

	res, err := f.svc.Search(ctx, req, RequestContext{})
	if err != nil {
		t.Fatalf("post-expiry search: %v", err)
	}
	if res.Cached {
		t.Error("expired entry must trigger the cold path, not a refresh")
	}
	if f.store.len() != 2 {
		t.Errorf("got %d search records, want 2 cold searches", f.store.len())
	}
}

func TestSearchDefaultsVehicleClass(t *testing.T) {
	f := setup(t, 3)
	req := koramangalaToMGRoad()
	req.VehicleType = ""

	res, err := f.svc.Search(context.Background(), req, RequestContext{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.VehicleType != "car" {
		t.Errorf("vehicle type = %q, want default car", res.VehicleType)
	}
}

func TestSearchSurgeFloorOnRefresh(t *testing.T) {
	f := setup(t, 99)
	ctx := context.Background()
	req := koramangalaToMGRoad()

	if _, err := f.svc.Search(ctx, req, RequestContext{}); err != nil {
		t.Fatalf("cold search: %v", err)
	}

	for i := 0; i < 20; i++ {
		res, err := f.svc.Search(ctx, req, RequestContext{})
		if err != nil {
			t.Fatalf("warm search %d: %v", i, err)
		}
		for _, q := range res.Providers {
			if q.SurgeMultiplier < 1.0 {
				t.Fatalf("refreshed %s surge = %v, must be >= 1.0", q.Provider, q.SurgeMultiplier)
			}
		}
	}
}

// lostRaceCache simulates losing the insert race: the route reads as absent
// but the save collides with a concurrent writer.
type lostRaceCache struct{ RouteCache }

func (c *lostRaceCache) Lookup(context.Context, string) (*routecache.Entry, error) {
	return nil, routecache.ErrNotFound
}

func (c *lostRaceCache) Save(context.Context, *routecache.Entry) error {
	return routecache.ErrDuplicateRoute
}

func TestSearchSurvivesCacheInsertRace(t *testing.T) {
	f := setup(t, 5)
	raced := NewService(f.store, &lostRaceCache{RouteCache: f.cache}, providers.NewEngineWith(
		&testRand{r: rand.New(rand.NewSource(5))}, offPeakClock), nil, nil)

	res, err := raced.Search(context.Background(), koramangalaToMGRoad(), RequestContext{})
	if err != nil {
		t.Fatalf("search must survive a duplicate cache insert: %v", err)
	}
	if res.Cached {
		t.Error("raced search still took the cold path")
	}
	if f.store.len() != 1 {
		t.Errorf("got %d search records, want 1", f.store.len())
	}
}

func TestSelectProvider(t *testing.T) {
	f := setup(t, 21)
	ctx := context.Background()

	res, err := f.svc.Search(ctx, koramangalaToMGRoad(), RequestContext{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if err := f.svc.SelectProvider(ctx, res.QueryID, "ola"); err != nil {
		t.Fatalf("select: %v", err)
	}
	rec := f.store.records[res.QueryID]
	if rec.SelectedProvider == nil || *rec.SelectedProvider != "ola" {
		t.Errorf("selected provider = %v, want ola", rec.SelectedProvider)
	}

	if err := f.svc.SelectProvider(ctx, "missing-id", "uber"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestSearchBroadcastsToFeed(t *testing.T) {
	f := setup(t, 13)

	if _, err := f.svc.Search(context.Background(), koramangalaToMGRoad(), RequestContext{}); err != nil {
		t.Fatalf("search: %v", err)
	}

	f.feed.mu.Lock()
	defer f.feed.mu.Unlock()
	if len(f.feed.events) != 1 {
		t.Fatalf("feed got %d events, want 1", len(f.feed.events))
	}
}

func TestRecordFingerprintMatchesSearchPath(t *testing.T) {
	req := koramangalaToMGRoad()
	rec := &Record{
		From:         Location{Address: "totally different text", Coordinates: req.From.Coordinates},
		To:           Location{Address: "also different", Coordinates: req.To.Coordinates},
		VehicleClass: providers.ClassCar,
	}

	want := geo.Fingerprint(req.From.Coordinates, req.To.Coordinates, "car")
	if rec.Fingerprint() != want {
		t.Error("record fingerprint must agree with the search path and ignore address text")
	}
}
