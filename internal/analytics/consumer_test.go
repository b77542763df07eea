package analytics

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"fare-aggregator/internal/events"
)

func setupConsumer(t *testing.T) *Consumer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewConsumer(nil, rdb)
}

func completedEvent(from, to, class string) []byte {
	data, _ := json.Marshal(events.SearchCompletedEvent{
		FromAddress:  from,
		ToAddress:    to,
		VehicleClass: class,
	})
	return data
}

func TestLeaderboardCountsAndRanks(t *testing.T) {
	c := setupConsumer(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := c.handleMessage(ctx, completedEvent("Koramangala", "MG Road", "car")); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if err := c.handleMessage(ctx, completedEvent("Indiranagar", "Airport", "auto")); err != nil {
		t.Fatalf("handle: %v", err)
	}

	routes, err := c.TopRoutes(ctx, 10)
	if err != nil {
		t.Fatalf("top routes: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("got %d routes, want 2", len(routes))
	}
	if routes[0].FromAddress != "Koramangala" || routes[0].Searches != 3 {
		t.Errorf("top route = %+v, want Koramangala with 3 searches", routes[0])
	}
	if routes[1].VehicleClass != "auto" || routes[1].Searches != 1 {
		t.Errorf("second route = %+v, want auto with 1 search", routes[1])
	}
}

func TestLeaderboardRejectsBadPayload(t *testing.T) {
	c := setupConsumer(t)

	if err := c.handleMessage(context.Background(), []byte("{not json")); err == nil {
		t.Fatal("malformed payload should error, not panic")
	}
}
