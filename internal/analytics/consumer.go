package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"fare-aggregator/internal/events"
	"fare-aggregator/pkg/kafka"
)

const leaderboardKey = "routes:trending"

// TrendingRoute is one row of the live popularity leaderboard.
type TrendingRoute struct {
	FromAddress  string `json:"from"`
	ToAddress    string `json:"to"`
	VehicleClass string `json:"vehicleType"`
	Searches     int    `json:"searches"`
}

// Consumer tails search.completed and keeps a per-route search counter in a
// Redis sorted set. Unlike the SQL popularity report, the leaderboard sees
// cached searches too, since hits never write a search record.
type Consumer struct {
	kafka *kafka.Client
	rdb   *goredis.Client
}

// NewConsumer wires the leaderboard consumer.
func NewConsumer(k *kafka.Client, rdb *goredis.Client) *Consumer {
	return &Consumer{kafka: k, rdb: rdb}
}

// Start begins consuming search.completed in a background goroutine.
func (c *Consumer) Start(ctx context.Context) {
	c.kafka.Subscribe(ctx, kafka.TopicSearchCompleted, "analytics-group", func(data []byte) error {
		return c.handleMessage(ctx, data)
	})
}

func (c *Consumer) handleMessage(ctx context.Context, data []byte) error {
	var ev events.SearchCompletedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	if err := c.rdb.ZIncrBy(ctx, leaderboardKey, 1, ev.RouteKey()).Err(); err != nil {
		return err
	}
	log.Printf("[analytics] counted search %s", ev.RouteKey())
	return nil
}

// TopRoutes returns up to n routes, most searched first.
func (c *Consumer) TopRoutes(ctx context.Context, n int) ([]TrendingRoute, error) {
	members, err := c.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("trending routes: %w", err)
	}

	routes := make([]TrendingRoute, 0, len(members))
	for _, m := range members {
		key, _ := m.Member.(string)
		parts := strings.SplitN(key, "|", 3)
		if len(parts) != 3 {
			continue
		}
		routes = append(routes, TrendingRoute{
			FromAddress:  parts[0],
			ToAddress:    parts[1],
			VehicleClass: parts[2],
			Searches:     int(m.Score),
		})
	}
	return routes, nil
}
