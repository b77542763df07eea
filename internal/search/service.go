package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"fare-aggregator/internal/events"
	"fare-aggregator/internal/geo"
	"fare-aggregator/internal/providers"
	"fare-aggregator/internal/routecache"
	"fare-aggregator/pkg/kafka"
)

// RouteCache is the slice of the route cache the orchestrator needs.
type RouteCache interface {
	Lookup(ctx context.Context, fingerprint string) (*routecache.Entry, error)
	RecordHit(ctx context.Context, fingerprint string) (int, error)
	Save(ctx context.Context, e *routecache.Entry) error
}

// Quoter produces fresh quotes for a trip and refreshed quotes for cached
// base values.
type Quoter interface {
	QuoteAll(ctx context.Context, trip providers.Trip) []providers.Quote
	Refresh(baseValues []providers.BaseValue, class providers.VehicleClass) []providers.Quote
}

// Publisher sends analytics events; *kafka.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// Broadcaster pushes live summaries to feed subscribers.
type Broadcaster interface {
	Broadcast(v any)
}

// Service orchestrates a fare search: fingerprint, consult the cache, then
// either refresh cached quotes or compute the route cold and persist it.
type Service struct {
	records RecordStore
	cache   RouteCache
	quoter  Quoter
	events  Publisher   // nil disables event publishing
	feed    Broadcaster // nil disables the live feed
}

// NewService wires the search orchestrator. events and feed may be nil.
func NewService(records RecordStore, cache RouteCache, quoter Quoter, events Publisher, feed Broadcaster) *Service {
	return &Service{records: records, cache: cache, quoter: quoter, events: events, feed: feed}
}

// Search runs one fare search. Partial provider failure is a valid outcome;
// only route computation or record persistence failures abort the search.
func (s *Service) Search(ctx context.Context, req SearchRequest, rc RequestContext) (*SearchResult, error) {
	class := providers.VehicleClass(req.VehicleType)
	if class == "" {
		class = providers.DefaultClass
	}

	fingerprint := geo.Fingerprint(req.From.Coordinates, req.To.Coordinates, string(class))

	entry, err := s.cache.Lookup(ctx, fingerprint)
	switch {
	case err == nil:
		return s.refreshHit(ctx, req, class, fingerprint, entry, rc)
	case errors.Is(err, routecache.ErrNotFound):
		// cold route
	default:
		// A broken cache must not block searches; fall through to the
		// cold path as if the route were absent.
		log.Printf("[search] cache lookup failed for %s: %v", fingerprint, err)
	}

	return s.computeCold(ctx, req, class, fingerprint, rc)
}

func (s *Service) refreshHit(ctx context.Context, req SearchRequest, class providers.VehicleClass,
	fingerprint string, entry *routecache.Entry, rc RequestContext) (*SearchResult, error) {

	if _, err := s.cache.RecordHit(ctx, fingerprint); err != nil {
		log.Printf("[search] hit count update failed for %s: %v", fingerprint, err)
	}

	result := &SearchResult{
		From:        req.From,
		To:          req.To,
		VehicleType: string(class),
		DistanceKm:  entry.DistanceKm,
		DurationMin: entry.DurationMin,
		Providers:   s.quoter.Refresh(entry.Providers, class),
		Cached:      true,
	}
	s.announce(result, "", rc)
	return result, nil
}

func (s *Service) computeCold(ctx context.Context, req SearchRequest, class providers.VehicleClass,
	fingerprint string, rc RequestContext) (*SearchResult, error) {

	distanceKm, durationMin := geo.DistanceAndDuration(req.From.Coordinates, req.To.Coordinates)

	quotes := s.quoter.QuoteAll(ctx, providers.Trip{
		Class:       class,
		DistanceKm:  distanceKm,
		DurationMin: durationMin,
	})

	now := time.Now()
	rec := &Record{
		ID:           uuid.New().String(),
		UserID:       rc.UserID,
		From:         req.From,
		To:           req.To,
		VehicleClass: class,
		DistanceKm:   distanceKm,
		DurationMin:  durationMin,
		Quotes:       quotes,
		SessionID:    rc.SessionID,
		IPAddress:    rc.IPAddress,
		UserAgent:    rc.UserAgent,
		CreatedAt:    now,
	}
	if err := s.records.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist search record: %w", err)
	}

	entry := &routecache.Entry{
		Fingerprint:  fingerprint,
		FromAddress:  req.From.Address,
		FromCoord:    req.From.Coordinates,
		ToAddress:    req.To.Address,
		ToCoord:      req.To.Coordinates,
		VehicleClass: class,
		DistanceKm:   distanceKm,
		DurationMin:  durationMin,
		Providers:    baseValues(quotes, now),
		HitCount:     1,
		CreatedAt:    now,
	}
	if err := s.cache.Save(ctx, entry); err != nil {
		// The response is already computed; a failed cache write only
		// costs the next search a recompute.
		if errors.Is(err, routecache.ErrDuplicateRoute) {
			log.Printf("[search] lost cache insert race for %s", fingerprint)
		} else {
			log.Printf("[search] cache store failed for %s: %v", fingerprint, err)
		}
	}

	result := &SearchResult{
		QueryID:     rec.ID,
		From:        req.From,
		To:          req.To,
		VehicleType: string(class),
		DistanceKm:  distanceKm,
		DurationMin: durationMin,
		Providers:   quotes,
		Cached:      false,
	}
	s.announce(result, rec.ID, rc)
	return result, nil
}

// baseValues snapshots the quoted price and pickup ETA of each available
// quote as the base for future cache refreshes.
func baseValues(quotes []providers.Quote, now time.Time) []providers.BaseValue {
	base := make([]providers.BaseValue, 0, len(quotes))
	for _, q := range quotes {
		if !q.Available {
			continue
		}
		base = append(base, providers.BaseValue{
			Provider:     q.Provider,
			BasePrice:    q.Price,
			BaseDuration: q.ETAPickupMin,
			LastUpdated:  now,
		})
	}
	return base
}

// SelectProvider records which offer the caller chose on an existing record.
func (s *Service) SelectProvider(ctx context.Context, queryID, provider string) error {
	if err := s.records.SetSelectedProvider(ctx, queryID, provider); err != nil {
		return err
	}
	if s.events != nil {
		go func() {
			ev := events.ProviderSelectedEvent{
				SearchID:   queryID,
				Provider:   provider,
				SelectedAt: time.Now().Format(time.RFC3339),
			}
			if err := s.events.Publish(context.Background(), kafka.TopicProviderSelected, queryID, ev); err != nil {
				log.Printf("[search] failed to publish provider.selected: %v", err)
			}
		}()
	}
	return nil
}

// History returns a page of the user's past searches plus the total count.
func (s *Service) History(ctx context.Context, userID string, page, limit int) ([]Record, int, error) {
	return s.records.ListByUser(ctx, userID, page, limit)
}

// PopularRoutes returns the top routes by search count over all history.
func (s *Service) PopularRoutes(ctx context.Context) ([]PopularRoute, error) {
	return s.records.PopularRoutes(ctx, 10)
}

func (s *Service) announce(res *SearchResult, recordID string, rc RequestContext) {
	ev := events.SearchCompletedEvent{
		SearchID:     recordID,
		FromAddress:  res.From.Address,
		ToAddress:    res.To.Address,
		VehicleClass: res.VehicleType,
		DistanceKm:   res.DistanceKm,
		QuoteCount:   len(res.Providers),
		Cached:       res.Cached,
		CompletedAt:  time.Now().Format(time.RFC3339),
	}
	if rc.UserID != nil {
		ev.UserID = *rc.UserID
	}

	if s.feed != nil {
		s.feed.Broadcast(ev)
	}
	if s.events != nil {
		go func() {
			if err := s.events.Publish(context.Background(), kafka.TopicSearchCompleted, ev.RouteKey(), ev); err != nil {
				log.Printf("[search] failed to publish search.completed: %v", err)
			}
		}()
	}
}
