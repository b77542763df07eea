package providers

import (
	"context"
	"log"
	"math"
	"sync"
	"time"
)

// Engine fans quote requests out to every configured provider and rescales
// cached base prices on cache hits.
type Engine struct {
	providers []Provider
	byName    map[string]Provider
	env       *quoteEnv
	timeout   time.Duration
}

// NewEngine builds the default engine: Uber, Ola and Rapido with a
// time-seeded entropy source and the wall clock.
func NewEngine() *Engine {
	return NewEngineWith(newLockedRand(), time.Now)
}

// NewEngineWith lets callers pin the entropy source and clock, which makes
// quote output reproducible. Runtime behavior is unchanged when the
// defaults are passed.
func NewEngineWith(rng Rand, now func() time.Time) *Engine {
	env := &quoteEnv{rng: rng, now: now}
	list := []Provider{
		&uberProvider{env: env},
		&olaProvider{env: env},
		&rapidoProvider{env: env},
	}
	byName := make(map[string]Provider, len(list))
	for _, p := range list {
		byName[p.Name()] = p
	}
	return &Engine{
		providers: list,
		byName:    byName,
		env:       env,
		timeout:   2 * time.Second,
	}
}

// QuoteAll asks every provider concurrently and keeps whichever succeed,
// in configured provider order rather than completion order. A provider
// that errors or outlives its timeout simply contributes nothing. An empty
// result means no provider can serve the trip; it is not an error.
func (e *Engine) QuoteAll(ctx context.Context, trip Trip) []Quote {
	results := make([]*Quote, len(e.providers))

	var wg sync.WaitGroup
	for i, p := range e.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()

			qctx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()

			done := make(chan struct{})
			var q Quote
			var err error
			go func() {
				q, err = p.Quote(qctx, trip)
				close(done)
			}()

			select {
			case <-done:
				if err != nil {
					log.Printf("[providers] %s quote failed: %v", p.Name(), err)
					return
				}
				results[i] = &q
			case <-qctx.Done():
				log.Printf("[providers] %s quote timed out", p.Name())
			}
		}(i, p)
	}
	wg.Wait()

	quotes := make([]Quote, 0, len(results))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}
	return quotes
}

// Refresh rescales cached base prices with a fresh surge multiplier instead
// of re-running the full quote path. Cached routes re-roll availability at
// 90%: a route that quoted successfully within the TTL is assumed
// known-good. Base values from providers the engine no longer knows are
// skipped.
func (e *Engine) Refresh(baseValues []BaseValue, class VehicleClass) []Quote {
	now := e.env.now()
	quotes := make([]Quote, 0, len(baseValues))

	for _, bv := range baseValues {
		p, ok := e.byName[bv.Provider]
		if !ok {
			log.Printf("[providers] dropping cached base value for unknown provider %q", bv.Provider)
			continue
		}

		surge := surgeMultiplier(now, e.env.rng)
		available := e.env.rng.Float64() > 0.1

		q := Quote{
			Provider:          bv.Provider,
			Available:         available,
			Currency:          currencyINR,
			ETAPickupMin:      bv.BaseDuration + jitter(e.env.rng, 3),
			ETADestinationMin: bv.BaseDuration + jitter(e.env.rng, 5),
			Vehicle: &VehicleDetails{
				Type:     p.VehicleName(class),
				Model:    randomModel(class, e.env.rng),
				Capacity: vehicleCapacity[class],
			},
			SurgeMultiplier: surge,
		}
		if available {
			q.Price = int(math.Round(float64(bv.BasePrice) * surge))
		}
		quotes = append(quotes, q)
	}
	return quotes
}
