package search

import (
	"time"

	"fare-aggregator/internal/geo"
	"fare-aggregator/internal/providers"
)

// Location pairs a display address with coordinates. The address is what
// the user typed; only the coordinates identify the route.
type Location struct {
	Address     string         `json:"address"`
	Coordinates geo.Coordinate `json:"coordinates"`
}

// SearchRequest is the body for POST /rides/search. VehicleType defaults
// to car when omitted.
type SearchRequest struct {
	From        Location `json:"from"`
	To          Location `json:"to"`
	VehicleType string   `json:"vehicleType"`
}

// SearchResult is the unified answer for one search. QueryID is set only on
// the cold path, where a search record was written; cached answers have no
// record to select against.
type SearchResult struct {
	QueryID     string            `json:"queryId,omitempty"`
	From        Location          `json:"from"`
	To          Location          `json:"to"`
	VehicleType string            `json:"vehicleType"`
	DistanceKm  float64           `json:"distance"`
	DurationMin int               `json:"duration"`
	Providers   []providers.Quote `json:"providers"`
	Cached      bool              `json:"cached"`
}

// SelectRequest is the body for POST /rides/select.
type SelectRequest struct {
	QueryID  string `json:"queryId"`
	Provider string `json:"provider"`
}

// Record is the immutable audit row written once per cold search. Only
// SelectedProvider is ever updated, when the caller reports a choice.
type Record struct {
	ID               string                 `json:"id"`
	UserID           *string                `json:"userId,omitempty"`
	From             Location               `json:"from"`
	To               Location               `json:"to"`
	VehicleClass     providers.VehicleClass `json:"vehicleType"`
	DistanceKm       float64                `json:"distance"`
	DurationMin      int                    `json:"duration"`
	Quotes           []providers.Quote      `json:"providers"`
	SelectedProvider *string                `json:"selectedProvider,omitempty"`
	SessionID        string                 `json:"-"`
	IPAddress        string                 `json:"-"`
	UserAgent        string                 `json:"-"`
	CreatedAt        time.Time              `json:"createdAt"`
}

// Fingerprint returns the cache key for this record's route. It must agree
// bit-for-bit with the fingerprint the search path computes.
func (r *Record) Fingerprint() string {
	return geo.Fingerprint(r.From.Coordinates, r.To.Coordinates, string(r.VehicleClass))
}

// RequestContext carries who and where a search came from.
type RequestContext struct {
	UserID    *string
	SessionID string
	IPAddress string
	UserAgent string
}

// PopularRoute is one row of the popularity report over stored records.
type PopularRoute struct {
	FromAddress  string    `json:"from"`
	ToAddress    string    `json:"to"`
	VehicleClass string    `json:"vehicleType"`
	Count        int       `json:"count"`
	AvgPrice     float64   `json:"avgPrice"`
	LastQueried  time.Time `json:"lastQueried"`
}
