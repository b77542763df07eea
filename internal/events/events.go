package events

// SearchCompletedEvent is published to search.completed after every search,
// cached or cold. Analytics consumers key on the route triple.
type SearchCompletedEvent struct {
	SearchID     string  `json:"search_id,omitempty"`
	UserID       string  `json:"user_id,omitempty"`
	FromAddress  string  `json:"from_address"`
	ToAddress    string  `json:"to_address"`
	VehicleClass string  `json:"vehicle_class"`
	DistanceKm   float64 `json:"distance_km"`
	QuoteCount   int     `json:"quote_count"`
	Cached       bool    `json:"cached"`
	CompletedAt  string  `json:"completed_at"`
}

// RouteKey is the leaderboard member for this event's route.
func (e SearchCompletedEvent) RouteKey() string {
	return e.FromAddress + "|" + e.ToAddress + "|" + e.VehicleClass
}

// ProviderSelectedEvent is published to provider.selected when a caller
// reports which offer they chose.
type ProviderSelectedEvent struct {
	SearchID   string `json:"search_id"`
	Provider   string `json:"provider"`
	SelectedAt string `json:"selected_at"`
}
