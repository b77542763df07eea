package routecache

import (
	"time"

	"fare-aggregator/internal/geo"
	"fare-aggregator/internal/providers"
)

// Entry is a cached route: its geometry, trip estimates, and the per-provider
// base prices needed to re-quote it on a hit. Entries are owned by the Store;
// nothing else mutates them.
type Entry struct {
	Fingerprint  string
	FromAddress  string
	FromCoord    geo.Coordinate
	ToAddress    string
	ToCoord      geo.Coordinate
	VehicleClass providers.VehicleClass
	DistanceKm   float64
	DurationMin  int
	Providers    []providers.BaseValue
	HitCount     int
	CreatedAt    time.Time
}
