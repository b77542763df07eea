package providers

import "time"

// VehicleClass selects the rate table and vehicle metadata for a quote.
type VehicleClass string

const (
	ClassBike VehicleClass = "bike"
	ClassAuto VehicleClass = "auto"
	ClassCar  VehicleClass = "car"
)

// DefaultClass is used when a search omits the vehicle type.
const DefaultClass = ClassCar

// Valid reports whether c is a known vehicle class.
func (c VehicleClass) Valid() bool {
	switch c {
	case ClassBike, ClassAuto, ClassCar:
		return true
	}
	return false
}

// VehicleDetails describes the vehicle a provider would send.
type VehicleDetails struct {
	Type     string `json:"type"`
	Model    string `json:"model"`
	Capacity int    `json:"capacity"`
}

// Quote is one provider's answer for a trip. Quotes are built fresh per
// search or per cache refresh and never mutated afterwards. Price is zero
// (and omitted from JSON) when the provider is unavailable.
type Quote struct {
	Provider          string          `json:"name"`
	Available         bool            `json:"available"`
	Price             int             `json:"price,omitempty"`
	Currency          string          `json:"currency,omitempty"`
	ETAPickupMin      int             `json:"etaPickup,omitempty"`
	ETADestinationMin int             `json:"etaDestination,omitempty"`
	Vehicle           *VehicleDetails `json:"vehicleDetails,omitempty"`
	SurgeMultiplier   float64         `json:"surgeMultiplier,omitempty"`
	UnavailableReason string          `json:"reason,omitempty"`
}

// Trip carries the parameters every provider quotes against.
type Trip struct {
	Class       VehicleClass
	DistanceKm  float64
	DurationMin int
}

// BaseValue is the per-provider price snapshot kept in the route cache.
// Refreshes rescale BasePrice with a fresh surge multiplier instead of
// re-running the full quote path.
type BaseValue struct {
	Provider     string    `json:"name"`
	BasePrice    int       `json:"basePrice"`
	BaseDuration int       `json:"baseDuration"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

type rate struct {
	baseFare float64
	perKm    float64
}

const currencyINR = "INR"

var vehicleModels = map[VehicleClass][]string{
	ClassBike: {"Honda Activa", "TVS Jupiter", "Suzuki Access", "Bajaj Pulsar"},
	ClassAuto: {"Bajaj RE", "TVS King", "Mahindra Alfa", "Piaggio Ape"},
	ClassCar:  {"Maruti Swift", "Hyundai i20", "Tata Tiago", "Honda City"},
}

var vehicleCapacity = map[VehicleClass]int{
	ClassBike: 2,
	ClassAuto: 3,
	ClassCar:  4,
}

func randomModel(class VehicleClass, rng Rand) string {
	models := vehicleModels[class]
	return models[rng.Intn(len(models))]
}
