package providers

import (
	"context"
	"math"
)

// Provider quotes a single ride-hailing service for a trip. Implementations
// each carry their own rate table and availability quirks; adding a service
// means adding one implementation, not another branch in the engine.
type Provider interface {
	Name() string
	// VehicleName is the provider's product name for a vehicle class.
	VehicleName(class VehicleClass) string
	Quote(ctx context.Context, trip Trip) (Quote, error)
}

func price(r rate, distanceKm, surge float64) int {
	return int(math.Round((r.baseFare + distanceKm*r.perKm) * surge))
}

func jitter(rng Rand, n float64) int {
	return int(math.Round(rng.Float64() * n))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ---- Uber ----

type uberProvider struct{ env *quoteEnv }

var uberRates = map[VehicleClass]rate{
	ClassBike: {baseFare: 15, perKm: 8},
	ClassAuto: {baseFare: 25, perKm: 12},
	ClassCar:  {baseFare: 35, perKm: 15},
}

var uberVehicles = map[VehicleClass]string{
	ClassBike: "UberMoto",
	ClassAuto: "UberAuto",
	ClassCar:  "UberGo",
}

func (p *uberProvider) Name() string { return "uber" }

func (p *uberProvider) VehicleName(class VehicleClass) string { return uberVehicles[class] }

func (p *uberProvider) Quote(_ context.Context, trip Trip) (Quote, error) {
	surge := surgeMultiplier(p.env.now(), p.env.rng)

	// Bikes run at reduced availability.
	available := trip.Class != ClassBike || p.env.rng.Float64() > 0.2

	q := Quote{
		Provider:          p.Name(),
		Available:         available,
		Currency:          currencyINR,
		ETAPickupMin:      maxInt(2, jitter(p.env.rng, 8)),
		ETADestinationMin: trip.DurationMin + jitter(p.env.rng, 5),
		Vehicle: &VehicleDetails{
			Type:     p.VehicleName(trip.Class),
			Model:    randomModel(trip.Class, p.env.rng),
			Capacity: vehicleCapacity[trip.Class],
		},
		SurgeMultiplier: surge,
	}
	if available {
		q.Price = price(uberRates[trip.Class], trip.DistanceKm, surge)
	}
	return q, nil
}

// ---- Ola ----

type olaProvider struct{ env *quoteEnv }

var olaRates = map[VehicleClass]rate{
	ClassBike: {baseFare: 12, perKm: 7},
	ClassAuto: {baseFare: 20, perKm: 10},
	ClassCar:  {baseFare: 30, perKm: 13},
}

var olaVehicles = map[VehicleClass]string{
	ClassBike: "bike",
	ClassAuto: "auto",
	ClassCar:  "micro",
}

func (p *olaProvider) Name() string { return "ola" }

func (p *olaProvider) VehicleName(class VehicleClass) string { return olaVehicles[class] }

func (p *olaProvider) Quote(_ context.Context, trip Trip) (Quote, error) {
	surge := surgeMultiplier(p.env.now(), p.env.rng)
	available := p.env.rng.Float64() > 0.15

	q := Quote{
		Provider:          p.Name(),
		Available:         available,
		Currency:          currencyINR,
		ETAPickupMin:      maxInt(3, jitter(p.env.rng, 10)),
		ETADestinationMin: trip.DurationMin + jitter(p.env.rng, 3),
		Vehicle: &VehicleDetails{
			Type:     p.VehicleName(trip.Class),
			Model:    randomModel(trip.Class, p.env.rng),
			Capacity: vehicleCapacity[trip.Class],
		},
		SurgeMultiplier: surge,
	}
	if available {
		q.Price = price(olaRates[trip.Class], trip.DistanceKm, surge)
	}
	return q, nil
}

// ---- Rapido ----

type rapidoProvider struct{ env *quoteEnv }

var rapidoRates = map[VehicleClass]rate{
	ClassBike: {baseFare: 10, perKm: 6},
	ClassAuto: {baseFare: 18, perKm: 9},
	ClassCar:  {baseFare: 35, perKm: 16},
}

var rapidoVehicles = map[VehicleClass]string{
	ClassBike: "bike",
	ClassAuto: "auto",
	ClassCar:  "cab",
}

func (p *rapidoProvider) Name() string { return "rapido" }

func (p *rapidoProvider) VehicleName(class VehicleClass) string { return rapidoVehicles[class] }

func (p *rapidoProvider) Quote(_ context.Context, trip Trip) (Quote, error) {
	// Rapido is bike/auto first; cars are served for a minority of requests.
	if trip.Class == ClassCar && p.env.rng.Float64() > 0.3 {
		return Quote{
			Provider:          p.Name(),
			Available:         false,
			UnavailableReason: "Car service not available in this area",
		}, nil
	}

	surge := surgeMultiplier(p.env.now(), p.env.rng)
	q := Quote{
		Provider:          p.Name(),
		Available:         true,
		Price:             price(rapidoRates[trip.Class], trip.DistanceKm, surge),
		Currency:          currencyINR,
		ETAPickupMin:      maxInt(2, jitter(p.env.rng, 6)),
		ETADestinationMin: trip.DurationMin + jitter(p.env.rng, 4),
		Vehicle: &VehicleDetails{
			Type:     p.VehicleName(trip.Class),
			Model:    randomModel(trip.Class, p.env.rng),
			Capacity: vehicleCapacity[trip.Class],
		},
		SurgeMultiplier: surge,
	}
	return q, nil
}
