package geo

import (
	"math"
	"testing"
)

func TestDistanceSymmetry(t *testing.T) {
	a := Coordinate{Lat: 12.9352, Lng: 77.6245}
	b := Coordinate{Lat: 13.1986, Lng: 77.7066}

	ab, _ := DistanceAndDuration(a, b)
	ba, _ := DistanceAndDuration(b, a)
	if math.Abs(ab-ba) > 0.01 {
		t.Errorf("distance not symmetric: a->b=%v b->a=%v", ab, ba)
	}
}

func TestDistanceAndDuration(t *testing.T) {
	tests := []struct {
		name     string
		from, to Coordinate
		minKm    float64
		maxKm    float64
	}{
		{
			name:  "same point",
			from:  Coordinate{Lat: 12.9352, Lng: 77.6245},
			to:    Coordinate{Lat: 12.9352, Lng: 77.6245},
			minKm: 0, maxKm: 0,
		},
		{
			name:  "Koramangala to MG Road",
			from:  Coordinate{Lat: 12.9352, Lng: 77.6245},
			to:    Coordinate{Lat: 12.9758, Lng: 77.6033},
			minKm: 5.0, maxKm: 5.5,
		},
		{
			name:  "Bangalore to airport",
			from:  Coordinate{Lat: 12.9716, Lng: 77.5946},
			to:    Coordinate{Lat: 13.1986, Lng: 77.7066},
			minKm: 25, maxKm: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			km, min := DistanceAndDuration(tt.from, tt.to)
			if km < tt.minKm || km > tt.maxKm {
				t.Errorf("distance = %v, want between %v and %v", km, tt.minKm, tt.maxKm)
			}
			want := int(math.Round(km / 25.0 * 60))
			if min != want {
				t.Errorf("duration = %v, want %v for %v km at 25 km/h", min, want, km)
			}
		})
	}
}

func TestDistanceRounding(t *testing.T) {
	km, _ := DistanceAndDuration(
		Coordinate{Lat: 12.9352, Lng: 77.6245},
		Coordinate{Lat: 12.9758, Lng: 77.6033},
	)
	if km != math.Round(km*100)/100 {
		t.Errorf("distance %v not rounded to 2 decimal places", km)
	}
}

func TestFingerprintDeterminism(t *testing.T) {
	from := Coordinate{Lat: 12.9352, Lng: 77.6245}
	to := Coordinate{Lat: 12.9758, Lng: 77.6033}

	first := Fingerprint(from, to, "car")
	second := Fingerprint(from, to, "car")
	if first != second {
		t.Errorf("fingerprint not deterministic: %s vs %s", first, second)
	}
	if len(first) != 32 {
		t.Errorf("fingerprint length = %d, want 32 hex chars", len(first))
	}
}

func TestFingerprintDistinguishesRoutes(t *testing.T) {
	from := Coordinate{Lat: 12.9352, Lng: 77.6245}
	to := Coordinate{Lat: 12.9758, Lng: 77.6033}

	base := Fingerprint(from, to, "car")
	if Fingerprint(from, to, "bike") == base {
		t.Error("vehicle class should change the fingerprint")
	}
	if Fingerprint(to, from, "car") == base {
		t.Error("direction should change the fingerprint")
	}
	if Fingerprint(from, Coordinate{Lat: 12.9759, Lng: 77.6033}, "car") == base {
		t.Error("destination shift should change the fingerprint")
	}
}

func TestFingerprintCanonicalization(t *testing.T) {
	// 12.9 and 12.900000 must render identically at fixed precision.
	a := Fingerprint(Coordinate{Lat: 12.9, Lng: 77.6}, Coordinate{Lat: 13, Lng: 77.7}, "auto")
	b := Fingerprint(Coordinate{Lat: 12.900000, Lng: 77.600000}, Coordinate{Lat: 13.0, Lng: 77.70}, "auto")
	if a != b {
		t.Errorf("equal coordinates fingerprinted differently: %s vs %s", a, b)
	}
}
