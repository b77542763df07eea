package providers

import (
	"math"
	"time"
)

// surgeMultiplier computes the shared time-of-day pricing factor. Rush hour
// (08:00-10:59, 18:00-20:59) adds [0.3,0.7), weekends add [0.1,0.3), and
// roughly one request in ten catches a special-event surge of [0.5,1.0).
// The result is rounded to one decimal place and is never below 1.0.
func surgeMultiplier(now time.Time, rng Rand) float64 {
	m := 1.0

	hour := now.Hour()
	if (hour >= 8 && hour <= 10) || (hour >= 18 && hour <= 20) {
		m += 0.3 + rng.Float64()*0.4
	}
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		m += 0.1 + rng.Float64()*0.2
	}
	if rng.Float64() > 0.9 {
		m += 0.5 + rng.Float64()*0.5
	}

	return math.Round(m*10) / 10
}
