package geo

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
)

// Fingerprint derives the cache key for a route. Coordinates are rendered
// at fixed six-decimal precision before hashing so that logically equal
// routes always produce the same digest regardless of how the floats were
// parsed. Address text never participates; only geometry and vehicle class
// identify a route.
func Fingerprint(from, to Coordinate, vehicleClass string) string {
	route := canonical(from) + "-" + canonical(to) + "-" + vehicleClass
	sum := md5.Sum([]byte(route))
	return hex.EncodeToString(sum[:])
}

func canonical(c Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lng, 'f', 6, 64)
}
