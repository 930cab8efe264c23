// Package geo ranks restaurant branches by great-circle distance.
package geo

import (
	"fmt"
	"math"

	"food-storefront/models"
)

const earthRadiusKm = 6371

// Unknown is the distance reported when either point is missing.
var Unknown = math.Inf(1)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether c is present with finite latitude and longitude.
func (c *Coordinates) Valid() bool {
	return c != nil && isFinite(c.Latitude) && isFinite(c.Longitude)
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

// DistanceKm is the haversine distance between a and b, or Unknown.
func DistanceKm(a, b *Coordinates) float64 {
	if !a.Valid() || !b.Valid() {
		return Unknown
	}
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)
	originLat := toRadians(a.Latitude)
	destinationLat := toRadians(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(originLat)*math.Cos(destinationLat)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// FormatDistanceLabel renders meters below one kilometer and kilometers with one
// decimal otherwise. Unknown distances render as "".
func FormatDistanceLabel(km float64) string {
	if !isFinite(km) {
		return ""
	}
	if km < 1 {
		return fmt.Sprintf("%dm", int64(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1fkm", km)
}

// BranchCoordinates resolves where a branch is. Explicit latitude/longitude win;
// the GeoJSON point ([lon, lat]) is the fallback.
func BranchCoordinates(b models.Branch) (*Coordinates, bool) {
	if b.Latitude != nil && b.Longitude != nil && isFinite(*b.Latitude) && isFinite(*b.Longitude) {
		return &Coordinates{Latitude: *b.Latitude, Longitude: *b.Longitude}, true
	}
	if b.Location != nil && len(b.Location.Coordinates) == 2 {
		lon, lat := b.Location.Coordinates[0], b.Location.Coordinates[1]
		if isFinite(lat) && isFinite(lon) {
			return &Coordinates{Latitude: lat, Longitude: lon}, true
		}
	}
	return nil, false
}

// NearestBranch scans branches for the one closest to coords. Branches without
// resolvable coordinates are skipped.
func NearestBranch(branches []models.Branch, coords *Coordinates) (models.Branch, float64, bool) {
	if !coords.Valid() || len(branches) == 0 {
		return models.Branch{}, Unknown, false
	}
	var nearest models.Branch
	best, found := Unknown, false
	for _, b := range branches {
		bc, ok := BranchCoordinates(b)
		if !ok {
			continue
		}
		if d := DistanceKm(coords, bc); d < best {
			nearest, best, found = b, d, true
		}
	}
	return nearest, best, found
}
