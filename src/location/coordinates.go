package location

import (
	"strconv"
	"strings"

	"ai_hoi/src/model"
)

// ParseCoordinates accepts "lat,lon" (spaces allowed) within WGS84 ranges
func ParseCoordinates(raw string) (*model.Coordinates, bool) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) != 2 {
		return nil, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, false
	}
	coords := &model.Coordinates{Lat: lat, Lon: lon}
	if !coords.Valid() {
		return nil, false
	}
	return coords, true
}
