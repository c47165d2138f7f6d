package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

// StationDistance pairs a station with its great-circle distance from a
// reference point.
type StationDistance struct {
	Station        models.TransportStation `json:"station"`
	DistanceMeters float64                 `json:"distanceMeters"`
}

// NearestStations returns the limit closest stations to a point, nearest
// first. A non-positive limit returns the full sorted list.
func NearestStations(stations []models.TransportStation, lat, lng float64, limit int) []StationDistance {
	point := orb.Point{lng, lat}

	distances := make([]StationDistance, 0, len(stations))
	for _, station := range stations {
		distances = append(distances, StationDistance{
			Station:        station,
			DistanceMeters: geo.Distance(point, orb.Point{station.Longitude, station.Latitude}),
		})
	}

	sort.Slice(distances, func(i, j int) bool {
		return distances[i].DistanceMeters < distances[j].DistanceMeters
	})

	if limit > 0 && len(distances) > limit {
		distances = distances[:limit]
	}
	return distances
}

// StationsWithin returns stations inside radiusMeters sorted by distance.
// A bounding box skips the exact distance computation for far-away rows.
func StationsWithin(stations []models.TransportStation, lat, lng, radiusMeters float64) []StationDistance {
	point := orb.Point{lng, lat}
	bound := geo.NewBoundAroundPoint(point, radiusMeters)

	within := make([]StationDistance, 0)
	for _, station := range stations {
		candidate := orb.Point{station.Longitude, station.Latitude}
		if !bound.Contains(candidate) {
			continue
		}
		distance := geo.Distance(point, candidate)
		if distance <= radiusMeters {
			within = append(within, StationDistance{Station: station, DistanceMeters: distance})
		}
	}

	sort.Slice(within, func(i, j int) bool {
		return within[i].DistanceMeters < within[j].DistanceMeters
	})
	return within
}

// TransitScore grades rail accessibility on a 1-10 scale, from a short walk
// down to effectively car-dependent.
func TransitScore(distanceMeters float64) float64 {
	switch {
	case distanceMeters <= 500:
		return 10
	case distanceMeters <= 1000:
		return 9
	case distanceMeters <= 2000:
		return 8
	case distanceMeters <= 3500:
		return 7
	case distanceMeters <= 5000:
		return 6
	case distanceMeters <= 8000:
		return 5
	case distanceMeters <= 12000:
		return 4
	case distanceMeters <= 18000:
		return 3
	case distanceMeters <= 25000:
		return 2
	default:
		return 1
	}
}

// NearestStationInfo summarises connectivity around a point for a response,
// nil when no stations are loaded.
func NearestStationInfo(stations []models.TransportStation, lat, lng float64) *models.TransportInfo {
	nearest := NearestStations(stations, lat, lng, 1)
	if len(nearest) == 0 {
		return nil
	}

	return &models.TransportInfo{
		NearestStation: nearest[0].Station.Station,
		DistanceMeters: math.Round(nearest[0].DistanceMeters),
		TransitScore:   TransitScore(nearest[0].DistanceMeters),
	}
}
