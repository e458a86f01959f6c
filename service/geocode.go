package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"greenmap/metrics"
	"greenmap/models"
	"greenmap/osm"

	"github.com/apex/log"
)

// Location is the result of resolving a map click.
type Location struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	LocationName string  `json:"locationName"`
	// Label is the coordinate text shown when there is no name.
	Label string `json:"label"`
	// Fallback is set when the geocoder failed and the user must type a name.
	Fallback bool `json:"fallback"`
}

// CoordinateLabel renders a position as "Lat: 51.5050, Lng: -0.0900".
func CoordinateLabel(lat, lon float64) string {
	return fmt.Sprintf("Lat: %.4f, Lng: %.4f", lat, lon)
}

// Locate names the place at lat, lon. It never fails on geocoder errors:
// those yield an empty name and Fallback set.
func (s *Service) Locate(ctx context.Context, lat, lon float64) (Location, error) {
	if err := models.ValidateCoordinates(lat, lon); err != nil {
		return Location{}, err
	}
	loc := Location{Latitude: lat, Longitude: lon, Label: CoordinateLabel(lat, lon)}

	name, err := s.geocoder.ReverseGeocode(ctx, lat, lon)
	metrics.GeocodeRequestsTotal.WithLabelValues("reverse", metrics.Result(err)).Inc()
	if err != nil {
		log.WithError(err).Warnf("Reverse geocoding failed for (%.6f, %.6f)", lat, lon)
		loc.Fallback = true
		return loc, nil
	}
	if name == "" {
		name = loc.Label
	}
	loc.LocationName = name
	return loc, nil
}

// Search finds the coordinates of a free-text place name.
func (s *Service) Search(ctx context.Context, query string) (osm.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return osm.Place{}, fmt.Errorf("%w: search query is required", models.ErrInvalid)
	}

	p, err := s.geocoder.Search(ctx, query)
	switch {
	case err == nil:
		metrics.GeocodeRequestsTotal.WithLabelValues("search", "ok").Inc()
		return p, nil
	case errors.Is(err, osm.ErrNotFound):
		metrics.GeocodeRequestsTotal.WithLabelValues("search", "not_found").Inc()
		return osm.Place{}, err
	default:
		metrics.GeocodeRequestsTotal.WithLabelValues("search", "error").Inc()
		log.WithError(err).WithField("query", query).Error("Location search failed")
		return osm.Place{}, fmt.Errorf("%w: %v", ErrGeocode, err)
	}
}
