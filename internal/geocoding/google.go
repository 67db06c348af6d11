package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/anvesh/internal/models"
	"googlemaps.github.io/maps"
)

// ErrEmptyResponse is returned when Google finds nothing for an address.
var ErrEmptyResponse = errors.New("get empty response from Google Maps API")

// GoogleAPIClient is the part of *maps.Client the provider uses.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GoogleProvider geocodes through the Google Maps Geocoding API.
type GoogleProvider struct {
	client GoogleAPIClient
	log    *slog.Logger
}

func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Geocode returns the location of the best match for address.
// Partial matches are accepted but logged, since listing addresses are often abbreviated.
func (gp *GoogleProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	gp.log.DebugContext(ctx, "Geocoding lead address using Google Maps", "address", address)

	req := maps.GeocodingRequest{Address: address, Language: "en"}
	results, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrEmptyResponse
	}

	best := results[0]
	if best.PartialMatch {
		gp.log.InfoContext(ctx, "Google returned a partial match",
			"address", address, "matched", best.FormattedAddress)
	}
	loc := best.Geometry.Location

	return &models.Coordinates{Longitude: loc.Lng, Latitude: loc.Lat}, nil
}
