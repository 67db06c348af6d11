// Package geocoding resolves stored lead addresses to coordinates.
package geocoding

import (
	"context"

	"github.com/UnknownOlympus/anvesh/internal/models"
)

// Provider geocodes a single address.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
}
