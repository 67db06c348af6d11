package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/models"
	"golang.org/x/time/rate"
)

const (
	nominatimURL       = "https://nominatim.openstreetmap.org/search"
	nominatimUserAgent = "Anvesh-Lead-Geocoder/1.0 (https://github.com/UnknownOlympus/anvesh)"
)

var (
	ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")
	ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")
)

// HTTPClient is the part of *http.Client the Nominatim provider uses.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// NominatimProvider geocodes through the public OpenStreetMap Nominatim API.
// Requests are limited to one per second across all workers, as the usage policy requires.
type NominatimProvider struct {
	client  HTTPClient
	baseURL string
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewNominatimProvider creates a provider against the public endpoint.
func NewNominatimProvider(log *slog.Logger) *NominatimProvider {
	const timeout = 10 * time.Second
	return NewNominatimProviderWithClient(&http.Client{Timeout: timeout}, log)
}

// NewNominatimProviderWithClient creates a provider with a custom HTTP client.
func NewNominatimProviderWithClient(client HTTPClient, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:  client,
		baseURL: nominatimURL,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		log:     log,
	}
}

// WithLimit replaces the request limiter.
func (np *NominatimProvider) WithLimit(limit rate.Limit, burst int) *NominatimProvider {
	np.limiter = rate.NewLimiter(limit, burst)
	return np
}

// Geocode tries the address and then progressively coarser variants of it until one matches.
func (np *NominatimProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	np.log.DebugContext(ctx, "Geocoding lead address using Nominatim", "address", address)

	variants := addressFallbacks(address)
	for level, variant := range variants {
		coords, err := np.search(ctx, variant)
		if err == nil {
			if level > 0 {
				np.log.InfoContext(ctx, "Geocoded using fallback address",
					"original", address, "fallback", variant, "fallback_level", level)
			}
			return coords, nil
		}
		if !errors.Is(err, ErrNominatimEmptyResponse) {
			return nil, err
		}
	}

	np.log.WarnContext(ctx, "All address fallbacks exhausted", "address", address, "variations_tried", len(variants))
	return nil, ErrNominatimEmptyResponse
}

var (
	unitPrefix = regexp.MustCompile(`(?i)^(?:(?:unit|suite|ste|apt)\s+|#\s*)[\w-]+\s*[,-]?\s*`)
	postalCode = regexp.MustCompile(`\s+[A-Z]\d[A-Z]\s?\d[A-Z]\d$|\s+\d{5}(-\d{4})?$`)
)

// addressFallbacks turns a listing address such as "Unit 4, 120 King St W, Toronto, ON M5X 1A9"
// into: the full address, the address without the unit, without the postal code,
// the locality only ("Toronto, ON") and the region only.
func addressFallbacks(address string) []string {
	address = strings.TrimSpace(address)
	if address == "" {
		return []string{""}
	}

	var variants []string
	add := func(v string) {
		v = strings.Trim(strings.TrimSpace(v), ",")
		if v != "" && !slices.Contains(variants, v) {
			variants = append(variants, v)
		}
	}

	add(address)
	withoutUnit := unitPrefix.ReplaceAllString(address, "")
	add(withoutUnit)

	parts := strings.Split(withoutUnit, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	last := len(parts) - 1
	parts[last] = postalCode.ReplaceAllString(parts[last], "")
	add(strings.Join(parts, ", "))

	if len(parts) > 2 {
		add(strings.Join(parts[len(parts)-2:], ", "))
	}
	if len(parts) > 1 {
		add(parts[last])
	}

	return variants
}

func (np *NominatimProvider) search(ctx context.Context, address string) (*models.Coordinates, error) {
	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for nominatim rate limit: %w", err)
	}

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	query.Set("accept-language", "en")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []nominatimResult
	if err = json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNominatimEmptyResponse
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, results[0].Lon)
	}

	return &models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
