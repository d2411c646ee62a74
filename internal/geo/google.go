package geo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/souk/internal/domain"
	"googlemaps.github.io/maps"
)

// GoogleConfig configures the Google Geocoding client.
type GoogleConfig struct {
	APIKey string

	// Region biases results toward a ccTLD, e.g. "ng".
	Region string

	// Country restricts results with a component filter, e.g. "NG".
	Country string

	// BaseURL overrides the API host. Used in tests.
	BaseURL string

	// RequestsPerSecond caps outbound calls. Zero keeps the client default.
	RequestsPerSecond int

	// HTTPClient replaces the default client, e.g. to trace calls.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// GoogleGeocoder implements Geocoder using the Google Geocoding API.
type GoogleGeocoder struct {
	client  *maps.Client
	region  string
	country string
	logger  *slog.Logger
}

// NewGoogleGeocoder creates a Google-backed Geocoder.
func NewGoogleGeocoder(cfg GoogleConfig) (*GoogleGeocoder, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestsPerSecond > 0 {
		opts = append(opts, maps.WithRateLimit(cfg.RequestsPerSecond))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, maps.WithHTTPClient(cfg.HTTPClient))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GoogleGeocoder{
		client:  client,
		region:  cfg.Region,
		country: cfg.Country,
		logger:  logger,
	}, nil
}

// Geocode implements Geocoder. The first result is used.
func (g *GoogleGeocoder) Geocode(ctx context.Context, addressText string) (*Location, error) {
	addressText = strings.TrimSpace(addressText)
	if addressText == "" {
		return nil, ErrEmptyQuery
	}

	req := &maps.GeocodingRequest{
		Address: addressText,
		Region:  g.region,
	}
	if g.country != "" {
		req.Components = map[maps.Component]string{maps.ComponentCountry: g.country}
	}

	results, err := g.client.Geocode(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.logger.Warn("geocoding request failed",
			"address", addressText,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrGeocoderUnavailable, err)
	}

	if len(results) == 0 {
		return nil, ErrNoResults
	}

	top := results[0]
	return &Location{
		Coordinates:      domain.Coordinates{Lat: top.Geometry.Location.Lat, Lng: top.Geometry.Location.Lng},
		FormattedAddress: top.FormattedAddress,
	}, nil
}
