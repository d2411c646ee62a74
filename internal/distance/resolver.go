// Package distance resolves the delivery distance between a product's
// origin and the buyer's destination address.
//
// Resolution walks a fixed chain of tiers and stops at the first that
// yields a distance:
//
//  1. geocode origin and destination, then haversine. Destination
//     coordinates captured at address entry are used instead of
//     re-geocoding the destination.
//  2. estimate from the static region table.
//  3. unresolved.
//
// Tier failures are logged and counted, never returned.
package distance

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/geo"
	"github.com/dukerupert/souk/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// DefaultGeocodeTimeout bounds the geocoding tier.
const DefaultGeocodeTimeout = 5 * time.Second

var (
	// ErrNoOrigin is logged when the product has no usable location text.
	ErrNoOrigin = errors.New("origin location is empty")

	// ErrInvalidCoordinates is logged when a geocoder returns an unusable point.
	ErrInvalidCoordinates = errors.New("geocoder returned invalid coordinates")
)

// Query is one resolution request.
type Query struct {
	// SessionID scopes the cache entry. Empty disables caching.
	SessionID string

	// Origin is the product location text.
	Origin string

	Destination domain.Address
}

func (q Query) key() Key {
	return Key{
		SessionID:   q.SessionID,
		Origin:      strings.ToLower(strings.TrimSpace(q.Origin)),
		Destination: q.Destination.Key(),
	}
}

// Config configures a Resolver. Geocoder, Regions and Cache are optional;
// a missing tier is skipped.
type Config struct {
	Geocoder       geo.Geocoder
	Regions        geo.RegionTable
	Cache          Cache
	GeocodeTimeout time.Duration
	Logger         *slog.Logger
}

// Resolver implements the tiered distance lookup.
type Resolver struct {
	geocoder       geo.Geocoder
	regions        geo.RegionTable
	cache          Cache
	geocodeTimeout time.Duration
	logger         *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.GeocodeTimeout
	if timeout <= 0 {
		timeout = DefaultGeocodeTimeout
	}
	return &Resolver{
		geocoder:       cfg.Geocoder,
		regions:        cfg.Regions,
		cache:          cfg.Cache,
		geocodeTimeout: timeout,
		logger:         logger.With("component", "distance"),
	}
}

// Resolve returns the distance for q. It never fails: the worst outcome is
// an unresolved distance. A cancelled ctx yields unresolved without caching.
func (r *Resolver) Resolve(ctx context.Context, q Query) domain.ResolvedDistance {
	start := time.Now()
	key := q.key()

	if d, ok := r.cached(ctx, key); ok {
		return d
	}

	d := r.resolve(ctx, q)

	if d.IsResolved() && ctx.Err() == nil {
		r.store(ctx, key, d)
	}

	if telemetry.Business != nil {
		telemetry.Business.DistanceResolutions.WithLabelValues(string(d.Source)).Inc()
		telemetry.Business.DistanceLatency.WithLabelValues(string(d.Source)).Observe(time.Since(start).Seconds())
		if d.IsResolved() {
			telemetry.Business.DeliveryDistanceKm.Observe(*d.Kilometers)
		}
	}

	r.logger.Debug("distance resolved",
		"session_id", q.SessionID,
		"source", d.Source,
		"km", d.Kilometers,
		"duration", time.Since(start),
	)
	return d
}

func (r *Resolver) resolve(ctx context.Context, q Query) domain.ResolvedDistance {
	km, err := r.geocoded(ctx, q)
	if err == nil {
		return resolved(km, domain.DistanceSourceGeocoded)
	}
	r.tierFailed(q, "geocoded", err)

	if ctx.Err() != nil {
		return domain.Unresolved()
	}

	km, err = r.estimated(q)
	if err == nil {
		return resolved(km, domain.DistanceSourceFallbackEstimated)
	}
	r.tierFailed(q, "fallback", err)

	return domain.Unresolved()
}

// geocoded resolves both endpoints concurrently and measures between them.
func (r *Resolver) geocoded(ctx context.Context, q Query) (float64, error) {
	if r.geocoder == nil {
		return 0, errTierDisabled
	}
	origin := strings.TrimSpace(q.Origin)
	if origin == "" {
		return 0, ErrNoOrigin
	}

	ctx, cancel := context.WithTimeout(ctx, r.geocodeTimeout)
	defer cancel()

	var from, to domain.Coordinates
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := r.geocode(gctx, origin)
		from = c
		return err
	})

	if dest := q.Destination.Coordinates; dest != nil && geo.ValidCoordinates(*dest) {
		to = *dest
	} else {
		g.Go(func() error {
			c, err := r.geocode(gctx, q.Destination.Text())
			to = c
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return geo.HaversineKm(from, to), nil
}

func (r *Resolver) geocode(ctx context.Context, text string) (domain.Coordinates, error) {
	start := time.Now()
	loc, err := r.geocoder.Geocode(ctx, text)
	if err == nil && (loc == nil || !geo.ValidCoordinates(loc.Coordinates)) {
		err = ErrInvalidCoordinates
	}

	if telemetry.Business != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		telemetry.Business.GeocodeLatency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		return domain.Coordinates{}, err
	}
	return loc.Coordinates, nil
}

// estimated consults the region table. The destination region comes from
// the structured address, the origin region is parsed from free text.
func (r *Resolver) estimated(q Query) (float64, error) {
	if r.regions == nil {
		return 0, errTierDisabled
	}

	origin, ok := r.regions.Parse(q.Origin)
	if !ok {
		return 0, geo.ErrRegionNotFound
	}

	dest := geo.RegionOf(q.Destination)
	if strings.TrimSpace(dest.State) == "" {
		if dest, ok = r.regions.Parse(q.Destination.Text()); !ok {
			return 0, geo.ErrRegionNotFound
		}
	}

	return r.regions.Lookup(origin, dest)
}

func (r *Resolver) cached(ctx context.Context, key Key) (domain.ResolvedDistance, bool) {
	if r.cache == nil || key.SessionID == "" {
		return domain.ResolvedDistance{}, false
	}

	d, ok, err := r.cache.Get(ctx, key)
	result := "miss"
	switch {
	case err != nil:
		result = "error"
		r.logger.Warn("distance cache read failed", "session_id", key.SessionID, "error", err)
	case ok:
		result = "hit"
	}
	if telemetry.Business != nil {
		telemetry.Business.DistanceCacheLookups.WithLabelValues(result).Inc()
	}
	return d, ok && err == nil
}

func (r *Resolver) store(ctx context.Context, key Key, d domain.ResolvedDistance) {
	if r.cache == nil || key.SessionID == "" {
		return
	}
	if err := r.cache.Set(ctx, key, d); err != nil {
		r.logger.Warn("distance cache write failed", "session_id", key.SessionID, "error", err)
	}
}

func (r *Resolver) tierFailed(q Query, tier string, err error) {
	if errors.Is(err, errTierDisabled) {
		return
	}

	reason := "error"
	var geoErr *geo.GeoError
	switch {
	case errors.As(err, &geoErr):
		reason = geoErr.ErrorCode()
	case errors.Is(err, context.Canceled):
		reason = "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	}

	if telemetry.Business != nil {
		telemetry.Business.DistanceTierFailures.WithLabelValues(tier, reason).Inc()
	}

	r.logger.Warn("distance tier failed",
		"tier", tier,
		"reason", reason,
		"session_id", q.SessionID,
		"origin", q.Origin,
		"error", err,
	)
}

var errTierDisabled = errors.New("tier not configured")

func resolved(km float64, source domain.DistanceSource) domain.ResolvedDistance {
	rounded := math.Round(km)
	return domain.ResolvedDistance{Kilometers: &rounded, Source: source}
}
