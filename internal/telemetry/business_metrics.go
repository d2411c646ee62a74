package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for checkout-level observability.
type BusinessMetrics struct {
	// Distance resolution
	DistanceResolutions  *prometheus.CounterVec
	DistanceTierFailures *prometheus.CounterVec
	DistanceCacheLookups *prometheus.CounterVec
	DistanceLatency      *prometheus.HistogramVec

	// Delivery pricing
	DeliveryFee        *prometheus.HistogramVec
	DeliveryDistanceKm prometheus.Histogram

	// Cart
	CartUpdated     *prometheus.CounterVec
	CartCleared     prometheus.Counter
	CartValue       prometheus.Histogram
	PromoApplied    *prometheus.CounterVec
	PromoRejected   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionsExpired prometheus.Counter

	// Checkout funnel
	CheckoutStarted  *prometheus.CounterVec
	CheckoutBlocked  *prometheus.CounterVec
	PaymentAttempts  *prometheus.CounterVec
	PaymentSucceeded prometheus.Counter
	PaymentFailed    *prometheus.CounterVec

	// Orders
	OrdersSubmitted       *prometheus.CounterVec
	OrderSubmissionFailed *prometheus.CounterVec
	OrderValue            prometheus.Histogram

	// Webhooks
	WebhookReceived *prometheus.CounterVec
	WebhookFailed   *prometheus.CounterVec

	// External API performance
	StripeAPILatency *prometheus.HistogramVec
	GeocodeLatency   *prometheus.HistogramVec
}

// NewBusinessMetrics creates and registers all business metrics
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "souk"
	}

	subsystem := "business"

	m := &BusinessMetrics{
		// =======================================================================
		// Distance Resolution
		// =======================================================================
		DistanceResolutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "distance_resolutions_total",
				Help:      "Total delivery distance resolutions by outcome",
			},
			[]string{"source"}, // source: geocoded, fallback-estimated, unresolved
		),
		DistanceTierFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "distance_tier_failures_total",
				Help:      "Distance resolution tiers that failed and fell through",
			},
			[]string{"tier", "reason"},
		),
		DistanceCacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "distance_cache_lookups_total",
				Help:      "Distance cache lookups",
			},
			[]string{"result"}, // result: hit, miss, error
		),
		DistanceLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "distance_resolution_duration_seconds",
				Help:      "End-to-end distance resolution duration",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		),

		// =======================================================================
		// Delivery Pricing
		// =======================================================================
		DeliveryFee: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "delivery_fee_naira",
				Help:      "Quoted delivery fee in naira",
				Buckets:   []float64{2500, 5000, 7500, 10000, 15000, 25000, 50000, 100000},
			},
			[]string{"source"},
		),
		DeliveryDistanceKm: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "delivery_distance_km",
				Help:      "Resolved delivery distance in kilometres",
				Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000},
			},
		),

		// =======================================================================
		// Cart
		// =======================================================================
		CartUpdated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_updated_total",
				Help:      "Total cart modifications",
			},
			[]string{"action"}, // action: set_lines, update_quantity, remove_line
		),
		CartCleared: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_cleared_total",
				Help:      "Carts cleared after successful payment",
			},
		),
		CartValue: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_value_naira",
				Help:      "Cart grand total at checkout in naira",
				Buckets:   []float64{5000, 10000, 25000, 50000, 100000, 250000, 500000, 1000000},
			},
		),
		PromoApplied: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "promo_applied_total",
				Help:      "Promo codes applied",
			},
			[]string{"code"},
		),
		PromoRejected: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "promo_rejected_total",
				Help:      "Unknown promo codes submitted",
			},
		),
		SessionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_sessions_active",
				Help:      "Checkout sessions currently held in memory",
			},
		),
		SessionsExpired: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_sessions_expired_total",
				Help:      "Checkout sessions evicted after inactivity",
			},
		),

		// =======================================================================
		// Checkout Funnel
		// =======================================================================
		CheckoutStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_started_total",
				Help:      "Checkouts that passed the gate and created a payment",
			},
			[]string{"distance_source"},
		),
		CheckoutBlocked: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_blocked_total",
				Help:      "Checkout attempts blocked by the gate",
			},
			[]string{"reason"}, // reason: no_address, distance_pending, empty_cart
		),
		PaymentAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_attempts_total",
				Help:      "Payment confirmation attempts",
			},
			[]string{"gateway"},
		),
		PaymentSucceeded: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_succeeded_total",
				Help:      "Successful payments",
			},
		),
		PaymentFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_failed_total",
				Help:      "Failed payments",
			},
			[]string{"status"},
		),

		// =======================================================================
		// Orders
		// =======================================================================
		OrdersSubmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_submitted_total",
				Help:      "Orders submitted after payment",
			},
			[]string{"submitter"},
		),
		OrderSubmissionFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_submission_failed_total",
				Help:      "Paid orders that could not be submitted",
			},
			[]string{"submitter"},
		),
		OrderValue: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_naira",
				Help:      "Submitted order total in naira",
				Buckets:   []float64{5000, 10000, 25000, 50000, 100000, 250000, 500000, 1000000},
			},
		),

		// =======================================================================
		// Webhooks
		// =======================================================================
		WebhookReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_received_total",
				Help:      "Total webhooks received",
			},
			[]string{"provider", "event_type"},
		),
		WebhookFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_failed_total",
				Help:      "Webhooks rejected or failed to process",
			},
			[]string{"provider", "reason"},
		),

		// =======================================================================
		// External API Performance
		// =======================================================================
		StripeAPILatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stripe_api_duration_seconds",
				Help:      "Stripe API call duration",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"}, // operation: create_payment_intent, get_payment_intent
		),
		GeocodeLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "geocode_duration_seconds",
				Help:      "Geocoding call duration",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"outcome"}, // outcome: ok, error
		),
	}

	return m
}

// Global instance for easy access from handlers
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}
