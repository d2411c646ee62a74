package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/souk/internal"
	"github.com/dukerupert/souk/internal/address"
	"github.com/dukerupert/souk/internal/billing"
	"github.com/dukerupert/souk/internal/checkout"
	"github.com/dukerupert/souk/internal/cookie"
	"github.com/dukerupert/souk/internal/distance"
	"github.com/dukerupert/souk/internal/geo"
	"github.com/dukerupert/souk/internal/handler"
	"github.com/dukerupert/souk/internal/handler/api"
	"github.com/dukerupert/souk/internal/handler/webhook"
	"github.com/dukerupert/souk/internal/middleware"
	"github.com/dukerupert/souk/internal/order"
	"github.com/dukerupert/souk/internal/postgres"
	"github.com/dukerupert/souk/internal/pricing"
	"github.com/dukerupert/souk/internal/router"
	"github.com/dukerupert/souk/internal/routes"
	"github.com/dukerupert/souk/internal/telemetry"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled && cfg.Sentry.DSN != "",
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	telemetry.InitBusinessMetrics("souk")

	// Pricing tables
	pricingCfg, err := internal.LoadPricing(cfg.PricingFile)
	if err != nil {
		return fmt.Errorf("pricing config failed: %w", err)
	}
	logger.Info("Pricing loaded",
		"file", cfg.PricingFile,
		"promotions", len(pricingCfg.Promotions),
		"tax_rate_percent", pricingCfg.TaxRatePercent.String(),
	)

	// ==========================================================================
	// Storage
	// ==========================================================================

	logger.Info("Connecting to database...")
	pool, err := postgres.Connect(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()
	logger.Info("Database connection established")

	logger.Info("Running database migrations...")
	sqlDB := postgres.SQLDB(pool)
	if err := internal.RunMigrations(ctx, sqlDB, logger); err != nil {
		sqlDB.Close()
		return fmt.Errorf("migration failed: %w", err)
	}
	sqlDB.Close()
	logger.Info("Database migrations completed successfully")

	products := postgres.NewProductRepository(pool)
	addresses := postgres.NewAddressRepository(pool)

	health := handler.NewHealthHandler(logger)
	health.Register("postgres", pool.Ping)

	// Distance cache: Redis when configured so sessions survive restarts
	var cache distance.Cache
	if cfg.RedisUrl != "" {
		opts, err := redis.ParseURL(cfg.RedisUrl)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		cache = distance.NewRedisCache(rdb, distance.DefaultCacheTTL)
		health.Register("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		logger.Info("Distance cache: redis")
	} else {
		cache = distance.NewMemoryCache(distance.DefaultCacheTTL)
		logger.Info("Distance cache: memory")
	}

	// ==========================================================================
	// Distance resolution
	// ==========================================================================

	regions := geo.NewNigeriaTable()

	var geocoder geo.Geocoder
	if cfg.Geo.GoogleAPIKey != "" {
		g, err := geo.NewGoogleGeocoder(geo.GoogleConfig{
			APIKey:            cfg.Geo.GoogleAPIKey,
			Region:            cfg.Geo.Region,
			Country:           cfg.Geo.Country,
			RequestsPerSecond: cfg.Geo.RequestsPerSecond,
			HTTPClient: &http.Client{
				Timeout:   cfg.Geo.Timeout,
				Transport: &telemetry.HTTPTransport{},
			},
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize geocoder: %w", err)
		}
		geocoder = g
		logger.Info("Geocoder initialized", "provider", "google")
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY not set; distances come from the region table only")
	}

	resolver := distance.NewResolver(distance.Config{
		Geocoder:       geocoder,
		Regions:        regions,
		Cache:          cache,
		GeocodeTimeout: cfg.Geo.Timeout,
		Logger:         logger,
	})

	// ==========================================================================
	// Payments and orders
	// ==========================================================================

	var gateway billing.Gateway
	if cfg.Stripe.SecretKey != "" {
		stripeConfig := billing.StripeConfig{
			APIKey:         cfg.Stripe.SecretKey,
			WebhookSecret:  cfg.Stripe.WebhookSecret,
			MaxRetries:     2,
			TimeoutSeconds: 30,
		}
		sg, err := billing.NewStripeGateway(stripeConfig, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Stripe gateway: %w", err)
		}
		gateway = sg
		logger.Info("Stripe gateway initialized", "test_mode", stripeConfig.IsTestMode())
	} else {
		gateway = billing.NewMockGateway()
		logger.Warn("STRIPE_SECRET_KEY not set; using the mock payment gateway")
	}

	var submitter order.Submitter
	if cfg.NATS.URL != "" {
		nc, err := order.Connect(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		defer nc.Drain()
		submitter = order.NewNATSSubmitter(nc, order.NATSConfig{
			Subject: cfg.NATS.Subject,
			Timeout: cfg.NATS.Timeout,
			Logger:  logger,
		})
		health.Register("nats", func(context.Context) error {
			if nc.Status() != nats.CONNECTED {
				return fmt.Errorf("nats: %s", nc.Status())
			}
			return nil
		})
		logger.Info("Order submitter: nats", "subject", cfg.NATS.Subject)
	} else {
		submitter = postgres.NewOrderStore(pool)
		logger.Info("Order submitter: postgres")
	}

	// ==========================================================================
	// Checkout sessions
	// ==========================================================================

	promos := pricing.NewPromoBook(pricingCfg.Promotions)
	sessions := checkout.NewRegistry(checkout.Config{
		Resolver:       resolver,
		Gateway:        gateway,
		Submitter:      submitter,
		Promos:         promos,
		Tariff:         pricingCfg.Tariff,
		TaxRatePercent: pricingCfg.TaxRatePercent,
		DefaultOrigin:  cfg.DefaultOrigin,
		Logger:         logger,
	}, checkout.RegistryConfig{
		TTL:   cfg.SessionTTL,
		Cache: cache,
	})
	defer sessions.Close()

	go func() {
		if err := sessions.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("session sweeper stopped", "error", err)
		}
	}()

	validator := address.NewBasicValidator(regions)

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	metrics := middleware.NewMetrics("souk", nil)

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0 // Disable HSTS in development
	}

	defaultRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	quoteRateLimiter := middleware.NewRateLimiter(middleware.QuoteRateLimiterConfig())
	go defaultRateLimiter.Run(ctx)
	go quoteRateLimiter.Run(ctx)

	cookies := cookie.NewConfig(cfg.Cookie.Domain, cfg.Cookie.Secure)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		telemetry.SentryHub(),
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithClientIP(),
		metrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		defaultRateLimiter.Middleware,
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)

	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		Health:  health,
		Metrics: metrics.Handler(),
	})

	routes.RegisterAPIRoutes(r, routes.APIDeps{
		Sessions: api.NewSessionHandler(sessions, products, addresses, validator, logger),
		Quotes: api.NewQuoteHandler(api.QuoteConfig{
			Products:      products,
			Validator:     validator,
			Resolver:      resolver,
			Promos:        promos,
			Pricer:        checkout.Pricer{Tariff: pricingCfg.Tariff, TaxRatePercent: pricingCfg.TaxRatePercent},
			DefaultOrigin: cfg.DefaultOrigin,
			Logger:        logger,
		}),
		Addresses:  api.NewAddressHandler(addresses, validator),
		Identity:   middleware.WithIdentity(cookies),
		ErrorScope: telemetry.ShopperScope(),
		QuoteLimit: quoteRateLimiter.Middleware,
	})

	routes.RegisterWebhookRoutes(r, routes.WebhookDeps{
		StripeHandler: webhook.NewStripeHandler(gateway, sessions, logger).HandleWebhook,
		BodyLimit:     middleware.MaxBodySize(middleware.WebhookMaxBodySize),
	})

	r.NotFound(handler.NotFoundResponse)

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		// CORS wraps the router so preflight requests reach it
		Handler:           router.CORS(cfg.CORSOrigins)(r),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting checkout server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
