// README: Entry point; loads config, wires collaborators and services, serves HTTP until signalled.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"taxifare/internal/config"
	"taxifare/internal/events"
	httptransport "taxifare/internal/http"
	"taxifare/internal/infra"
	"taxifare/internal/maps"
	"taxifare/internal/modules/pricing"
	"taxifare/internal/modules/quote"
	"taxifare/internal/prediction"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("taxifare-api stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	nrApp, err := infra.NewNewRelic(cfg.NewRelic.Enabled, cfg.NewRelic.AppName, cfg.NewRelic.LicenseKey)
	if err != nil {
		logger.Warn("new relic disabled", zap.Error(err))
	}

	deps := quote.Deps{Topic: cfg.Kafka.Topic, Logger: logger}

	pricingStore := pricing.NewStore(nil)
	if cfg.DB.DSN != "" {
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer dbPool.Close()
		pricingStore = pricing.NewStore(dbPool)
		deps.Repo = quote.NewStore(dbPool)
		logger.Info("postgres connected")
	}

	calendar, err := pricingStore.LoadCalendar(ctx)
	if err != nil {
		return err
	}
	pricingSvc := pricing.NewService(cfg.Rates(), calendar)
	deps.Pricer = pricingSvc
	logger.Info("holiday calendar loaded", zap.Int("rules", calendar.Len()))

	geocoder, router, err := newMapsCollaborators(cfg.Maps)
	if err != nil {
		return err
	}
	if cfg.Redis.Addr != "" {
		redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr, nrApp)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		geocoder = maps.NewCachedGeocoder(geocoder, redisClient, cfg.Redis.CacheTTL, logger)
		logger.Info("geocode cache enabled", zap.Duration("ttl", cfg.Redis.CacheTTL))
	}
	deps.Geocoder = geocoder
	deps.Router = router

	if cfg.Prediction.Endpoint != "" {
		deps.Predictor = prediction.NewClient(cfg.Prediction.Endpoint, &http.Client{Timeout: cfg.Prediction.Timeout})
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers)
		defer publisher.Close()
		deps.Publisher = publisher
		logger.Info("publishing quote events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	loc, err := cfg.PricingLocation()
	if err != nil {
		return err
	}

	quoteSvc := quote.NewService(deps)
	// Runs before the publisher is closed.
	defer quoteSvc.Wait()

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Quote:    quoteSvc,
		Pricer:   pricingSvc,
		Geocoder: geocoder,
		Location: loc,
		Logger:   logger,
		NewRelic: nrApp,
	})

	server := httptransport.NewServer(cfg.HTTP.Addr, handler, cfg.HTTP.ShutdownTimeout, logger)
	return server.Run(ctx)
}

func newMapsCollaborators(cfg config.MapsConfig) (maps.Geocoder, maps.Router, error) {
	switch cfg.Provider {
	case config.ProviderGoogle:
		geocoder, err := maps.NewGoogleGeocoder(cfg.GoogleAPIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("google geocoder: %w", err)
		}
		router, err := maps.NewGoogleRouter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("google router: %w", err)
		}
		return geocoder, router, nil
	default:
		httpClient := &http.Client{Timeout: cfg.Timeout}
		return maps.NewNominatimGeocoder(cfg.NominatimURL, cfg.UserAgent, httpClient),
			maps.NewOSRMRouter(cfg.OSRMURL, httpClient),
			nil
	}
}
