package main

import (
	"context"
	"courier-tracking-service/internal/adapters/cache"
	"courier-tracking-service/internal/adapters/geocode"
	"courier-tracking-service/internal/adapters/repositories"
	"courier-tracking-service/internal/api"
	"courier-tracking-service/internal/config"
	"courier-tracking-service/internal/platform/db"
	"courier-tracking-service/internal/ports"
	"courier-tracking-service/internal/services"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

// main is the application composition root.
// It wires concrete adapters (Postgres or memory, Redis, ORS) behind ports and starts the HTTP server.
func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		logrus.Fatal(err)
	}
	defer store.close()

	locations, orders := store.locations, store.orders

	routeStore, closeStore, err := openRouteStore(ctx, cfg.RedisURL)
	if err != nil {
		logrus.Fatal(err)
	}
	defer closeStore()

	routeSvc := &services.RouteService{
		Locations: locations,
		Orders:    orders,
		Cache:     services.NewRouteCache(routeStore, cfg.RouteCacheTTL, nil),
	}

	var batcher *services.GeocodeBatcher
	if cfg.ORSAPIKey != "" {
		opts := []geocode.Option{geocode.WithCountry(cfg.GeocodeCountry)}
		if store.geocodeCache != nil {
			opts = append(opts, geocode.WithCache(store.geocodeCache))
		}
		geocoder, err := geocode.NewORSGeocoder(cfg.ORSAPIKey, opts...)
		if err != nil {
			logrus.Fatal(err)
		}
		batcher = &services.GeocodeBatcher{
			Geocoder: geocoder,
			Orders:   orders,
			Limiter:  services.NewGeocodeLimiter(cfg.GeocodeInterval),
		}
	} else {
		logrus.Warn("ORS_API_KEY not set; batch geocoding disabled")
	}

	if cfg.RetentionSchedule != "" {
		sweeper := &services.RetentionSweeper{
			Store:     locations,
			Orgs:      locations,
			Retention: cfg.HistoryRetention,
		}
		jobs, err := startRetentionJob(ctx, cfg.RetentionSchedule, sweeper)
		if err != nil {
			logrus.Fatal(err)
		}
		defer jobs.Stop()
	}

	router := api.NewRouter(api.Deps{
		Locations:      locations,
		Routes:         routeSvc,
		Geocoder:       batcher,
		GeocodeTimeout: writeTimeout - geocodeWriteMargin,
		Retention:      cfg.HistoryRetention,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		Ping:           store.ping,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", srv.Addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	case <-ctx.Done():
		logrus.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("graceful shutdown failed")
		}
	}
}

// A batch geocode request stops geocodeWriteMargin before the write timeout
// so its partial counts still reach the client. Larger backlogs finish over
// several runs or through trackerctl geocode.
const (
	writeTimeout       = 5 * time.Minute
	geocodeWriteMargin = 30 * time.Second
)

type locationBackend interface {
	ports.LocationStore
	services.OrganizationLister
}

type orderBackend interface {
	ports.OrderRepository
	ports.GeocodeTargetRepository
}

// storage is the persistence picked at startup.
type storage struct {
	locations    locationBackend
	orders       orderBackend
	geocodeCache geocode.Cache
	ping         func(ctx context.Context) error
	close        func()
}

// openStorage uses Postgres when DATABASE_URL is set. Otherwise everything
// lives in process memory, optionally seeded from SEED_PATH, and is lost on exit.
func openStorage(ctx context.Context, cfg config.Config) (storage, error) {
	if cfg.DatabaseURL == "" {
		locations := repositories.NewMemoryLocationStore(nil)
		orders := repositories.NewMemoryOrderRepository()
		if cfg.SeedPath != "" {
			if err := repositories.LoadMemorySeed(cfg.SeedPath, locations, orders); err != nil {
				return storage{}, err
			}
		}

		logrus.WithField("seed", cfg.SeedPath).Warn("DATABASE_URL not set; using in-memory storage")
		return storage{locations: locations, orders: orders, close: func() {}}, nil
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return storage{}, err
	}
	if err := repositories.InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return storage{}, err
	}

	return storage{
		locations:    repositories.NewPostgresLocationStore(conn, nil),
		orders:       repositories.NewPostgresOrderRepository(conn),
		geocodeCache: cache.NewSQLGeocodeCache(conn),
		ping:         conn.PingContext,
		close:        func() { _ = conn.Close() },
	}, nil
}

// openRouteStore picks Redis when REDIS_URL is set and the in-process map otherwise.
func openRouteStore(ctx context.Context, redisURL string) (ports.RouteCacheStore, func(), error) {
	if redisURL == "" {
		logrus.Info("route cache: in-memory")
		return cache.NewMemoryRouteCache(nil), func() {}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("route cache: parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("route cache: ping redis: %w", err)
	}

	logrus.WithField("addr", opts.Addr).Info("route cache: redis")
	return cache.NewRedisRouteCache(client, "tracker:", nil), func() { _ = client.Close() }, nil
}

func startRetentionJob(ctx context.Context, schedule string, sweeper *services.RetentionSweeper) (*cron.Cron, error) {
	jobs := cron.New()
	err := jobs.AddFunc(schedule, func() {
		if _, err := sweeper.Sweep(ctx); err != nil {
			logrus.WithError(err).Error("retention sweep failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("retention job: schedule %q: %w", schedule, err)
	}

	jobs.Start()
	logrus.WithField("schedule", schedule).Info("retention job started")
	return jobs, nil
}
