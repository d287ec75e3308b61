package main

import (
	"context"
	"courier-tracking-service/internal/adapters/cache"
	"courier-tracking-service/internal/adapters/geocode"
	"courier-tracking-service/internal/adapters/repositories"
	"courier-tracking-service/internal/config"
	"courier-tracking-service/internal/platform/db"
	"courier-tracking-service/internal/services"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfg       config.Config
	verbose   bool
	orgID     string
	retention time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "trackerctl",
	Short: "Operator commands for the courier tracking service",
	Long:  `Schema setup, demo seeding, history retention and batch geocoding against the service database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return cfg.RequireDatabase()
	},
	SilenceUsage: true,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create tables and indexes",
	RunE: withDB(func(ctx context.Context, conn *sqlx.DB, args []string) error {
		if err := repositories.InitSchema(ctx, conn); err != nil {
			return err
		}
		logrus.Info("schema ready")
		return nil
	}),
}

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Load organizations, users and orders from a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE: withDB(func(ctx context.Context, conn *sqlx.DB, args []string) error {
		path := config.Get("SEED_PATH", "data/seeds/demo.json")
		if len(args) == 1 {
			path = args[0]
		}
		if err := repositories.InitSchema(ctx, conn); err != nil {
			return err
		}
		if err := repositories.SeedFromJSON(ctx, conn, path); err != nil {
			return err
		}
		logrus.WithField("file", path).Info("seeding complete")
		return nil
	}),
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete position history older than the retention window",
	Long:  `Purges one organization with --org, or every organization holding history when --org is omitted.`,
	RunE: withDB(func(ctx context.Context, conn *sqlx.DB, args []string) error {
		store := repositories.NewPostgresLocationStore(conn, nil)

		if orgID != "" {
			n, err := services.PurgeHistory(ctx, store, orgID, retention, time.Now())
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{"org_id": orgID, "deleted": n}).Info("history purged")
			return nil
		}

		sweeper := &services.RetentionSweeper{Store: store, Orgs: store, Retention: retention}
		n, err := sweeper.Sweep(ctx)
		logrus.WithField("deleted", n).Info("history purged")
		return err
	}),
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Resolve coordinates for an organization's orders",
	RunE: withDB(func(ctx context.Context, conn *sqlx.DB, args []string) error {
		if orgID == "" {
			return errors.New("--org is required")
		}
		if cfg.ORSAPIKey == "" {
			return errors.New("ORS_API_KEY is required")
		}

		geocoder, err := geocode.NewORSGeocoder(
			cfg.ORSAPIKey,
			geocode.WithCountry(cfg.GeocodeCountry),
			geocode.WithCache(cache.NewSQLGeocodeCache(conn)),
		)
		if err != nil {
			return err
		}

		batcher := &services.GeocodeBatcher{
			Geocoder: geocoder,
			Orders:   repositories.NewPostgresOrderRepository(conn),
			Limiter:  services.NewGeocodeLimiter(cfg.GeocodeInterval),
		}
		res, err := batcher.Run(ctx, orgID)
		fmt.Printf("total=%d processed=%d succeeded=%d failed=%d\n", res.Total, res.Processed, res.Succeeded, res.Failed)
		return err
	}),
}

// withDB opens the database for the duration of one command. Ctrl-C cancels ctx.
func withDB(fn func(ctx context.Context, conn *sqlx.DB, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		return fn(ctx, conn, args)
	}
}

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd.PersistentFlags().StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "Postgres connection string (default $DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	purgeCmd.Flags().StringVar(&orgID, "org", "", "Organization id (default: all organizations)")
	purgeCmd.Flags().DurationVar(&retention, "retention", cfg.HistoryRetention, "Keep history newer than this")

	geocodeCmd.Flags().StringVar(&orgID, "org", "", "Organization id")

	rootCmd.AddCommand(schemaCmd, seedCmd, purgeCmd, geocodeCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
