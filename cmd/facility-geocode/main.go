package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"georesponse_backend/internal/events"
	"georesponse_backend/internal/facilities/repository"
	"georesponse_backend/internal/facilities/service"
	"georesponse_backend/internal/geocoding"
	"georesponse_backend/platform/config"
	"georesponse_backend/platform/db"
	"georesponse_backend/platform/logger"

	"github.com/spf13/cobra"
)

type backfillFlags struct {
	limit       int
	concurrency int
	region      string
	dryRun      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags backfillFlags
	cmd := &cobra.Command{
		Use:   "facility-geocode",
		Short: "Geocode registry facilities that have no coordinates",
		Long: `Looks up every facility without a location by its address, city and
state, and stores the first match. Facilities whose lookup fails or finds
nothing keep their empty location and are reported at the end.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBackfill(cmd.Context(), flags)
		},
	}
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "maximum facilities to process (0 = all)")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 4, "parallel geocoding lookups")
	cmd.Flags().StringVar(&flags.region, "region", "", "country bias for lookups (defaults to GEOCODING_REGION)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "geocode without writing coordinates")
	return cmd
}

func runBackfill(parent context.Context, flags backfillFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Env)
	log.Info("starting facility geocode backfill", "limit", flags.limit, "dryRun", flags.dryRun)

	if cfg.GetDatabaseURL() == "" {
		return errors.New("DATABASE_URL is required")
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return err
	}
	defer pool.Close()

	geocoder := geocoding.New(cfg, nil, log)
	if err := geocoder.Initialize(ctx, cfg.GetGoogleMapsAPIKey()); err != nil {
		log.Warn("google places unavailable; geocoding with nominatim", "error", err)
	}

	region := flags.region
	if region == "" {
		region = geocoder.DefaultRegion()
	}

	bus := events.NewInMemoryBus(log)
	svc := service.New(repository.New(pool, log), bus, log)
	report, err := svc.BackfillLocations(ctx, geocoder, service.BackfillOptions{
		Limit:       flags.limit,
		Concurrency: flags.concurrency,
		Region:      region,
		DryRun:      flags.dryRun,
	})
	bus.Wait()
	if err != nil {
		log.Error("facility geocode backfill failed", "error", err)
		return err
	}

	log.Info("facility geocode backfill complete",
		"scanned", report.Scanned,
		"located", report.Located,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return nil
}
