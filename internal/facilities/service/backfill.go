package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"georesponse_backend/internal/facilities/repository"
	"georesponse_backend/internal/geo"
	"georesponse_backend/internal/geocoding"

	"golang.org/x/sync/errgroup"
)

// Geocoder turns a free-form address into a place.
type Geocoder interface {
	Geocode(ctx context.Context, query, region string) (*geocoding.Place, error)
}

// BackfillOptions tunes BackfillLocations.
type BackfillOptions struct {
	Limit       int
	Concurrency int
	Region      string
	DryRun      bool
}

// BackfillReport summarizes a backfill run.
type BackfillReport struct {
	Scanned int
	Located int
	Skipped int
	Failed  int
}

// BackfillLocations geocodes facilities that have no coordinates from
// their address, city and state, and stores the result. Lookups or writes
// that fail, and lookups that find nothing, are counted and skipped.
func (s *Service) BackfillLocations(ctx context.Context, geocoder Geocoder, opts BackfillOptions) (BackfillReport, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	recs, err := s.repo.ListMissingLocation(ctx, opts.Limit)
	if err != nil {
		return BackfillReport{}, err
	}

	var located, skipped, failed atomic.Int64
	var mu sync.Mutex
	var touched []repository.Record
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, rec := range recs {
		g.Go(func() error {
			query := addressQuery(rec)
			if query == "" {
				skipped.Add(1)
				return nil
			}

			place, err := geocoder.Geocode(gctx, query, opts.Region)
			if err != nil {
				failed.Add(1)
				s.log.Warn("facility geocode failed", "id", rec.ID, "query", query, "error", err)
				return nil
			}
			if place == nil || !geo.ValidCoordinates(place.Lat, place.Lng) {
				skipped.Add(1)
				s.log.Info("facility address not found", "id", rec.ID, "query", query)
				return nil
			}

			if opts.DryRun {
				located.Add(1)
				s.log.Info("facility geocoded (dry run)", "id", rec.ID, "lat", place.Lat, "lng", place.Lng)
				return nil
			}
			if err := s.repo.SetLocation(gctx, rec.ID, place.Lat, place.Lng); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.Add(1)
				s.log.Warn("facility location not stored", "id", rec.ID, "error", err)
				return nil
			}
			located.Add(1)
			mu.Lock()
			touched = append(touched, rec)
			mu.Unlock()
			return nil
		})
	}
	waitErr := g.Wait()

	report := BackfillReport{
		Scanned: len(recs),
		Located: int(located.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
	// Stored coordinates are announced even when the run was cut short.
	for _, rec := range touched {
		s.publish(context.WithoutCancel(ctx), facilityUpdatedBy(rec, "backfill"))
	}
	return report, waitErr
}

func addressQuery(rec repository.Record) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{rec.Address, rec.City, rec.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
