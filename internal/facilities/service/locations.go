package service

import (
	"context"
	"sort"

	"georesponse_backend/internal/facilities/repository"
	"georesponse_backend/internal/facilities/transport"
	"georesponse_backend/internal/facility"
	"georesponse_backend/internal/geo"
)

const (
	defaultNearbyRadiusKm = 20
	defaultNearbyLimit    = 50
	defaultClosestLimit   = 20
)

// Locations answers GET /locations in the directory wire format.
func (s *Service) Locations(ctx context.Context, req transport.LocationsRequest) (transport.LocationsResponse, error) {
	recs, err := s.repo.List(ctx, repository.ListParams{
		Category: facility.ParseSelection(req.Category),
		Address:  req.Address,
		City:     normalizePlace(req.CityName),
	})
	if err != nil {
		return transport.LocationsResponse{}, err
	}
	return toLocations(recs, nil), nil
}

// Nearby answers GET /locations/nearby: located facilities within the
// radius, nearest first.
func (s *Service) Nearby(ctx context.Context, req transport.NearbyRequest) (transport.LocationsResponse, error) {
	radius := req.RadiusKm
	if radius <= 0 {
		radius = defaultNearbyRadiusKm
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultNearbyLimit
	}

	ranked, err := s.rankByDistance(ctx, geo.Point{Lat: *req.Lat, Lng: *req.Lng}, req.Category)
	if err != nil {
		return transport.LocationsResponse{}, err
	}
	cut := sort.Search(len(ranked), func(i int) bool { return ranked[i].distance > radius })
	ranked = ranked[:cut]
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return rankedLocations(ranked), nil
}

// Closest answers GET /locations/closest: the nearest located facilities
// regardless of distance.
func (s *Service) Closest(ctx context.Context, req transport.ClosestRequest) (transport.LocationsResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultClosestLimit
	}

	ranked, err := s.rankByDistance(ctx, geo.Point{Lat: *req.Lat, Lng: *req.Lng}, req.Category)
	if err != nil {
		return transport.LocationsResponse{}, err
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return rankedLocations(ranked), nil
}

type rankedRecord struct {
	rec      repository.Record
	distance float64
}

func (s *Service) rankByDistance(ctx context.Context, origin geo.Point, category string) ([]rankedRecord, error) {
	recs, err := s.repo.List(ctx, repository.ListParams{
		Category:    facility.ParseSelection(category),
		LocatedOnly: true,
	})
	if err != nil {
		return nil, err
	}

	ranked := make([]rankedRecord, 0, len(recs))
	for _, rec := range recs {
		ranked = append(ranked, rankedRecord{
			rec:      rec,
			distance: geo.Distance(origin.Lat, origin.Lng, *rec.Lat, *rec.Lng),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].distance < ranked[j].distance })
	return ranked, nil
}

func rankedLocations(ranked []rankedRecord) transport.LocationsResponse {
	recs := make([]repository.Record, 0, len(ranked))
	distances := make([]float64, 0, len(ranked))
	for _, r := range ranked {
		recs = append(recs, r.rec)
		distances = append(distances, r.distance)
	}
	return toLocations(recs, distances)
}

func toLocations(recs []repository.Record, distances []float64) transport.LocationsResponse {
	out := make([]transport.LocationRecord, 0, len(recs))
	for i, rec := range recs {
		loc := transport.LocationRecord{
			ID:                rec.ID.String(),
			Title:             rec.Title,
			Category:          rec.Category.WireValue(),
			Address:           rec.Address,
			Latitude:          rec.Lat,
			Longitude:         rec.Lng,
			Phone:             rec.Phone,
			Website:           rec.Website,
			GoogleLocationURL: rec.MapsURL,
			City: transport.CityRecord{
				Name:  rec.City,
				State: transport.StateRecord{Name: rec.State},
			},
		}
		if distances != nil {
			d := distances[i]
			loc.DistanceKm = &d
		}
		out = append(out, loc)
	}
	return transport.LocationsResponse{Locations: out}
}
