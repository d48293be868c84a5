package orchestrator

import (
	"context"
	"math"
	"sort"

	"georesponse_backend/internal/directory"
	"georesponse_backend/internal/facility"
	"georesponse_backend/internal/geo"
)

// OriginQuery parameterizes a distance-ranked search around a point.
type OriginQuery struct {
	Origin         geo.Point
	Category       facility.Category
	NearbyRadiusKm float64
	NearbyLimit    int
	ClosestLimit   int
}

// OriginResult is the merged, distance-sorted answer of an origin search.
type OriginResult struct {
	Facilities []facility.Facility
	Distances  map[string]float64
	Outcome    directory.Outcome
	// UsedClosest reports whether the closest fallback was queried.
	UsedClosest bool
}

// RunOriginSearch queries nearby facilities, falls back to the closest ones
// only when nearby is empty, merges both by id with nearby winning, and
// sorts ascending by distance from the origin.
func RunOriginSearch(ctx context.Context, dir Directory, q OriginQuery) OriginResult {
	nearby := dir.ListNearby(ctx, q.Origin.Lat, q.Origin.Lng, directory.NearbyOptions{
		RadiusKm: q.NearbyRadiusKm,
		Limit:    q.NearbyLimit,
		Category: q.Category,
	})

	var closest directory.Result
	usedClosest := false
	if len(nearby.Facilities) == 0 {
		usedClosest = true
		closest = dir.ListClosest(ctx, q.Origin.Lat, q.Origin.Lng, directory.ClosestOptions{
			Limit:    q.ClosestLimit,
			Category: q.Category,
		})
	}

	merged := MergeByID(nearby.Facilities, closest.Facilities)
	distances := BuildDistanceIndex(q.Origin, merged)
	SortByDistance(merged, distances)

	return OriginResult{
		Facilities:  merged,
		Distances:   distances,
		Outcome:     combineOutcome(len(merged), nearby.Outcome, closest.Outcome),
		UsedClosest: usedClosest,
	}
}

func combineOutcome(n int, outcomes ...directory.Outcome) directory.Outcome {
	if n > 0 {
		return directory.OutcomeOK
	}
	for _, o := range outcomes {
		if o == directory.OutcomeFailed {
			return directory.OutcomeFailed
		}
	}
	return directory.OutcomeEmpty
}

// MergeByID concatenates primary and secondary, skipping secondary entries
// whose id already appeared. The first occurrence of an id wins.
func MergeByID(primary, secondary []facility.Facility) []facility.Facility {
	seen := make(map[string]struct{}, len(primary)+len(secondary))
	out := make([]facility.Facility, 0, len(primary)+len(secondary))
	for _, list := range [][]facility.Facility{primary, secondary} {
		for _, f := range list {
			if _, dup := seen[f.ID]; dup {
				continue
			}
			seen[f.ID] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// BuildDistanceIndex computes the distance in km from origin to every
// located facility. Facilities without a location are left out.
func BuildDistanceIndex(origin geo.Point, list []facility.Facility) map[string]float64 {
	index := make(map[string]float64, len(list))
	for _, f := range list {
		if !f.HasLocation() {
			continue
		}
		index[f.ID] = origin.DistanceTo(f.Point())
	}
	return index
}

// SortByDistance orders list ascending by its index entry. Facilities
// missing from the index sort last; ties keep their input order.
func SortByDistance(list []facility.Facility, index map[string]float64) {
	sort.SliceStable(list, func(i, j int) bool {
		return distanceOf(index, list[i].ID) < distanceOf(index, list[j].ID)
	})
}

func distanceOf(index map[string]float64, id string) float64 {
	if d, ok := index[id]; ok {
		return d
	}
	return math.Inf(1)
}
