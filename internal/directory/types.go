// Package directory is the client for the external facility-directory
// service. It builds list, nearby and closest requests and normalizes the
// heterogeneous payloads into facility.Facility records.
package directory

import "georesponse_backend/internal/facility"

// Outcome distinguishes a successful empty answer from a failed call.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeEmpty  Outcome = "empty"
	OutcomeFailed Outcome = "failed"
)

// Result is returned by every directory call. On failure Facilities is
// empty, Outcome is OutcomeFailed and Err holds the cause, which has
// already been logged.
type Result struct {
	Facilities []facility.Facility
	Outcome    Outcome
	Err        error
}

func okResult(list []facility.Facility) Result {
	if len(list) == 0 {
		return Result{Facilities: []facility.Facility{}, Outcome: OutcomeEmpty}
	}
	return Result{Facilities: list, Outcome: OutcomeOK}
}

func failedResult(err error) Result {
	return Result{Facilities: []facility.Facility{}, Outcome: OutcomeFailed, Err: err}
}

// Filter narrows ListAll server-side. Zero fields are omitted.
type Filter struct {
	Category facility.Category
	Address  string
	CityID   int
	CityName string
}

// NearbyOptions tunes ListNearby. Zero fields are omitted.
type NearbyOptions struct {
	RadiusKm float64
	Limit    int
	Category facility.Category
}

// ClosestOptions tunes ListClosest. Zero fields are omitted.
type ClosestOptions struct {
	Limit    int
	Category facility.Category
}
