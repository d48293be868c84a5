// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"georesponse_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Facility Registry Events
// =============================================================================

// FacilityCreated is published after an admin adds a facility.
type FacilityCreated struct {
	BaseEvent
	FacilityID uuid.UUID `json:"facilityId"`
	Category   string    `json:"category"`
	City       string    `json:"city"`
	ActorEmail string    `json:"actorEmail"`
}

func (e FacilityCreated) EventName() string { return "facilities.facility.created" }

// FacilityUpdated is published after an admin edits a facility.
type FacilityUpdated struct {
	BaseEvent
	FacilityID uuid.UUID `json:"facilityId"`
	Category   string    `json:"category"`
	City       string    `json:"city"`
	ActorEmail string    `json:"actorEmail"`
}

func (e FacilityUpdated) EventName() string { return "facilities.facility.updated" }

// FacilityDeleted is published after an admin removes a facility.
type FacilityDeleted struct {
	BaseEvent
	FacilityID uuid.UUID `json:"facilityId"`
	ActorEmail string    `json:"actorEmail"`
}

func (e FacilityDeleted) EventName() string { return "facilities.facility.deleted" }

// FacilityEventNames lists every event that changes the registry contents.
var FacilityEventNames = []string{
	FacilityCreated{}.EventName(),
	FacilityUpdated{}.EventName(),
	FacilityDeleted{}.EventName(),
}

// =============================================================================
// Auth Events
// =============================================================================

// AdminLoggedIn is published after a successful admin login.
type AdminLoggedIn struct {
	BaseEvent
	Email    string `json:"email"`
	ClientIP string `json:"clientIp"`
}

func (e AdminLoggedIn) EventName() string { return "auth.admin.logged_in" }
