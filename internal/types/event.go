package types

import "time"

// EventType names a flight event published on the event feed
type EventType string

const (
	EventLegStarted    EventType = "leg_started"
	EventSwapLogged    EventType = "swap_logged"
	EventSwapUndone    EventType = "swap_undone"
	EventShutdown      EventType = "shutdown"
	EventFuelAdded     EventType = "fuel_added"
	EventRestStop      EventType = "rest_stop"
	EventTripEnded     EventType = "trip_ended"
	EventTripAssembled EventType = "trip_assembled"
	EventGPHObserved   EventType = "gph_observed"
)

// FlightEvent is a record of one tracker mutation
type FlightEvent struct {
	Type           EventType `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	LegID          string    `json:"leg_id,omitempty"`
	TripID         string    `json:"trip_id,omitempty"`
	LegNumber      int       `json:"leg_number,omitempty"`
	Tank           string    `json:"tank,omitempty"`
	Reading        float64   `json:"reading,omitempty"`
	Burned         float64   `json:"burned,omitempty"`
	FuelAdded      float64   `json:"fuel_added,omitempty"`
	TotalRemaining float64   `json:"total_remaining"`
}
