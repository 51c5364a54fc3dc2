package models

import "time"

// Transport cache row types.
const (
	TransportRoad = "road"
	TransportRail = "rail"
	TransportBus  = "bus"
)

// Road traffic levels.
const (
	TrafficUnknown  = "unknown"
	TrafficLight    = "light"
	TrafficModerate = "moderate"
	TrafficHeavy    = "heavy"
)

// FlightStatus is the cached status of one flight.
type FlightStatus struct {
	ID           string     `json:"id"`
	FlightNumber string     `json:"flight_number"`
	Origin       *string    `json:"origin,omitempty"`
	ArrivalTime  *time.Time `json:"arrival_time,omitempty"`
	DelayMinutes int        `json:"delay_minutes"`
	Status       *string    `json:"status,omitempty"`
	LastUpdated  time.Time  `json:"last_updated"`
}

// TransportStatus is a cached road, rail or bus status row.
type TransportStatus struct {
	ID             string     `json:"id,omitempty"`
	RouteKey       string     `json:"route_key"`
	TransportType  string     `json:"transport_type"`
	TravelTimeMins *int       `json:"travel_time_mins"`
	TrafficStatus  string     `json:"traffic_status"`
	Summary        *string    `json:"summary,omitempty"`
	LastUpdated    *time.Time `json:"last_updated"`
}

// ETADetails explains how an ETA was derived.
type ETADetails struct {
	FlightArrival    time.Time `json:"flight_arrival"`
	BufferMinutes    int       `json:"buffer_minutes"`
	TravelMinutes    int       `json:"travel_minutes"`
	TrafficStatus    string    `json:"traffic_status"`
	EstimatedArrival time.Time `json:"estimated_arrival"`
}

// GuestETA is the estimated hotel arrival of a guest.
type GuestETA struct {
	GuestID      string      `json:"guest_id"`
	GuestName    string      `json:"guest_name"`
	FlightNumber *string     `json:"flight_number"`
	ETA          *time.Time  `json:"eta"`
	Details      *ETADetails `json:"details,omitempty"`
}
