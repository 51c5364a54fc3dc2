package transport

import (
	"time"

	"github.com/thefitz/companion/pkg/models"
)

// ComputeETA estimates when a guest reaches the hotel: the flight's arrival
// plus the deplaning buffer plus the current road travel time. The ETA is
// nil when the arrival time or the travel time is unknown.
func ComputeETA(guest *models.Guest, flight *models.FlightStatus, road *models.TransportStatus, buffer time.Duration) *models.GuestETA {
	eta := &models.GuestETA{
		GuestID:      guest.ID,
		GuestName:    guest.Name,
		FlightNumber: guest.FlightNumber,
	}
	if flight == nil || flight.ArrivalTime == nil || road == nil || road.TravelTimeMins == nil || *road.TravelTimeMins <= 0 {
		return eta
	}

	bufferMins := int(buffer.Minutes())
	travel := *road.TravelTimeMins
	arrival := flight.ArrivalTime.UTC()
	at := arrival.Add(time.Duration(bufferMins+travel) * time.Minute)

	eta.ETA = &at
	eta.Details = &models.ETADetails{
		FlightArrival:    arrival,
		BufferMinutes:    bufferMins,
		TravelMinutes:    travel,
		TrafficStatus:    road.TrafficStatus,
		EstimatedArrival: at,
	}
	return eta
}
