package transport

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/thefitz/companion/pkg/models"
	"googlemaps.github.io/maps"
)

var errNoTrafficData = errors.New("no traffic data for route")

// TrafficProvider measures the current and the free-flow driving time of a
// route.
type TrafficProvider interface {
	TravelTimes(ctx context.Context, origin, destination string) (inTraffic, normal time.Duration, err error)
}

// GoogleMapsProvider reads travel times from the Distance Matrix API.
type GoogleMapsProvider struct {
	client *maps.Client
}

// NewGoogleMapsProvider creates a provider for the API key. Extra options,
// such as maps.WithBaseURL, are passed to the client.
func NewGoogleMapsProvider(apiKey string, opts ...maps.ClientOption) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleMapsProvider{client: client}, nil
}

func (p *GoogleMapsProvider) TravelTimes(ctx context.Context, origin, destination string) (time.Duration, time.Duration, error) {
	resp, err := p.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:       []string{origin},
		Destinations:  []string{destination},
		Mode:          maps.TravelModeDriving,
		DepartureTime: "now",
	})
	if err != nil {
		return 0, 0, fmt.Errorf("distance matrix: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, 0, errNoTrafficData
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return 0, 0, fmt.Errorf("distance matrix element status %s", el.Status)
	}
	if el.DurationInTraffic == 0 {
		return 0, 0, errNoTrafficData
	}
	return el.DurationInTraffic, el.Duration, nil
}

// RoundMinutes rounds d to whole minutes.
func RoundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}

// ClassifyTraffic rates a travel time against the free-flow time: heavy
// above 1.5 times normal, moderate above 1.2 times, light otherwise.
func ClassifyTraffic(travelMins, normalMins int) string {
	travel, normal := float64(travelMins), float64(normalMins)
	switch {
	case travel > normal*1.5:
		return models.TrafficHeavy
	case travel > normal*1.2:
		return models.TrafficModerate
	default:
		return models.TrafficLight
	}
}
