package config

import "time"

// TransportConfig holds road/rail refresh settings.
type TransportConfig struct {
	// RouteKey identifies the airport-to-hotel road route in the cache.
	RouteKey string `yaml:"route_key"`

	// Origin and Destination are "lat,lng" pairs for the traffic lookup.
	Origin      string `yaml:"origin"`
	Destination string `yaml:"destination"`

	// GoogleMapsKeyEnv names the env var holding the Distance Matrix API key.
	GoogleMapsKeyEnv string `yaml:"google_maps_key_env"`

	// RailURL is the Irish Rail current-trains XML endpoint.
	RailURL string `yaml:"rail_url"`

	// ArrivalBuffer is the deplaning/customs allowance added to guest ETAs.
	ArrivalBuffer time.Duration `yaml:"arrival_buffer"`

	// RefreshInterval runs the refresh jobs in-process when > 0.
	// Zero leaves refresh to the cron endpoints.
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// RequestTimeout bounds each outbound provider call.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DefaultTransportConfig returns the built-in transport defaults.
func DefaultTransportConfig() *TransportConfig {
	return &TransportConfig{
		RouteKey:         "dublin_airport_to_hotel",
		Origin:           "53.4264,-6.2499",
		Destination:      "53.3498,-6.2603",
		GoogleMapsKeyEnv: "GOOGLE_MAPS_API_KEY",
		RailURL:          "https://api.irishrail.ie/realtime/realtime.asmx/getCurrentTrainsXML",
		ArrivalBuffer:    30 * time.Minute,
		RequestTimeout:   10 * time.Second,
	}
}
