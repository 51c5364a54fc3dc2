package transport

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/thefitz/companion/pkg/models"
)

// RailRouteKey is the cache row summarising the Irish Rail network.
const RailRouteKey = "irish_rail_network"

// trainRunning is the TrainStatus of a train in service. The feed also
// reports N (not yet running) and T (terminated).
const trainRunning = "R"

var lateRe = regexp.MustCompile(`\((\d+) mins? late\)`)

// TrainPosition is one train in the current-trains feed.
type TrainPosition struct {
	Status        string `xml:"TrainStatus"`
	Code          string `xml:"TrainCode"`
	Direction     string `xml:"Direction"`
	PublicMessage string `xml:"PublicMessage"`
}

// DelayMinutes parses the lateness announced in the public message.
func (p TrainPosition) DelayMinutes() int {
	m := lateRe.FindStringSubmatch(p.PublicMessage)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

type trainPositions struct {
	Trains []TrainPosition `xml:"objTrainPositions"`
}

// RailFetcher retrieves the current trains.
type RailFetcher interface {
	CurrentTrains(ctx context.Context) ([]TrainPosition, error)
}

// IrishRailClient reads the Irish Rail realtime XML feed.
type IrishRailClient struct {
	url    string
	client *http.Client
}

// NewIrishRailClient creates a client for the getCurrentTrainsXML url.
func NewIrishRailClient(url string, client *http.Client) *IrishRailClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &IrishRailClient{url: url, client: client}
}

func (c *IrishRailClient) CurrentTrains(ctx context.Context) ([]TrainPosition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rail request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("irish rail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("irish rail: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return ParseTrains(resp.Body)
}

// ParseTrains decodes a getCurrentTrainsXML document.
func ParseTrains(r io.Reader) ([]TrainPosition, error) {
	var doc trainPositions
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse rail feed: %w", err)
	}
	return doc.Trains, nil
}

// RailSummary condenses the feed into one cache row.
type RailSummary struct {
	Running  int
	Delayed  int
	MaxDelay int
}

// SummarizeTrains counts running and late trains. A train is late when it
// announces a delay of at least lateAfter minutes.
func SummarizeTrains(trains []TrainPosition, lateAfter int) RailSummary {
	var s RailSummary
	for _, t := range trains {
		if t.Status != trainRunning {
			continue
		}
		s.Running++
		d := t.DelayMinutes()
		if d >= lateAfter {
			s.Delayed++
		}
		s.MaxDelay = max(s.MaxDelay, d)
	}
	return s
}

// Level rates the network: heavy when more than 30% of running trains are
// late, moderate above 10%, light otherwise, unknown with nothing running.
func (s RailSummary) Level() string {
	if s.Running == 0 {
		return models.TrafficUnknown
	}
	share := float64(s.Delayed) / float64(s.Running)
	switch {
	case share > 0.3:
		return models.TrafficHeavy
	case share > 0.1:
		return models.TrafficModerate
	default:
		return models.TrafficLight
	}
}

// Text renders the summary for the transport board.
func (s RailSummary) Text() string {
	if s.Running == 0 {
		return "No trains running"
	}
	if s.Delayed == 0 {
		return fmt.Sprintf("%d trains running, all on time", s.Running)
	}
	return fmt.Sprintf("%d trains running, %d delayed (max %d min)", s.Running, s.Delayed, s.MaxDelay)
}
