// Package timeline merges a day's tickets and arrival alerts into one
// time-ordered, hour-bucketed operations view.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/thefitz/companion/pkg/models"
)

// Kind identifies the record family an item came from.
type Kind string

const (
	KindTicket  Kind = "ticket"
	KindArrival Kind = "arrival"
)

// Arrival statuses derived from cached flight delay.
const (
	StatusDelayed = "delayed"
	StatusOnTime  = "on_time"
)

// StatusOther is the counts key for statuses outside KnownStatuses.
const StatusOther = "other"

// DefaultDelayThreshold is the delay beyond which an arrival is flagged.
const DefaultDelayThreshold = 15 * time.Minute

// KnownStatuses are counted under their own key.
var KnownStatuses = map[string]bool{
	string(models.TicketStatusOpen):       true,
	string(models.TicketStatusPending):    true,
	string(models.TicketStatusConfirmed):  true,
	string(models.TicketStatusInProgress): true,
	string(models.TicketStatusClosed):     true,
	"transferred":                         true,
	StatusDelayed:                         true,
	StatusOnTime:                          true,
}

// Item is one entry of the timeline.
type Item struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	TicketType string    `json:"ticket_type,omitempty"`
	Time       time.Time `json:"time"`
	GuestName  string    `json:"guest_name,omitempty"`
	RoomNumber string    `json:"room_number,omitempty"`
	Summary    string    `json:"summary"`
	Status     string    `json:"status"`
	Priority   string    `json:"priority"`
	HasAlert   bool      `json:"has_alert"`
	Source     any       `json:"source"`
}

// Counts tallies items by status.
type Counts struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// Result is the aggregated view of one day.
type Result struct {
	Date    string             `json:"date"`
	Items   []*Item            `json:"items"`
	Grouped map[string][]*Item `json:"grouped"`
	Hours   []string           `json:"hours"`
	Counts  Counts             `json:"counts"`
}

// Options control how Build derives items.
type Options struct {
	Date           time.Time      // Day being built, used for Result.Date
	Location       *time.Location // Hour buckets use this zone; nil means UTC
	DelayThreshold time.Duration  // Zero means DefaultDelayThreshold
	Status         string         // Ticket status filter; "" or "all" keeps every ticket
}

// Build merges tickets and arrivals into a Result. It never fails: records
// without a usable time are dropped.
func Build(tickets []*models.Ticket, arrivals []*models.Arrival, opts Options) *Result {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	threshold := opts.DelayThreshold
	if threshold <= 0 {
		threshold = DefaultDelayThreshold
	}

	items := make([]*Item, 0, len(tickets)+len(arrivals))
	for _, t := range tickets {
		if t == nil {
			continue
		}
		if opts.Status != "" && opts.Status != "all" && string(t.Status) != opts.Status {
			continue
		}
		if it := ticketItem(t); it != nil {
			items = append(items, it)
		}
	}
	for _, a := range arrivals {
		if it := arrivalItem(a, threshold); it != nil {
			items = append(items, it)
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Time.Before(items[j].Time) })

	res := &Result{
		Items:   items,
		Grouped: make(map[string][]*Item),
		Hours:   []string{},
		Counts:  Counts{ByStatus: make(map[string]int)},
	}
	if !opts.Date.IsZero() {
		res.Date = opts.Date.In(loc).Format(time.DateOnly)
	}

	for _, it := range items {
		key := HourLabel(it.Time, loc)
		if _, ok := res.Grouped[key]; !ok {
			res.Hours = append(res.Hours, key)
		}
		res.Grouped[key] = append(res.Grouped[key], it)

		res.Counts.Total++
		if KnownStatuses[it.Status] {
			res.Counts.ByStatus[it.Status]++
		} else {
			res.Counts.ByStatus[StatusOther]++
		}
	}
	sort.Strings(res.Hours)
	return res
}

// HourLabel formats the local hour of t as "HH:00".
func HourLabel(t time.Time, loc *time.Location) string {
	return fmt.Sprintf("%02d:00", t.In(loc).Hour())
}

func ticketItem(t *models.Ticket) *Item {
	if t.ScheduledTime == nil || t.ScheduledTime.IsZero() {
		return nil
	}
	priority := t.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	return &Item{
		ID:         "ticket-" + t.ID,
		Kind:       KindTicket,
		TicketType: t.Type,
		Time:       *t.ScheduledTime,
		GuestName:  t.DisplayGuestName(),
		RoomNumber: t.DisplayRoomNumber(),
		Summary:    t.Summary,
		Status:     string(t.Status),
		Priority:   priority,
		HasAlert:   priority == models.PriorityHigh || priority == models.PriorityUrgent,
		Source:     t,
	}
}

// ArrivalRef is the opaque source carried by arrival items.
type ArrivalRef struct {
	Guest  *models.Guest        `json:"guest"`
	Flight *models.FlightStatus `json:"flight"`
}

func arrivalItem(a *models.Arrival, threshold time.Duration) *Item {
	if a == nil || a.Guest == nil {
		return nil
	}

	var at *time.Time
	delay := time.Duration(0)
	if a.Flight != nil {
		delay = time.Duration(a.Flight.DelayMinutes) * time.Minute
		at = a.Flight.ArrivalTime
	}
	if at == nil || at.IsZero() {
		at = a.Guest.CheckInDate
	}
	if at == nil || at.IsZero() {
		return nil
	}

	flight := ""
	if a.Guest.FlightNumber != nil {
		flight = *a.Guest.FlightNumber
	}
	delayed := delay > threshold
	status, summary := StatusOnTime, "Flight "+flight
	if delayed {
		status, summary = StatusDelayed, summary+" - DELAYED"
	}

	return &Item{
		ID:         "arrival-" + a.Guest.ID,
		Kind:       KindArrival,
		Time:       *at,
		GuestName:  a.Guest.Name,
		RoomNumber: a.Guest.RoomNumber,
		Summary:    summary,
		Status:     status,
		Priority:   models.PriorityNormal,
		HasAlert:   delayed,
		Source:     ArrivalRef{Guest: a.Guest, Flight: a.Flight},
	}
}
