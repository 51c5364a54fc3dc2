// Package lifecycle drives the ticket status state machine and couples it to
// the auto-close timer.
package lifecycle

import "github.com/thefitz/companion/pkg/models"

// transitions lists the statuses reachable from each known status.
var transitions = map[models.TicketStatus][]models.TicketStatus{
	models.TicketStatusOpen: {
		models.TicketStatusPending, models.TicketStatusInProgress,
		models.TicketStatusConfirmed, models.TicketStatusClosed,
	},
	models.TicketStatusPending: {
		models.TicketStatusInProgress, models.TicketStatusConfirmed, models.TicketStatusClosed,
	},
	models.TicketStatusInProgress: {
		models.TicketStatusConfirmed, models.TicketStatusClosed,
	},
	models.TicketStatusConfirmed: {
		models.TicketStatusInProgress, models.TicketStatusClosed,
	},
	models.TicketStatusClosed: {},
}

// IsKnown reports whether s is a status the state machine recognises.
func IsKnown(s models.TicketStatus) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a ticket in status from may move to to.
// Staying in the same status is always allowed. A ticket in a status the
// state machine does not know may move to any known status.
func CanTransition(from, to models.TicketStatus) bool {
	if !IsKnown(to) {
		return false
	}
	if from == to {
		return true
	}
	next, ok := transitions[from]
	if !ok {
		return true
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.TicketStatus) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}
