package services

import (
	"fmt"
	"strings"

	"github.com/example/foodexpress/internal/models"
)

// Actor identifies who requests a status change.
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorAdmin    Actor = "admin"
)

// Transition is an allowed status change and the actor permitted to make it.
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor Actor              `json:"actor"`
}

var transitions = []Transition{
	{From: models.OrderPending, To: models.OrderConfirmed, Actor: ActorAdmin},
	{From: models.OrderPending, To: models.OrderCancelled, Actor: ActorCustomer},
	{From: models.OrderPending, To: models.OrderCancelled, Actor: ActorAdmin},
	{From: models.OrderConfirmed, To: models.OrderPreparing, Actor: ActorAdmin},
	{From: models.OrderConfirmed, To: models.OrderCancelled, Actor: ActorCustomer},
	{From: models.OrderConfirmed, To: models.OrderCancelled, Actor: ActorAdmin},
	{From: models.OrderPreparing, To: models.OrderReady, Actor: ActorAdmin},
	{From: models.OrderReady, To: models.OrderOutForDelivery, Actor: ActorAdmin},
	{From: models.OrderOutForDelivery, To: models.OrderDelivered, Actor: ActorAdmin},
}

type transitionKey struct {
	from  models.OrderStatus
	to    models.OrderStatus
	actor Actor
}

var transitionSet = func() map[transitionKey]struct{} {
	m := make(map[transitionKey]struct{}, len(transitions))
	for _, t := range transitions {
		m[transitionKey{t.From, t.To, t.Actor}] = struct{}{}
	}
	return m
}()

// Transitions returns the full lifecycle table.
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

// NextStatuses lists the statuses reachable from status by any actor.
func NextStatuses(status models.OrderStatus) []models.OrderStatus {
	var next []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range transitions {
		if t.From == status && !seen[t.To] {
			next = append(next, t.To)
			seen[t.To] = true
		}
	}
	return next
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status models.OrderStatus) bool {
	return len(NextStatuses(status)) == 0
}

// ValidStatus reports whether s names a lifecycle status.
func ValidStatus(s models.OrderStatus) bool {
	switch s {
	case models.OrderPending, models.OrderConfirmed, models.OrderPreparing, models.OrderReady,
		models.OrderOutForDelivery, models.OrderDelivered, models.OrderCancelled:
		return true
	}
	return false
}

// CanTransition returns an ErrInvalidState error unless actor may move an
// order from one status to the other.
func CanTransition(from, to models.OrderStatus, actor Actor) error {
	if _, ok := transitionSet[transitionKey{from, to, actor}]; ok {
		return nil
	}
	return newError(ErrInvalidState, "status", "cannot move order from %s to %s; allowed next statuses: %s",
		from, to, describeNext(from))
}

func describeNext(status models.OrderStatus) string {
	if IsTerminal(status) {
		return "none (terminal state)"
	}
	next := NextStatuses(status)
	names := make([]string, len(next))
	for i, s := range next {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s (%s)", t.From, t.To, t.Actor)
}
