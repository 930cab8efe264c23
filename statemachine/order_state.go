package statemachine

import (
	"fmt"
	"strings"

	"food-storefront/models"
)

// Action is something a customer can do to one of their orders.
type Action string

const (
	ActionCancel          Action = "cancel"
	ActionConfirmDelivery Action = "confirm-delivery"
)

// Rule offers an action while an order is in a given status.
type Rule struct {
	From   models.OrderStatus
	Action Action
}

// customerRules lists which order actions the storefront offers. The backend
// still decides whether the resulting transition happens.
var customerRules = []Rule{
	// Cancel until the order leaves the kitchen
	{From: models.StatusCreated, Action: ActionCancel},
	{From: models.StatusPending, Action: ActionCancel},
	{From: models.StatusConfirmed, Action: ActionCancel},
	{From: models.StatusPreparing, Action: ActionCancel},
	{From: models.StatusWaitingForDrone, Action: ActionCancel},
	{From: models.StatusAssigned, Action: ActionCancel},
	// Confirm once the drone is at the door
	{From: models.StatusDelivering, Action: ActionConfirmDelivery},
	{From: models.StatusArrived, Action: ActionConfirmDelivery},
}

var terminalStatuses = []models.OrderStatus{
	models.StatusDelivered,
	models.StatusCompleted,
	models.StatusCancelled,
	models.StatusDeliveryFailed,
}

var terminal = func() map[models.OrderStatus]bool {
	m := make(map[models.OrderStatus]bool, len(terminalStatuses))
	for _, s := range terminalStatuses {
		m[s] = true
	}
	return m
}()

type ruleKey struct {
	From   models.OrderStatus
	Action Action
}

var ruleMap = func() map[ruleKey]bool {
	m := make(map[ruleKey]bool)
	for _, r := range customerRules {
		m[ruleKey{r.From, r.Action}] = true
	}
	return m
}()

// ActionsFor returns the actions offered for status, in table order.
func ActionsFor(status models.OrderStatus) []Action {
	status = status.Normalize()
	actions := []Action{}
	for _, r := range customerRules {
		if r.From == status {
			actions = append(actions, r.Action)
		}
	}
	return actions
}

// CanPerform reports whether action is offered for status. Status matching is
// case-insensitive.
func CanPerform(status models.OrderStatus, action Action) error {
	status = status.Normalize()
	if ruleMap[ruleKey{status, action}] {
		return nil
	}
	if IsTerminal(status) {
		return fmt.Errorf("order is %s and can no longer be changed", status)
	}
	return fmt.Errorf("cannot %s an order in status %s; allowed from: %s",
		action, orEmpty(status), describeAllowed(action))
}

func IsTerminal(status models.OrderStatus) bool {
	return terminal[status.Normalize()]
}

func describeAllowed(action Action) string {
	var from []string
	for _, r := range customerRules {
		if r.Action == action {
			from = append(from, string(r.From))
		}
	}
	if len(from) == 0 {
		return "none"
	}
	return strings.Join(from, ", ")
}

func orEmpty(status models.OrderStatus) string {
	if status == "" {
		return "(unknown)"
	}
	return string(status)
}

// Label renders a status for display, e.g. WAITING_FOR_DRONE as
// "Waiting for drone".
func Label(status models.OrderStatus) string {
	s := strings.ToLower(strings.ReplaceAll(string(status.Normalize()), "_", " "))
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// TerminalStatuses lists the statuses after which nothing can change.
func TerminalStatuses() []models.OrderStatus {
	return terminalStatuses
}

func GetAllRules() []Rule {
	return customerRules
}
