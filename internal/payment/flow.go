// Package payment models the lifecycle of a plan purchase through the
// external gateway. Progress is an explicit flow state rather than a
// pile of booleans, so the UI renders exactly one state at a time and
// terminal outcomes cannot be walked back by a late poll tick.
package payment

import "fmt"

// Status is a payment's lifecycle status as reported by the platform.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the status ends the payment's lifecycle.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// FlowState tracks where the console is in the purchase flow.
type FlowState string

const (
	FlowIdle        FlowState = "idle"
	FlowRegistering FlowState = "registering"
	FlowSubmitting  FlowState = "submitting"
	FlowProcessing  FlowState = "processing"
	FlowCompleted   FlowState = "completed"
	FlowFailed      FlowState = "failed"
	FlowCancelled   FlowState = "cancelled"
)

// Terminal flow states are sticky: once reached, no transition leaves
// them except an explicit reset to idle for a new purchase.
func (s FlowState) Terminal() bool {
	switch s {
	case FlowCompleted, FlowFailed, FlowCancelled:
		return true
	}
	return false
}

var transitions = map[FlowState][]FlowState{
	FlowIdle:        {FlowRegistering, FlowProcessing}, // processing directly when resuming from a persisted marker
	FlowRegistering: {FlowSubmitting, FlowFailed, FlowIdle},
	FlowSubmitting:  {FlowProcessing, FlowFailed, FlowIdle},
	FlowProcessing:  {FlowCompleted, FlowFailed, FlowCancelled},
	FlowCompleted:   {FlowIdle},
	FlowFailed:      {FlowIdle},
	FlowCancelled:   {FlowIdle},
}

// Transition validates a state change. Illegal moves, notably any
// attempt to leave a terminal state other than resetting to idle, are
// rejected.
func Transition(from, to FlowState) (FlowState, error) {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return to, nil
		}
	}
	return from, fmt.Errorf("payment: illegal flow transition %s -> %s", from, to)
}

// FromStatus maps a terminal payment status onto its flow state.
func FromStatus(s Status) (FlowState, bool) {
	switch s {
	case StatusCompleted:
		return FlowCompleted, true
	case StatusFailed:
		return FlowFailed, true
	case StatusCancelled:
		return FlowCancelled, true
	}
	return FlowProcessing, false
}

// RedirectDescriptor is the gateway form handoff: the platform returns
// an action URL plus hidden fields, and any rendering layer can turn it
// into an auto-submitting form in a new tab.
type RedirectDescriptor struct {
	Action   string            `json:"action"`
	Method   string            `json:"method"`
	Fields   map[string]string `json:"fields"`
	Amount   float64           `json:"amount,omitempty"`
	Currency string            `json:"currency,omitempty"`
}

// Registration is the platform's answer to a payment registration.
type Registration struct {
	PaymentID string             `json:"paymentId"`
	PlanID    string             `json:"planId"`
	Redirect  RedirectDescriptor `json:"redirect"`
}

// Receipt summarizes a completed purchase for display.
type Receipt struct {
	PaymentID string  `json:"paymentId"`
	PlanID    string  `json:"planId"`
	PlanName  string  `json:"planName"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	PaidAt    string  `json:"paidAt"`
}
