package store

import (
	"context"

	"go.uber.org/zap"

	"whatsapp-console/internal/models"
	"whatsapp-console/internal/payment"
	"whatsapp-console/internal/upstream"
)

type PaymentSlice struct {
	slice
	client *upstream.Client

	plans        []models.PaymentPlan
	flowState    payment.FlowState
	paymentID    string
	planID       string
	redirect     *payment.RedirectDescriptor
	receipt      *payment.Receipt
	flowError    string
}

type PaymentSnapshot struct {
	Flags
	Plans     []models.PaymentPlan        `json:"plans"`
	FlowState payment.FlowState           `json:"flowState"`
	PaymentID string                      `json:"paymentId,omitempty"`
	PlanID    string                      `json:"planId,omitempty"`
	Redirect  *payment.RedirectDescriptor `json:"redirect,omitempty"`
	Receipt   *payment.Receipt            `json:"receipt,omitempty"`
	FlowError string                      `json:"flowError,omitempty"`
}

func (s *PaymentSlice) Snapshot() PaymentSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.flowState
	if state == "" {
		state = payment.FlowIdle
	}
	return PaymentSnapshot{
		Flags:     Flags{Loading: s.loading, Error: s.err},
		Plans:     append([]models.PaymentPlan(nil), s.plans...),
		FlowState: state,
		PaymentID: s.paymentID,
		PlanID:    s.planID,
		Redirect:  s.redirect,
		Receipt:   s.receipt,
		FlowError: s.flowError,
	}
}

func (s *PaymentSlice) FetchPlans(ctx context.Context) error {
	id := s.begin()
	plans, err := s.client.PublicPlans(ctx)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() { s.plans = plans }) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

// Register starts a purchase: idle -> registering -> submitting, ending
// with the gateway redirect descriptor ready for the browser.
func (s *PaymentSlice) Register(ctx context.Context, planID string) (*payment.Registration, error) {
	if err := s.transition(payment.FlowRegistering); err != nil {
		return nil, err
	}
	id := s.begin()
	reg, err := s.client.RegisterPayment(ctx, planID)
	if err != nil {
		s.reject(id, err)
		s.transition(payment.FlowFailed)
		return nil, err
	}
	current := s.fulfill(id, func() {
		s.paymentID = reg.PaymentID
		s.planID = planID
		s.redirect = &reg.Redirect
	})
	s.transition(payment.FlowSubmitting)
	if current {
		s.publish("fulfilled", s.Snapshot())
	}
	return reg, nil
}

// BeginProcessing marks the handoff done and polling underway.
func (s *PaymentSlice) BeginProcessing() error {
	return s.transition(payment.FlowProcessing)
}

// Resume restores an in-flight purchase from a persisted marker after a
// restart.
func (s *PaymentSlice) Resume(paymentID, planID string) error {
	s.mu.Lock()
	s.paymentID = paymentID
	s.planID = planID
	s.mu.Unlock()
	return s.transition(payment.FlowProcessing)
}

// Complete records settlement and the receipt surfaced to the user.
func (s *PaymentSlice) Complete(receipt *payment.Receipt) error {
	if err := s.transition(payment.FlowCompleted); err != nil {
		return err
	}
	s.mu.Lock()
	s.receipt = receipt
	s.redirect = nil
	s.mu.Unlock()
	s.publish("flow", s.Snapshot())
	return nil
}

// Fail ends the flow with FAILED or CANCELLED plus a surfaced message.
func (s *PaymentSlice) Fail(state payment.FlowState, message string) error {
	if err := s.transition(state); err != nil {
		return err
	}
	s.mu.Lock()
	s.flowError = message
	s.redirect = nil
	s.mu.Unlock()
	s.publish("flow", s.Snapshot())
	return nil
}

// Reset returns a settled flow to idle for a new purchase.
func (s *PaymentSlice) Reset() {
	s.mu.Lock()
	s.flowState = payment.FlowIdle
	s.paymentID = ""
	s.planID = ""
	s.redirect = nil
	s.receipt = nil
	s.flowError = ""
	s.mu.Unlock()
	s.publish("flow", s.Snapshot())
}

func (s *PaymentSlice) FlowState() payment.FlowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flowState == "" {
		return payment.FlowIdle
	}
	return s.flowState
}

func (s *PaymentSlice) PaymentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paymentID
}

// transition moves the flow state through the legal-transition table.
// Terminal states are sticky: an illegal move (a late poll tick trying
// to drag completed back to processing) is rejected, not applied.
func (s *PaymentSlice) transition(to payment.FlowState) error {
	s.mu.Lock()
	from := s.flowState
	if from == "" {
		from = payment.FlowIdle
	}
	next, err := payment.Transition(from, to)
	s.flowState = next
	s.mu.Unlock()
	if err != nil {
		s.log.Debug("payment flow transition rejected",
			zap.String("from", string(from)), zap.String("to", string(to)))
		return err
	}
	s.publish("flow", map[string]interface{}{"from": from, "to": to})
	return nil
}
