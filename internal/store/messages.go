package store

import (
	"context"
	"errors"

	"whatsapp-console/internal/models"
	"whatsapp-console/internal/upstream"
)

// ErrNoRecipients rejects a bulk send before any upstream call is made.
var ErrNoRecipients = errors.New("add at least one recipient before sending")

type MessagesSlice struct {
	slice
	client *upstream.Client

	messages []models.Message
	lastBulk *upstream.BulkSendResult
}

type MessagesSnapshot struct {
	Flags
	Messages []models.Message         `json:"messages"`
	LastBulk *upstream.BulkSendResult `json:"lastBulk,omitempty"`
}

func (s *MessagesSlice) Snapshot() MessagesSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MessagesSnapshot{
		Flags:    Flags{Loading: s.loading, Error: s.err},
		Messages: append([]models.Message(nil), s.messages...),
		LastBulk: s.lastBulk,
	}
}

func (s *MessagesSlice) Fetch(ctx context.Context, deviceID string) error {
	id := s.begin()
	messages, err := s.client.ListMessages(ctx, deviceID)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() { s.messages = messages }) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *MessagesSlice) Send(ctx context.Context, deviceID, to, message string) error {
	id := s.begin()
	sent, err := s.client.SendMessage(ctx, deviceID, to, message)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() { s.messages = append(s.messages, *sent) }) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

// SendBulk validates locally first: an empty recipient list never
// reaches the platform.
func (s *MessagesSlice) SendBulk(ctx context.Context, deviceID string, recipients []string, message string) (*upstream.BulkSendResult, error) {
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	id := s.begin()
	result, err := s.client.SendBulk(ctx, deviceID, recipients, message)
	if err != nil {
		s.reject(id, err)
		return nil, err
	}
	if s.fulfill(id, func() { s.lastBulk = result }) {
		s.publish("fulfilled", s.Snapshot())
	}
	return result, nil
}
