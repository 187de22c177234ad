package store

import (
	"context"
	"encoding/json"

	"whatsapp-console/internal/bot"
	"whatsapp-console/internal/models"
	"whatsapp-console/internal/upstream"
)

type BotSlice struct {
	slice
	client *upstream.Client

	deviceID  string
	responses []bot.BotResponse
	templates []models.BotTemplate
	lastTest  *upstream.BotTestResult
}

type BotSnapshot struct {
	Flags
	DeviceID  string                  `json:"deviceId,omitempty"`
	Responses []bot.BotResponse       `json:"responses"`
	Templates []models.BotTemplate    `json:"templates,omitempty"`
	LastTest  *upstream.BotTestResult `json:"lastTest,omitempty"`
}

func (s *BotSlice) Snapshot() BotSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BotSnapshot{
		Flags:     Flags{Loading: s.loading, Error: s.err},
		DeviceID:  s.deviceID,
		Responses: append([]bot.BotResponse(nil), s.responses...),
		Templates: append([]models.BotTemplate(nil), s.templates...),
		LastTest:  s.lastTest,
	}
}

func (s *BotSlice) Fetch(ctx context.Context, deviceID string) error {
	id := s.begin()
	responses, err := s.client.ListBotResponses(ctx, deviceID)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() {
		s.deviceID = deviceID
		s.responses = responses
	}) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *BotSlice) Create(ctx context.Context, r bot.BotResponse) (*bot.BotResponse, error) {
	id := s.begin()
	created, err := s.client.CreateBotResponse(ctx, r)
	if err != nil {
		s.reject(id, err)
		return nil, err
	}
	if s.fulfill(id, func() { s.responses = append(s.responses, *created) }) {
		s.publish("fulfilled", s.Snapshot())
	}
	return created, nil
}

func (s *BotSlice) Update(ctx context.Context, r bot.BotResponse) (*bot.BotResponse, error) {
	id := s.begin()
	updated, err := s.client.UpdateBotResponse(ctx, r)
	if err != nil {
		s.reject(id, err)
		return nil, err
	}
	if s.fulfill(id, func() {
		for i := range s.responses {
			if s.responses[i].ID == updated.ID {
				s.responses[i] = *updated
				break
			}
		}
	}) {
		s.publish("fulfilled", s.Snapshot())
	}
	return updated, nil
}

func (s *BotSlice) Delete(ctx context.Context, responseID string) error {
	id := s.begin()
	if err := s.client.DeleteBotResponse(ctx, responseID); err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() {
		kept := s.responses[:0]
		for _, r := range s.responses {
			if r.ID != responseID {
				kept = append(kept, r)
			}
		}
		s.responses = kept
	}) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *BotSlice) FetchTemplates(ctx context.Context) error {
	id := s.begin()
	templates, err := s.client.BotTemplates(ctx)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() { s.templates = templates }) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

// Test dry-runs a message against the device's rules upstream. The
// returned session is fed back on the next Test call to walk a
// multi-step conversation.
func (s *BotSlice) Test(ctx context.Context, deviceID, message string, session json.RawMessage) (*upstream.BotTestResult, error) {
	id := s.begin()
	result, err := s.client.TestBotResponse(ctx, deviceID, message, session)
	if err != nil {
		s.reject(id, err)
		return nil, err
	}
	if s.fulfill(id, func() { s.lastTest = result }) {
		s.publish("fulfilled", s.Snapshot())
	}
	return result, nil
}

func (s *BotSlice) Response(responseID string) (bot.BotResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.responses {
		if r.ID == responseID {
			return r, true
		}
	}
	return bot.BotResponse{}, false
}
