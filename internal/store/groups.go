package store

import (
	"context"

	"whatsapp-console/internal/models"
	"whatsapp-console/internal/upstream"
)

type GroupsSlice struct {
	slice
	client *upstream.Client

	available []models.AvailableGroup
	selected  []models.SelectedGroup
	messages  map[string][]models.GroupMessage
}

type GroupsSnapshot struct {
	Flags
	Available []models.AvailableGroup          `json:"available,omitempty"`
	Selected  []models.SelectedGroup           `json:"selected"`
	Messages  map[string][]models.GroupMessage `json:"messages,omitempty"`
}

func (s *GroupsSlice) Snapshot() GroupsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make(map[string][]models.GroupMessage, len(s.messages))
	for k, v := range s.messages {
		messages[k] = append([]models.GroupMessage(nil), v...)
	}
	return GroupsSnapshot{
		Flags:     Flags{Loading: s.loading, Error: s.err},
		Available: append([]models.AvailableGroup(nil), s.available...),
		Selected:  append([]models.SelectedGroup(nil), s.selected...),
		Messages:  messages,
	}
}

func (s *GroupsSlice) FetchAvailable(ctx context.Context, deviceID string) error {
	id := s.begin()
	available, err := s.client.AvailableGroups(ctx, deviceID)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() { s.available = available }) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *GroupsSlice) Select(ctx context.Context, deviceID, groupID string) error {
	id := s.begin()
	selected, err := s.client.SelectGroup(ctx, deviceID, groupID)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() { s.selected = append(s.selected, *selected) }) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *GroupsSlice) Fetch(ctx context.Context) error {
	id := s.begin()
	selected, err := s.client.ListGroups(ctx)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() { s.selected = selected }) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *GroupsSlice) Update(ctx context.Context, g models.SelectedGroup) error {
	id := s.begin()
	updated, err := s.client.UpdateGroup(ctx, g)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() {
		for i := range s.selected {
			if s.selected[i].ID == updated.ID {
				s.selected[i] = *updated
				break
			}
		}
	}) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *GroupsSlice) Remove(ctx context.Context, groupID string) error {
	id := s.begin()
	if err := s.client.RemoveGroup(ctx, groupID); err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() {
		kept := s.selected[:0]
		for _, g := range s.selected {
			if g.ID != groupID {
				kept = append(kept, g)
			}
		}
		s.selected = kept
		delete(s.messages, groupID)
	}) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *GroupsSlice) FetchMessages(ctx context.Context, groupID string) error {
	id := s.begin()
	messages, err := s.client.GroupMessages(ctx, groupID)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() {
		if s.messages == nil {
			s.messages = map[string][]models.GroupMessage{}
		}
		s.messages[groupID] = messages
	}) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *GroupsSlice) Send(ctx context.Context, deviceID, groupID, message string) error {
	id := s.begin()
	if err := s.client.SendGroupMessage(ctx, deviceID, groupID, message); err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, nil) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *GroupsSlice) Broadcast(ctx context.Context, groupID, message string) error {
	id := s.begin()
	if err := s.client.BroadcastToGroup(ctx, groupID, message); err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, nil) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *GroupsSlice) Group(groupID string) (models.SelectedGroup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.selected {
		if g.ID == groupID {
			return g, true
		}
	}
	return models.SelectedGroup{}, false
}
