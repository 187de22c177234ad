package store

import (
	"context"

	"whatsapp-console/internal/models"
	"whatsapp-console/internal/upstream"
)

type AuthSlice struct {
	slice
	client *upstream.Client

	user          *models.User
	subscription  *models.Subscription
	requiresOTP   bool
	pendingEmail  string
	authenticated bool
}

type AuthSnapshot struct {
	Flags
	User          *models.User         `json:"user,omitempty"`
	Subscription  *models.Subscription `json:"subscription,omitempty"`
	RequiresOTP   bool                 `json:"requiresOTP"`
	Authenticated bool                 `json:"authenticated"`
}

func (s *AuthSlice) Snapshot() AuthSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AuthSnapshot{
		Flags:         Flags{Loading: s.loading, Error: s.err},
		User:          s.user,
		Subscription:  s.subscription,
		RequiresOTP:   s.requiresOTP,
		Authenticated: s.authenticated,
	}
}

func (s *AuthSlice) Login(ctx context.Context, email, password string) error {
	id := s.begin()
	res, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() {
		s.applyAuthLocked(res)
		if res.RequiresOTP {
			s.pendingEmail = email
		}
	}) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *AuthSlice) VerifyOTP(ctx context.Context, otp string) error {
	s.mu.Lock()
	email := s.pendingEmail
	s.mu.Unlock()

	id := s.begin()
	res, err := s.client.VerifyOTP(ctx, email, otp)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() {
		s.applyAuthLocked(res)
		s.pendingEmail = ""
	}) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *AuthSlice) Register(ctx context.Context, req upstream.RegisterRequest) error {
	id := s.begin()
	res, err := s.client.Register(ctx, req)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() { s.applyAuthLocked(res) }) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *AuthSlice) FetchProfile(ctx context.Context) error {
	id := s.begin()
	user, err := s.client.Profile(ctx)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() {
		s.user = user
		s.authenticated = true
	}) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *AuthSlice) UpdateProfile(ctx context.Context, user models.User) error {
	id := s.begin()
	updated, err := s.client.UpdateProfile(ctx, user)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() { s.user = updated }) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *AuthSlice) Logout() error {
	err := s.client.Logout()
	s.mu.Lock()
	s.user = nil
	s.subscription = nil
	s.requiresOTP = false
	s.pendingEmail = ""
	s.authenticated = false
	s.loading = false
	s.err = ""
	s.mu.Unlock()
	s.publish("logout", nil)
	return err
}

// applyAuthLocked must run under the slice lock (inside fulfill).
func (s *AuthSlice) applyAuthLocked(res *upstream.AuthResult) {
	s.requiresOTP = res.RequiresOTP
	if res.User != nil {
		s.user = res.User
	}
	if res.Subscription != nil {
		s.subscription = res.Subscription
	}
	s.authenticated = res.Token != ""
}
