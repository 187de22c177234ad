// Package store is the console's client-side state: one independent
// slice per domain, each mirroring platform state behind loading/error
// flags. Slices mutate only through pending/fulfilled/rejected
// transitions dispatched by their own thunks, and never read each
// other; handlers join slices at render time.
package store

import (
	"sync"

	"go.uber.org/zap"

	"whatsapp-console/internal/upstream"
)

// Event describes one slice transition. The ws hub fans these out to
// connected browsers so pages re-render on store changes.
type Event struct {
	Slice string      `json:"slice"`
	Kind  string      `json:"kind"`
	Data  interface{} `json:"data,omitempty"`
}

// Notifier receives slice-change events. A nil notifier is allowed.
type Notifier interface {
	Publish(Event)
}

type Store struct {
	Auth     *AuthSlice
	Devices  *DevicesSlice
	Messages *MessagesSlice
	Bot      *BotSlice
	Groups   *GroupsSlice
	Payment  *PaymentSlice
}

func New(client *upstream.Client, notifier Notifier, log *zap.Logger) *Store {
	return &Store{
		Auth:     &AuthSlice{slice: newSlice("auth", notifier, log), client: client},
		Devices:  &DevicesSlice{slice: newSlice("devices", notifier, log), client: client},
		Messages: &MessagesSlice{slice: newSlice("messages", notifier, log), client: client},
		Bot:      &BotSlice{slice: newSlice("bot", notifier, log), client: client},
		Groups:   &GroupsSlice{slice: newSlice("groups", notifier, log), client: client},
		Payment:  &PaymentSlice{slice: newSlice("payment", notifier, log), client: client},
	}
}

// slice carries the three-phase transition contract shared by every
// domain. Requests are numbered; only the most recently issued request
// may fulfill or reject, so a slow early response can never overwrite
// the result of a later one.
type slice struct {
	name     string
	notifier Notifier
	log      *zap.Logger

	mu      sync.Mutex
	loading bool
	err     string
	seq     uint64
}

func newSlice(name string, notifier Notifier, log *zap.Logger) slice {
	if log == nil {
		log = zap.NewNop()
	}
	return slice{name: name, notifier: notifier, log: log}
}

// begin issues a request id and enters the pending phase: loading set,
// previous error cleared.
func (s *slice) begin() uint64 {
	s.mu.Lock()
	s.seq++
	id := s.seq
	s.loading = true
	s.err = ""
	s.mu.Unlock()
	s.publish("pending", nil)
	return id
}

// fulfill exits the pending phase if the request is still current. The
// caller applies its data mutation inside fn while the lock is held.
func (s *slice) fulfill(id uint64, fn func()) bool {
	s.mu.Lock()
	if id != s.seq {
		s.mu.Unlock()
		s.log.Debug("stale fulfillment dropped", zap.String("slice", s.name), zap.Uint64("id", id))
		return false
	}
	if fn != nil {
		fn()
	}
	s.loading = false
	s.err = ""
	s.mu.Unlock()
	return true
}

func (s *slice) reject(id uint64, err error) bool {
	s.mu.Lock()
	if id != s.seq {
		s.mu.Unlock()
		return false
	}
	s.loading = false
	s.err = err.Error()
	s.mu.Unlock()
	s.publish("rejected", err.Error())
	return true
}

func (s *slice) publish(kind string, data interface{}) {
	if s.notifier != nil {
		s.notifier.Publish(Event{Slice: s.name, Kind: kind, Data: data})
	}
}

// Flags is the loading/error pair every snapshot carries.
type Flags struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

func (s *slice) flags() Flags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Flags{Loading: s.loading, Error: s.err}
}
