// Package wizard drives the five-step bot-response authoring flow.
// The wizard owns a single mutable draft for the whole session; each
// step reads and writes disjoint fields of it, and the draft only
// leaves the wizard through Save.
package wizard

import (
	"strings"

	"whatsapp-console/internal/bot"
)

type Step int

const (
	StepBasicInfo Step = iota
	StepTrigger
	StepResponseType
	StepBuilder
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepBasicInfo:
		return "Basic Info"
	case StepTrigger:
		return "Trigger Setup"
	case StepResponseType:
		return "Response Type"
	case StepBuilder:
		return "Response Builder"
	case StepReview:
		return "Review & Save"
	}
	return "Unknown"
}

type Wizard struct {
	current Step
	draft   bot.BotResponse
	errors  map[string]string
}

// New starts an authoring session for a device. New rules default to
// active so a freshly saved rule takes effect without a second toggle.
func New(deviceID string) *Wizard {
	return &Wizard{
		draft: bot.BotResponse{
			DeviceID:     deviceID,
			TriggerType:  bot.TriggerKeyword,
			ResponseType: bot.ResponseText,
			IsActive:     true,
		},
		errors: map[string]string{},
	}
}

// Edit starts a session seeded from an existing rule. Saving emits the
// whole object again; the platform API replaces rules, never patches.
func Edit(existing bot.BotResponse) *Wizard {
	return &Wizard{
		draft:  existing,
		errors: map[string]string{},
	}
}

func (w *Wizard) Current() Step             { return w.current }
func (w *Wizard) Draft() bot.BotResponse    { return w.draft }
func (w *Wizard) Errors() map[string]string { return w.errors }

func (w *Wizard) SetBasicInfo(name string, priority int, isActive bool) {
	w.draft.Name = name
	w.draft.Priority = priority
	w.draft.IsActive = isActive
}

func (w *Wizard) SetTrigger(t bot.TriggerType, value string) {
	w.draft.TriggerType = t
	w.draft.TriggerValue = value
}

// SetResponseType switches the response variant. Changing the type
// discards the previous variant's payload so a later save can never
// leak stale fields from an abandoned choice.
func (w *Wizard) SetResponseType(t bot.ResponseType) {
	if t != w.draft.ResponseType {
		w.draft.ResponseData = bot.ResponseData{}
	}
	w.draft.ResponseType = t
}

func (w *Wizard) SetResponseData(d bot.ResponseData) {
	w.draft.ResponseData = d
}

// Next advances one step if the current step validates. On failure the
// step's field errors are recorded and the wizard stays put.
func (w *Wizard) Next() bool {
	if !w.validate(w.current) {
		return false
	}
	if w.current < StepReview {
		w.current++
	}
	return true
}

// Previous always succeeds and never validates.
func (w *Wizard) Previous() {
	if w.current > StepBasicInfo {
		w.current--
	}
}

// Save re-runs the builder validation and hands out the accumulated
// rule. The wizard stays usable on failure so the user can fix and
// retry.
func (w *Wizard) Save() (bot.BotResponse, bool) {
	if !w.validate(StepBuilder) {
		return bot.BotResponse{}, false
	}
	return w.draft, true
}

// Cancel discards the session's accumulated state.
func (w *Wizard) Cancel() {
	deviceID := w.draft.DeviceID
	*w = *New(deviceID)
}

func (w *Wizard) validate(step Step) bool {
	w.errors = map[string]string{}
	switch step {
	case StepBasicInfo:
		if strings.TrimSpace(w.draft.Name) == "" {
			w.errors["name"] = "Name is required"
		}
	case StepTrigger:
		if err := bot.ValidateTrigger(w.draft.TriggerType, w.draft.TriggerValue); err != nil {
			w.errors["triggerValue"] = err.Error()
		}
	case StepResponseType:
		// pure selection, nothing to validate
	case StepBuilder:
		if w.draft.ResponseType == bot.ResponseText && strings.TrimSpace(w.draft.ResponseData.Text) == "" {
			w.errors["responseData"] = "Response text is required"
		}
	case StepReview:
		// review renders the draft; saving re-validates the builder
	}
	return len(w.errors) == 0
}
