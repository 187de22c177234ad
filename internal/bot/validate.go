package bot

import (
	"fmt"
	"strings"
)

// ValidateTrigger enforces the one hard trigger invariant: every
// trigger except ALWAYS needs a value to match on.
func ValidateTrigger(t TriggerType, value string) error {
	switch t {
	case TriggerExactMatch, TriggerContains, TriggerKeyword, TriggerRegex:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("trigger value is required for %s triggers", t)
		}
	case TriggerAlways:
		// value ignored
	default:
		return fmt.Errorf("unknown trigger type %q", t)
	}
	return nil
}

// Issues reports soft-validation problems that block marking a
// quick-reply payload complete. They do not prevent saving a draft.
func (d QuickReplyData) Issues() []string {
	var issues []string
	if strings.TrimSpace(d.Body.Text) == "" {
		issues = append(issues, "body text is required")
	}
	seen := make(map[string]bool, len(d.Buttons))
	for i, b := range d.Buttons {
		if strings.TrimSpace(b.Title) == "" {
			issues = append(issues, fmt.Sprintf("button %d needs a title", i+1))
		}
		if b.ID == "" {
			issues = append(issues, fmt.Sprintf("button %d is missing an id", i+1))
		} else if seen[b.ID] {
			issues = append(issues, fmt.Sprintf("button id %q is duplicated", b.ID))
		}
		seen[b.ID] = true
	}
	return issues
}

func (d MultiStepData) Issues() []string {
	var issues []string
	for i, s := range d.Steps {
		if strings.TrimSpace(s.Message) == "" {
			issues = append(issues, fmt.Sprintf("step %d needs a message", i+1))
		}
		if s.InputType == "button" && len(s.Buttons) == 0 {
			issues = append(issues, fmt.Sprintf("step %d expects button input but has no buttons", i+1))
		}
	}
	return issues
}

func (d ConditionalData) Issues() []string {
	var issues []string
	for i, c := range d.Conditions {
		if strings.TrimSpace(c.Value) == "" {
			issues = append(issues, fmt.Sprintf("condition %d needs a value", i+1))
		}
	}
	for i, r := range d.Responses {
		if strings.TrimSpace(r.Response) == "" {
			issues = append(issues, fmt.Sprintf("response %d is empty", i+1))
		}
	}
	return issues
}
