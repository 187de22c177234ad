package bot

import (
	"encoding/json"
	"fmt"
	"time"
)

// TriggerType decides how an inbound message is matched against a rule.
type TriggerType string

const (
	TriggerExactMatch TriggerType = "EXACT_MATCH"
	TriggerContains   TriggerType = "CONTAINS"
	TriggerKeyword    TriggerType = "KEYWORD"
	TriggerRegex      TriggerType = "REGEX"
	TriggerAlways     TriggerType = "ALWAYS"
)

// ResponseType discriminates the shape of a rule's response payload.
type ResponseType string

const (
	ResponseText        ResponseType = "TEXT"
	ResponseQuickReply  ResponseType = "QUICK_REPLY"
	ResponseInteractive ResponseType = "INTERACTIVE"
	ResponseMultiStep   ResponseType = "MULTI_STEP"
	ResponseConditional ResponseType = "CONDITIONAL"
)

// BotResponse is one automated reply rule owned by a device. The engine
// that evaluates rules runs on the platform API; the console only
// authors and lists them. Rules are replaced whole on edit, never
// patched field by field.
type BotResponse struct {
	ID           string       `json:"id,omitempty"`
	DeviceID     string       `json:"deviceId"`
	Name         string       `json:"name"`
	TriggerType  TriggerType  `json:"triggerType"`
	TriggerValue string       `json:"triggerValue,omitempty"`
	ResponseType ResponseType `json:"responseType"`
	ResponseData ResponseData `json:"responseData"`
	IsActive     bool         `json:"isActive"`
	Priority     int          `json:"priority"`
	CreatedAt    time.Time    `json:"createdAt,omitempty"`
	UpdatedAt    time.Time    `json:"updatedAt,omitempty"`
}

// QuickReplyData is the QUICK_REPLY payload: a body with optional
// header/footer and tappable buttons.
type QuickReplyData struct {
	Header  string        `json:"header,omitempty"`
	Body    QuickBody     `json:"body"`
	Footer  string        `json:"footer,omitempty"`
	Buttons []ReplyButton `json:"buttons"`
}

type QuickBody struct {
	Text string `json:"text"`
}

type ReplyButton struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// MultiStepData is the MULTI_STEP payload: an ordered conversation.
// Step order is the array index; there is no separate ordering field.
type MultiStepData struct {
	Steps []Step `json:"steps"`
}

type Step struct {
	ID         string          `json:"id"`
	Message    string          `json:"message"`
	InputType  string          `json:"inputType"` // text, button, number, email
	Validation *StepValidation `json:"validation,omitempty"`
	Buttons    []StepButton    `json:"buttons,omitempty"` // only meaningful for inputType "button"
}

type StepValidation struct {
	Required  bool   `json:"required,omitempty"`
	MinLength int    `json:"minLength,omitempty"`
	MaxLength int    `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
}

type StepButton struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// ConditionalData is the CONDITIONAL payload. A response is paired with
// a condition by its identifier string; the pairing is free-form and
// resolved by the rule engine upstream, not validated here.
type ConditionalData struct {
	Conditions []Condition           `json:"conditions"`
	Responses  []ConditionalResponse `json:"responses"`
}

type Condition struct {
	Field    string `json:"field"`    // message, contact, time
	Operator string `json:"operator"` // equals, contains, startsWith, endsWith, regex
	Value    string `json:"value"`
}

type ConditionalResponse struct {
	Condition string `json:"condition"`
	Response  string `json:"response"`
}

// ResponseData is a tagged union over the response payload variants.
// Exactly one variant is populated; the sibling ResponseType on
// BotResponse names which one. The wire shape is the bare variant
// (TEXT is a plain JSON string), so the struct carries its own
// encode/decode keyed by the discriminant.
type ResponseData struct {
	Text        string
	QuickReply  *QuickReplyData
	MultiStep   *MultiStepData
	Conditional *ConditionalData
	Interactive json.RawMessage // no editor yet, carried opaquely
}

// TextData builds a TEXT variant.
func TextData(text string) ResponseData {
	return ResponseData{Text: text}
}

func (d ResponseData) encode(t ResponseType) (json.RawMessage, error) {
	switch t {
	case ResponseText:
		return json.Marshal(d.Text)
	case ResponseQuickReply:
		if d.QuickReply == nil {
			return nil, fmt.Errorf("responseData: QUICK_REPLY selected but no quick-reply payload set")
		}
		return json.Marshal(d.QuickReply)
	case ResponseMultiStep:
		if d.MultiStep == nil {
			return nil, fmt.Errorf("responseData: MULTI_STEP selected but no steps payload set")
		}
		return json.Marshal(d.MultiStep)
	case ResponseConditional:
		if d.Conditional == nil {
			return nil, fmt.Errorf("responseData: CONDITIONAL selected but no conditions payload set")
		}
		return json.Marshal(d.Conditional)
	case ResponseInteractive:
		if d.Interactive == nil {
			return json.Marshal(nil)
		}
		return d.Interactive, nil
	default:
		return nil, fmt.Errorf("responseData: unknown response type %q", t)
	}
}

// DecodeData parses a raw payload as the variant named by t. Mismatched
// pairs (a TEXT discriminant over an object payload, for instance) are
// rejected.
func DecodeData(t ResponseType, raw json.RawMessage) (ResponseData, error) {
	return decodeResponseData(t, raw)
}

func decodeResponseData(t ResponseType, raw json.RawMessage) (ResponseData, error) {
	var d ResponseData
	if len(raw) == 0 {
		return d, nil
	}
	switch t {
	case ResponseText:
		if err := json.Unmarshal(raw, &d.Text); err != nil {
			return d, fmt.Errorf("responseData: TEXT payload is not a string: %w", err)
		}
	case ResponseQuickReply:
		d.QuickReply = &QuickReplyData{}
		if err := json.Unmarshal(raw, d.QuickReply); err != nil {
			return d, fmt.Errorf("responseData: bad QUICK_REPLY payload: %w", err)
		}
	case ResponseMultiStep:
		d.MultiStep = &MultiStepData{}
		if err := json.Unmarshal(raw, d.MultiStep); err != nil {
			return d, fmt.Errorf("responseData: bad MULTI_STEP payload: %w", err)
		}
	case ResponseConditional:
		d.Conditional = &ConditionalData{}
		if err := json.Unmarshal(raw, d.Conditional); err != nil {
			return d, fmt.Errorf("responseData: bad CONDITIONAL payload: %w", err)
		}
	case ResponseInteractive:
		d.Interactive = append(json.RawMessage(nil), raw...)
	default:
		return d, fmt.Errorf("responseData: unknown response type %q", t)
	}
	return d, nil
}

type botResponseWire struct {
	ID           string          `json:"id,omitempty"`
	DeviceID     string          `json:"deviceId"`
	Name         string          `json:"name"`
	TriggerType  TriggerType     `json:"triggerType"`
	TriggerValue string          `json:"triggerValue,omitempty"`
	ResponseType ResponseType    `json:"responseType"`
	ResponseData json.RawMessage `json:"responseData"`
	IsActive     bool            `json:"isActive"`
	Priority     int             `json:"priority"`
	CreatedAt    *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time      `json:"updatedAt,omitempty"`
}

func (r BotResponse) MarshalJSON() ([]byte, error) {
	data, err := r.ResponseData.encode(r.ResponseType)
	if err != nil {
		return nil, err
	}
	return r.marshalWire(data)
}

func (r BotResponse) marshalWire(data json.RawMessage) ([]byte, error) {
	wire := botResponseWire{
		ID:           r.ID,
		DeviceID:     r.DeviceID,
		Name:         r.Name,
		TriggerType:  r.TriggerType,
		TriggerValue: r.TriggerValue,
		ResponseType: r.ResponseType,
		ResponseData: data,
		IsActive:     r.IsActive,
		Priority:     r.Priority,
	}
	if !r.CreatedAt.IsZero() {
		wire.CreatedAt = &r.CreatedAt
	}
	if !r.UpdatedAt.IsZero() {
		wire.UpdatedAt = &r.UpdatedAt
	}
	return json.Marshal(wire)
}

// Draft renders an in-progress rule. Between selecting a response type
// and the first builder edit the variant payload is legitimately
// absent, so it marshals as null rather than failing the whole object.
// Submission still goes through BotResponse, which rejects a missing
// payload.
type Draft struct {
	BotResponse
}

func (d Draft) MarshalJSON() ([]byte, error) {
	data, err := d.ResponseData.encode(d.ResponseType)
	if err != nil {
		data = json.RawMessage("null")
	}
	return d.BotResponse.marshalWire(data)
}

func (r *BotResponse) UnmarshalJSON(b []byte) error {
	var wire botResponseWire
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	data, err := decodeResponseData(wire.ResponseType, wire.ResponseData)
	if err != nil {
		return err
	}
	r.ID = wire.ID
	r.DeviceID = wire.DeviceID
	r.Name = wire.Name
	r.TriggerType = wire.TriggerType
	r.TriggerValue = wire.TriggerValue
	r.ResponseType = wire.ResponseType
	r.ResponseData = data
	r.IsActive = wire.IsActive
	r.Priority = wire.Priority
	if wire.CreatedAt != nil {
		r.CreatedAt = *wire.CreatedAt
	} else {
		r.CreatedAt = time.Time{}
	}
	if wire.UpdatedAt != nil {
		r.UpdatedAt = *wire.UpdatedAt
	} else {
		r.UpdatedAt = time.Time{}
	}
	return nil
}
