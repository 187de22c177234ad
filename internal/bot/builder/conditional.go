package builder

import "whatsapp-console/internal/bot"

type ConditionalBuilder struct {
	data     bot.ConditionalData
	onChange func(bot.ConditionalData)
}

func NewConditionalBuilder(initial *bot.ConditionalData, onChange func(bot.ConditionalData)) *ConditionalBuilder {
	b := &ConditionalBuilder{onChange: onChange}
	if initial != nil {
		b.data.Conditions = append([]bot.Condition(nil), initial.Conditions...)
		b.data.Responses = append([]bot.ConditionalResponse(nil), initial.Responses...)
	}
	return b
}

func (b *ConditionalBuilder) Data() bot.ConditionalData {
	return bot.ConditionalData{
		Conditions: append([]bot.Condition(nil), b.data.Conditions...),
		Responses:  append([]bot.ConditionalResponse(nil), b.data.Responses...),
	}
}

func (b *ConditionalBuilder) AddCondition(field, operator, value string) {
	conditions := append(append([]bot.Condition(nil), b.data.Conditions...), bot.Condition{
		Field:    field,
		Operator: operator,
		Value:    value,
	})
	b.data.Conditions = conditions
	b.emit()
}

func (b *ConditionalBuilder) UpdateCondition(index int, cond bot.Condition) {
	if index < 0 || index >= len(b.data.Conditions) {
		return
	}
	conditions := append([]bot.Condition(nil), b.data.Conditions...)
	conditions[index] = cond
	b.data.Conditions = conditions
	b.emit()
}

func (b *ConditionalBuilder) RemoveCondition(index int) {
	if index < 0 || index >= len(b.data.Conditions) {
		return
	}
	conditions := append([]bot.Condition(nil), b.data.Conditions[:index]...)
	conditions = append(conditions, b.data.Conditions[index+1:]...)
	b.data.Conditions = conditions
	b.emit()
}

// AddResponse pairs a reply with a condition identifier. The pairing is
// a free-form string resolved by the rule engine upstream; the console
// does not cross-check it against the conditions list.
func (b *ConditionalBuilder) AddResponse(condition, response string) {
	responses := append(append([]bot.ConditionalResponse(nil), b.data.Responses...), bot.ConditionalResponse{
		Condition: condition,
		Response:  response,
	})
	b.data.Responses = responses
	b.emit()
}

func (b *ConditionalBuilder) UpdateResponse(index int, condition, response string) {
	if index < 0 || index >= len(b.data.Responses) {
		return
	}
	responses := append([]bot.ConditionalResponse(nil), b.data.Responses...)
	responses[index] = bot.ConditionalResponse{Condition: condition, Response: response}
	b.data.Responses = responses
	b.emit()
}

func (b *ConditionalBuilder) RemoveResponse(index int) {
	if index < 0 || index >= len(b.data.Responses) {
		return
	}
	responses := append([]bot.ConditionalResponse(nil), b.data.Responses[:index]...)
	responses = append(responses, b.data.Responses[index+1:]...)
	b.data.Responses = responses
	b.emit()
}

func (b *ConditionalBuilder) emit() {
	if b.onChange != nil {
		b.onChange(b.Data())
	}
}
