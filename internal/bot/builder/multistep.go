package builder

import "whatsapp-console/internal/bot"

type MultiStepBuilder struct {
	data     bot.MultiStepData
	onChange func(bot.MultiStepData)
}

func NewMultiStepBuilder(initial *bot.MultiStepData, onChange func(bot.MultiStepData)) *MultiStepBuilder {
	b := &MultiStepBuilder{onChange: onChange}
	if initial != nil {
		b.data.Steps = copySteps(initial.Steps)
	}
	return b
}

func (b *MultiStepBuilder) Data() bot.MultiStepData {
	return bot.MultiStepData{Steps: copySteps(b.data.Steps)}
}

// AddStep appends a step. Conversation order is the array index, so
// appending places the step last.
func (b *MultiStepBuilder) AddStep(message, inputType string) string {
	id := newID("step")
	steps := append(copySteps(b.data.Steps), bot.Step{
		ID:        id,
		Message:   message,
		InputType: inputType,
	})
	b.data.Steps = steps
	b.emit()
	return id
}

func (b *MultiStepBuilder) UpdateStep(index int, step bot.Step) {
	if index < 0 || index >= len(b.data.Steps) {
		return
	}
	steps := copySteps(b.data.Steps)
	step.ID = steps[index].ID
	if step.InputType != "button" {
		step.Buttons = nil
	}
	steps[index] = step
	b.data.Steps = steps
	b.emit()
}

func (b *MultiStepBuilder) RemoveStep(index int) {
	if index < 0 || index >= len(b.data.Steps) {
		return
	}
	steps := append(copySteps(b.data.Steps[:index]), b.data.Steps[index+1:]...)
	b.data.Steps = steps
	b.emit()
}

// AddStepButton attaches a choice to a button-input step and returns
// the generated button id.
func (b *MultiStepBuilder) AddStepButton(stepIndex int, title, value string) string {
	if stepIndex < 0 || stepIndex >= len(b.data.Steps) {
		return ""
	}
	id := newID("btn")
	steps := copySteps(b.data.Steps)
	steps[stepIndex].Buttons = append(append([]bot.StepButton(nil), steps[stepIndex].Buttons...), bot.StepButton{
		ID:    id,
		Title: title,
		Value: value,
	})
	b.data.Steps = steps
	b.emit()
	return id
}

func (b *MultiStepBuilder) RemoveStepButton(stepIndex, buttonIndex int) {
	if stepIndex < 0 || stepIndex >= len(b.data.Steps) {
		return
	}
	buttons := b.data.Steps[stepIndex].Buttons
	if buttonIndex < 0 || buttonIndex >= len(buttons) {
		return
	}
	steps := copySteps(b.data.Steps)
	kept := append([]bot.StepButton(nil), buttons[:buttonIndex]...)
	kept = append(kept, buttons[buttonIndex+1:]...)
	steps[stepIndex].Buttons = kept
	b.data.Steps = steps
	b.emit()
}

func (b *MultiStepBuilder) emit() {
	if b.onChange != nil {
		b.onChange(b.Data())
	}
}

func copySteps(steps []bot.Step) []bot.Step {
	out := append([]bot.Step(nil), steps...)
	for i := range out {
		out[i].Buttons = append([]bot.StepButton(nil), out[i].Buttons...)
		if len(out[i].Buttons) == 0 {
			out[i].Buttons = nil
		}
		if out[i].Validation != nil {
			v := *out[i].Validation
			out[i].Validation = &v
		}
	}
	return out
}
