// Package builder provides the per-type edit surfaces behind the
// wizard's Response Builder step. Each builder owns exactly one variant
// of the response payload union. Array edits always replace the whole
// array, and every mutation pushes the complete variant through a
// single OnChange callback, so the parent never sees a half-edited
// object.
package builder

import (
	"strconv"
	"time"

	"whatsapp-console/internal/bot"
)

// clock is swapped in tests to make generated ids deterministic.
var clock = time.Now

// ids are derived from the edit timestamp, matching what the platform
// API expects from console-authored buttons and steps.
func newID(prefix string) string {
	return prefix + "_" + strconv.FormatInt(clock().UnixNano(), 10)
}

type QuickReplyBuilder struct {
	data     bot.QuickReplyData
	onChange func(bot.QuickReplyData)
}

func NewQuickReplyBuilder(initial *bot.QuickReplyData, onChange func(bot.QuickReplyData)) *QuickReplyBuilder {
	b := &QuickReplyBuilder{onChange: onChange}
	if initial != nil {
		b.data = *initial
		b.data.Buttons = append([]bot.ReplyButton(nil), initial.Buttons...)
	}
	return b
}

func (b *QuickReplyBuilder) Data() bot.QuickReplyData {
	out := b.data
	out.Buttons = append([]bot.ReplyButton(nil), b.data.Buttons...)
	return out
}

func (b *QuickReplyBuilder) SetHeader(header string) {
	b.data.Header = header
	b.emit()
}

func (b *QuickReplyBuilder) SetBodyText(text string) {
	b.data.Body.Text = text
	b.emit()
}

func (b *QuickReplyBuilder) SetFooter(footer string) {
	b.data.Footer = footer
	b.emit()
}

// AddButton appends a button with a generated id and returns the id.
func (b *QuickReplyBuilder) AddButton(title, description string) string {
	id := newID("btn")
	buttons := append(append([]bot.ReplyButton(nil), b.data.Buttons...), bot.ReplyButton{
		ID:          id,
		Title:       title,
		Description: description,
	})
	b.data.Buttons = buttons
	b.emit()
	return id
}

func (b *QuickReplyBuilder) UpdateButton(index int, title, description string) {
	if index < 0 || index >= len(b.data.Buttons) {
		return
	}
	buttons := append([]bot.ReplyButton(nil), b.data.Buttons...)
	buttons[index].Title = title
	buttons[index].Description = description
	b.data.Buttons = buttons
	b.emit()
}

func (b *QuickReplyBuilder) RemoveButton(index int) {
	if index < 0 || index >= len(b.data.Buttons) {
		return
	}
	buttons := append([]bot.ReplyButton(nil), b.data.Buttons[:index]...)
	buttons = append(buttons, b.data.Buttons[index+1:]...)
	b.data.Buttons = buttons
	b.emit()
}

func (b *QuickReplyBuilder) emit() {
	if b.onChange != nil {
		b.onChange(b.Data())
	}
}
