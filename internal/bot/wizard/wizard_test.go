package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-console/internal/bot"
)

func TestNewDefaults(t *testing.T) {
	w := New("dev-1")

	assert.Equal(t, StepBasicInfo, w.Current())
	draft := w.Draft()
	assert.Equal(t, "dev-1", draft.DeviceID)
	assert.Equal(t, bot.TriggerKeyword, draft.TriggerType)
	assert.Equal(t, bot.ResponseText, draft.ResponseType)
	assert.True(t, draft.IsActive)
}

func TestNextBlocksOnInvalidStep(t *testing.T) {
	w := New("dev-1")

	// empty name cannot leave the first step
	assert.False(t, w.Next())
	assert.Equal(t, StepBasicInfo, w.Current())
	assert.Contains(t, w.Errors(), "name")

	w.SetBasicInfo("greeting", 0, true)
	assert.True(t, w.Next())
	assert.Equal(t, StepTrigger, w.Current())
	assert.Empty(t, w.Errors())
}

func TestTriggerStepRequiresValue(t *testing.T) {
	w := New("dev-1")
	w.SetBasicInfo("greeting", 0, true)
	require.True(t, w.Next())

	w.SetTrigger(bot.TriggerKeyword, "")
	assert.False(t, w.Next())
	assert.Contains(t, w.Errors(), "triggerValue")

	// ALWAYS never needs a value
	w.SetTrigger(bot.TriggerAlways, "")
	assert.True(t, w.Next())
	assert.Equal(t, StepResponseType, w.Current())
}

func TestTextScenarioThroughAllSteps(t *testing.T) {
	w := New("dev-1")

	w.SetBasicInfo("greeting", 5, true)
	require.True(t, w.Next())

	w.SetTrigger(bot.TriggerKeyword, "hello")
	require.True(t, w.Next())

	w.SetResponseType(bot.ResponseText)
	require.True(t, w.Next())
	assert.Equal(t, StepBuilder, w.Current())

	// empty text cannot leave the builder
	assert.False(t, w.Next())
	assert.Contains(t, w.Errors(), "responseData")

	w.SetResponseData(bot.TextData("Hi there!"))
	require.True(t, w.Next())
	assert.Equal(t, StepReview, w.Current())

	draft, ok := w.Save()
	require.True(t, ok)
	assert.Equal(t, "greeting", draft.Name)
	assert.Equal(t, bot.TriggerKeyword, draft.TriggerType)
	assert.Equal(t, "hello", draft.TriggerValue)
	assert.Equal(t, "Hi there!", draft.ResponseData.Text)
	assert.Equal(t, 5, draft.Priority)
}

func TestChangingResponseTypeClearsPayload(t *testing.T) {
	w := New("dev-1")
	w.SetResponseData(bot.TextData("stale"))

	w.SetResponseType(bot.ResponseQuickReply)
	assert.Equal(t, bot.ResponseData{}, w.Draft().ResponseData)

	// re-selecting the same type keeps the payload
	w.SetResponseData(bot.ResponseData{QuickReply: &bot.QuickReplyData{
		Body: bot.QuickBody{Text: "Pick"},
	}})
	w.SetResponseType(bot.ResponseQuickReply)
	assert.NotNil(t, w.Draft().ResponseData.QuickReply)
}

func TestPreviousNeverValidates(t *testing.T) {
	w := New("dev-1")
	w.SetBasicInfo("greeting", 0, true)
	require.True(t, w.Next())

	// invalid trigger state, going back is still allowed
	w.SetTrigger(bot.TriggerKeyword, "")
	w.Previous()
	assert.Equal(t, StepBasicInfo, w.Current())

	// and Previous at the first step stays put
	w.Previous()
	assert.Equal(t, StepBasicInfo, w.Current())
}

func TestSaveRevalidatesBuilder(t *testing.T) {
	w := New("dev-1")
	w.SetBasicInfo("greeting", 0, true)
	w.SetTrigger(bot.TriggerKeyword, "hi")

	// draft reached review with text later blanked out
	w.SetResponseData(bot.TextData(""))
	_, ok := w.Save()
	assert.False(t, ok)
	assert.Contains(t, w.Errors(), "responseData")

	w.SetResponseData(bot.TextData("ok"))
	_, ok = w.Save()
	assert.True(t, ok)
}

func TestEditSeedsFromExistingRule(t *testing.T) {
	existing := bot.BotResponse{
		ID:           "r-1",
		DeviceID:     "dev-1",
		Name:         "menu",
		TriggerType:  bot.TriggerExactMatch,
		TriggerValue: "menu",
		ResponseType: bot.ResponseQuickReply,
		ResponseData: bot.ResponseData{QuickReply: &bot.QuickReplyData{
			Body: bot.QuickBody{Text: "Pick one"},
		}},
		IsActive: true,
	}

	w := Edit(existing)
	assert.Equal(t, StepBasicInfo, w.Current())
	assert.Equal(t, existing, w.Draft())

	draft, ok := w.Save()
	require.True(t, ok)
	assert.Equal(t, "r-1", draft.ID)
}

func TestCancelDiscardsDraft(t *testing.T) {
	w := New("dev-1")
	w.SetBasicInfo("greeting", 0, true)
	require.True(t, w.Next())

	w.Cancel()
	assert.Equal(t, StepBasicInfo, w.Current())
	assert.Empty(t, w.Draft().Name)
	assert.Equal(t, "dev-1", w.Draft().DeviceID)
}

func TestStepNames(t *testing.T) {
	assert.Equal(t, "Basic Info", StepBasicInfo.String())
	assert.Equal(t, "Review & Save", StepReview.String())
	assert.Equal(t, "Unknown", Step(99).String())
}
