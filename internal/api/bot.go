package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"whatsapp-console/internal/bot"
	"whatsapp-console/internal/bot/builder"
	"whatsapp-console/internal/bot/wizard"
	"whatsapp-console/internal/store"
)

// BotHandler backs the bot pages: rule CRUD, the template gallery, the
// dry-run tester, and the authoring wizard. Wizard sessions live in
// memory; canceling or saving ends them.
type BotHandler struct {
	Store *store.Store

	mu       sync.Mutex
	sessions map[string]*botSession
}

// botSession pairs a wizard with the builder for its current response
// type. Builders are created lazily on the first builder op and every
// edit they emit lands in the draft through SetResponseData.
type botSession struct {
	wizard *wizard.Wizard

	quickReply  *builder.QuickReplyBuilder
	multiStep   *builder.MultiStepBuilder
	conditional *builder.ConditionalBuilder
}

// resetBuilders drops builder state after a response-type change; the
// wizard has already discarded the stale payload.
func (s *botSession) resetBuilders() {
	s.quickReply = nil
	s.multiStep = nil
	s.conditional = nil
}

func NewBotHandler(st *store.Store) *BotHandler {
	return &BotHandler{Store: st, sessions: make(map[string]*botSession)}
}

func (h *BotHandler) ListResponses(c *gin.Context) {
	deviceID := c.Param("deviceId")
	if err := h.Store.Bot.Fetch(c.Request.Context(), deviceID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Store.Bot.Snapshot())
}

func (h *BotHandler) DeleteResponse(c *gin.Context) {
	if !confirmed(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Confirmation required to delete a bot response"})
		return
	}
	if err := h.Store.Bot.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Bot response deleted"})
}

func (h *BotHandler) Templates(c *gin.Context) {
	if err := h.Store.Bot.FetchTemplates(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Store.Bot.Snapshot())
}

// Test dry-runs a message against the device's rules. The caller echoes
// back the session from the previous result to continue a multi-step
// conversation.
func (h *BotHandler) Test(c *gin.Context) {
	deviceID := c.Param("deviceId")
	var req struct {
		Message string          `json:"message" binding:"required"`
		Session json.RawMessage `json:"session"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Store.Bot.Test(c.Request.Context(), deviceID, req.Message, req.Session)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- wizard sessions ---

// StartWizard opens an authoring session: fresh for a device, or
// seeded from an existing rule for edit-and-resubmit.
func (h *BotHandler) StartWizard(c *gin.Context) {
	var req struct {
		DeviceID   string `json:"deviceId"`
		ResponseID string `json:"responseId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var w *wizard.Wizard
	switch {
	case req.ResponseID != "":
		existing, ok := h.Store.Bot.Response(req.ResponseID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bot response not found"})
			return
		}
		w = wizard.Edit(existing)
	case req.DeviceID != "":
		w = wizard.New(req.DeviceID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId or responseId is required"})
		return
	}

	sessionID := uuid.NewString()
	h.mu.Lock()
	h.sessions[sessionID] = &botSession{wizard: w}
	h.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"sessionId": sessionID, "state": wizardState(w)})
}

func (h *BotHandler) session(c *gin.Context) (*botSession, bool) {
	h.mu.Lock()
	s, ok := h.sessions[c.Param("sid")]
	h.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wizard session not found"})
	}
	return s, ok
}

func (h *BotHandler) WizardState(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, wizardState(s.wizard))
}

func (h *BotHandler) WizardBasicInfo(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Name     string `json:"name"`
		Priority int    `json:"priority"`
		IsActive bool   `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.wizard.SetBasicInfo(req.Name, req.Priority, req.IsActive)
	c.JSON(http.StatusOK, wizardState(s.wizard))
}

func (h *BotHandler) WizardTrigger(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		TriggerType  bot.TriggerType `json:"triggerType" binding:"required"`
		TriggerValue string          `json:"triggerValue"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.wizard.SetTrigger(req.TriggerType, req.TriggerValue)
	c.JSON(http.StatusOK, wizardState(s.wizard))
}

func (h *BotHandler) WizardResponseType(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		ResponseType bot.ResponseType `json:"responseType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ResponseType != s.wizard.Draft().ResponseType {
		s.resetBuilders()
	}
	s.wizard.SetResponseType(req.ResponseType)
	c.JSON(http.StatusOK, wizardState(s.wizard))
}

// WizardResponseData replaces the draft payload wholesale, for callers
// that assemble it client-side instead of through builder ops. The
// payload is decoded as the draft's current response type; mismatched
// shapes are rejected.
func (h *BotHandler) WizardResponseData(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		ResponseData json.RawMessage `json:"responseData" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := bot.DecodeData(s.wizard.Draft().ResponseType, req.ResponseData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.resetBuilders()
	s.wizard.SetResponseData(data)
	c.JSON(http.StatusOK, wizardState(s.wizard))
}

// builderOp is the single wire shape for every builder edit; which
// fields matter depends on the op.
type builderOp struct {
	Op string `json:"op" binding:"required"`

	Index       int    `json:"index"`
	StepIndex   int    `json:"stepIndex"`
	ButtonIndex int    `json:"buttonIndex"`
	Text        string `json:"text"`
	Header      string `json:"header"`
	Footer      string `json:"footer"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Value       string `json:"value"`
	Message     string `json:"message"`
	InputType   string `json:"inputType"`
	Field       string `json:"field"`
	Operator    string `json:"operator"`
	Condition   string `json:"condition"`
	Response    string `json:"response"`

	Step bot.Step `json:"step"`
}

// WizardBuilder applies one edit through the builder for the draft's
// current response type. Every edit pushes the complete payload back
// into the draft, so the review step always renders the latest state.
func (h *BotHandler) WizardBuilder(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req builderOp
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var applied bool
	switch s.wizard.Draft().ResponseType {
	case bot.ResponseText:
		applied = req.Op == "setText"
		if applied {
			s.wizard.SetResponseData(bot.TextData(req.Text))
		}
	case bot.ResponseQuickReply:
		applied = h.applyQuickReplyOp(s, req)
	case bot.ResponseMultiStep:
		applied = h.applyMultiStepOp(s, req)
	case bot.ResponseConditional:
		applied = h.applyConditionalOp(s, req)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "No builder for response type " + string(s.wizard.Draft().ResponseType)})
		return
	}
	if !applied {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown builder op " + req.Op})
		return
	}
	c.JSON(http.StatusOK, wizardState(s.wizard))
}

func (h *BotHandler) applyQuickReplyOp(s *botSession, req builderOp) bool {
	if s.quickReply == nil {
		s.quickReply = builder.NewQuickReplyBuilder(s.wizard.Draft().ResponseData.QuickReply,
			func(d bot.QuickReplyData) {
				s.wizard.SetResponseData(bot.ResponseData{QuickReply: &d})
			})
	}
	b := s.quickReply
	switch req.Op {
	case "setHeader":
		b.SetHeader(req.Header)
	case "setBody":
		b.SetBodyText(req.Text)
	case "setFooter":
		b.SetFooter(req.Footer)
	case "addButton":
		b.AddButton(req.Title, req.Description)
	case "updateButton":
		b.UpdateButton(req.Index, req.Title, req.Description)
	case "removeButton":
		b.RemoveButton(req.Index)
	default:
		return false
	}
	return true
}

func (h *BotHandler) applyMultiStepOp(s *botSession, req builderOp) bool {
	if s.multiStep == nil {
		s.multiStep = builder.NewMultiStepBuilder(s.wizard.Draft().ResponseData.MultiStep,
			func(d bot.MultiStepData) {
				s.wizard.SetResponseData(bot.ResponseData{MultiStep: &d})
			})
	}
	b := s.multiStep
	switch req.Op {
	case "addStep":
		b.AddStep(req.Message, req.InputType)
	case "updateStep":
		b.UpdateStep(req.Index, req.Step)
	case "removeStep":
		b.RemoveStep(req.Index)
	case "addStepButton":
		b.AddStepButton(req.StepIndex, req.Title, req.Value)
	case "removeStepButton":
		b.RemoveStepButton(req.StepIndex, req.ButtonIndex)
	default:
		return false
	}
	return true
}

func (h *BotHandler) applyConditionalOp(s *botSession, req builderOp) bool {
	if s.conditional == nil {
		s.conditional = builder.NewConditionalBuilder(s.wizard.Draft().ResponseData.Conditional,
			func(d bot.ConditionalData) {
				s.wizard.SetResponseData(bot.ResponseData{Conditional: &d})
			})
	}
	b := s.conditional
	switch req.Op {
	case "addCondition":
		b.AddCondition(req.Field, req.Operator, req.Value)
	case "updateCondition":
		b.UpdateCondition(req.Index, bot.Condition{Field: req.Field, Operator: req.Operator, Value: req.Value})
	case "removeCondition":
		b.RemoveCondition(req.Index)
	case "addResponse":
		b.AddResponse(req.Condition, req.Response)
	case "updateResponse":
		b.UpdateResponse(req.Index, req.Condition, req.Response)
	case "removeResponse":
		b.RemoveResponse(req.Index)
	default:
		return false
	}
	return true
}

func (h *BotHandler) WizardNext(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if !s.wizard.Next() {
		c.JSON(http.StatusUnprocessableEntity, wizardState(s.wizard))
		return
	}
	c.JSON(http.StatusOK, wizardState(s.wizard))
}

func (h *BotHandler) WizardPrevious(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.wizard.Previous()
	c.JSON(http.StatusOK, wizardState(s.wizard))
}

// WizardSave validates, submits the accumulated rule (create or
// whole-object update), and ends the session on success.
func (h *BotHandler) WizardSave(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	draft, valid := s.wizard.Save()
	if !valid {
		c.JSON(http.StatusUnprocessableEntity, wizardState(s.wizard))
		return
	}

	var saved *bot.BotResponse
	var err error
	if draft.ID == "" {
		saved, err = h.Store.Bot.Create(c.Request.Context(), draft)
	} else {
		saved, err = h.Store.Bot.Update(c.Request.Context(), draft)
	}
	if err != nil {
		// keep the session so the user can fix and retry
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	delete(h.sessions, c.Param("sid"))
	h.mu.Unlock()
	c.JSON(http.StatusOK, saved)
}

// WizardCancel discards the session and everything it accumulated.
func (h *BotHandler) WizardCancel(c *gin.Context) {
	h.mu.Lock()
	delete(h.sessions, c.Param("sid"))
	h.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "Wizard canceled"})
}

func wizardState(w *wizard.Wizard) gin.H {
	return gin.H{
		"step":     int(w.Current()),
		"stepName": w.Current().String(),
		"draft":    bot.Draft{BotResponse: w.Draft()},
		"errors":   w.Errors(),
		"lastStep": int(wizard.StepReview),
	}
}
