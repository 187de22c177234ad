package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"whatsapp-console/internal/store"
)

type MessageHandler struct {
	Store *store.Store
}

func NewMessageHandler(st *store.Store) *MessageHandler {
	return &MessageHandler{Store: st}
}

func (h *MessageHandler) List(c *gin.Context) {
	deviceID := c.Query("deviceId")
	if deviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId query parameter is required"})
		return
	}
	if err := h.Store.Messages.Fetch(c.Request.Context(), deviceID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Store.Messages.Snapshot())
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req struct {
		DeviceID string `json:"deviceId" binding:"required"`
		To       string `json:"to" binding:"required"`
		Message  string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.Messages.Send(c.Request.Context(), req.DeviceID, req.To, req.Message); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Message sent"})
}

// SendBulk fans one message out to a recipient list. The list may come
// typed in or parsed from an uploaded file; either way an empty list is
// rejected here, before any platform call.
func (h *MessageHandler) SendBulk(c *gin.Context) {
	var req struct {
		DeviceID   string   `json:"deviceId" binding:"required"`
		Recipients []string `json:"recipients"`
		Message    string   `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipients := req.Recipients[:0:0]
	for _, r := range req.Recipients {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}

	result, err := h.Store.Messages.SendBulk(c.Request.Context(), req.DeviceID, recipients, req.Message)
	if err != nil {
		if errors.Is(err, store.ErrNoRecipients) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
