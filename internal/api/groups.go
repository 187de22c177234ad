package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"whatsapp-console/internal/models"
	"whatsapp-console/internal/store"
)

// GroupHandler backs the group monitoring pages. List rows carry the
// owning device's name, joined in from the devices slice at render
// time rather than stored on the group.
type GroupHandler struct {
	Store *store.Store
}

type groupRow struct {
	models.SelectedGroup
	DeviceName string `json:"deviceName,omitempty"`
}

func (h *GroupHandler) rows(groups []models.SelectedGroup) []groupRow {
	rows := make([]groupRow, 0, len(groups))
	for _, g := range groups {
		row := groupRow{SelectedGroup: g}
		if device, ok := h.Store.Devices.Device(g.DeviceID); ok {
			row.DeviceName = device.Name
		}
		rows = append(rows, row)
	}
	return rows
}

func (h *GroupHandler) Available(c *gin.Context) {
	deviceID := c.Param("deviceId")
	if err := h.Store.Groups.FetchAvailable(c.Request.Context(), deviceID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Store.Groups.Snapshot())
}

func (h *GroupHandler) Select(c *gin.Context) {
	var req struct {
		DeviceID string `json:"deviceId" binding:"required"`
		GroupID  string `json:"groupId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.Groups.Select(c.Request.Context(), req.DeviceID, req.GroupID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "Group selected for monitoring"})
}

func (h *GroupHandler) List(c *gin.Context) {
	if err := h.Store.Groups.Fetch(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	snapshot := h.Store.Groups.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"groups":  h.rows(snapshot.Selected),
		"loading": snapshot.Loading,
	})
}

// Update replaces the whole group record; the platform API has no
// field-level patch.
func (h *GroupHandler) Update(c *gin.Context) {
	groupID := c.Param("groupId")
	group, ok := h.Store.Groups.Group(groupID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}
	var req struct {
		IsActive  *bool `json:"isActive"`
		AutoReply *bool `json:"autoReply"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IsActive != nil {
		group.IsActive = *req.IsActive
	}
	if req.AutoReply != nil {
		group.AutoReply = *req.AutoReply
	}
	if err := h.Store.Groups.Update(c.Request.Context(), group); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Group updated"})
}

func (h *GroupHandler) Remove(c *gin.Context) {
	if !confirmed(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Confirmation required to stop monitoring a group"})
		return
	}
	if err := h.Store.Groups.Remove(c.Request.Context(), c.Param("groupId")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Group removed from monitoring"})
}

func (h *GroupHandler) Messages(c *gin.Context) {
	groupID := c.Param("groupId")
	if err := h.Store.Groups.FetchMessages(c.Request.Context(), groupID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	snapshot := h.Store.Groups.Snapshot()
	c.JSON(http.StatusOK, gin.H{"messages": snapshot.Messages[groupID]})
}

func (h *GroupHandler) Send(c *gin.Context) {
	groupID := c.Param("groupId")
	var req struct {
		DeviceID string `json:"deviceId" binding:"required"`
		Message  string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.Groups.Send(c.Request.Context(), req.DeviceID, groupID, req.Message); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Message sent to group"})
}

// Broadcast sends a message to every participant of the group as
// individual chats.
func (h *GroupHandler) Broadcast(c *gin.Context) {
	groupID := c.Param("groupId")
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.Groups.Broadcast(c.Request.Context(), groupID, req.Message); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Broadcast queued"})
}
